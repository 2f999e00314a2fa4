package retrieval

import (
	"sort"
	"strings"

	"github.com/sandevgo/tuskmem/internal/core"
)

// Metadata fields inspected by the reranker.
const (
	FieldTitle    = "title"
	FieldRepoPath = "repo_path"
	FieldKeywords = "keywords"
	FieldTopics   = "topics"
)

type fieldWeight struct {
	field   string
	direct  float64
	synonym float64
}

// Topics are curated classification data and weigh the most.
var fieldWeights = []fieldWeight{
	{field: FieldTitle, direct: 0.15, synonym: 0.12},
	{field: FieldRepoPath, direct: 0.10, synonym: 0.08},
	{field: FieldKeywords, direct: 0.20, synonym: 0.15},
	{field: FieldTopics, direct: 0.25, synonym: 0.20},
}

type Reranker struct {
	synonyms SynonymTable
}

func NewReranker(synonyms SynonymTable) *Reranker {
	return &Reranker{synonyms: synonyms}
}

// Rerank boosts matches whose metadata mentions query keywords, then keeps the
// best limit results. The input slice is not modified.
func (r *Reranker) Rerank(query string, matches []core.SearchMatch, limit int) []core.SearchMatch {
	if limit < 0 {
		limit = 0
	}

	kw := ExtractKeywords(query, r.synonyms)
	if kw.Empty() {
		return truncate(matches, limit)
	}

	boosted := make([]core.SearchMatch, len(matches))
	for i, m := range matches {
		boosted[i] = m.WithScore(m.Score + Boost(m.Metadata, kw))
	}

	sort.SliceStable(boosted, func(i, j int) bool {
		return boosted[i].Score > boosted[j].Score
	})

	return truncate(boosted, limit)
}

// Boost is the non-negative score bonus for md. Each keyword found in a field
// adds that field's weight once; repeats of the same keyword in one field do
// not add again.
func Boost(md core.Metadata, kw Keywords) float64 {
	var bonus float64
	for _, fw := range fieldWeights {
		text := strings.ToLower(md.String(fw.field))
		if text == "" {
			continue
		}
		for _, k := range kw.Direct {
			if strings.Contains(text, k) {
				bonus += fw.direct
			}
		}
		for _, s := range kw.Synonyms {
			if strings.Contains(text, s) {
				bonus += fw.synonym
			}
		}
	}
	return bonus
}

func truncate(matches []core.SearchMatch, limit int) []core.SearchMatch {
	n := min(limit, len(matches))
	out := make([]core.SearchMatch, n)
	copy(out, matches[:n])
	return out
}
