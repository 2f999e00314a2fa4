package retrieval

import (
	"context"
	"sync"

	"github.com/sandevgo/tuskmem/internal/core"
)

type fakeStore struct {
	mu      sync.Mutex
	matches []core.SearchMatch
	err     error
	queries []core.VectorQuery
}

func (f *fakeStore) Search(ctx context.Context, q core.VectorQuery) ([]core.SearchMatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}

	out := make([]core.SearchMatch, 0, len(f.matches))
	for _, m := range f.matches {
		if m.Score < q.MinScore || !q.Filter.Match(m.Metadata) {
			continue
		}
		out = append(out, m)
		if len(out) == q.MaxResults {
			break
		}
	}
	return out, nil
}

func (f *fakeStore) Add(ctx context.Context, docs []core.Document) error {
	return nil
}

func (f *fakeStore) lastQuery() core.VectorQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries[len(f.queries)-1]
}

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{1, 0}, nil
}

type ragConfig struct {
	enabled    bool
	maxResults int
	minScore   float64
	rerank     bool
}

func (c ragConfig) IsEnabled() bool       { return c.enabled }
func (c ragConfig) GetMaxResults() int    { return c.maxResults }
func (c ragConfig) GetMinScore() float64  { return c.minScore }
func (c ragConfig) IsRerankEnabled() bool { return c.rerank }
func (c ragConfig) GetSnippetLimit() int  { return DefaultSnippetLimit }

func match(id string, score float64, md core.Metadata) core.SearchMatch {
	return core.SearchMatch{Text: "text of " + id, SourceID: id, Score: score, Metadata: md}
}
