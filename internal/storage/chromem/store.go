package chromem

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"strings"

	"github.com/google/uuid"
	chromem "github.com/philippgille/chromem-go"
	"github.com/sandevgo/tuskmem/internal/core"
	"github.com/sandevgo/tuskmem/pkg/log"
)

const DefaultCollection = "documents"

// Store is an embedded core.VectorStore. Documents live in memory and,
// when a path is given, are persisted to disk by chromem.
type Store struct {
	db  *chromem.DB
	col *chromem.Collection
}

// New opens a store. An empty path keeps everything in memory.
func New(path, collection string) (*Store, error) {
	var (
		db  *chromem.DB
		err error
	)
	if path == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(path, true)
		if err != nil {
			return nil, fmt.Errorf("failed to open chromem db: %w", err)
		}
	}

	if collection == "" {
		collection = DefaultCollection
	}
	// Embeddings are always supplied by the caller, so no embedding func.
	col, err := db.GetOrCreateCollection(collection, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open collection %s: %w", collection, err)
	}

	return &Store{db: db, col: col}, nil
}

var _ core.VectorStore = (*Store)(nil)

func (s *Store) Add(ctx context.Context, docs []core.Document) error {
	if len(docs) == 0 {
		return nil
	}

	out := make([]chromem.Document, 0, len(docs))
	for i, doc := range docs {
		if len(doc.Embedding) == 0 {
			return fmt.Errorf("%w: document %d has no embedding", core.ErrValidation, i)
		}
		id := doc.ID
		if id == "" {
			id = uuid.NewString()
		}
		out = append(out, chromem.Document{
			ID:        id,
			Content:   doc.Text,
			Embedding: doc.Embedding,
			Metadata:  encodeMetadata(doc.Metadata),
		})
	}

	if err := s.col.AddDocuments(ctx, out, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}
	return nil
}

func (s *Store) Search(ctx context.Context, q core.VectorQuery) ([]core.SearchMatch, error) {
	if len(q.Vector) == 0 {
		return nil, fmt.Errorf("%w: query vector must not be empty", core.ErrValidation)
	}
	if err := q.Filter.Validate(); err != nil {
		return nil, err
	}

	total := s.col.Count()
	if total == 0 || q.MaxResults <= 0 {
		return []core.SearchMatch{}, nil
	}

	var where map[string]string
	n := min(q.MaxResults, total)
	switch q.Filter.Kind {
	case core.FilterEquals:
		where = map[string]string{q.Filter.Field: q.Filter.Value}
	case core.FilterContainsSubstring:
		// chromem only filters metadata by equality; scan everything and filter here.
		n = total
	}

	results, err := s.col.QueryEmbedding(ctx, q.Vector, n, where, nil)
	if err != nil {
		// An equality filter matching fewer than n documents is reported as an error.
		if where != nil && strings.Contains(err.Error(), "nResults") {
			results, err = s.col.QueryEmbedding(ctx, q.Vector, total, nil, nil)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to query collection: %w", err)
		}
	}

	matches := make([]core.SearchMatch, 0, q.MaxResults)
	for _, r := range results {
		md := decodeMetadata(r.Metadata)
		if !q.Filter.Match(md) {
			continue
		}
		score := (float64(r.Similarity) + 1) / 2
		if score < q.MinScore {
			continue
		}
		matches = append(matches, core.SearchMatch{
			Text:     r.Content,
			SourceID: r.ID,
			Score:    score,
			Metadata: md,
		})
		if len(matches) == q.MaxResults {
			break
		}
	}

	log.FromCtx(ctx).Debug().
		Int("scanned", len(results)).
		Int("matches", len(matches)).
		Msg("chromem search")
	return matches, nil
}

func encodeMetadata(md core.Metadata) map[string]string {
	out := make(map[string]string, len(md))
	for k, v := range md {
		if k == core.EmbeddingKey {
			continue
		}
		if str, ok := v.(string); ok {
			out[k] = str
			continue
		}
		if data, err := json.Marshal(v); err == nil {
			out[k] = string(data)
		}
	}
	return out
}

func decodeMetadata(md map[string]string) core.Metadata {
	out := make(core.Metadata, len(md))
	for k, v := range md {
		if strings.HasPrefix(v, "[") || strings.HasPrefix(v, "{") {
			var decoded any
			if err := json.Unmarshal([]byte(v), &decoded); err == nil {
				out[k] = decoded
				continue
			}
		}
		out[k] = v
	}
	delete(out, core.EmbeddingKey)
	return out
}
