package retrieval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sandevgo/tuskmem/internal/core"
	"github.com/sandevgo/tuskmem/internal/metrics"
	"github.com/sandevgo/tuskmem/pkg/log"
)

const (
	overFetchFactor = 5
	minCandidates   = 50
)

type SearchRequest struct {
	// Query is the raw text, used for keyword boosting.
	Query    string
	Vector   []float32
	K        int
	MinScore float64
	Filter   core.Filter
	Rerank   bool
}

// CandidateCount is how many raw matches to fetch for k final results.
func CandidateCount(k int, rerank bool) int {
	if !rerank {
		return k
	}
	return max(k*overFetchFactor, minCandidates)
}

// Engine runs nearest-neighbour queries and optional reranking.
type Engine struct {
	store    core.VectorStore
	reranker *Reranker
	metrics  *metrics.Metrics
}

func NewEngine(store core.VectorStore, reranker *Reranker, m *metrics.Metrics) *Engine {
	return &Engine{store: store, reranker: reranker, metrics: m}
}

// Search returns at most req.K matches, best first. Store failures are
// reported as core.ErrRetrievalDegraded, never as an empty result.
func (e *Engine) Search(ctx context.Context, req SearchRequest) ([]core.SearchMatch, error) {
	if req.K <= 0 {
		return []core.SearchMatch{}, nil
	}
	if err := req.Filter.Validate(); err != nil {
		return nil, err
	}

	rerank := req.Rerank && e.reranker != nil
	start := time.Now()

	raw, err := e.store.Search(ctx, core.VectorQuery{
		Vector:     req.Vector,
		MaxResults: CandidateCount(req.K, rerank),
		MinScore:   req.MinScore,
		Filter:     req.Filter,
	})
	if err != nil {
		if errors.Is(err, core.ErrValidation) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: vector search failed: %w", core.ErrRetrievalDegraded, err)
	}

	var out []core.SearchMatch
	if rerank {
		out = e.reranker.Rerank(req.Query, raw, req.K)
	} else {
		out = truncate(raw, req.K)
	}

	e.metrics.ObserveSearch(rerank, time.Since(start))
	log.FromCtx(ctx).Debug().
		Int("candidates", len(raw)).
		Int("returned", len(out)).
		Bool("reranked", rerank).
		Msg("vector search done")

	return out, nil
}
