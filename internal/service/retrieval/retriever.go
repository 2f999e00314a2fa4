package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sandevgo/tuskmem/internal/core"
	"github.com/sandevgo/tuskmem/internal/metrics"
	"github.com/sandevgo/tuskmem/pkg/log"
	"github.com/sandevgo/tuskmem/pkg/textsplit"
)

// Outcome tells a caller why a message was or was not augmented.
type Outcome string

const (
	OutcomeAugmented Outcome = "augmented"
	OutcomeNoHits    Outcome = "no_hits"
	OutcomeDegraded  Outcome = "degraded"
	OutcomeDisabled  Outcome = "disabled"
	OutcomeSkipped   Outcome = "skipped"
)

type Result struct {
	Message core.Message
	Outcome Outcome
	Matches []core.SearchMatch
	// Err is set for OutcomeDegraded.
	Err error
}

// Retriever ties embedding, search and injection together for one turn.
type Retriever struct {
	embedder core.Embedder
	engine   *Engine
	injector *Injector
	cfg      core.RetrievalConfig
	metrics  *metrics.Metrics
}

func NewRetriever(embedder core.Embedder, engine *Engine, injector *Injector, cfg core.RetrievalConfig, m *metrics.Metrics) *Retriever {
	return &Retriever{
		embedder: embedder,
		engine:   engine,
		injector: injector,
		cfg:      cfg,
		metrics:  m,
	}
}

// Search is the direct lookup used by the search API: no score floor, k results.
// An empty query has no matches.
func (r *Retriever) Search(ctx context.Context, query string, k int, extension string) ([]core.SearchMatch, error) {
	if strings.TrimSpace(query) == "" || k <= 0 {
		return []core.SearchMatch{}, nil
	}

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to embed query: %w", core.ErrRetrievalDegraded, err)
	}

	return r.engine.Search(ctx, SearchRequest{
		Query:    query,
		Vector:   vec,
		K:        k,
		MinScore: 0,
		Filter:   core.ExtensionFilter(extension),
		Rerank:   r.cfg.IsRerankEnabled(),
	})
}

// Augment appends retrieved context to a user message. It never fails: when
// retrieval is unavailable the message is returned unchanged with OutcomeDegraded.
func (r *Retriever) Augment(ctx context.Context, msg *core.Message, extension string) Result {
	in := core.UserMessage("")
	if msg != nil {
		in = *msg
	}

	res := r.augment(ctx, in, extension)
	r.metrics.ObserveRetrieval(string(res.Outcome))
	return res
}

func (r *Retriever) augment(ctx context.Context, msg core.Message, extension string) Result {
	if !r.cfg.IsEnabled() {
		return Result{Message: msg, Outcome: OutcomeDisabled}
	}
	if msg.Role != core.RoleUser {
		return Result{Message: msg, Outcome: OutcomeSkipped}
	}
	if strings.TrimSpace(msg.Content) == "" {
		return Result{Message: msg, Outcome: OutcomeNoHits}
	}

	logger := log.FromCtx(ctx)

	vec, err := r.embedder.Embed(ctx, msg.Content)
	if err != nil {
		return r.degraded(ctx, msg, fmt.Errorf("%w: failed to embed query: %w", core.ErrRetrievalDegraded, err))
	}

	matches, err := r.engine.Search(ctx, SearchRequest{
		Query:    msg.Content,
		Vector:   vec,
		K:        r.cfg.GetMaxResults(),
		MinScore: r.cfg.GetMinScore(),
		Filter:   core.ExtensionFilter(extension),
		Rerank:   r.cfg.IsRerankEnabled(),
	})
	if err != nil {
		if !errors.Is(err, core.ErrRetrievalDegraded) {
			err = fmt.Errorf("%w: %w", core.ErrRetrievalDegraded, err)
		}
		return r.degraded(ctx, msg, err)
	}

	augmented := r.injector.Inject(&msg, matches)
	if augmented.Content == msg.Content {
		return Result{Message: msg, Outcome: OutcomeNoHits, Matches: matches}
	}

	added := textsplit.CountTokens(augmented.Content) - textsplit.CountTokens(msg.Content)
	r.metrics.ObserveContextTokens(added)
	logger.Debug().
		Int("matches", len(matches)).
		Int("context_tokens", added).
		Msg("user message augmented")

	return Result{Message: augmented, Outcome: OutcomeAugmented, Matches: matches}
}

func (r *Retriever) degraded(ctx context.Context, msg core.Message, err error) Result {
	log.FromCtx(ctx).Warn().Err(err).Msg("retrieval unavailable, continuing without context")
	return Result{Message: msg, Outcome: OutcomeDegraded, Err: err}
}
