package embedding

import (
	"context"
	"fmt"

	"github.com/dgraph-io/ristretto"
	"github.com/sandevgo/tuskmem/internal/core"
	"github.com/sandevgo/tuskmem/pkg/log"
)

// Cached memoizes query vectors. Repeated questions skip the embedding call.
type Cached struct {
	next  core.Embedder
	cache *ristretto.Cache
}

// NewCached caps the cache at roughly maxItems vectors of the given dimension.
func NewCached(next core.Embedder, maxItems int64, dimension int) (*Cached, error) {
	if dimension <= 0 {
		dimension = 384
	}
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxItems * 10,
		MaxCost:     maxItems * int64(dimension) * 4,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding cache: %w", err)
	}
	return &Cached{next: next, cache: cache}, nil
}

func (c *Cached) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := c.cache.Get(text); ok {
		if vec, ok := v.([]float32); ok {
			return clone(vec), nil
		}
	}

	vec, err := c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if !c.cache.Set(text, clone(vec), int64(len(vec))*4) {
		log.FromCtx(ctx).Debug().Msg("embedding cache rejected entry")
	}
	return vec, nil
}

// Wait blocks until buffered writes are visible.
func (c *Cached) Wait() {
	c.cache.Wait()
}

func (c *Cached) Close() error {
	c.cache.Close()
	return nil
}

func clone(vec []float32) []float32 {
	out := make([]float32, len(vec))
	copy(out, vec)
	return out
}
