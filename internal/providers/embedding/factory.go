package embedding

import (
	"fmt"

	"github.com/sandevgo/tuskmem/internal/config"
	"github.com/sandevgo/tuskmem/internal/core"
)

// New builds the configured embedder, wrapped in a cache when enabled.
// The returned close func is never nil.
func New(cfg *config.EmbeddingConfig) (core.Embedder, func() error, error) {
	var base core.Embedder
	switch cfg.Provider {
	case config.EmbeddingProviderOpenAI:
		base = NewOpenAI(cfg)
	case config.EmbeddingProviderHash:
		base = NewHash(cfg.Dimensions)
	default:
		return nil, nil, fmt.Errorf("unknown embedding provider: %s", cfg.Provider)
	}

	if cfg.CacheSize <= 0 {
		return base, func() error { return nil }, nil
	}

	cached, err := NewCached(base, cfg.CacheSize, cfg.Dimensions)
	if err != nil {
		return nil, nil, err
	}
	return cached, cached.Close, nil
}
