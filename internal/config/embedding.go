package config

import (
	"context"
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/tuskmem/pkg/log"
)

const (
	EmbeddingProviderOpenAI = "openai"
	EmbeddingProviderHash   = "hash"
)

type EmbeddingConfig struct {
	Provider string `env:"TUSK_EMBEDDING_PROVIDER" envDefault:"hash"`
	BaseURL  string `env:"TUSK_EMBEDDING_BASE_URL" envDefault:"https://api.openai.com/v1"`
	APIKey   string `env:"TUSK_EMBEDDING_API_KEY"`
	Model    string `env:"TUSK_EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`
	// Requested output size; must match the vector store dimension.
	Dimensions int `env:"TUSK_EMBEDDING_DIMENSION" envDefault:"384"`

	// Number of cached query vectors, 0 disables the cache
	CacheSize int64 `env:"TUSK_EMBEDDING_CACHE_SIZE" envDefault:"10000"`
}

func LoadEmbeddingConfig() (*EmbeddingConfig, error) {
	c := &EmbeddingConfig{}
	if err := env.Parse(c); err != nil {
		return nil, err
	}
	switch c.Provider {
	case EmbeddingProviderHash:
	case EmbeddingProviderOpenAI:
		if c.APIKey == "" {
			return nil, fmt.Errorf("TUSK_EMBEDDING_API_KEY is required for the %s provider", c.Provider)
		}
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", c.Provider)
	}
	if c.Dimensions <= 0 {
		return nil, fmt.Errorf("TUSK_EMBEDDING_DIMENSION must be positive, got %d", c.Dimensions)
	}
	return c, nil
}

func NewEmbeddingConfig(ctx context.Context) *EmbeddingConfig {
	c, err := LoadEmbeddingConfig()
	if err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Embedding config")
	}
	return c
}
