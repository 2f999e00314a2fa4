package config

import (
	"context"
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/tuskmem/pkg/log"
)

const (
	VectorBackendPgvector = "pgvector"
	VectorBackendChromem  = "chromem"
)

type RAGConfig struct {
	Enabled      bool    `env:"TUSK_RAG_ENABLED" envDefault:"true"`
	MaxResults   int     `env:"TUSK_RAG_MAX_RESULTS" envDefault:"4"`
	MinScore     float64 `env:"TUSK_RAG_MIN_SCORE" envDefault:"0.82"`
	Rerank       bool    `env:"TUSK_RAG_RERANK" envDefault:"true"`
	SnippetLimit int     `env:"TUSK_RAG_SNIPPET_LIMIT" envDefault:"1400"`

	VectorBackend string `env:"TUSK_VECTOR_BACKEND" envDefault:"chromem"`
	Collection    string `env:"TUSK_VECTOR_COLLECTION" envDefault:"documents"`
	Dimension     int    `env:"TUSK_EMBEDDING_DIMENSION" envDefault:"384"`
}

func LoadRAGConfig() (*RAGConfig, error) {
	c := &RAGConfig{}
	if err := env.Parse(c); err != nil {
		return nil, err
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func NewRAGConfig(ctx context.Context) *RAGConfig {
	c, err := LoadRAGConfig()
	if err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse RAG config")
	}
	return c
}

func (c *RAGConfig) validate() error {
	switch c.VectorBackend {
	case VectorBackendPgvector, VectorBackendChromem:
	default:
		return fmt.Errorf("unknown vector backend %q", c.VectorBackend)
	}
	if c.MaxResults <= 0 {
		return fmt.Errorf("TUSK_RAG_MAX_RESULTS must be positive, got %d", c.MaxResults)
	}
	if c.MinScore < 0 || c.MinScore > 1 {
		return fmt.Errorf("TUSK_RAG_MIN_SCORE must be within [0, 1], got %v", c.MinScore)
	}
	if c.SnippetLimit <= 0 {
		return fmt.Errorf("TUSK_RAG_SNIPPET_LIMIT must be positive, got %d", c.SnippetLimit)
	}
	return nil
}

func (c RAGConfig) IsEnabled() bool { return c.Enabled }
func (c RAGConfig) GetMaxResults() int { return c.MaxResults }
func (c RAGConfig) GetMinScore() float64 { return c.MinScore }
func (c RAGConfig) IsRerankEnabled() bool { return c.Rerank }
func (c RAGConfig) GetSnippetLimit() int { return c.SnippetLimit }
