package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/tuskmem/pkg/log"
)

type PostgresConfig struct {
	DSN          string `env:"TUSK_POSTGRES_DSN"`
	MaxOpenConns int    `env:"TUSK_POSTGRES_MAX_OPEN_CONNS" envDefault:"10"`
	// Create the vector extension and documents table on startup
	EnsureSchema bool `env:"TUSK_POSTGRES_ENSURE_SCHEMA" envDefault:"true"`
}

func NewPostgresConfig(ctx context.Context) *PostgresConfig {
	c := &PostgresConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Postgres config")
	}
	return c
}
