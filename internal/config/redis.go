package config

import (
	"context"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/tuskmem/pkg/log"
)

// RedisConfig enables distributed conversation locks. An empty address
// keeps locking in process.
type RedisConfig struct {
	Addr     string        `env:"TUSK_REDIS_ADDR"`
	Password string        `env:"TUSK_REDIS_PASSWORD"`
	DB       int           `env:"TUSK_REDIS_DB" envDefault:"0"`
	LockTTL  time.Duration `env:"TUSK_REDIS_LOCK_TTL" envDefault:"30s"`
}

func NewRedisConfig(ctx context.Context) *RedisConfig {
	c := &RedisConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Redis config")
	}
	return c
}

func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}
