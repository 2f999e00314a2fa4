package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/sandevgo/tuskmem/internal/config"
	"github.com/sandevgo/tuskmem/internal/core"
	"github.com/sandevgo/tuskmem/internal/service/lock"
	"github.com/sandevgo/tuskmem/internal/storage/chromem"
	"github.com/sandevgo/tuskmem/internal/storage/pgvector"
	"github.com/sandevgo/tuskmem/internal/storage/sqlite"
	"github.com/sandevgo/tuskmem/pkg/log"
	"github.com/sandevgo/tuskmem/pkg/retry"
)

// Provider builds shared store handles on first use and owns them until Close.
type Provider struct {
	app   *config.AppConfig
	rag   *config.RAGConfig
	pg    *config.PostgresConfig
	redis *config.RedisConfig

	retrier *retry.Retrier

	mu      sync.Mutex
	db      *sql.DB
	repo    *sqlite.ConversationRepo
	vectors core.VectorStore
	locker  core.Locker
	closers []func() error
}

func NewProvider(app *config.AppConfig, rag *config.RAGConfig, pg *config.PostgresConfig, rds *config.RedisConfig) *Provider {
	cfg := retry.NewDefaultConfig()
	cfg.Name = "storage connect"

	return &Provider{
		app:     app,
		rag:     rag,
		pg:      pg,
		redis:   rds,
		retrier: retry.NewRetrier(cfg),
	}
}

// Conversations returns the conversation repository backed by the runtime database.
func (p *Provider) Conversations(ctx context.Context) (*sqlite.ConversationRepo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.repo != nil {
		return p.repo, nil
	}

	db, err := sqlite.NewDB(ctx, p.app.GetDatabasePath())
	if err != nil {
		return nil, err
	}
	p.db = db
	p.repo = sqlite.NewConversationRepo(db)
	p.closers = append(p.closers, db.Close)

	log.FromCtx(ctx).Info().Str("path", p.app.GetDatabasePath()).Msg("conversation database ready")
	return p.repo, nil
}

// DB returns the raw conversation database, opening it if needed.
func (p *Provider) DB(ctx context.Context) (*sql.DB, error) {
	if _, err := p.Conversations(ctx); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.db, nil
}

// Vectors returns the configured vector store.
func (p *Provider) Vectors(ctx context.Context) (core.VectorStore, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.vectors != nil {
		return p.vectors, nil
	}

	var (
		store core.VectorStore
		err   error
	)
	switch p.rag.VectorBackend {
	case config.VectorBackendChromem:
		store, err = chromem.New(p.app.GetVectorPath(), p.rag.Collection)
	case config.VectorBackendPgvector:
		store, err = p.openPgvector(ctx)
	default:
		err = fmt.Errorf("%w: unknown vector backend %q", core.ErrValidation, p.rag.VectorBackend)
	}
	if err != nil {
		return nil, err
	}

	p.vectors = store
	log.FromCtx(ctx).Info().Str("backend", p.rag.VectorBackend).Msg("vector store ready")
	return store, nil
}

func (p *Provider) openPgvector(ctx context.Context) (core.VectorStore, error) {
	if p.pg == nil || p.pg.DSN == "" {
		return nil, fmt.Errorf("%w: TUSK_POSTGRES_DSN is required for the pgvector backend", core.ErrValidation)
	}

	db, err := sql.Open("postgres", p.pg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	db.SetMaxOpenConns(p.pg.MaxOpenConns)

	if err := p.retrier.Do(ctx, func() error { return db.PingContext(ctx) }); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	store, err := pgvector.NewStore(db, p.rag.Collection)
	if err != nil {
		db.Close()
		return nil, err
	}
	if p.pg.EnsureSchema {
		if err := store.EnsureSchema(ctx, p.rag.Dimension); err != nil {
			db.Close()
			return nil, err
		}
	}

	p.closers = append(p.closers, db.Close)
	return store, nil
}

// Locker returns the per-conversation lock: Redis when configured, in process otherwise.
func (p *Provider) Locker(ctx context.Context) (core.Locker, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.locker != nil {
		return p.locker, nil
	}

	if p.redis == nil || !p.redis.Enabled() {
		p.locker = lock.NewKeyed()
		return p.locker, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     p.redis.Addr,
		Password: p.redis.Password,
		DB:       p.redis.DB,
	})
	if err := p.retrier.Do(ctx, func() error { return client.Ping(ctx).Err() }); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	p.locker = lock.NewRedis(client, p.redis.LockTTL)
	p.closers = append(p.closers, client.Close)

	log.FromCtx(ctx).Info().Str("addr", p.redis.Addr).Msg("redis locks enabled")
	return p.locker, nil
}

// Close releases handles in reverse order of creation.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	for i := len(p.closers) - 1; i >= 0; i-- {
		if err := p.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	p.closers = nil
	p.db, p.repo, p.vectors, p.locker = nil, nil, nil, nil
	return errors.Join(errs...)
}
