package memory

import (
	"context"
	"fmt"

	"github.com/sandevgo/tuskmem/internal/core"
	"github.com/sandevgo/tuskmem/internal/metrics"
	"github.com/sandevgo/tuskmem/pkg/log"
)

const DefaultWindowSize = 30

// Memory is the short-term conversation memory used around each turn.
// Writes to one conversation are serialized through the locker.
type Memory struct {
	store      core.MemoryStore
	locker     core.Locker
	windowSize int
	metrics    *metrics.Metrics
}

func NewMemory(store core.MemoryStore, locker core.Locker, windowSize int, m *metrics.Metrics) *Memory {
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}
	return &Memory{
		store:      store,
		locker:     locker,
		windowSize: windowSize,
		metrics:    m,
	}
}

func (s *Memory) Load(ctx context.Context, conversationID string) ([]core.Message, error) {
	msgs, err := s.store.LoadWindow(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load window: %w", err)
	}
	return msgs, nil
}

// Append adds messages after the stored window, evicts the oldest ones and
// persists the result. It returns the window as stored.
func (s *Memory) Append(ctx context.Context, conversationID string, msgs ...core.Message) ([]core.Message, error) {
	var window []core.Message
	err := s.withLock(ctx, conversationID, func() error {
		current, err := s.store.LoadWindow(ctx, conversationID)
		if err != nil {
			return fmt.Errorf("failed to load window: %w", err)
		}

		next := make([]core.Message, 0, len(current)+len(msgs))
		next = append(next, current...)
		next = append(next, msgs...)

		window = s.prepare(next)
		return s.rewrite(ctx, conversationID, window)
	})
	if err != nil {
		return nil, err
	}
	return window, nil
}

// Replace stores msgs as the whole window, subject to eviction.
func (s *Memory) Replace(ctx context.Context, conversationID string, msgs []core.Message) error {
	return s.withLock(ctx, conversationID, func() error {
		return s.rewrite(ctx, conversationID, s.prepare(msgs))
	})
}

func (s *Memory) prepare(msgs []core.Message) []core.Message {
	return SanitizeToolCalls(Evict(msgs, s.windowSize))
}

func (s *Memory) rewrite(ctx context.Context, conversationID string, window []core.Message) error {
	err := s.store.RewriteWindow(ctx, conversationID, window)
	s.metrics.ObserveRewrite(err)
	if err != nil {
		return fmt.Errorf("failed to rewrite window: %w", err)
	}
	return nil
}

func (s *Memory) withLock(ctx context.Context, conversationID string, fn func() error) error {
	unlock, err := s.locker.Lock(ctx, conversationID)
	if err != nil {
		return fmt.Errorf("failed to lock conversation %s: %w", conversationID, err)
	}
	defer unlock()

	log.FromCtx(ctx).Debug().Str("conversation_id", conversationID).Msg("conversation locked")
	return fn()
}
