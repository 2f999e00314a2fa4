package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(maxRetries int) *Config {
	return &Config{
		MaxRetries:    maxRetries,
		BackoffFactor: 2.0,
		InitialDelay:  time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		Jitter:        time.Millisecond,
	}
}

func TestRetry_SuccessOnFirstTry(t *testing.T) {
	counter := 0
	err := NewRetrier(fastConfig(3)).Do(context.Background(), func() error {
		counter++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, counter)
}

func TestRetry_SuccessAfterRetries(t *testing.T) {
	counter := 0
	err := NewRetrier(fastConfig(3)).Do(context.Background(), func() error {
		counter++
		if counter < 3 {
			return errors.New("temporary error")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, counter)
}

func TestRetry_MaxRetriesExceeded(t *testing.T) {
	expectedErr := errors.New("permanent error")
	counter := 0
	err := NewRetrier(fastConfig(2)).Do(context.Background(), func() error {
		counter++
		return expectedErr
	})

	require.ErrorIs(t, err, expectedErr)
	// initial try + 2 retries
	assert.Equal(t, 3, counter)
}

func TestRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fastConfig(5)
	cfg.InitialDelay = time.Second
	cfg.MaxDelay = time.Second

	err := NewRetrier(cfg).Do(ctx, func() error {
		cancel()
		return errors.New("operation error after cancel")
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetry_StopsOnNonRetryable(t *testing.T) {
	fatal := errors.New("bad credentials")
	tests := []struct {
		name     string
		cfg      func() *Config
		op       func() error
		attempts int
	}{
		{
			name: "predicate rejects",
			cfg: func() *Config {
				c := fastConfig(4)
				c.Retryable = func(err error) bool { return !errors.Is(err, fatal) }
				return c
			},
			op:       func() error { return fatal },
			attempts: 1,
		},
		{
			name:     "permanent wrapper",
			cfg:      func() *Config { return fastConfig(4) },
			op:       func() error { return Permanent(fatal) },
			attempts: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counter := 0
			err := NewRetrier(tt.cfg()).Do(context.Background(), func() error {
				counter++
				return tt.op()
			})
			require.ErrorIs(t, err, fatal)
			assert.Equal(t, tt.attempts, counter)
		})
	}
}

func TestRetry_BackoffBounds(t *testing.T) {
	cfg := &Config{
		MaxRetries:    2,
		BackoffFactor: 2.0,
		InitialDelay:  20 * time.Millisecond,
		MaxDelay:      time.Second,
		Jitter:        10 * time.Millisecond,
	}

	start := time.Now()
	counter := 0
	_ = NewRetrier(cfg).Do(context.Background(), func() error {
		counter++
		return errors.New("error")
	})
	elapsed := time.Since(start)

	// two sleeps: 20ms and 40ms, each plus up to 10ms jitter
	assert.GreaterOrEqual(t, elapsed, 60*time.Millisecond)
	assert.Equal(t, 3, counter)
}
