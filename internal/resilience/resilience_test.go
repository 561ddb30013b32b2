package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBackend = errors.New("backend down")

func newTestBreaker(config CircuitBreakerConfig) (*CircuitBreaker, *time.Time) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(config)
	cb.now = func() time.Time { return now }
	return cb, &now
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb, _ := newTestBreaker(CircuitBreakerConfig{FailureThreshold: 3, RecoveryTimeout: time.Minute})

	for i := 0; i < 2; i++ {
		assert.ErrorIs(t, cb.Call(func() error { return errBackend }), errBackend)
		assert.Equal(t, StateClosed, cb.State())
	}
	assert.ErrorIs(t, cb.Call(func() error { return errBackend }), errBackend)
	assert.Equal(t, StateOpen, cb.State())

	called := false
	err := cb.Call(func() error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestCircuitBreaker_SuccessResetsFailures(t *testing.T) {
	cb, _ := newTestBreaker(CircuitBreakerConfig{FailureThreshold: 2})

	_ = cb.Call(func() error { return errBackend })
	assert.Equal(t, 1, cb.Failures())
	require.NoError(t, cb.Call(func() error { return nil }))
	assert.Equal(t, 0, cb.Failures())
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_Recovery(t *testing.T) {
	tests := []struct {
		name      string
		trial     error
		wantState CircuitBreakerState
	}{
		{name: "trial succeeds", trial: nil, wantState: StateClosed},
		{name: "trial fails", trial: errBackend, wantState: StateOpen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb, now := newTestBreaker(CircuitBreakerConfig{FailureThreshold: 1, RecoveryTimeout: 10 * time.Second})

			_ = cb.Call(func() error { return errBackend })
			require.Equal(t, StateOpen, cb.State())

			*now = now.Add(5 * time.Second)
			assert.False(t, cb.Allow())

			*now = now.Add(6 * time.Second)
			require.True(t, cb.Allow())
			assert.Equal(t, StateHalfOpen, cb.State())

			cb.Record(tt.trial)
			assert.Equal(t, tt.wantState, cb.State())
		})
	}
}

func TestCircuitBreaker_ResetAndStats(t *testing.T) {
	cb, _ := newTestBreaker(CircuitBreakerConfig{FailureThreshold: 1})
	_ = cb.Call(func() error { return errBackend })

	stats := cb.Stats()
	assert.Equal(t, "open", stats["state"])
	assert.Equal(t, 1, stats["failures"])

	cb.Reset()
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, "closed", cb.Stats()["state"])
}

func fastRetry(attempts int) RetryConfig {
	cfg := DefaultRetryConfig()
	cfg.MaxAttempts = attempts
	cfg.InitialDelay = time.Millisecond
	cfg.JitterEnabled = false
	return cfg
}

func TestRetryWithConfig(t *testing.T) {
	permanent := errors.New("permanent")

	tests := []struct {
		name      string
		failures  int
		err       error
		attempts  int
		wantCalls int
		wantErr   error
	}{
		{name: "first try", failures: 0, attempts: 3, wantCalls: 1},
		{name: "succeeds on retry", failures: 2, err: errBackend, attempts: 3, wantCalls: 3},
		{name: "gives up", failures: 5, err: errBackend, attempts: 3, wantCalls: 3, wantErr: errBackend},
		{name: "non-retryable", failures: 5, err: permanent, attempts: 3, wantCalls: 1, wantErr: permanent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := fastRetry(tt.attempts)
			cfg.RetryableErrors = func(err error) bool { return !errors.Is(err, permanent) }

			calls := 0
			err := RetryWithConfig(context.Background(), cfg, func() error {
				calls++
				if calls <= tt.failures {
					return tt.err
				}
				return nil
			})

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRetry_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := RetryWithConfig(ctx, fastRetry(3), func() error {
		calls++
		return errBackend
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(errBackend))
	assert.False(t, IsRetryable(context.Canceled))
	assert.False(t, IsRetryable(context.DeadlineExceeded))
}

func TestCalculateDelay(t *testing.T) {
	cfg := RetryConfig{InitialDelay: 100 * time.Millisecond, MaxDelay: time.Second, BackoffFactor: 2}

	assert.Equal(t, 100*time.Millisecond, calculateDelay(cfg, 0))
	assert.Equal(t, 400*time.Millisecond, calculateDelay(cfg, 2))
	assert.Equal(t, time.Second, calculateDelay(cfg, 10))

	cfg.JitterEnabled = true
	d := calculateDelay(cfg, 0)
	assert.GreaterOrEqual(t, d, 100*time.Millisecond)
	assert.Less(t, d, 110*time.Millisecond)
}
