package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/r3e-network/research-orchestrator/pkg/config"
)

var errBoom = errors.New("boom")

func testBreakerConfig() Config {
	return Config{
		FailureThreshold:    3,
		SuccessThreshold:    2,
		OpenTimeout:         20 * time.Millisecond,
		ResetTimeout:        50 * time.Millisecond,
		HalfOpenMaxRequests: 2,
	}
}

func TestCircuitBreaker_ClosedToOpen_OnConsecutiveFailures(t *testing.T) {
	cb := New("svc", testBreakerConfig())

	for i := 0; i < 3; i++ {
		err := cb.Execute(context.Background(), func() error { return errBoom })
		assert.ErrorIs(t, err, errBoom)
	}

	assert.Equal(t, StateOpen, cb.State())
}

func TestCircuitBreaker_Open_RejectsUntilOpenTimeoutElapses(t *testing.T) {
	cfg := testBreakerConfig()
	cb := New("svc", cfg)
	trip(t, cb)

	err := cb.Execute(context.Background(), func() error { return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)

	time.Sleep(cfg.OpenTimeout + 5*time.Millisecond)

	err = cb.Execute(context.Background(), func() error { return nil })
	require.NoError(t, err)
	assert.Equal(t, StateHalfOpen, cb.State())
}

func TestCircuitBreaker_HalfOpen_ClosesAfterSuccessThreshold(t *testing.T) {
	cfg := testBreakerConfig()
	cb := New("svc", cfg)
	trip(t, cb)
	time.Sleep(cfg.OpenTimeout + 5*time.Millisecond)

	for i := 0; i < cfg.SuccessThreshold; i++ {
		err := cb.Execute(context.Background(), func() error { return nil })
		require.NoError(t, err)
	}

	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpen_ReopensOnFailure(t *testing.T) {
	cfg := testBreakerConfig()
	cb := New("svc", cfg)
	trip(t, cb)
	time.Sleep(cfg.OpenTimeout + 5*time.Millisecond)

	err := cb.Execute(context.Background(), func() error { return errBoom })
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, StateOpen, cb.State())
}

func TestCircuitBreaker_Closed_SuccessBeforeResetTimeoutDoesNotClearFailures(t *testing.T) {
	cfg := testBreakerConfig()
	cb := New("svc", cfg)

	require.ErrorIs(t, cb.Execute(context.Background(), func() error { return errBoom }), errBoom)
	require.ErrorIs(t, cb.Execute(context.Background(), func() error { return errBoom }), errBoom)
	require.NoError(t, cb.Execute(context.Background(), func() error { return nil }))
	require.Equal(t, StateClosed, cb.State())

	// The failure count was not reset by the success above, so one more
	// failure trips the breaker instead of requiring three fresh ones.
	require.ErrorIs(t, cb.Execute(context.Background(), func() error { return errBoom }), errBoom)
	assert.Equal(t, StateOpen, cb.State())
}

func TestCircuitBreaker_Closed_SuccessAfterResetTimeoutClearsFailures(t *testing.T) {
	cfg := testBreakerConfig()
	cb := New("svc", cfg)

	require.ErrorIs(t, cb.Execute(context.Background(), func() error { return errBoom }), errBoom)
	require.ErrorIs(t, cb.Execute(context.Background(), func() error { return errBoom }), errBoom)

	time.Sleep(cfg.ResetTimeout + 5*time.Millisecond)
	require.NoError(t, cb.Execute(context.Background(), func() error { return nil }))
	assert.Equal(t, StateClosed, cb.State())

	// Failures were cleared, so it now takes a full fresh streak to trip.
	require.ErrorIs(t, cb.Execute(context.Background(), func() error { return errBoom }), errBoom)
	require.ErrorIs(t, cb.Execute(context.Background(), func() error { return errBoom }), errBoom)
	assert.Equal(t, StateClosed, cb.State())
}

// trip drives cb from CLOSED to OPEN via FailureThreshold consecutive
// failures.
func trip(t *testing.T, cb *CircuitBreaker) {
	t.Helper()
	for i := 0; i < 3; i++ {
		_ = cb.Execute(context.Background(), func() error { return errBoom })
	}
	require.Equal(t, StateOpen, cb.State())
}

func testRegistryConfig() config.BreakerConfig {
	svc := config.BreakerServiceConfig{
		FailureThreshold:    3,
		SuccessThreshold:    2,
		OpenTimeout:         20 * time.Millisecond,
		ResetTimeout:        50 * time.Millisecond,
		HalfOpenMaxRequests: 2,
	}
	return config.BreakerConfig{
		Default: svc,
		Services: map[string]config.BreakerServiceConfig{
			"google_search": svc,
			"news_api":      svc,
		},
	}
}

func TestRegistry_GetIsStablePerService(t *testing.T) {
	r := NewRegistry(testRegistryConfig(), nil)
	a := r.Get("google_search")
	b := r.Get("google_search")
	assert.Same(t, a, b)
}

func TestRegistry_AllOpen_TrueOnlyWhenEveryKnownBreakerIsOpen(t *testing.T) {
	r := NewRegistry(testRegistryConfig(), nil)
	assert.False(t, r.AllOpen())

	a := r.Get("google_search")
	b := r.Get("news_api")
	trip(t, a)
	assert.False(t, r.AllOpen())

	trip(t, b)
	assert.True(t, r.AllOpen())
}
