// Package resilience provides fault tolerance patterns backed by
// github.com/sony/gobreaker/v2 (circuit breaking) and
// github.com/cenkalti/backoff/v4 (retry with exponential backoff).
//
// It is a thin adapter that keeps a small, stable API surface for the rest
// of the orchestrator while delegating the actual state machine and retry
// math to battle-tested OSS.
package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"
)

// ---------------------------------------------------------------------------
// State
// ---------------------------------------------------------------------------

// State represents circuit breaker state.
type State int

const (
	StateClosed   State = State(gobreaker.StateClosed)
	StateHalfOpen State = State(gobreaker.StateHalfOpen)
	StateOpen     State = State(gobreaker.StateOpen)
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// ---------------------------------------------------------------------------
// Sentinel errors
// ---------------------------------------------------------------------------

var (
	// ErrCircuitOpen is returned when a call is rejected because the
	// breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker is open")
	// ErrTooManyRequests is returned when the half-open probe budget has
	// already been spent.
	ErrTooManyRequests = errors.New("too many requests in half-open state")
)

// ---------------------------------------------------------------------------
// Circuit Breaker
// ---------------------------------------------------------------------------

// Config configures a single named circuit breaker.
type Config struct {
	// FailureThreshold is the number of consecutive failures, while
	// closed, that trips the breaker open.
	FailureThreshold int
	// SuccessThreshold is the number of consecutive successes, while
	// half-open, required to close the breaker again.
	SuccessThreshold int
	// OpenTimeout is how long the breaker stays open before allowing a
	// half-open probe.
	OpenTimeout time.Duration
	// ResetTimeout is how long a success streak must follow the last
	// failure, while closed, before the consecutive-failure count is
	// cleared. A success that lands before ResetTimeout has elapsed since
	// the last failure does not forgive prior failures (spec §4.2).
	ResetTimeout time.Duration
	// HalfOpenMaxRequests caps concurrent probe requests while half-open.
	HalfOpenMaxRequests int
	// OnStateChange is invoked whenever the breaker transitions state.
	OnStateChange func(from, to State)
}

// DefaultConfig mirrors the fallback configuration applied to any external
// service with no dedicated entry in the Registry's table.
func DefaultConfig() Config {
	return Config{
		FailureThreshold:    5,
		SuccessThreshold:    3,
		OpenTimeout:         60 * time.Second,
		ResetTimeout:        300 * time.Second,
		HalfOpenMaxRequests: 1,
	}
}

// CircuitBreaker wraps gobreaker.CircuitBreaker behind a small Execute(ctx,
// fn) surface. ReadyToTrip is driven off its own time-gated consecutive
// failure count rather than gobreaker's built-in Counts, because gobreaker
// clears ConsecutiveFailures on any success regardless of how soon after
// the last failure it occurred — spec §4.2 requires the count to persist
// across successes until ResetTimeout has elapsed since the last failure.
type CircuitBreaker struct {
	name         string
	gb           *gobreaker.CircuitBreaker[any]
	resetTimeout time.Duration

	mu                  sync.Mutex
	consecutiveFailures int
	lastFailureAt       time.Time
}

// New creates a named CircuitBreaker backed by sony/gobreaker.
func New(name string, cfg Config) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 3
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 60 * time.Second
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 300 * time.Second
	}
	if cfg.HalfOpenMaxRequests <= 0 {
		cfg.HalfOpenMaxRequests = 1
	}

	failureThreshold := cfg.FailureThreshold
	// gobreaker closes a half-open breaker once MaxRequests consecutive
	// requests succeed, so SuccessThreshold maps directly onto it.
	halfOpenBudget := uint32(cfg.SuccessThreshold)
	if uint32(cfg.HalfOpenMaxRequests) > halfOpenBudget {
		halfOpenBudget = uint32(cfg.HalfOpenMaxRequests)
	}

	cb := &CircuitBreaker{name: name, resetTimeout: cfg.ResetTimeout}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: halfOpenBudget,
		Interval:    0,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(gobreaker.Counts) bool {
			return cb.failureCount() >= failureThreshold
		},
	}

	settings.OnStateChange = func(_ string, from, to gobreaker.State) {
		if to == gobreaker.StateClosed {
			cb.resetFailures()
		}
		if cfg.OnStateChange != nil {
			cfg.OnStateChange(State(from), State(to))
		}
	}

	cb.gb = gobreaker.NewCircuitBreaker[any](settings)
	return cb
}

// Name returns the breaker's service name.
func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// State returns the current circuit breaker state.
func (cb *CircuitBreaker) State() State {
	return State(cb.gb.State())
}

// Execute runs fn with circuit breaker protection. ctx is accepted so
// callers can thread cancellation into fn itself; gobreaker does not use it
// directly.
func (cb *CircuitBreaker) Execute(_ context.Context, fn func() error) error {
	_, err := cb.gb.Execute(func() (any, error) {
		callErr := fn()
		cb.recordOutcome(callErr)
		return nil, callErr
	})
	if err != nil {
		return mapGobreakerError(err)
	}
	return nil
}

// recordOutcome updates the time-gated consecutive failure count: a
// failure always increments it and stamps lastFailureAt; a success only
// clears it once ResetTimeout has elapsed since the last failure.
func (cb *CircuitBreaker) recordOutcome(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil {
		cb.consecutiveFailures++
		cb.lastFailureAt = time.Now()
		return
	}
	if cb.consecutiveFailures == 0 {
		return
	}
	if cb.lastFailureAt.IsZero() || time.Since(cb.lastFailureAt) >= cb.resetTimeout {
		cb.consecutiveFailures = 0
	}
}

func (cb *CircuitBreaker) failureCount() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.consecutiveFailures
}

func (cb *CircuitBreaker) resetFailures() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.consecutiveFailures = 0
	cb.lastFailureAt = time.Time{}
}

// mapGobreakerError translates gobreaker sentinel errors to our own so
// callers can compare with errors.Is against ErrCircuitOpen /
// ErrTooManyRequests without importing gobreaker.
func mapGobreakerError(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) {
		return ErrCircuitOpen
	}
	if errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrTooManyRequests
	}
	return err
}

// ---------------------------------------------------------------------------
// Retry
// ---------------------------------------------------------------------------

// RetryConfig configures retry behavior.
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Jitter       float64 // 0-1, mapped to backoff.RandomizationFactor
}

// DefaultRetryConfig returns sensible defaults for transient external-call
// failures.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		Jitter:       0.2,
	}
}

// Retry executes fn with exponential backoff via cenkalti/backoff,
// respecting ctx cancellation between attempts.
func Retry(ctx context.Context, cfg RetryConfig, fn func() error) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}

	bo := backoff.NewExponentialBackOff()
	if cfg.InitialDelay > 0 {
		bo.InitialInterval = cfg.InitialDelay
	}
	if cfg.MaxDelay > 0 {
		bo.MaxInterval = cfg.MaxDelay
	}
	if cfg.Multiplier > 0 {
		bo.Multiplier = cfg.Multiplier
	}
	if cfg.Jitter > 0 {
		bo.RandomizationFactor = cfg.Jitter
	} else {
		bo.RandomizationFactor = 0
	}
	bo.MaxElapsedTime = 0

	maxRetries := uint64(cfg.MaxAttempts - 1)
	withMax := backoff.WithMaxRetries(bo, maxRetries)
	withCtx := backoff.WithContext(withMax, ctx)

	return backoff.Retry(func() error {
		return fn()
	}, withCtx)
}
