package resilience

import (
	"sync"

	"github.com/r3e-network/research-orchestrator/pkg/config"
	"github.com/r3e-network/research-orchestrator/pkg/logging"
)

// toConfig translates a pkg/config.BreakerServiceConfig, loaded from
// YAML/env, into this package's Config. Zero fields fall through to New's
// own defaulting, so a zero-value config.BreakerConfig (e.g. in tests that
// build a Registry directly) still yields DefaultConfig-equivalent
// breakers.
func toConfig(svc config.BreakerServiceConfig) Config {
	return Config{
		FailureThreshold:    svc.FailureThreshold,
		SuccessThreshold:    svc.SuccessThreshold,
		OpenTimeout:         svc.OpenTimeout,
		ResetTimeout:        svc.ResetTimeout,
		HalfOpenMaxRequests: svc.HalfOpenMaxRequests,
	}
}

// Registry lazily creates and caches one CircuitBreaker per external
// service name, so every call site sharing a service name shares breaker
// state. Breaker tuning comes from the config.BreakerConfig supplied to
// NewRegistry, loaded from YAML/env by pkg/config — spec §4.2's per-service
// failure_threshold/success_threshold/open_timeout/reset_timeout table.
type Registry struct {
	mu       sync.Mutex
	breakers map[string]*CircuitBreaker
	log      *logging.Logger
	cfg      config.BreakerConfig
}

// NewRegistry creates an empty Registry tuned by cfg. log may be nil, in
// which case state-change transitions are not logged.
func NewRegistry(cfg config.BreakerConfig, log *logging.Logger) *Registry {
	return &Registry{
		breakers: make(map[string]*CircuitBreaker),
		log:      log,
		cfg:      cfg,
	}
}

// Get returns the breaker for service, creating it on first use with the
// tuned Config drawn from the Registry's BreakerConfig table.
func (r *Registry) Get(service string) *CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cb, ok := r.breakers[service]; ok {
		return cb
	}

	cfg := toConfig(r.cfg.ForService(service))
	cfg.OnStateChange = r.logStateChange(service)

	cb := New(service, cfg)
	r.breakers[service] = cb
	return cb
}

// AllOpen reports whether every breaker the registry has created so far is
// currently open, which distinguishes a systemic outage from one flaky
// service. It returns false when no breaker has been created yet.
func (r *Registry) AllOpen() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.breakers) == 0 {
		return false
	}
	for _, cb := range r.breakers {
		if cb.State() != StateOpen {
			return false
		}
	}
	return true
}

// States returns a snapshot of every known breaker's current state, keyed
// by service name, for metrics export and status endpoints.
func (r *Registry) States() map[string]State {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]State, len(r.breakers))
	for name, cb := range r.breakers {
		out[name] = cb.State()
	}
	return out
}

func (r *Registry) logStateChange(service string) func(from, to State) {
	return func(from, to State) {
		if r.log == nil {
			return
		}
		level := r.log.WithFields(map[string]interface{}{
			"service":    service,
			"from_state": from.String(),
			"to_state":   to.String(),
		})
		if to == StateOpen {
			level.Warn("circuit breaker opened")
			return
		}
		level.Info("circuit breaker state changed")
	}
}
