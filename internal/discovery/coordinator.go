package discovery

import (
	"context"
	"sync"

	"github.com/r3e-network/research-orchestrator/internal/resilience"
	"github.com/r3e-network/research-orchestrator/pkg/tracing"
)

// ClientResult is one ExternalClient's outcome for a single search call.
type ClientResult struct {
	Client     string
	SourceType SourceKind
	Items      []RawItem
	Err        error
}

// Coordinator fans a query out across a fixed set of ExternalClients,
// consulting each client's circuit breaker for admission and reporting
// the outcome back to it — the division of responsibility spec §4.3
// assigns to "the orchestrator/discovery layer" rather than the client
// itself.
type Coordinator struct {
	clients  []ExternalClient
	breakers *resilience.Registry
	tracer   *tracing.Tracer
}

// NewCoordinator builds a Coordinator over the given clients, sharing the
// caller's breaker Registry so breaker state persists across runs.
func NewCoordinator(clients []ExternalClient, breakers *resilience.Registry, tracer *tracing.Tracer) *Coordinator {
	if tracer == nil {
		tracer = tracing.New(nil, "research-orchestrator")
	}
	return &Coordinator{clients: clients, breakers: breakers, tracer: tracer}
}

// DiscoverAll runs every client concurrently, skipping any whose breaker
// is currently open. Each client's outcome — success or error — is
// reported to its breaker regardless of the others' outcomes.
func (c *Coordinator) DiscoverAll(ctx context.Context, query string, perClientLimit int) []ClientResult {
	results := make([]ClientResult, len(c.clients))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i, client := range c.clients {
		i, client := i, client
		breaker := c.breakers.Get(client.Name())
		if breaker.State() == resilience.StateOpen {
			results[i] = ClientResult{Client: client.Name(), SourceType: client.SourceType(), Err: resilience.ErrCircuitOpen}
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			spanCtx, endSpan := c.tracer.StartSpan(ctx, "discovery.client.search", map[string]string{"client": client.Name()})
			var items []RawItem
			err := breaker.Execute(spanCtx, func() error {
				var searchErr error
				items, searchErr = client.Search(spanCtx, query, perClientLimit)
				return searchErr
			})
			endSpan(err)
			mu.Lock()
			results[i] = ClientResult{Client: client.Name(), SourceType: client.SourceType(), Items: items, Err: err}
			mu.Unlock()
		}()
	}

	wg.Wait()
	return results
}

// AllUnavailable reports whether every client failed — the DISCOVER stage
// failure rule in spec §4.1: "if every external client is unavailable,
// the stage fails".
func AllUnavailable(results []ClientResult) bool {
	if len(results) == 0 {
		return true
	}
	for _, r := range results {
		if r.Err == nil {
			return false
		}
	}
	return true
}

// DiscoverSequential iterates clients one at a time, skipping any whose
// breaker is open, and returns the first result carrying at least one
// item. It implements recovery step 2 of spec §4.1's DISCOVER recovery:
// "iterate external clients one at a time ... accept the first that
// returns ≥1 item."
func (c *Coordinator) DiscoverSequential(ctx context.Context, query string, limit int) (ClientResult, bool) {
	for _, client := range c.clients {
		breaker := c.breakers.Get(client.Name())
		if breaker.State() == resilience.StateOpen {
			continue
		}

		var items []RawItem
		err := breaker.Execute(ctx, func() error {
			var searchErr error
			items, searchErr = client.Search(ctx, query, limit)
			return searchErr
		})
		if err == nil && len(items) > 0 {
			return ClientResult{Client: client.Name(), SourceType: client.SourceType(), Items: items}, true
		}
	}
	return ClientResult{}, false
}
