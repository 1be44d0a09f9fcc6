package discovery

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/r3e-network/research-orchestrator/internal/resilience"
	"github.com/r3e-network/research-orchestrator/pkg/config"
)

type fakeClient struct {
	name    string
	kind    SourceKind
	items   []RawItem
	err     error
	calls   int
}

func (f *fakeClient) Name() string          { return f.name }
func (f *fakeClient) SourceType() SourceKind { return f.kind }
func (f *fakeClient) Search(_ context.Context, _ string, _ int) ([]RawItem, error) {
	f.calls++
	return f.items, f.err
}

func TestCoordinator_DiscoverAll_MixedOutcomes(t *testing.T) {
	ok := &fakeClient{name: "good", kind: SourceWeb, items: []RawItem{{CanonicalID: "u1"}}}
	bad := &fakeClient{name: "bad", kind: SourceNews, err: errors.New("boom")}

	registry := resilience.NewRegistry(config.BreakerConfig{}, nil)
	coord := NewCoordinator([]ExternalClient{ok, bad}, registry, nil)

	results := coord.DiscoverAll(context.Background(), "topic", 10)
	require.Len(t, results, 2)

	assert.False(t, AllUnavailable(results))

	var sawGood, sawBad bool
	for _, r := range results {
		if r.Client == "good" {
			sawGood = true
			assert.NoError(t, r.Err)
			assert.Len(t, r.Items, 1)
		}
		if r.Client == "bad" {
			sawBad = true
			assert.Error(t, r.Err)
		}
	}
	assert.True(t, sawGood)
	assert.True(t, sawBad)
}

func TestCoordinator_AllUnavailable(t *testing.T) {
	a := &fakeClient{name: "a", err: errors.New("down")}
	b := &fakeClient{name: "b", err: errors.New("down")}

	registry := resilience.NewRegistry(config.BreakerConfig{}, nil)
	coord := NewCoordinator([]ExternalClient{a, b}, registry, nil)

	results := coord.DiscoverAll(context.Background(), "topic", 10)
	assert.True(t, AllUnavailable(results))
}

func TestCoordinator_DiscoverSequential_SkipsOpenBreaker(t *testing.T) {
	a := &fakeClient{name: "a", err: errors.New("down")}
	b := &fakeClient{name: "b", items: []RawItem{{CanonicalID: "u1"}}}

	registry := resilience.NewRegistry(config.BreakerConfig{}, nil)
	breaker := registry.Get("a")
	for i := 0; i < 5; i++ {
		_ = breaker.Execute(context.Background(), func() error { return errors.New("down") })
	}
	require.Equal(t, resilience.StateOpen, breaker.State())
	coord := NewCoordinator([]ExternalClient{a, b}, registry, nil)

	result, ok := coord.DiscoverSequential(context.Background(), "topic", 5)
	assert.True(t, ok)
	assert.Equal(t, "b", result.Client)
	assert.Equal(t, 0, a.calls)
}
