package orchestrator

import (
	"context"
	"errors"
	"testing"

	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/r3e-network/research-orchestrator/internal/audit"
	"github.com/r3e-network/research-orchestrator/internal/discovery"
	"github.com/r3e-network/research-orchestrator/internal/domain"
	"github.com/r3e-network/research-orchestrator/internal/integration"
	"github.com/r3e-network/research-orchestrator/internal/quality"
	"github.com/r3e-network/research-orchestrator/internal/repository"
	"github.com/r3e-network/research-orchestrator/internal/resilience"
	"github.com/r3e-network/research-orchestrator/internal/review"
	"github.com/r3e-network/research-orchestrator/pkg/config"
)

type fakeClient struct {
	name  string
	kind  discovery.SourceKind
	items []discovery.RawItem
	err   error
}

func (f *fakeClient) Name() string                  { return f.name }
func (f *fakeClient) SourceType() discovery.SourceKind { return f.kind }
func (f *fakeClient) Search(_ context.Context, _ string, _ int) ([]discovery.RawItem, error) {
	return f.items, f.err
}

func newTestOrchestrator(t *testing.T, clients []discovery.ExternalClient) (*Orchestrator, *repository.MemoryRepositories) {
	t.Helper()
	repos := repository.NewMemoryRepositories()

	breakers := resilience.NewRegistry(config.BreakerConfig{}, nil)
	coordinator := discovery.NewCoordinator(clients, breakers, nil)
	scorer := quality.NewQualityScorer(quality.Config{}, nil, breakers, nil)
	analyzer := integration.NewAnalyzer(integration.NewHashEmbedder(32), integration.NewMemoryVectorStore(), repos, nil)
	reviewQueue := review.New(repos, repos, repos, repos, repos, analyzer, nil)
	auditLog := audit.New(repos, repos, repos, repos, repos)

	cfg := config.OrchestratorConfig{StageConcurrency: 4, StageDeadline: 5 * time.Second}
	orch := New(repos, repos, repos, repos, coordinator, scorer, analyzer, reviewQueue, auditLog, cfg, nil, nil)
	return orch, repos
}

func newPendingRun(t *testing.T, repos *repository.MemoryRepositories, topic string) *domain.ResearchRun {
	t.Helper()
	run, err := domain.NewResearchRun(topic, "tester", nil)
	require.NoError(t, err)
	require.NoError(t, repos.CreateRun(context.Background(), run))
	return run
}

func TestOrchestrator_Execute_HappyPath_CompletesAndEnqueuesReview(t *testing.T) {
	client := &fakeClient{name: "web", kind: discovery.SourceWeb, items: []discovery.RawItem{
		{CanonicalID: "https://example.com/a", Title: "Transformer architectures", Description: "A survey of attention mechanisms"},
		{CanonicalID: "https://example.com/b", Title: "Scaling laws for language models", Description: "Empirical scaling trends"},
	}}
	orch, repos := newTestOrchestrator(t, []discovery.ExternalClient{client})
	run := newPendingRun(t, repos, "transformer models")

	got, err := orch.Execute(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunCompleted, got.Status)
	assert.Equal(t, 2, got.SourcesDiscovered)
	assert.NotNil(t, got.CompletedAt)

	entries, err := repos.ListReviewByRun(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	timeline, err := repos.Timeline(context.Background(), run.ID)
	require.NoError(t, err)
	completeEvents := 0
	for _, e := range timeline {
		if e.EventType == domain.EventResearchComplete {
			completeEvents++
			assert.Equal(t, "COMPLETED", e.Payload["final_status"])
		}
	}
	assert.Equal(t, 1, completeEvents)
}

func TestOrchestrator_Execute_DeduplicatesByContentHash(t *testing.T) {
	item := discovery.RawItem{CanonicalID: "https://example.com/a", Title: "Duplicate"}
	clientA := &fakeClient{name: "web", kind: discovery.SourceWeb, items: []discovery.RawItem{item}}
	clientB := &fakeClient{name: "news", kind: discovery.SourceNews, items: []discovery.RawItem{item}}
	orch, repos := newTestOrchestrator(t, []discovery.ExternalClient{clientA, clientB})
	run := newPendingRun(t, repos, "duplicate topic")

	got, err := orch.Execute(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.SourcesDiscovered)

	sources, err := repos.ListSourcesByRun(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Len(t, sources, 1)
}

func TestOrchestrator_Execute_OneClientDownStillSucceeds(t *testing.T) {
	good := &fakeClient{name: "web", kind: discovery.SourceWeb, items: []discovery.RawItem{
		{CanonicalID: "https://example.com/a", Title: "Still discoverable"},
	}}
	bad := &fakeClient{name: "news", kind: discovery.SourceNews, err: errors.New("upstream down")}
	orch, repos := newTestOrchestrator(t, []discovery.ExternalClient{good, bad})
	run := newPendingRun(t, repos, "partial outage")

	got, err := orch.Execute(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunCompleted, got.Status)
	assert.Equal(t, 1, got.SourcesDiscovered)
}

func TestOrchestrator_Execute_AllClientsDown_FailsAfterRecoveryExhausted(t *testing.T) {
	a := &fakeClient{name: "web", kind: discovery.SourceWeb, err: errors.New("down")}
	b := &fakeClient{name: "news", kind: discovery.SourceNews, err: errors.New("down")}
	orch, repos := newTestOrchestrator(t, []discovery.ExternalClient{a, b})
	run := newPendingRun(t, repos, "total outage of everything")

	got, err := orch.Execute(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunFailed, got.Status)
	assert.NotEmpty(t, got.ErrorDetails)

	timeline, err := repos.Timeline(context.Background(), run.ID)
	require.NoError(t, err)
	completeEvents := 0
	for _, e := range timeline {
		if e.EventType == domain.EventResearchComplete {
			completeEvents++
			assert.Equal(t, "FAILED", e.Payload["final_status"])
		}
	}
	assert.Equal(t, 1, completeEvents)
}

func TestOrchestrator_Execute_RecoversViaSimplifiedTopicRetry(t *testing.T) {
	client := &discoverAfterRetryClient{}
	orch, repos := newTestOrchestrator(t, []discovery.ExternalClient{client})
	run := newPendingRun(t, repos, "one two three four five")

	got, err := orch.Execute(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunCompleted, got.Status)
	assert.Equal(t, 1, got.SourcesDiscovered)
}

// discoverAfterRetryClient fails on the first call (the initial full
// topic) and succeeds on every subsequent call, exercising DISCOVER's
// simplified-topic retry recovery path (spec §4.1).
type discoverAfterRetryClient struct {
	calls int
}

func (c *discoverAfterRetryClient) Name() string                    { return "flaky" }
func (c *discoverAfterRetryClient) SourceType() discovery.SourceKind { return discovery.SourceWeb }
func (c *discoverAfterRetryClient) Search(_ context.Context, query string, _ int) ([]discovery.RawItem, error) {
	c.calls++
	if c.calls == 1 {
		return nil, errors.New("transient failure")
	}
	return []discovery.RawItem{{CanonicalID: "https://example.com/retry", Title: "Recovered: " + query}}, nil
}

// failingEmbedder makes every integration.Analyzer.Propose call fail, to
// exercise the PROPOSE stage's zero-success isolation rule.
type failingEmbedder struct{}

func (failingEmbedder) Embed(_ context.Context, _ string) ([]float64, error) {
	return nil, errors.New("embedding service unavailable")
}

func TestOrchestrator_Execute_ProposeFailsRunWhenEveryProposalFails(t *testing.T) {
	client := &fakeClient{name: "web", kind: discovery.SourceWeb, items: []discovery.RawItem{
		{CanonicalID: "https://example.com/a", Title: "Transformer architectures", Description: "A survey"},
	}}

	repos := repository.NewMemoryRepositories()
	breakers := resilience.NewRegistry(config.BreakerConfig{}, nil)
	coordinator := discovery.NewCoordinator([]discovery.ExternalClient{client}, breakers, nil)
	scorer := quality.NewQualityScorer(quality.Config{}, nil, breakers, nil)
	analyzer := integration.NewAnalyzer(failingEmbedder{}, integration.NewMemoryVectorStore(), repos, nil)
	reviewQueue := review.New(repos, repos, repos, repos, repos, analyzer, nil)
	auditLog := audit.New(repos, repos, repos, repos, repos)
	cfg := config.OrchestratorConfig{StageConcurrency: 4, StageDeadline: 5 * time.Second}
	orch := New(repos, repos, repos, repos, coordinator, scorer, analyzer, reviewQueue, auditLog, cfg, nil, nil)

	run := newPendingRun(t, repos, "every proposal fails")

	got, err := orch.Execute(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunFailed, got.Status)
	assert.NotEmpty(t, got.ErrorDetails)
}

func TestOrchestrator_Execute_RejectsConcurrentExecutionOfSameRun(t *testing.T) {
	client := &fakeClient{name: "web", kind: discovery.SourceWeb, items: []discovery.RawItem{
		{CanonicalID: "https://example.com/a", Title: "Item"},
	}}
	orch, repos := newTestOrchestrator(t, []discovery.ExternalClient{client})
	run := newPendingRun(t, repos, "locked run")

	orch.locks.Store(run.ID, struct{}{})
	defer orch.locks.Delete(run.ID)

	_, err := orch.Execute(context.Background(), run.ID)
	require.Error(t, err)
}

func TestOrchestrator_Execute_RejectsNonPendingRun(t *testing.T) {
	client := &fakeClient{name: "web", kind: discovery.SourceWeb, items: []discovery.RawItem{
		{CanonicalID: "https://example.com/a", Title: "Item"},
	}}
	orch, repos := newTestOrchestrator(t, []discovery.ExternalClient{client})
	run := newPendingRun(t, repos, "double execute")

	_, err := orch.Execute(context.Background(), run.ID)
	require.NoError(t, err)

	_, err = orch.Execute(context.Background(), run.ID)
	require.Error(t, err)
}
