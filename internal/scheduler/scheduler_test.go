package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/r3e-network/research-orchestrator/internal/audit"
	"github.com/r3e-network/research-orchestrator/internal/discovery"
	"github.com/r3e-network/research-orchestrator/internal/domain"
	"github.com/r3e-network/research-orchestrator/internal/integration"
	"github.com/r3e-network/research-orchestrator/internal/orchestrator"
	"github.com/r3e-network/research-orchestrator/internal/quality"
	"github.com/r3e-network/research-orchestrator/internal/repository"
	"github.com/r3e-network/research-orchestrator/internal/resilience"
	"github.com/r3e-network/research-orchestrator/internal/review"
	"github.com/r3e-network/research-orchestrator/pkg/config"
)

type stubClient struct{}

func (stubClient) Name() string                    { return "stub" }
func (stubClient) SourceType() discovery.SourceKind { return discovery.SourceWeb }
func (stubClient) Search(_ context.Context, _ string, _ int) ([]discovery.RawItem, error) {
	return []discovery.RawItem{{CanonicalID: "https://example.com/stub", Title: "stub"}}, nil
}

func newTestScheduler(t *testing.T) (*Scheduler, *repository.MemoryRepositories) {
	t.Helper()
	repos := repository.NewMemoryRepositories()
	breakers := resilience.NewRegistry(config.BreakerConfig{}, nil)
	coordinator := discovery.NewCoordinator([]discovery.ExternalClient{stubClient{}}, breakers, nil)
	scorer := quality.NewQualityScorer(quality.Config{}, nil, breakers, nil)
	analyzer := integration.NewAnalyzer(integration.NewHashEmbedder(32), integration.NewMemoryVectorStore(), repos, nil)
	reviewQueue := review.New(repos, repos, repos, repos, repos, analyzer, nil)
	auditLog := audit.New(repos, repos, repos, repos, repos)
	cfg := config.OrchestratorConfig{StageConcurrency: 2, StageDeadline: 5 * time.Second}
	orch := orchestrator.New(repos, repos, repos, repos, coordinator, scorer, analyzer, reviewQueue, auditLog, cfg, nil, nil)

	return New(repos, orch, nil), repos
}

func TestScheduler_Register_ComputesNextRun(t *testing.T) {
	s, _ := newTestScheduler(t)

	trigger, err := s.Register("daily-transformers", "transformer models", "scheduler", "0 6 * * *", nil)
	require.NoError(t, err)
	assert.False(t, trigger.NextRun.IsZero())
	assert.Len(t, s.List(), 1)
}

func TestScheduler_Register_RejectsInvalidCronExpression(t *testing.T) {
	s, _ := newTestScheduler(t)

	_, err := s.Register("bad", "topic", "scheduler", "not a cron expression", nil)
	require.Error(t, err)
}

func TestScheduler_Unregister_RemovesTrigger(t *testing.T) {
	s, _ := newTestScheduler(t)

	_, err := s.Register("one-off", "topic", "scheduler", "*/5 * * * *", nil)
	require.NoError(t, err)
	require.Len(t, s.List(), 1)

	s.Unregister("one-off")
	assert.Empty(t, s.List())
}

func TestScheduler_FireDue_CreatesAndExecutesRun(t *testing.T) {
	s, repos := newTestScheduler(t)

	trigger, err := s.Register("immediate", "scheduled topic", "scheduler", "* * * * *", nil)
	require.NoError(t, err)
	trigger.NextRun = time.Now().UTC().Add(-time.Minute)

	s.fireDue(context.Background())

	require.Eventually(t, func() bool {
		runs, err := repos.ListRunsByStatus(context.Background(), domain.RunCompleted)
		return err == nil && len(runs) == 1
	}, time.Second, 10*time.Millisecond)
}
