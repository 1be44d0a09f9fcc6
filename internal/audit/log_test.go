package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/r3e-network/research-orchestrator/internal/domain"
	"github.com/r3e-network/research-orchestrator/internal/repository"
)

func TestLog_Timeline_OrdersByTimestamp(t *testing.T) {
	repos := repository.NewMemoryRepositories()
	log := New(repos, repos, repos, repos, repos)

	run, err := domain.NewResearchRun("transformers", "tester", nil)
	require.NoError(t, err)
	require.NoError(t, repos.CreateRun(context.Background(), run))

	later := domain.NewAuditEvent(run.ID, domain.EventResearchComplete, domain.LevelInfo, nil)
	later.Timestamp = time.Now().UTC()
	earlier := domain.NewAuditEvent(run.ID, domain.EventResearchStart, domain.LevelInfo, nil)
	earlier.Timestamp = later.Timestamp.Add(-time.Hour)

	require.NoError(t, log.Append(context.Background(), later))
	require.NoError(t, log.Append(context.Background(), earlier))

	timeline, err := log.Timeline(context.Background(), run.ID)
	require.NoError(t, err)
	require.Len(t, timeline, 2)
	assert.Equal(t, domain.EventResearchStart, timeline[0].EventType)
	assert.Equal(t, domain.EventResearchComplete, timeline[1].EventType)
}

func TestLog_Statistics_CountsByTypeAndLevel(t *testing.T) {
	repos := repository.NewMemoryRepositories()
	log := New(repos, repos, repos, repos, repos)

	run, err := domain.NewResearchRun("transformers", "tester", nil)
	require.NoError(t, err)
	require.NoError(t, repos.CreateRun(context.Background(), run))

	require.NoError(t, log.Append(context.Background(), domain.NewAuditEvent(run.ID, domain.EventError, domain.LevelError, nil)))
	require.NoError(t, log.Append(context.Background(), domain.NewAuditEvent(run.ID, domain.EventError, domain.LevelError, nil)))
	require.NoError(t, log.Append(context.Background(), domain.NewAuditEvent(run.ID, domain.EventResearchStart, domain.LevelInfo, nil)))

	stats, err := log.Statistics(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalEvents)
	assert.Equal(t, 2, stats.ByType[domain.EventError])
	assert.Equal(t, 2, stats.ByLevel[domain.LevelError])
}

func TestLog_HealthScore_RewardsSourcesProposalsAndReviewsWhileRunning(t *testing.T) {
	repos := repository.NewMemoryRepositories()
	log := New(repos, repos, repos, repos, repos)

	run, err := domain.NewResearchRun("transformers", "tester", nil)
	require.NoError(t, err)
	require.NoError(t, repos.CreateRun(context.Background(), run))
	require.NoError(t, run.Start(time.Now().UTC()))
	require.NoError(t, repos.UpdateRun(context.Background(), run))

	source, err := domain.NewContentSource(run.ID, domain.SourceWeb, "https://example.com/a", "Title", "x", nil)
	require.NoError(t, err)
	require.NoError(t, repos.CreateSource(context.Background(), source))

	proposal := domain.NewIntegrationProposal(source.ID, run.ID, domain.StrategyBasic, map[string]bool{"create_summary": true}, 0.6, nil, nil)
	require.NoError(t, repos.CreateProposal(context.Background(), proposal))

	entry := domain.NewReviewQueueEntry(source.ID, run.ID, nil)
	require.NoError(t, repos.CreateReviewEntry(context.Background(), entry))

	report, err := log.Report(context.Background(), run.ID)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, report.HealthScore, 0.001)
}

func TestLog_HealthScore_PendingRunIgnoresContentBonuses(t *testing.T) {
	repos := repository.NewMemoryRepositories()
	log := New(repos, repos, repos, repos, repos)

	run, err := domain.NewResearchRun("transformers", "tester", nil)
	require.NoError(t, err)
	require.NoError(t, repos.CreateRun(context.Background(), run))

	report, err := log.Report(context.Background(), run.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0.3, report.HealthScore, 0.001)
}
