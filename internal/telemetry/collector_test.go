package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/r3e-network/research-orchestrator/internal/domain"
	"github.com/r3e-network/research-orchestrator/internal/repository"
)

func TestCollector_Run_ComputesDurationsAndQualityStats(t *testing.T) {
	repos := repository.NewMemoryRepositories()
	collector := New(repos, repos, repos)

	run, err := domain.NewResearchRun("transformers", "tester", nil)
	require.NoError(t, err)
	require.NoError(t, repos.CreateRun(context.Background(), run))
	require.NoError(t, run.Start(time.Now().UTC()))
	require.NoError(t, repos.UpdateRun(context.Background(), run))

	start := time.Now().UTC()
	startEvent := domain.NewAuditEvent(run.ID, domain.EventResearchStart, domain.LevelInfo, nil)
	startEvent.Timestamp = start
	completeEvent := domain.NewAuditEvent(run.ID, domain.EventResearchComplete, domain.LevelInfo, nil)
	completeEvent.Timestamp = start.Add(5 * time.Second)
	require.NoError(t, repos.Append(context.Background(), startEvent))
	require.NoError(t, repos.Append(context.Background(), completeEvent))

	source, err := domain.NewContentSource(run.ID, domain.SourceWeb, "https://example.com/a", "Title", "x", nil)
	require.NoError(t, err)
	require.NoError(t, repos.CreateSource(context.Background(), source))
	assessment, err := domain.NewQualityAssessment(source.ID, run.ID, 0.8, 0.7, 0.6, 0.5, domain.MethodFallback)
	require.NoError(t, err)
	require.NoError(t, repos.CreateAssessment(context.Background(), assessment))

	require.NoError(t, run.Complete(time.Now().UTC()))
	require.NoError(t, repos.UpdateRun(context.Background(), run))

	metrics, err := collector.Run(context.Background(), run.ID)
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, metrics.Durations.Total)
	assert.Equal(t, 1, metrics.Quality.Count)
	assert.True(t, metrics.Success)
}

func TestSlopeOf_PositiveForIncreasingValues(t *testing.T) {
	slope := slopeOf([]float64{0.1, 0.2, 0.3, 0.4})
	assert.Greater(t, slope, 0.0)
}

func TestSlopeOf_ZeroForSingleValue(t *testing.T) {
	assert.Equal(t, 0.0, slopeOf([]float64{0.5}))
}

func TestSlopeOf_ZeroForConstantValues(t *testing.T) {
	assert.Equal(t, 0.0, slopeOf([]float64{0.5, 0.5, 0.5}))
}
