package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/r3e-network/research-orchestrator/pkg/orcherrors"
)

func TestNewResearchRun(t *testing.T) {
	run, err := NewResearchRun("transformer architectures", "alice", nil)
	require.NoError(t, err)
	assert.Equal(t, RunPending, run.Status)
	assert.NotEmpty(t, run.ID)
	assert.Nil(t, run.StartedAt)
	assert.Nil(t, run.CompletedAt)
}

func TestNewResearchRun_EmptyTopic(t *testing.T) {
	run, err := NewResearchRun("", "alice", nil)
	assert.Error(t, err)
	assert.Nil(t, run)
	assert.True(t, orcherrors.IsKind(err, orcherrors.KindInvalidArgument))
}

func TestResearchRun_Lifecycle(t *testing.T) {
	run, err := NewResearchRun("quantum computing", "bob", nil)
	require.NoError(t, err)

	now := time.Now().UTC()
	require.NoError(t, run.Start(now))
	assert.Equal(t, RunRunning, run.Status)
	require.NotNil(t, run.StartedAt)
	assert.Nil(t, run.CompletedAt)

	completedAt := now.Add(time.Second)
	require.NoError(t, run.Complete(completedAt))
	assert.Equal(t, RunCompleted, run.Status)
	require.NotNil(t, run.CompletedAt)
	assert.True(t, run.StartedAt.Before(*run.CompletedAt) || run.StartedAt.Equal(*run.CompletedAt))
}

func TestResearchRun_StartTwice_Conflicts(t *testing.T) {
	run, err := NewResearchRun("topic", "bob", nil)
	require.NoError(t, err)

	require.NoError(t, run.Start(time.Now()))
	err = run.Start(time.Now())
	assert.Error(t, err)
	assert.True(t, orcherrors.IsKind(err, orcherrors.KindConflict))
}

func TestResearchRun_FailRequiresRunning(t *testing.T) {
	run, err := NewResearchRun("topic", "bob", nil)
	require.NoError(t, err)

	err = run.Fail(time.Now(), "discover: unavailable")
	assert.Error(t, err)
	assert.True(t, orcherrors.IsKind(err, orcherrors.KindConflict))
}

func TestResearchRun_CountersMonotonic(t *testing.T) {
	run, err := NewResearchRun("topic", "bob", nil)
	require.NoError(t, err)

	run.AdvanceDiscovered(3)
	run.AdvanceDiscovered(-5)
	assert.Equal(t, 3, run.SourcesDiscovered)
}
