package review

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/r3e-network/research-orchestrator/internal/domain"
	"github.com/r3e-network/research-orchestrator/internal/repository"
)

type fakeAnalyzer struct {
	called bool
}

func (f *fakeAnalyzer) Propose(_ context.Context, source *domain.ContentSource) (*domain.IntegrationProposal, error) {
	f.called = true
	return domain.NewIntegrationProposal(source.ID, source.ResearchRunID, domain.StrategyBasic, map[string]bool{"create_summary": true}, 0.5, nil, nil), nil
}

func newTestQueue(t *testing.T, analyzer Analyzer) (*Queue, *repository.MemoryRepositories) {
	t.Helper()
	repos := repository.NewMemoryRepositories()
	return New(repos, repos, repos, repos, repos, analyzer, nil), repos
}

func TestQueue_Enqueue_SetsPriorityFromAssessment(t *testing.T) {
	queue, _ := newTestQueue(t, nil)
	overall := 0.82

	entry, err := queue.Enqueue(context.Background(), "cs-1", "run-1", &overall)
	require.NoError(t, err)
	assert.Equal(t, 8, entry.Priority)
	assert.Equal(t, domain.ReviewPending, entry.Status)
}

func TestQueue_Enqueue_DefaultsPriorityWithoutAssessment(t *testing.T) {
	queue, _ := newTestQueue(t, nil)
	entry, err := queue.Enqueue(context.Background(), "cs-1", "run-1", nil)
	require.NoError(t, err)
	assert.Equal(t, 5, entry.Priority)
}

func TestQueue_Decide_Approve_GeneratesProposalWhenMissing(t *testing.T) {
	analyzer := &fakeAnalyzer{}
	queue, repos := newTestQueue(t, analyzer)

	source, err := domain.NewContentSource("run-1", domain.SourceWeb, "https://example.com/a", "Title", "x", nil)
	require.NoError(t, err)
	require.NoError(t, repos.CreateSource(context.Background(), source))

	entry, err := queue.Enqueue(context.Background(), source.ID, "run-1", nil)
	require.NoError(t, err)
	_, err = queue.Assign(context.Background(), entry.ID, "alice")
	require.NoError(t, err)

	decided, err := queue.Decide(context.Background(), entry.ID, domain.DecisionApprove, "")
	require.NoError(t, err)
	assert.Equal(t, domain.ReviewApproved, decided.Status)
	assert.True(t, analyzer.called)

	proposal, err := repos.GetProposalByContentSource(context.Background(), source.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ProposalApproved, proposal.Status)
}

func TestQueue_Decide_Approve_AdvancesRunApprovedCounter(t *testing.T) {
	analyzer := &fakeAnalyzer{}
	queue, repos := newTestQueue(t, analyzer)

	run, err := domain.NewResearchRun("topic", "tester", nil)
	require.NoError(t, err)
	require.NoError(t, repos.CreateRun(context.Background(), run))

	source, err := domain.NewContentSource(run.ID, domain.SourceWeb, "https://example.com/a", "Title", "x", nil)
	require.NoError(t, err)
	require.NoError(t, repos.CreateSource(context.Background(), source))

	entry, err := queue.Enqueue(context.Background(), source.ID, run.ID, nil)
	require.NoError(t, err)
	_, err = queue.Assign(context.Background(), entry.ID, "alice")
	require.NoError(t, err)

	_, err = queue.Decide(context.Background(), entry.ID, domain.DecisionApprove, "")
	require.NoError(t, err)

	updated, err := repos.GetRun(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.SourcesApproved)
}

func TestQueue_Decide_Escalate_RequiresReason(t *testing.T) {
	queue, _ := newTestQueue(t, nil)
	entry, err := queue.Enqueue(context.Background(), "cs-1", "run-1", nil)
	require.NoError(t, err)
	_, err = queue.Assign(context.Background(), entry.ID, "alice")
	require.NoError(t, err)

	_, err = queue.Decide(context.Background(), entry.ID, domain.DecisionEscalate, "")
	assert.Error(t, err)

	decided, err := queue.Decide(context.Background(), entry.ID, domain.DecisionEscalate, "needs a second opinion")
	require.NoError(t, err)
	assert.Equal(t, domain.ReviewEscalated, decided.Status)
	assert.Contains(t, decided.ReviewNotes[0], "needs a second opinion")
}

func TestQueue_Assign_AfterEscalation_RecordsReassignmentNote(t *testing.T) {
	queue, _ := newTestQueue(t, nil)
	entry, err := queue.Enqueue(context.Background(), "cs-1", "run-1", nil)
	require.NoError(t, err)
	_, err = queue.Assign(context.Background(), entry.ID, "alice")
	require.NoError(t, err)
	_, err = queue.Decide(context.Background(), entry.ID, domain.DecisionEscalate, "needs review")
	require.NoError(t, err)

	reassigned, err := queue.Assign(context.Background(), entry.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, "bob", reassigned.AssignedTo)

	found := false
	for _, note := range reassigned.ReviewNotes {
		if note == "[reassignment] reassigned from alice to bob" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestQueue_BatchDecide_IsolatesPerEntryFailures(t *testing.T) {
	queue, _ := newTestQueue(t, nil)
	entry, err := queue.Enqueue(context.Background(), "cs-1", "run-1", nil)
	require.NoError(t, err)
	_, err = queue.Assign(context.Background(), entry.ID, "alice")
	require.NoError(t, err)

	decided, failed := queue.BatchDecide(context.Background(), []string{entry.ID, "missing-id"}, domain.DecisionReject, "not relevant")
	assert.Len(t, decided, 1)
	assert.Len(t, failed, 1)
	assert.Contains(t, failed, "missing-id")
}
