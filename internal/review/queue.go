// Package review implements ReviewQueue and ReviewProcessor (spec §4.6):
// enqueueing content sources for human review, assignment, decisions, and
// the on_approved integration-proposal trigger.
package review

import (
	"context"
	"time"

	"github.com/r3e-network/research-orchestrator/internal/domain"
	"github.com/r3e-network/research-orchestrator/internal/repository"
	"github.com/r3e-network/research-orchestrator/pkg/logging"
	"github.com/r3e-network/research-orchestrator/pkg/orcherrors"
)

// Analyzer is the subset of internal/integration.Analyzer ReviewProcessor
// needs for on_approved: generate a proposal if none exists yet.
type Analyzer interface {
	Propose(ctx context.Context, source *domain.ContentSource) (*domain.IntegrationProposal, error)
}

// Queue implements enqueue/list/assign/decide/reassign/batch-decide over
// repository.ReviewQueueRepository, and ReviewProcessor's on_approved
// hook over an Analyzer and repository.IntegrationProposalRepository.
type Queue struct {
	entries   repository.ReviewQueueRepository
	proposals repository.IntegrationProposalRepository
	sources   repository.ContentSourceRepository
	runs      repository.ResearchRunRepository
	audit     repository.AuditRepository
	analyzer  Analyzer
	now       func() time.Time
	log       *logging.Logger
}

// New constructs a Queue.
func New(entries repository.ReviewQueueRepository, proposals repository.IntegrationProposalRepository, sources repository.ContentSourceRepository, runs repository.ResearchRunRepository, audit repository.AuditRepository, analyzer Analyzer, log *logging.Logger) *Queue {
	if log == nil {
		log = logging.Default()
	}
	return &Queue{
		entries:   entries,
		proposals: proposals,
		sources:   sources,
		runs:      runs,
		audit:     audit,
		analyzer:  analyzer,
		now:       func() time.Time { return time.Now().UTC() },
		log:       log,
	}
}

// Enqueue creates a PENDING entry for contentSourceID, with priority
// derived from assessmentOverall per spec §4.6's priority-on-enqueue rule.
func (q *Queue) Enqueue(ctx context.Context, contentSourceID, runID string, assessmentOverall *float64) (*domain.ReviewQueueEntry, error) {
	entry := domain.NewReviewQueueEntry(contentSourceID, runID, assessmentOverall)
	if err := q.entries.CreateReviewEntry(ctx, entry); err != nil {
		return nil, err
	}
	q.appendAudit(ctx, runID, domain.EventReviewQueue, domain.LevelInfo, map[string]interface{}{
		"review_entry_id":   entry.ID,
		"content_source_id": contentSourceID,
		"priority":          entry.Priority,
	}, entry.ID)
	return entry, nil
}

// ListByStatus, ListByRun, and ListByAssignee delegate to the repository.
func (q *Queue) ListByStatus(ctx context.Context, status domain.ReviewStatus) ([]*domain.ReviewQueueEntry, error) {
	return q.entries.ListReviewByStatus(ctx, status)
}

func (q *Queue) ListByRun(ctx context.Context, runID string) ([]*domain.ReviewQueueEntry, error) {
	return q.entries.ListReviewByRun(ctx, runID)
}

func (q *Queue) ListByAssignee(ctx context.Context, assignee string) ([]*domain.ReviewQueueEntry, error) {
	return q.entries.ListReviewByAssignee(ctx, assignee)
}

// Assign transitions entry to ASSIGNED.
func (q *Queue) Assign(ctx context.Context, entryID, assignee string) (*domain.ReviewQueueEntry, error) {
	entry, err := q.entries.GetReviewEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if err := entry.Assign(assignee, q.now()); err != nil {
		return nil, err
	}
	if err := q.entries.UpdateReviewEntry(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Reassign moves an ASSIGNED entry to a different assignee.
func (q *Queue) Reassign(ctx context.Context, entryID, assignee string) (*domain.ReviewQueueEntry, error) {
	entry, err := q.entries.GetReviewEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if err := entry.Reassign(assignee, q.now()); err != nil {
		return nil, err
	}
	if err := q.entries.UpdateReviewEntry(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Decide applies a reviewer decision and, on APPROVE, runs
// ReviewProcessor.on_approved (spec §4.6).
func (q *Queue) Decide(ctx context.Context, entryID string, decision domain.Decision, notes string) (*domain.ReviewQueueEntry, error) {
	entry, err := q.entries.GetReviewEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if err := entry.Decide(decision, notes, q.now()); err != nil {
		return nil, err
	}
	if err := q.entries.UpdateReviewEntry(ctx, entry); err != nil {
		return nil, err
	}

	switch decision {
	case domain.DecisionApprove:
		if err := q.onApproved(ctx, entry); err != nil {
			return entry, err
		}
	case domain.DecisionReject:
		q.appendAudit(ctx, entry.ResearchRunID, domain.EventReviewDecision, domain.LevelInfo, map[string]interface{}{
			"review_entry_id": entry.ID,
			"decision":        string(decision),
		}, entry.ID)
	}

	return entry, nil
}

// BatchDecide applies the same decision and notes to every entry id,
// isolating per-entry failures.
func (q *Queue) BatchDecide(ctx context.Context, entryIDs []string, decision domain.Decision, notes string) (decided []*domain.ReviewQueueEntry, failed map[string]error) {
	failed = make(map[string]error)
	for _, id := range entryIDs {
		entry, err := q.Decide(ctx, id, decision, notes)
		if err != nil {
			failed[id] = err
			continue
		}
		decided = append(decided, entry)
	}
	return decided, failed
}

// onApproved generates an IntegrationProposal if one does not already
// exist for the entry's content source, and transitions it to APPROVED —
// spec §4.6's APPROVED-decision trigger.
func (q *Queue) onApproved(ctx context.Context, entry *domain.ReviewQueueEntry) error {
	proposal, err := q.proposals.GetProposalByContentSource(ctx, entry.ContentSourceID)
	if err != nil && !orcherrors.IsKind(err, orcherrors.KindNotFound) {
		return err
	}

	if proposal == nil {
		if q.analyzer == nil || q.sources == nil {
			q.log.WithField("review_entry_id", entry.ID).Warn("no analyzer configured, skipping proposal generation on approval")
		} else {
			source, err := q.sources.GetSource(ctx, entry.ContentSourceID)
			if err != nil {
				return err
			}
			proposal, err = q.analyzer.Propose(ctx, source)
			if err != nil {
				return err
			}
		}
	}

	if proposal != nil && proposal.Status != domain.ProposalApproved {
		proposal.Approve(q.now())
		if err := q.proposals.UpdateProposal(ctx, proposal); err != nil {
			return err
		}
	}

	if err := q.advanceRunApproved(ctx, entry.ResearchRunID); err != nil {
		return err
	}

	q.appendAudit(ctx, entry.ResearchRunID, domain.EventReviewDecision, domain.LevelInfo, map[string]interface{}{
		"review_entry_id": entry.ID,
		"decision":        string(domain.DecisionApprove),
	}, entry.ID)
	return nil
}

// advanceRunApproved bumps the owning run's sources_approved counter —
// spec §3's third ResearchRun counter, alongside sources_discovered and
// sources_assessed.
func (q *Queue) advanceRunApproved(ctx context.Context, runID string) error {
	if q.runs == nil {
		return nil
	}
	run, err := q.runs.GetRun(ctx, runID)
	if err != nil {
		if orcherrors.IsKind(err, orcherrors.KindNotFound) {
			q.log.WithField("run_id", runID).Warn("run not found while advancing approved-sources counter")
			return nil
		}
		return err
	}
	run.AdvanceApproved(1)
	return q.runs.UpdateRun(ctx, run)
}

func (q *Queue) appendAudit(ctx context.Context, runID string, eventType domain.EventType, level domain.EventLevel, payload map[string]interface{}, reviewEntryID string) {
	if q.audit == nil {
		return
	}
	event := domain.NewAuditEvent(runID, eventType, level, payload)
	event.ReviewEntryID = reviewEntryID
	if err := q.audit.Append(ctx, event); err != nil {
		q.log.WithError(err).WithField("run_id", runID).Warn("failed to append audit event")
	}
}
