package domain

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/r3e-network/research-orchestrator/pkg/orcherrors"
)

// ReviewStatus tracks a ReviewQueueEntry through human review.
type ReviewStatus string

const (
	ReviewPending   ReviewStatus = "PENDING"
	ReviewAssigned  ReviewStatus = "ASSIGNED"
	ReviewApproved  ReviewStatus = "APPROVED"
	ReviewRejected  ReviewStatus = "REJECTED"
	ReviewEscalated ReviewStatus = "ESCALATED"
)

// Decision is the outcome a reviewer records against an entry.
type Decision string

const (
	DecisionApprove  Decision = "APPROVE"
	DecisionReject   Decision = "REJECT"
	DecisionEscalate Decision = "ESCALATE"
)

// ReviewQueueEntry is one item awaiting or having undergone human review.
type ReviewQueueEntry struct {
	ID              string
	ContentSourceID string
	ResearchRunID   string
	AssignedTo      string
	Priority        int

	Status ReviewStatus
	// ReviewNotes is append-only in effect: every mutation appends a new
	// formatted line rather than overwriting prior entries.
	ReviewNotes []string

	Provenance Provenance
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewReviewQueueEntry enqueues a PENDING entry. priority is
// round(10*overall) when assessmentOverall is non-nil, else 5, per the
// priority-on-enqueue rule.
func NewReviewQueueEntry(contentSourceID, runID string, assessmentOverall *float64) *ReviewQueueEntry {
	priority := 5
	if assessmentOverall != nil {
		priority = int(math.Round(10 * *assessmentOverall))
	}
	now := time.Now().UTC()
	return &ReviewQueueEntry{
		ID:              uuid.New().String(),
		ContentSourceID: contentSourceID,
		ResearchRunID:   runID,
		Priority:        priority,
		Status:          ReviewPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// AppendNote appends a "[kind] text" line to ReviewNotes.
func (e *ReviewQueueEntry) AppendNote(kind, text string) {
	e.ReviewNotes = append(e.ReviewNotes, fmt.Sprintf("[%s] %s", kind, text))
}

// Assign transitions PENDING or ESCALATED entries to ASSIGNED.
func (e *ReviewQueueEntry) Assign(assignee string, now time.Time) error {
	switch e.Status {
	case ReviewPending:
		e.AssignedTo = assignee
	case ReviewEscalated:
		previous := e.AssignedTo
		e.AssignedTo = assignee
		e.AppendNote("reassignment", fmt.Sprintf("reassigned from %s to %s", previous, assignee))
	default:
		return orcherrors.Conflict("entry cannot be assigned from its current status").
			WithDetails("entry_id", e.ID).
			WithDetails("status", string(e.Status))
	}
	e.Status = ReviewAssigned
	e.UpdatedAt = now
	return nil
}

// Decide applies a reviewer decision. ESCALATE requires a non-empty reason,
// which becomes the first line of its note per the escalation invariant.
func (e *ReviewQueueEntry) Decide(decision Decision, notes string, now time.Time) error {
	if e.Status != ReviewAssigned {
		return orcherrors.Conflict("entry is not assigned").
			WithDetails("entry_id", e.ID).
			WithDetails("status", string(e.Status))
	}

	switch decision {
	case DecisionApprove:
		e.Status = ReviewApproved
		if notes != "" {
			e.AppendNote("approval", notes)
		}
	case DecisionReject:
		e.Status = ReviewRejected
		if notes != "" {
			e.AppendNote("rejection", notes)
		}
	case DecisionEscalate:
		if notes == "" {
			return orcherrors.InvalidArgument("notes", "escalation requires a reason")
		}
		e.Status = ReviewEscalated
		e.AppendNote("escalation", notes)
	default:
		return orcherrors.InvalidArgument("decision", "unrecognized decision")
	}

	e.UpdatedAt = now
	return nil
}

// Reassign moves an ASSIGNED entry to a different assignee without
// changing its status, recording the change in ReviewNotes.
func (e *ReviewQueueEntry) Reassign(assignee string, now time.Time) error {
	if e.Status != ReviewAssigned {
		return orcherrors.Conflict("only assigned entries can be reassigned").
			WithDetails("entry_id", e.ID).
			WithDetails("status", string(e.Status))
	}
	previous := e.AssignedTo
	e.AssignedTo = assignee
	e.AppendNote("reassignment", fmt.Sprintf("reassigned from %s to %s", previous, assignee))
	e.UpdatedAt = now
	return nil
}
