// Package domain defines the core entities, enums, and validation rules of
// the research orchestration core: ResearchRun, ContentSource,
// QualityAssessment, IntegrationProposal, ReviewQueueEntry, and AuditEvent.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/r3e-network/research-orchestrator/pkg/orcherrors"
)

// RunStatus is the lifecycle state of a ResearchRun.
type RunStatus string

const (
	RunPending   RunStatus = "PENDING"
	RunRunning   RunStatus = "RUNNING"
	RunCompleted RunStatus = "COMPLETED"
	RunFailed    RunStatus = "FAILED"
	RunCancelled RunStatus = "CANCELLED"
)

// IsTerminal reports whether status is one a run never leaves.
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunCompleted, RunFailed, RunCancelled:
		return true
	default:
		return false
	}
}

// Provenance records who or what created an entity, as an open-ended bag of
// structured values. Every entity carries one.
type Provenance map[string]interface{}

// ResearchRun is the top-level unit of work: a user-supplied topic driven
// through the stage graph to a terminal status.
type ResearchRun struct {
	ID         string
	Topic      string
	Parameters map[string]interface{}
	CreatedBy  string

	Status RunStatus

	StartedAt   *time.Time
	CompletedAt *time.Time

	// SourcesDiscovered, SourcesAssessed, and SourcesApproved are
	// monotonic, non-decreasing counters updated as each stage
	// completes per-source work.
	SourcesDiscovered int
	SourcesAssessed   int
	SourcesApproved   int

	// ErrorDetails is set iff Status == RunFailed, naming the failing
	// stage and error category.
	ErrorDetails string

	Provenance Provenance
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewResearchRun constructs a PENDING run for topic, validating inputs.
func NewResearchRun(topic, createdBy string, parameters map[string]interface{}) (*ResearchRun, error) {
	if err := validateNonEmpty("topic", topic); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if parameters == nil {
		parameters = make(map[string]interface{})
	}
	return &ResearchRun{
		ID:         uuid.New().String(),
		Topic:      topic,
		Parameters: parameters,
		CreatedBy:  createdBy,
		Status:     RunPending,
		Provenance: Provenance{"created_by": createdBy},
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Start transitions a PENDING run to RUNNING, setting StartedAt. It returns
// a Conflict error for any run not currently PENDING — the enforcement
// point for "never re-enters RUNNING" and for research.start's idempotence
// contract.
func (r *ResearchRun) Start(now time.Time) error {
	if r.Status != RunPending {
		return orcherrors.Conflict("research run is not pending").
			WithDetails("run_id", r.ID).
			WithDetails("status", string(r.Status))
	}
	r.Status = RunRunning
	r.StartedAt = &now
	r.UpdatedAt = now
	return nil
}

// Complete transitions a RUNNING run to COMPLETED.
func (r *ResearchRun) Complete(now time.Time) error {
	return r.finish(RunCompleted, now, "")
}

// Fail transitions a RUNNING run to FAILED, recording errorDetails.
func (r *ResearchRun) Fail(now time.Time, errorDetails string) error {
	return r.finish(RunFailed, now, errorDetails)
}

// Cancel transitions a RUNNING (or PENDING) run to CANCELLED.
func (r *ResearchRun) Cancel(now time.Time) error {
	if r.Status.IsTerminal() {
		return orcherrors.Conflict("run already in a terminal status").
			WithDetails("run_id", r.ID).
			WithDetails("status", string(r.Status))
	}
	r.Status = RunCancelled
	r.CompletedAt = &now
	r.UpdatedAt = now
	return nil
}

func (r *ResearchRun) finish(status RunStatus, now time.Time, errorDetails string) error {
	if r.Status != RunRunning {
		return orcherrors.Conflict("run is not running").
			WithDetails("run_id", r.ID).
			WithDetails("status", string(r.Status))
	}
	r.Status = status
	r.CompletedAt = &now
	r.ErrorDetails = errorDetails
	r.UpdatedAt = now
	return nil
}

// AdvanceDiscovered bumps the discovered-sources counter by delta, which
// must be non-negative, preserving monotonicity.
func (r *ResearchRun) AdvanceDiscovered(delta int) {
	if delta > 0 {
		r.SourcesDiscovered += delta
	}
}

// AdvanceAssessed bumps the assessed-sources counter by delta.
func (r *ResearchRun) AdvanceAssessed(delta int) {
	if delta > 0 {
		r.SourcesAssessed += delta
	}
}

// AdvanceApproved bumps the approved-sources counter by delta.
func (r *ResearchRun) AdvanceApproved(delta int) {
	if delta > 0 {
		r.SourcesApproved += delta
	}
}

func validateNonEmpty(field, value string) error {
	if len(value) == 0 {
		return orcherrors.InvalidArgument(field, "must not be empty")
	}
	return nil
}
