// Package repository defines the persistence contracts the orchestrator
// core depends on, plus in-memory fakes used by tests. The persistent
// store schema itself is out of scope (spec §1); every concrete backing
// store is an implementation detail behind these interfaces.
package repository

import (
	"context"
	"time"

	"github.com/r3e-network/research-orchestrator/internal/domain"
)

// ResearchRunRepository persists ResearchRun entities.
type ResearchRunRepository interface {
	CreateRun(ctx context.Context, run *domain.ResearchRun) error
	GetRun(ctx context.Context, id string) (*domain.ResearchRun, error)
	UpdateRun(ctx context.Context, run *domain.ResearchRun) error
	ListRuns(ctx context.Context, skip, limit int) ([]*domain.ResearchRun, error)
	ListRunsByStatus(ctx context.Context, status domain.RunStatus) ([]*domain.ResearchRun, error)
}

// ContentSourceRepository persists ContentSource entities, enforcing the
// unique (research_run_id, content_hash) constraint.
type ContentSourceRepository interface {
	CreateSource(ctx context.Context, source *domain.ContentSource) error
	GetSource(ctx context.Context, id string) (*domain.ContentSource, error)
	GetSourceByHash(ctx context.Context, runID, contentHash string) (*domain.ContentSource, error)
	ListSourcesByRun(ctx context.Context, runID string) ([]*domain.ContentSource, error)
}

// QualityAssessmentRepository persists QualityAssessment entities,
// enforcing at-most-one per content_source_id.
type QualityAssessmentRepository interface {
	CreateAssessment(ctx context.Context, assessment *domain.QualityAssessment) error
	GetAssessmentByContentSource(ctx context.Context, contentSourceID string) (*domain.QualityAssessment, error)
	ListAssessmentsByRun(ctx context.Context, runID string) ([]*domain.QualityAssessment, error)
}

// IntegrationProposalRepository persists IntegrationProposal entities,
// enforcing at-most-one per content_source_id.
type IntegrationProposalRepository interface {
	CreateProposal(ctx context.Context, proposal *domain.IntegrationProposal) error
	UpdateProposal(ctx context.Context, proposal *domain.IntegrationProposal) error
	GetProposalByContentSource(ctx context.Context, contentSourceID string) (*domain.IntegrationProposal, error)
	ListProposalsByRun(ctx context.Context, runID string) ([]*domain.IntegrationProposal, error)
}

// ReviewQueueRepository persists ReviewQueueEntry entities.
type ReviewQueueRepository interface {
	CreateReviewEntry(ctx context.Context, entry *domain.ReviewQueueEntry) error
	UpdateReviewEntry(ctx context.Context, entry *domain.ReviewQueueEntry) error
	GetReviewEntry(ctx context.Context, id string) (*domain.ReviewQueueEntry, error)
	GetReviewEntryByContentSource(ctx context.Context, contentSourceID string) (*domain.ReviewQueueEntry, error)
	ListReviewByStatus(ctx context.Context, status domain.ReviewStatus) ([]*domain.ReviewQueueEntry, error)
	ListReviewByRun(ctx context.Context, runID string) ([]*domain.ReviewQueueEntry, error)
	ListReviewByAssignee(ctx context.Context, assignee string) ([]*domain.ReviewQueueEntry, error)
}

// AuditRepository persists AuditEvents, append-only.
type AuditRepository interface {
	Append(ctx context.Context, event *domain.AuditEvent) error
	Timeline(ctx context.Context, runID string) ([]*domain.AuditEvent, error)
	TimelineRange(ctx context.Context, since, until time.Time) ([]*domain.AuditEvent, error)
}

// Repositories bundles every entity repository the orchestrator and its
// collaborators depend on, mirroring the teacher's composed
// RepositoryInterface pattern.
type Repositories struct {
	Runs        ResearchRunRepository
	Sources     ContentSourceRepository
	Assessments QualityAssessmentRepository
	Proposals   IntegrationProposalRepository
	ReviewQueue ReviewQueueRepository
	Audit       AuditRepository
}
