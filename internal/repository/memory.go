package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/r3e-network/research-orchestrator/internal/domain"
	"github.com/r3e-network/research-orchestrator/pkg/orcherrors"
)

// MemoryRepositories is an in-memory implementation of every repository
// interface, used by tests in place of a real backing store.
type MemoryRepositories struct {
	mu sync.RWMutex

	runs        map[string]*domain.ResearchRun
	sources     map[string]*domain.ContentSource
	sourcesByHash map[string]string // runID|contentHash -> sourceID
	assessments map[string]*domain.QualityAssessment
	proposals   map[string]*domain.IntegrationProposal
	reviews     map[string]*domain.ReviewQueueEntry
	events      []*domain.AuditEvent
}

// NewMemoryRepositories creates an empty set of in-memory fakes.
func NewMemoryRepositories() *MemoryRepositories {
	return &MemoryRepositories{
		runs:          make(map[string]*domain.ResearchRun),
		sources:       make(map[string]*domain.ContentSource),
		sourcesByHash: make(map[string]string),
		assessments:   make(map[string]*domain.QualityAssessment),
		proposals:     make(map[string]*domain.IntegrationProposal),
		reviews:       make(map[string]*domain.ReviewQueueEntry),
	}
}

// Bundle returns a Repositories value wired to this in-memory store,
// satisfying every individual interface simultaneously.
func (m *MemoryRepositories) Bundle() Repositories {
	return Repositories{
		Runs:        m,
		Sources:     m,
		Assessments: m,
		Proposals:   m,
		ReviewQueue: m,
		Audit:       m,
	}
}

// ---------------------------------------------------------------------------
// ResearchRunRepository
// ---------------------------------------------------------------------------

func (m *MemoryRepositories) CreateRun(ctx context.Context, run *domain.ResearchRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.runs[run.ID]; exists {
		return orcherrors.Conflict("research run already exists").WithDetails("run_id", run.ID)
	}
	clone := *run
	m.runs[run.ID] = &clone
	return nil
}

func (m *MemoryRepositories) GetRun(ctx context.Context, id string) (*domain.ResearchRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, orcherrors.NotFound("research_run", id)
	}
	clone := *run
	return &clone, nil
}

func (m *MemoryRepositories) UpdateRun(ctx context.Context, run *domain.ResearchRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runs[run.ID]; !ok {
		return orcherrors.NotFound("research_run", run.ID)
	}
	clone := *run
	m.runs[run.ID] = &clone
	return nil
}

func (m *MemoryRepositories) ListRuns(ctx context.Context, skip, limit int) ([]*domain.ResearchRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := make([]*domain.ResearchRun, 0, len(m.runs))
	for _, run := range m.runs {
		clone := *run
		all = append(all, &clone)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })

	if skip >= len(all) {
		return []*domain.ResearchRun{}, nil
	}
	end := skip + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}
	return all[skip:end], nil
}

func (m *MemoryRepositories) ListRunsByStatus(ctx context.Context, status domain.RunStatus) ([]*domain.ResearchRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*domain.ResearchRun
	for _, run := range m.runs {
		if run.Status == status {
			clone := *run
			result = append(result, &clone)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

// ---------------------------------------------------------------------------
// ContentSourceRepository
// ---------------------------------------------------------------------------

func hashKey(runID, contentHash string) string { return runID + "|" + contentHash }

func (m *MemoryRepositories) CreateSource(ctx context.Context, source *domain.ContentSource) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := hashKey(source.ResearchRunID, source.ContentHash)
	if _, exists := m.sourcesByHash[key]; exists {
		return orcherrors.Conflict("content source with this hash already exists in run").
			WithDetails("research_run_id", source.ResearchRunID).
			WithDetails("content_hash", source.ContentHash)
	}
	clone := *source
	m.sources[source.ID] = &clone
	m.sourcesByHash[key] = source.ID
	return nil
}

func (m *MemoryRepositories) GetSource(ctx context.Context, id string) (*domain.ContentSource, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	source, ok := m.sources[id]
	if !ok {
		return nil, orcherrors.NotFound("content_source", id)
	}
	clone := *source
	return &clone, nil
}

func (m *MemoryRepositories) GetSourceByHash(ctx context.Context, runID, contentHash string) (*domain.ContentSource, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.sourcesByHash[hashKey(runID, contentHash)]
	if !ok {
		return nil, orcherrors.NotFound("content_source", contentHash)
	}
	clone := *m.sources[id]
	return &clone, nil
}

func (m *MemoryRepositories) ListSourcesByRun(ctx context.Context, runID string) ([]*domain.ContentSource, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*domain.ContentSource
	for _, source := range m.sources {
		if source.ResearchRunID == runID {
			clone := *source
			result = append(result, &clone)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

// ---------------------------------------------------------------------------
// QualityAssessmentRepository
// ---------------------------------------------------------------------------

func (m *MemoryRepositories) CreateAssessment(ctx context.Context, assessment *domain.QualityAssessment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.assessments {
		if existing.ContentSourceID == assessment.ContentSourceID {
			return orcherrors.Conflict("quality assessment already exists for content source").
				WithDetails("content_source_id", assessment.ContentSourceID)
		}
	}
	clone := *assessment
	m.assessments[assessment.ID] = &clone
	return nil
}

func (m *MemoryRepositories) GetAssessmentByContentSource(ctx context.Context, contentSourceID string) (*domain.QualityAssessment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.assessments {
		if a.ContentSourceID == contentSourceID {
			clone := *a
			return &clone, nil
		}
	}
	return nil, orcherrors.NotFound("quality_assessment", contentSourceID)
}

func (m *MemoryRepositories) ListAssessmentsByRun(ctx context.Context, runID string) ([]*domain.QualityAssessment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*domain.QualityAssessment
	for _, a := range m.assessments {
		if a.ResearchRunID == runID {
			clone := *a
			result = append(result, &clone)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

// ---------------------------------------------------------------------------
// IntegrationProposalRepository
// ---------------------------------------------------------------------------

func (m *MemoryRepositories) CreateProposal(ctx context.Context, proposal *domain.IntegrationProposal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.proposals {
		if existing.ContentSourceID == proposal.ContentSourceID {
			return orcherrors.Conflict("integration proposal already exists for content source").
				WithDetails("content_source_id", proposal.ContentSourceID)
		}
	}
	clone := *proposal
	m.proposals[proposal.ID] = &clone
	return nil
}

func (m *MemoryRepositories) UpdateProposal(ctx context.Context, proposal *domain.IntegrationProposal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.proposals[proposal.ID]; !ok {
		return orcherrors.NotFound("integration_proposal", proposal.ID)
	}
	clone := *proposal
	m.proposals[proposal.ID] = &clone
	return nil
}

func (m *MemoryRepositories) GetProposalByContentSource(ctx context.Context, contentSourceID string) (*domain.IntegrationProposal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.proposals {
		if p.ContentSourceID == contentSourceID {
			clone := *p
			return &clone, nil
		}
	}
	return nil, orcherrors.NotFound("integration_proposal", contentSourceID)
}

func (m *MemoryRepositories) ListProposalsByRun(ctx context.Context, runID string) ([]*domain.IntegrationProposal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*domain.IntegrationProposal
	for _, p := range m.proposals {
		if p.ResearchRunID == runID {
			clone := *p
			result = append(result, &clone)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

// ---------------------------------------------------------------------------
// ReviewQueueRepository
// ---------------------------------------------------------------------------

func (m *MemoryRepositories) CreateReviewEntry(ctx context.Context, entry *domain.ReviewQueueEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *entry
	m.reviews[entry.ID] = &clone
	return nil
}

func (m *MemoryRepositories) UpdateReviewEntry(ctx context.Context, entry *domain.ReviewQueueEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reviews[entry.ID]; !ok {
		return orcherrors.NotFound("review_queue_entry", entry.ID)
	}
	clone := *entry
	m.reviews[entry.ID] = &clone
	return nil
}

func (m *MemoryRepositories) GetReviewEntry(ctx context.Context, id string) (*domain.ReviewQueueEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.reviews[id]
	if !ok {
		return nil, orcherrors.NotFound("review_queue_entry", id)
	}
	clone := *entry
	return &clone, nil
}

func (m *MemoryRepositories) GetReviewEntryByContentSource(ctx context.Context, contentSourceID string) (*domain.ReviewQueueEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.reviews {
		if e.ContentSourceID == contentSourceID {
			clone := *e
			return &clone, nil
		}
	}
	return nil, orcherrors.NotFound("review_queue_entry", contentSourceID)
}

func (m *MemoryRepositories) ListReviewByStatus(ctx context.Context, status domain.ReviewStatus) ([]*domain.ReviewQueueEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*domain.ReviewQueueEntry
	for _, e := range m.reviews {
		if e.Status == status {
			clone := *e
			result = append(result, &clone)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Priority != result[j].Priority {
			return result[i].Priority > result[j].Priority
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (m *MemoryRepositories) ListReviewByRun(ctx context.Context, runID string) ([]*domain.ReviewQueueEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*domain.ReviewQueueEntry
	for _, e := range m.reviews {
		if e.ResearchRunID == runID {
			clone := *e
			result = append(result, &clone)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (m *MemoryRepositories) ListReviewByAssignee(ctx context.Context, assignee string) ([]*domain.ReviewQueueEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*domain.ReviewQueueEntry
	for _, e := range m.reviews {
		if e.AssignedTo == assignee {
			clone := *e
			result = append(result, &clone)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

// ---------------------------------------------------------------------------
// AuditRepository
// ---------------------------------------------------------------------------

func (m *MemoryRepositories) Append(ctx context.Context, event *domain.AuditEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *event
	m.events = append(m.events, &clone)
	return nil
}

func (m *MemoryRepositories) Timeline(ctx context.Context, runID string) ([]*domain.AuditEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*domain.AuditEvent
	for _, e := range m.events {
		if e.ResearchRunID == runID {
			clone := *e
			result = append(result, &clone)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Timestamp.Before(result[j].Timestamp) })
	return result, nil
}

func (m *MemoryRepositories) TimelineRange(ctx context.Context, since, until time.Time) ([]*domain.AuditEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*domain.AuditEvent
	for _, e := range m.events {
		if !e.Timestamp.Before(since) && !e.Timestamp.After(until) {
			clone := *e
			result = append(result, &clone)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Timestamp.Before(result[j].Timestamp) })
	return result, nil
}
