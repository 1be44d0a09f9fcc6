// Package audit implements AuditLog (spec §4.7): an append-only log of
// AuditEvents with timeline, statistics, and report queries, supplemented
// with a run health score derived from original_source's
// _calculate_health_score.
package audit

import (
	"context"
	"sort"
	"time"

	"github.com/r3e-network/research-orchestrator/internal/domain"
	"github.com/r3e-network/research-orchestrator/internal/repository"
)

const criticalEventWindow = 10

// Statistics summarizes a run's audit timeline by event type and level.
type Statistics struct {
	RunID       string
	TotalEvents int
	ByType      map[domain.EventType]int
	ByLevel     map[domain.EventLevel]int
}

// Report is AuditLog's summary query result.
type Report struct {
	RunID            string
	TotalEvents      int
	ErrorRate        float64
	WarningRate      float64
	Duration         time.Duration
	RecentCritical   []*domain.AuditEvent
	HealthScore      float64
}

// Log wraps repository.AuditRepository with the query operations spec
// §4.7 names. Writes are durable as soon as Append returns, matching the
// "must be durable before the orchestrator acknowledges the step"
// invariant — the repository call is synchronous and not buffered.
type Log struct {
	audit   repository.AuditRepository
	runs    repository.ResearchRunRepository
	sources repository.ContentSourceRepository
	proposals repository.IntegrationProposalRepository
	reviews repository.ReviewQueueRepository
}

// New constructs a Log.
func New(audit repository.AuditRepository, runs repository.ResearchRunRepository, sources repository.ContentSourceRepository, proposals repository.IntegrationProposalRepository, reviews repository.ReviewQueueRepository) *Log {
	return &Log{audit: audit, runs: runs, sources: sources, proposals: proposals, reviews: reviews}
}

// Append writes event to the audit repository.
func (l *Log) Append(ctx context.Context, event *domain.AuditEvent) error {
	return l.audit.Append(ctx, event)
}

// Timeline returns a run's events ordered by timestamp ascending.
func (l *Log) Timeline(ctx context.Context, runID string) ([]*domain.AuditEvent, error) {
	events, err := l.audit.Timeline(ctx, runID)
	if err != nil {
		return nil, err
	}
	sorted := append([]*domain.AuditEvent(nil), events...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Timestamp.Before(sorted[j].Timestamp) })
	return sorted, nil
}

// Statistics returns event counts by type and by level for a run.
func (l *Log) Statistics(ctx context.Context, runID string) (*Statistics, error) {
	events, err := l.Timeline(ctx, runID)
	if err != nil {
		return nil, err
	}

	stats := &Statistics{
		RunID:       runID,
		TotalEvents: len(events),
		ByType:      make(map[domain.EventType]int),
		ByLevel:     make(map[domain.EventLevel]int),
	}
	for _, event := range events {
		stats.ByType[event.EventType]++
		stats.ByLevel[event.Level]++
	}
	return stats, nil
}

// Report returns a run's summary: totals, error/warning rates, duration
// between first and last event, the last N critical events, and the
// supplemented health score.
func (l *Log) Report(ctx context.Context, runID string) (*Report, error) {
	events, err := l.Timeline(ctx, runID)
	if err != nil {
		return nil, err
	}

	report := &Report{RunID: runID, TotalEvents: len(events)}
	if len(events) > 0 {
		errorCount, warningCount := 0, 0
		for _, event := range events {
			switch event.Level {
			case domain.LevelError, domain.LevelCritical:
				errorCount++
			case domain.LevelWarning:
				warningCount++
			}
		}
		report.ErrorRate = float64(errorCount) / float64(len(events))
		report.WarningRate = float64(warningCount) / float64(len(events))
		report.Duration = events[len(events)-1].Timestamp.Sub(events[0].Timestamp)
		report.RecentCritical = lastCritical(events, criticalEventWindow)
	}

	health, err := l.healthScore(ctx, runID)
	if err != nil {
		return nil, err
	}
	report.HealthScore = health
	return report, nil
}

func lastCritical(events []*domain.AuditEvent, n int) []*domain.AuditEvent {
	var critical []*domain.AuditEvent
	for _, event := range events {
		if event.Level == domain.LevelCritical {
			critical = append(critical, event)
		}
	}
	if len(critical) > n {
		critical = critical[len(critical)-n:]
	}
	return critical
}

var statusScores = map[domain.RunStatus]float64{
	domain.RunCompleted: 1.0,
	domain.RunRunning:   0.7,
	domain.RunPending:   0.3,
	domain.RunFailed:    0.0,
	domain.RunCancelled: 0.0,
}

// healthScore blends run status with the presence of content sources,
// proposals, and review entries, per original_source's
// _calculate_health_score.
func (l *Log) healthScore(ctx context.Context, runID string) (float64, error) {
	run, err := l.runs.GetRun(ctx, runID)
	if err != nil {
		return 0, err
	}

	score := statusScores[run.Status]

	if run.Status == domain.RunRunning || run.Status == domain.RunCompleted {
		sources, err := l.sources.ListSourcesByRun(ctx, runID)
		if err != nil {
			return 0, err
		}
		if len(sources) > 0 {
			score += 0.2
		}

		proposals, err := l.proposals.ListProposalsByRun(ctx, runID)
		if err != nil {
			return 0, err
		}
		if len(proposals) > 0 {
			score += 0.3
		}

		reviews, err := l.reviews.ListReviewByRun(ctx, runID)
		if err != nil {
			return 0, err
		}
		if len(reviews) > 0 {
			score += 0.2
		}
	}

	if score > 1.0 {
		score = 1.0
	}
	return score, nil
}
