// Package telemetry implements MetricsCollector (spec §4.8): a pure
// derivation over the audit log and assessment/run repositories, plus a
// live Prometheus exporter layered alongside it.
package telemetry

import (
	"context"
	"sort"
	"time"

	"github.com/r3e-network/research-orchestrator/internal/domain"
	"github.com/r3e-network/research-orchestrator/internal/repository"
)

// PhaseDurations reports the wall-clock time spent in each named phase,
// derived from first-occurrence timestamps of each phase's audit event.
type PhaseDurations struct {
	Total               time.Duration
	ContentDiscovery    time.Duration
	QualityAssessment   time.Duration
	IntegrationProposal time.Duration
}

// QualityStatistics summarizes a run's QualityAssessment scores.
type QualityStatistics struct {
	Count     int
	Average   float64
	Min       float64
	Max       float64
	Histogram map[string]int
}

// RunMetrics is MetricsCollector.run(run_id)'s result.
type RunMetrics struct {
	RunID     string
	Durations PhaseDurations
	Quality   QualityStatistics
	ErrorRate float64
	Success   bool
}

// AggregateMetrics is MetricsCollector.aggregate(time_range)'s result.
type AggregateMetrics struct {
	TotalRuns          int
	SuccessRate        float64
	ErrorRate          float64
	SuccessTrendSlope  float64
	DurationTrendSlope float64
}

// Collector implements MetricsCollector. It never mutates state — every
// method is a pure read-and-derive over the injected repositories.
type Collector struct {
	audit       repository.AuditRepository
	runs        repository.ResearchRunRepository
	assessments repository.QualityAssessmentRepository
}

// New constructs a Collector.
func New(audit repository.AuditRepository, runs repository.ResearchRunRepository, assessments repository.QualityAssessmentRepository) *Collector {
	return &Collector{audit: audit, runs: runs, assessments: assessments}
}

// Run computes RunMetrics for a single run_id.
func (c *Collector) Run(ctx context.Context, runID string) (*RunMetrics, error) {
	events, err := c.audit.Timeline(ctx, runID)
	if err != nil {
		return nil, err
	}
	sorted := append([]*domain.AuditEvent(nil), events...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Timestamp.Before(sorted[j].Timestamp) })

	durations := phaseDurations(sorted)
	errorRate := errorRateOf(sorted)

	assessments, err := c.assessments.ListAssessmentsByRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	quality := qualityStatistics(assessments)

	run, err := c.runs.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	return &RunMetrics{
		RunID:     runID,
		Durations: durations,
		Quality:   quality,
		ErrorRate: errorRate,
		Success:   run.Status == domain.RunCompleted,
	}, nil
}

// Aggregate computes cross-run metrics and trend slopes over daily
// success-rate and mean-duration buckets, grounded on
// research_metrics.py's calculate_slope.
func (c *Collector) Aggregate(ctx context.Context, since, until time.Time) (*AggregateMetrics, error) {
	events, err := c.audit.TimelineRange(ctx, since, until)
	if err != nil {
		return nil, err
	}

	runIDs := make(map[string]struct{})
	for _, event := range events {
		runIDs[event.ResearchRunID] = struct{}{}
	}

	dailySuccess := make(map[string][]float64)
	dailyDuration := make(map[string][]float64)

	total, completed, errorEvents := 0, 0, 0
	for runID := range runIDs {
		run, err := c.runs.GetRun(ctx, runID)
		if err != nil {
			continue
		}
		total++
		success := 0.0
		if run.Status == domain.RunCompleted {
			completed++
			success = 1.0
		}

		runEvents := filterByRun(events, runID)
		durations := phaseDurations(runEvents)
		errorEvents += countErrors(runEvents)

		day := dayBucket(run.CreatedAt)
		dailySuccess[day] = append(dailySuccess[day], success)
		dailyDuration[day] = append(dailyDuration[day], durations.Total.Seconds())
	}

	successRate := 0.0
	errorRate := 0.0
	if total > 0 {
		successRate = float64(completed) / float64(total)
	}
	if len(events) > 0 {
		errorRate = float64(errorEvents) / float64(len(events))
	}

	return &AggregateMetrics{
		TotalRuns:          total,
		SuccessRate:        successRate,
		ErrorRate:          errorRate,
		SuccessTrendSlope:  slopeOf(dailyAverages(dailySuccess)),
		DurationTrendSlope: slopeOf(dailyAverages(dailyDuration)),
	}, nil
}

func phaseDurations(events []*domain.AuditEvent) PhaseDurations {
	var durations PhaseDurations
	var start, discoveryStart, assessStart, proposalStart time.Time

	for _, event := range events {
		switch event.EventType {
		case domain.EventResearchStart:
			start = event.Timestamp
		case domain.EventContentDiscovery:
			if discoveryStart.IsZero() {
				discoveryStart = event.Timestamp
			}
			durations.ContentDiscovery = event.Timestamp.Sub(discoveryStart)
		case domain.EventQualityAssessment:
			if assessStart.IsZero() {
				assessStart = event.Timestamp
			}
			durations.QualityAssessment = event.Timestamp.Sub(assessStart)
		case domain.EventIntegrationPropose:
			if proposalStart.IsZero() {
				proposalStart = event.Timestamp
			}
			durations.IntegrationProposal = event.Timestamp.Sub(proposalStart)
		case domain.EventResearchComplete:
			if !start.IsZero() {
				durations.Total = event.Timestamp.Sub(start)
			}
		}
	}
	return durations
}

func errorRateOf(events []*domain.AuditEvent) float64 {
	if len(events) == 0 {
		return 0
	}
	return float64(countErrors(events)) / float64(len(events))
}

func countErrors(events []*domain.AuditEvent) int {
	count := 0
	for _, event := range events {
		if event.Level == domain.LevelError || event.Level == domain.LevelCritical {
			count++
		}
	}
	return count
}

func filterByRun(events []*domain.AuditEvent, runID string) []*domain.AuditEvent {
	out := make([]*domain.AuditEvent, 0, len(events))
	for _, event := range events {
		if event.ResearchRunID == runID {
			out = append(out, event)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}

func qualityStatistics(assessments []*domain.QualityAssessment) QualityStatistics {
	if len(assessments) == 0 {
		return QualityStatistics{Histogram: map[string]int{}}
	}

	stats := QualityStatistics{Count: len(assessments), Min: 1.0, Max: 0.0, Histogram: map[string]int{
		"0.0-0.2": 0, "0.2-0.4": 0, "0.4-0.6": 0, "0.6-0.8": 0, "0.8-1.0": 0,
	}}

	sum := 0.0
	for _, a := range assessments {
		score := a.Overall
		sum += score
		if score < stats.Min {
			stats.Min = score
		}
		if score > stats.Max {
			stats.Max = score
		}
		stats.Histogram[bucketFor(score)]++
	}
	stats.Average = sum / float64(len(assessments))
	return stats
}

func bucketFor(score float64) string {
	switch {
	case score < 0.2:
		return "0.0-0.2"
	case score < 0.4:
		return "0.2-0.4"
	case score < 0.6:
		return "0.4-0.6"
	case score < 0.8:
		return "0.6-0.8"
	default:
		return "0.8-1.0"
	}
}

func dayBucket(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func dailyAverages(buckets map[string][]float64) []float64 {
	days := make([]string, 0, len(buckets))
	for day := range buckets {
		days = append(days, day)
	}
	sort.Strings(days)

	out := make([]float64, 0, len(days))
	for _, day := range days {
		values := buckets[day]
		sum := 0.0
		for _, v := range values {
			sum += v
		}
		out = append(out, sum/float64(len(values)))
	}
	return out
}

// slopeOf computes the simple least-squares slope of values indexed
// 0..n-1, grounded on research_metrics.py:calculate_slope.
func slopeOf(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}

	xMean := float64(n-1) / 2
	yMean := 0.0
	for _, v := range values {
		yMean += v
	}
	yMean /= float64(n)

	var numerator, denominator float64
	for i, v := range values {
		x := float64(i)
		numerator += (x - xMean) * (v - yMean)
		denominator += (x - xMean) * (x - xMean)
	}
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}
