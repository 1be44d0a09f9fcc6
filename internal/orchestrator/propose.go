package orchestrator

import (
	"context"
	"sync/atomic"

	"github.com/r3e-network/research-orchestrator/internal/domain"
	"github.com/r3e-network/research-orchestrator/pkg/orcherrors"
)

// propose runs the PROPOSE stage: generate an IntegrationProposal for
// every assessed source, isolating per-source failures (spec §4.1). It
// has no recovery strategy — a source with no proposal simply never
// reaches ENQUEUE_REVIEW. Same isolation rule as ASSESS: the stage fails
// only if zero proposals were generated successfully and at least one
// assessment existed.
func (o *Orchestrator) propose(ctx context.Context, run *domain.ResearchRun) error {
	assessments, err := o.assessments.ListAssessmentsByRun(ctx, run.ID)
	if err != nil {
		return err
	}
	if len(assessments) == 0 {
		return nil
	}

	sem := o.semFor()
	var succeeded, failed int64

	runBounded(ctx, sem, len(assessments), func(ctx context.Context, i int) error {
		assessment := assessments[i]
		source, err := o.sources.GetSource(ctx, assessment.ContentSourceID)
		if err != nil {
			atomic.AddInt64(&failed, 1)
			return err
		}
		if _, err := o.analyzer.Propose(ctx, source); err != nil {
			atomic.AddInt64(&failed, 1)
			o.emit(ctx, run.ID, domain.EventIntegrationPropose, domain.LevelWarning, map[string]interface{}{
				"content_source_id": source.ID,
				"error":             err.Error(),
			})
			return err
		}
		atomic.AddInt64(&succeeded, 1)
		return nil
	})

	o.emit(ctx, run.ID, domain.EventIntegrationPropose, domain.LevelInfo, map[string]interface{}{
		"succeeded": succeeded,
		"failed":    failed,
	})

	if succeeded == 0 {
		return orcherrors.Internal("every source failed integration proposal generation", nil)
	}
	return nil
}
