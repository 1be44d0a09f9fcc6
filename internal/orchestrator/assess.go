package orchestrator

import (
	"context"
	"sync/atomic"

	"github.com/r3e-network/research-orchestrator/internal/domain"
	"github.com/r3e-network/research-orchestrator/pkg/orcherrors"
)

// assess runs the ASSESS stage: score every discovered source, bounded
// by StageConcurrency, isolating per-source failures (spec §4.1).
func (o *Orchestrator) assess(ctx context.Context, run *domain.ResearchRun) error {
	sources, err := o.sources.ListSourcesByRun(ctx, run.ID)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		return nil
	}

	succeeded, failed := o.scoreAll(ctx, run, sources, o.scorer.Score)

	run.AdvanceAssessed(succeeded)
	o.emit(ctx, run.ID, domain.EventQualityAssessment, domain.LevelInfo, map[string]interface{}{
		"succeeded": succeeded,
		"failed":    failed,
	})

	if succeeded == 0 {
		return orcherrors.Internal("every source failed quality assessment", nil)
	}
	return nil
}

type scoreFunc func(ctx context.Context, source *domain.ContentSource, topic string) (*domain.QualityAssessment, error)

// scoreAll scores every source with score, each score-then-persist pair
// committed atomically, and returns (succeeded, failed) counts.
func (o *Orchestrator) scoreAll(ctx context.Context, run *domain.ResearchRun, sources []*domain.ContentSource, score scoreFunc) (int, int) {
	sem := o.semFor()
	var succeeded, failed int64

	runBounded(ctx, sem, len(sources), func(ctx context.Context, i int) error {
		source := sources[i]
		assessment, err := score(ctx, source, run.Topic)
		if err != nil {
			atomic.AddInt64(&failed, 1)
			o.emit(ctx, run.ID, domain.EventQualityAssessment, domain.LevelWarning, map[string]interface{}{
				"content_source_id": source.ID,
				"error":             err.Error(),
			})
			return err
		}
		if err := o.assessments.CreateAssessment(ctx, assessment); err != nil {
			atomic.AddInt64(&failed, 1)
			return err
		}
		atomic.AddInt64(&succeeded, 1)
		return nil
	})

	return int(succeeded), int(failed)
}

// recoverAssess implements spec §4.1's ASSESS recovery: switch to the
// deterministic fallback scorer for all remaining (unassessed) sources.
func (o *Orchestrator) recoverAssess(ctx context.Context, run *domain.ResearchRun, cause error) error {
	sources, err := o.sources.ListSourcesByRun(ctx, run.ID)
	if err != nil {
		return err
	}

	var remaining []*domain.ContentSource
	for _, source := range sources {
		if _, err := o.assessments.GetAssessmentByContentSource(ctx, source.ID); orcherrors.IsKind(err, orcherrors.KindNotFound) {
			remaining = append(remaining, source)
		}
	}
	if len(remaining) == 0 {
		return cause
	}

	succeeded, _ := o.scoreAll(ctx, run, remaining, o.scorer.ScoreWithoutAI)
	run.AdvanceAssessed(succeeded)
	if succeeded == 0 {
		return cause
	}
	return nil
}
