package orchestrator

import (
	"context"

	"github.com/r3e-network/research-orchestrator/internal/domain"
	"github.com/r3e-network/research-orchestrator/pkg/orcherrors"
)

// enqueueReview runs the ENQUEUE_REVIEW stage: for every source carrying
// both an assessment and a proposal, create a ReviewQueueEntry with
// priority derived from the assessment's overall score (spec §4.1, §4.6).
func (o *Orchestrator) enqueueReview(ctx context.Context, run *domain.ResearchRun) error {
	sources, err := o.sources.ListSourcesByRun(ctx, run.ID)
	if err != nil {
		return err
	}

	enqueued := 0
	for _, source := range sources {
		assessment, err := o.assessments.GetAssessmentByContentSource(ctx, source.ID)
		if orcherrors.IsKind(err, orcherrors.KindNotFound) {
			continue
		} else if err != nil {
			return err
		}

		if _, err := o.proposals.GetProposalByContentSource(ctx, source.ID); orcherrors.IsKind(err, orcherrors.KindNotFound) {
			continue
		} else if err != nil {
			return err
		}

		overall := assessment.Overall
		if _, err := o.reviewQueue.Enqueue(ctx, source.ID, run.ID, &overall); err != nil {
			return err
		}
		enqueued++
	}

	o.emit(ctx, run.ID, domain.EventReviewQueue, domain.LevelInfo, map[string]interface{}{
		"enqueued": enqueued,
	})
	return nil
}
