// Package orchestrator implements Orchestrator.execute (spec §4.1): the
// fixed stage graph DISCOVER → ASSESS → PROPOSE → ENQUEUE_REVIEW, its
// per-stage recovery rules, and the run-scoped lock forbidding concurrent
// execution of the same run_id.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/r3e-network/research-orchestrator/internal/audit"
	"github.com/r3e-network/research-orchestrator/internal/discovery"
	"github.com/r3e-network/research-orchestrator/internal/domain"
	"github.com/r3e-network/research-orchestrator/internal/integration"
	"github.com/r3e-network/research-orchestrator/internal/quality"
	"github.com/r3e-network/research-orchestrator/internal/repository"
	"github.com/r3e-network/research-orchestrator/internal/review"
	"github.com/r3e-network/research-orchestrator/pkg/config"
	"github.com/r3e-network/research-orchestrator/pkg/logging"
	"github.com/r3e-network/research-orchestrator/pkg/orcherrors"
	"github.com/r3e-network/research-orchestrator/pkg/tracing"
)

// defaultDiscoveryLimit bounds how many raw items the orchestrator asks
// each ExternalClient for per run; spec §4.3 leaves the exact number to
// the implementation.
const defaultDiscoveryLimit = 20

// stage is one node of the fixed DISCOVER → ASSESS → PROPOSE →
// ENQUEUE_REVIEW graph. recover is nil for stages with no recovery
// strategy (PROPOSE, ENQUEUE_REVIEW), per spec §4.1.
type stage struct {
	name    string
	run     func(ctx context.Context, run *domain.ResearchRun) error
	recover func(ctx context.Context, run *domain.ResearchRun, cause error) error
}

// Orchestrator drives a ResearchRun through its stage graph, coordinating
// discovery, scoring, integration analysis, and review enqueueing.
type Orchestrator struct {
	runs        repository.ResearchRunRepository
	sources     repository.ContentSourceRepository
	assessments repository.QualityAssessmentRepository
	proposals   repository.IntegrationProposalRepository

	coordinator *discovery.Coordinator
	scorer      *quality.QualityScorer
	analyzer    *integration.Analyzer
	reviewQueue *review.Queue
	auditLog    *audit.Log

	cfg    config.OrchestratorConfig
	log    *logging.Logger
	tracer *tracing.Tracer

	// locks holds one entry per run_id currently executing, enforcing
	// "concurrent invocations of execute for the same run_id are
	// forbidden" (spec §4.1, §5) without a dedicated lock table.
	locks sync.Map
}

// New builds an Orchestrator. Any collaborator may be nil only to the
// extent its stage is never reached by a correctly configured run;
// production wiring (cmd/orchestrator-service) supplies all of them.
func New(
	runs repository.ResearchRunRepository,
	sources repository.ContentSourceRepository,
	assessments repository.QualityAssessmentRepository,
	proposals repository.IntegrationProposalRepository,
	coordinator *discovery.Coordinator,
	scorer *quality.QualityScorer,
	analyzer *integration.Analyzer,
	reviewQueue *review.Queue,
	auditLog *audit.Log,
	cfg config.OrchestratorConfig,
	log *logging.Logger,
	tracer *tracing.Tracer,
) *Orchestrator {
	if tracer == nil {
		tracer = tracing.New(nil, "research-orchestrator")
	}
	return &Orchestrator{
		runs:        runs,
		sources:     sources,
		assessments: assessments,
		proposals:   proposals,
		coordinator: coordinator,
		scorer:      scorer,
		analyzer:    analyzer,
		reviewQueue: reviewQueue,
		auditLog:    auditLog,
		cfg:         cfg,
		log:         log,
		tracer:      tracer,
	}
}

// Execute runs the stage graph for run_id to a terminal status and
// returns the (now terminal) ResearchRun. A Go error return indicates a
// precondition or persistence failure rather than a business-level stage
// failure — the latter is reflected in the returned run's Status and
// ErrorDetails, not in err.
func (o *Orchestrator) Execute(ctx context.Context, runID string) (*domain.ResearchRun, error) {
	if _, already := o.locks.LoadOrStore(runID, struct{}{}); already {
		return nil, orcherrors.Conflict("research run already executing").WithDetails("run_id", runID)
	}
	defer o.locks.Delete(runID)

	run, err := o.runs.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	if err := run.Start(time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := o.runs.UpdateRun(ctx, run); err != nil {
		return nil, err
	}
	o.emit(ctx, run.ID, domain.EventResearchStart, domain.LevelInfo, map[string]interface{}{"topic": run.Topic})

	runCtx, endRunSpan := o.tracer.StartSpan(ctx, "orchestrator.execute", map[string]string{"run_id": run.ID, "topic": run.Topic})
	ctx = runCtx

	var failedStage string
	var failureCause error
	cancelled := false

	for _, st := range o.stages() {
		stageCtx, cancel := context.WithTimeout(ctx, o.cfg.StageDeadline)
		spanCtx, endSpan := o.tracer.StartSpan(stageCtx, "orchestrator.stage."+st.name, map[string]string{"run_id": run.ID, "stage": st.name})
		stageErr := st.run(spanCtx, run)
		endSpan(stageErr)
		cancel()
		if stageErr == nil {
			continue
		}

		if ctx.Err() == context.Canceled {
			cancelled = true
			failedStage, failureCause = st.name, stageErr
			break
		}

		if st.recover == nil {
			failedStage, failureCause = st.name, stageErr
			break
		}

		recoverErr := st.recover(ctx, run, stageErr)
		o.emit(ctx, run.ID, domain.EventRecovery, levelFor(recoverErr), map[string]interface{}{
			"stage":   st.name,
			"success": recoverErr == nil,
		})
		if recoverErr != nil {
			failedStage, failureCause = st.name, recoverErr
			break
		}
	}

	now := time.Now().UTC()
	switch {
	case cancelled:
		err = run.Cancel(now)
	case failedStage != "":
		err = run.Fail(now, fmt.Sprintf("%s: %v", failedStage, failureCause))
	default:
		err = run.Complete(now)
	}
	if err != nil {
		endRunSpan(err)
		return nil, err
	}
	if err := o.runs.UpdateRun(ctx, run); err != nil {
		endRunSpan(err)
		return nil, err
	}
	endRunSpan(failureCause)

	o.emit(ctx, run.ID, domain.EventResearchComplete, levelFor(failureCause), map[string]interface{}{
		"final_status": string(run.Status),
	})
	return run, nil
}

func (o *Orchestrator) stages() []stage {
	return []stage{
		{name: "DISCOVER", run: o.discover, recover: o.recoverDiscover},
		{name: "ASSESS", run: o.assess, recover: o.recoverAssess},
		{name: "PROPOSE", run: o.propose},
		{name: "ENQUEUE_REVIEW", run: o.enqueueReview},
	}
}

func (o *Orchestrator) emit(ctx context.Context, runID string, eventType domain.EventType, level domain.EventLevel, payload map[string]interface{}) {
	if o.auditLog == nil {
		return
	}
	event := domain.NewAuditEvent(runID, eventType, level, payload)
	if err := o.auditLog.Append(ctx, event); err != nil && o.log != nil {
		o.log.WithError(err).Warn("failed to append audit event")
	}
}

func levelFor(err error) domain.EventLevel {
	if err == nil {
		return domain.LevelInfo
	}
	return domain.LevelWarning
}

func simplifiedTopic(topic string) string {
	tokens := strings.Fields(topic)
	if len(tokens) <= 3 {
		return topic
	}
	return strings.Join(tokens[:3], " ")
}

// semFor builds a semaphore bounding per-stage fan-out to
// StageConcurrency, defaulting to 1 (serial) if unset.
func (o *Orchestrator) semFor() *semaphore.Weighted {
	n := int64(o.cfg.StageConcurrency)
	if n <= 0 {
		n = 1
	}
	return semaphore.NewWeighted(n)
}

// runBounded fans items out across work, each call bounded by sem and
// the shared errgroup context, collecting per-item errors without
// aborting the remaining items — the isolation rule every stage but
// DISCOVER needs (spec §4.1: "per-source failure is isolated").
func runBounded(ctx context.Context, sem *semaphore.Weighted, n int, work func(ctx context.Context, i int) error) []error {
	errs := make([]error, n)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		i := i
		if err := sem.Acquire(ctx, 1); err != nil {
			errs[i] = err
			continue
		}
		g.Go(func() error {
			defer sem.Release(1)
			errs[i] = work(gctx, i)
			return nil
		})
	}
	_ = g.Wait()
	return errs
}
