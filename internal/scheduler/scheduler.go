// Package scheduler supplements spec §6's research.create/research.start
// surface with recurring-run ergonomics: a registered trigger re-creates
// and starts a research run on a cron expression, mirroring the
// teacher's services/automation time-based trigger but driven by a real
// cron parser instead of a hand-rolled one.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/r3e-network/research-orchestrator/internal/domain"
	"github.com/r3e-network/research-orchestrator/internal/orchestrator"
	"github.com/r3e-network/research-orchestrator/internal/repository"
	"github.com/r3e-network/research-orchestrator/pkg/logging"
)

// pollInterval bounds how often Start checks for due triggers.
const pollInterval = 30 * time.Second

// Trigger is a registered recurring research run.
type Trigger struct {
	ID         string
	Topic      string
	CreatedBy  string
	Parameters map[string]interface{}
	Schedule   string
	NextRun    time.Time

	schedule cron.Schedule
}

// Scheduler ticks on pollInterval and, for each trigger whose NextRun has
// passed, creates and asynchronously starts a ResearchRun — the same
// create-then-start handoff research.create/research.start perform over
// HTTP (internal/api), but driven by a cron expression rather than a
// caller.
type Scheduler struct {
	mu       sync.RWMutex
	triggers map[string]*Trigger

	runs repository.ResearchRunRepository
	orch *orchestrator.Orchestrator
	log  *logging.Logger

	stopCh chan struct{}
}

// New builds a Scheduler. orch.Execute is invoked on a detached goroutine
// per due trigger, so Start never blocks waiting for a run to finish.
func New(runs repository.ResearchRunRepository, orch *orchestrator.Orchestrator, log *logging.Logger) *Scheduler {
	if log == nil {
		log = logging.Default()
	}
	return &Scheduler{
		triggers: make(map[string]*Trigger),
		runs:     runs,
		orch:     orch,
		log:      log,
		stopCh:   make(chan struct{}),
	}
}

// Register adds or replaces a recurring trigger. cronExpr follows the
// standard 5-field cron format (minute hour day month weekday).
func (s *Scheduler) Register(id, topic, createdBy, cronExpr string, parameters map[string]interface{}) (*Trigger, error) {
	schedule, err := cron.ParseStandard(cronExpr)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	trigger := &Trigger{
		ID:         id,
		Topic:      topic,
		CreatedBy:  createdBy,
		Parameters: parameters,
		Schedule:   cronExpr,
		NextRun:    schedule.Next(now),
		schedule:   schedule,
	}

	s.mu.Lock()
	s.triggers[id] = trigger
	s.mu.Unlock()
	return trigger, nil
}

// Unregister removes a trigger; a no-op if id is unknown.
func (s *Scheduler) Unregister(id string) {
	s.mu.Lock()
	delete(s.triggers, id)
	s.mu.Unlock()
}

// List returns a snapshot of every registered trigger.
func (s *Scheduler) List() []*Trigger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Trigger, 0, len(s.triggers))
	for _, t := range s.triggers {
		copied := *t
		out = append(out, &copied)
	}
	return out
}

// Start runs the poll loop until ctx is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.fireDue(ctx)
		}
	}
}

// Stop halts a running Start loop.
func (s *Scheduler) Stop() {
	close(s.stopCh)
}

func (s *Scheduler) fireDue(ctx context.Context) {
	now := time.Now().UTC()

	s.mu.Lock()
	var due []*Trigger
	for _, t := range s.triggers {
		if !t.NextRun.After(now) {
			t.NextRun = t.schedule.Next(now)
			due = append(due, t)
		}
	}
	s.mu.Unlock()

	for _, t := range due {
		s.fire(ctx, t)
	}
}

func (s *Scheduler) fire(ctx context.Context, t *Trigger) {
	run, err := domain.NewResearchRun(t.Topic, t.CreatedBy, t.Parameters)
	if err != nil {
		s.log.WithError(err).WithField("trigger_id", t.ID).Error("scheduled trigger produced an invalid research run")
		return
	}
	if err := s.runs.CreateRun(ctx, run); err != nil {
		s.log.WithError(err).WithField("trigger_id", t.ID).Error("failed to persist scheduled research run")
		return
	}

	s.log.WithField("trigger_id", t.ID).WithField("run_id", run.ID).Info("scheduled trigger fired")

	go func(ctx context.Context, runID string) {
		if _, err := s.orch.Execute(ctx, runID); err != nil {
			s.log.WithError(err).WithField("run_id", runID).Error("scheduled research run failed to execute")
		}
	}(context.WithoutCancel(ctx), run.ID)
}
