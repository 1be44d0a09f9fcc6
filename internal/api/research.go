package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/r3e-network/research-orchestrator/internal/domain"
	"github.com/r3e-network/research-orchestrator/pkg/orcherrors"
)

type createResearchRequest struct {
	Topic      string                 `json:"topic"`
	CreatedBy  string                 `json:"created_by"`
	Parameters map[string]interface{} `json:"parameters"`
}

type createResearchResponse struct {
	RunID string `json:"run_id"`
}

// createResearch implements research.create(topic, created_by,
// parameters) → run_id.
func (s *Server) createResearch(w http.ResponseWriter, r *http.Request) {
	var req createResearchRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	run, err := domain.NewResearchRun(req.Topic, req.CreatedBy, req.Parameters)
	if err != nil {
		writeError(w, s.Log, err)
		return
	}
	if err := s.Runs.CreateRun(r.Context(), run); err != nil {
		writeError(w, s.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, createResearchResponse{RunID: run.ID})
}

// startResearch implements research.start(run_id) — schedules
// orchestrator execution asynchronously; idempotent in that a
// non-PENDING run surfaces the orchestrator's conflict error (spec §6).
func (s *Server) startResearch(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	// Orchestrator.Execute both validates PENDING-ness (via
	// ResearchRun.Start) and runs the full stage graph; spec §6 only
	// requires that a second start attempt surface a conflict, so the
	// precondition check happens inline before the async handoff.
	run, err := s.Runs.GetRun(r.Context(), runID)
	if err != nil {
		writeError(w, s.Log, err)
		return
	}
	if run.Status != domain.RunPending {
		writeError(w, s.Log, conflictNotPending(runID, run.Status))
		return
	}

	go func(ctx context.Context) {
		if _, err := s.Orchestrator.Execute(ctx, runID); err != nil && s.Log != nil {
			s.Log.WithField("run_id", runID).WithError(err).Error("orchestrator execution failed")
		}
	}(context.WithoutCancel(r.Context()))

	writeJSON(w, http.StatusAccepted, map[string]string{"run_id": runID, "status": "scheduled"})
}

func conflictNotPending(runID string, status domain.RunStatus) error {
	return orcherrors.Conflict("research run is not pending").
		WithDetails("run_id", runID).
		WithDetails("status", string(status))
}

func (s *Server) getResearch(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	run, err := s.Runs.GetRun(r.Context(), runID)
	if err != nil {
		writeError(w, s.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) listResearch(w http.ResponseWriter, r *http.Request) {
	skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 50
	}
	runs, err := s.Runs.ListRuns(r.Context(), skip, limit)
	if err != nil {
		writeError(w, s.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) pendingResearch(w http.ResponseWriter, r *http.Request) {
	s.listByStatus(w, r, domain.RunPending)
}

func (s *Server) runningResearch(w http.ResponseWriter, r *http.Request) {
	s.listByStatus(w, r, domain.RunRunning)
}

func (s *Server) listByStatus(w http.ResponseWriter, r *http.Request, status domain.RunStatus) {
	runs, err := s.Runs.ListRunsByStatus(r.Context(), status)
	if err != nil {
		writeError(w, s.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}
