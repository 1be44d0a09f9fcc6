package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/r3e-network/research-orchestrator/internal/domain"
)

// listReview implements review.list(filters) — a status, research_run,
// or assignee filter, applied mutually exclusively, matching whichever
// query parameter is present first.
func (s *Server) listReview(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ctx := r.Context()

	switch {
	case q.Get("status") != "":
		entries, err := s.ReviewQueue.ListByStatus(ctx, domain.ReviewStatus(q.Get("status")))
		if err != nil {
			writeError(w, s.Log, err)
			return
		}
		writeJSON(w, http.StatusOK, entries)
	case q.Get("research_run_id") != "":
		entries, err := s.ReviewQueue.ListByRun(ctx, q.Get("research_run_id"))
		if err != nil {
			writeError(w, s.Log, err)
			return
		}
		writeJSON(w, http.StatusOK, entries)
	case q.Get("assignee") != "":
		entries, err := s.ReviewQueue.ListByAssignee(ctx, q.Get("assignee"))
		if err != nil {
			writeError(w, s.Log, err)
			return
		}
		writeJSON(w, http.StatusOK, entries)
	default:
		entries, err := s.ReviewQueue.ListByStatus(ctx, domain.ReviewPending)
		if err != nil {
			writeError(w, s.Log, err)
			return
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

type assignReviewRequest struct {
	Assignee string `json:"assignee"`
}

// assignReview implements review.assign(entry_id, assignee).
func (s *Server) assignReview(w http.ResponseWriter, r *http.Request) {
	var req assignReviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	entry, err := s.ReviewQueue.Assign(r.Context(), chi.URLParam(r, "entryID"), req.Assignee)
	if err != nil {
		writeError(w, s.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

type decideReviewRequest struct {
	Decision domain.Decision `json:"decision"`
	Notes    string          `json:"notes"`
}

// decideReview implements review.decide(entry_id, decision, notes?).
func (s *Server) decideReview(w http.ResponseWriter, r *http.Request) {
	var req decideReviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	entry, err := s.ReviewQueue.Decide(r.Context(), chi.URLParam(r, "entryID"), req.Decision, req.Notes)
	if err != nil {
		writeError(w, s.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
