package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// auditTimeline implements audit.timeline(run_id).
func (s *Server) auditTimeline(w http.ResponseWriter, r *http.Request) {
	events, err := s.AuditLog.Timeline(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		writeError(w, s.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// auditReport implements audit.report(run_id).
func (s *Server) auditReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.AuditLog.Report(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		writeError(w, s.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
