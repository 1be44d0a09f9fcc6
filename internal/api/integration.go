package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// getIntegration implements integration.get_by_source(cs_id).
func (s *Server) getIntegration(w http.ResponseWriter, r *http.Request) {
	proposal, err := s.Proposals.GetProposalByContentSource(r.Context(), chi.URLParam(r, "contentSourceID"))
	if err != nil {
		writeError(w, s.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, proposal)
}

// generateIntegration implements integration.generate(cs_id, run_id),
// delegating to Analyzer.Propose's idempotent generate-or-return
// behavior (spec §4.5).
func (s *Server) generateIntegration(w http.ResponseWriter, r *http.Request) {
	contentSourceID := chi.URLParam(r, "contentSourceID")
	source, err := s.Sources.GetSource(r.Context(), contentSourceID)
	if err != nil {
		writeError(w, s.Log, err)
		return
	}

	proposal, err := s.Analyzer.Propose(r.Context(), source)
	if err != nil {
		writeError(w, s.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, proposal)
}
