package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// runMetrics implements metrics.run(run_id).
func (s *Server) runMetrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := s.Metrics.Run(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		writeError(w, s.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, metrics)
}

// aggregateMetrics implements metrics.aggregate(time_range?), defaulting
// to the trailing 24 hours when since/until are omitted.
func (s *Server) aggregateMetrics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	until := time.Now().UTC()
	since := until.Add(-24 * time.Hour)

	if raw := q.Get("until"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Kind: "invalid_argument", Message: "until must be RFC3339"})
			return
		}
		until = parsed
	}
	if raw := q.Get("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Kind: "invalid_argument", Message: "since must be RFC3339"})
			return
		}
		since = parsed
	}

	metrics, err := s.Metrics.Aggregate(r.Context(), since, until)
	if err != nil {
		writeError(w, s.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, metrics)
}
