package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/r3e-network/research-orchestrator/internal/audit"
	"github.com/r3e-network/research-orchestrator/internal/integration"
	"github.com/r3e-network/research-orchestrator/internal/orchestrator"
	"github.com/r3e-network/research-orchestrator/internal/repository"
	"github.com/r3e-network/research-orchestrator/internal/review"
	"github.com/r3e-network/research-orchestrator/internal/telemetry"
	"github.com/r3e-network/research-orchestrator/pkg/logging"
)

// Server bundles the collaborators every handler needs, mirroring the
// teacher's pattern of a thin server struct wired once at startup and
// passed into chi route registration.
type Server struct {
	Runs         repository.ResearchRunRepository
	Sources      repository.ContentSourceRepository
	Proposals    repository.IntegrationProposalRepository
	Orchestrator *orchestrator.Orchestrator
	ReviewQueue  *review.Queue
	Analyzer     *integration.Analyzer
	AuditLog     *audit.Log
	Metrics      *telemetry.Collector
	Exporter     *telemetry.PrometheusExporter
	Log          *logging.Logger
}

// NewRouter builds the chi.Mux exposing spec §6's core-exposed
// operations. Authentication/authorization is explicitly out of scope
// (spec §1) — every route here is unauthenticated.
func NewRouter(s *Server) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/research", func(r chi.Router) {
		r.Post("/", s.createResearch)
		r.Get("/", s.listResearch)
		r.Get("/pending", s.pendingResearch)
		r.Get("/running", s.runningResearch)
		r.Get("/{runID}", s.getResearch)
		r.Post("/{runID}/start", s.startResearch)
	})

	r.Route("/review", func(r chi.Router) {
		r.Get("/", s.listReview)
		r.Post("/{entryID}/assign", s.assignReview)
		r.Post("/{entryID}/decide", s.decideReview)
	})

	r.Route("/integration", func(r chi.Router) {
		r.Get("/{contentSourceID}", s.getIntegration)
		r.Post("/{contentSourceID}/generate", s.generateIntegration)
	})

	r.Route("/audit", func(r chi.Router) {
		r.Get("/{runID}/timeline", s.auditTimeline)
		r.Get("/{runID}/report", s.auditReport)
	})

	r.Route("/metrics", func(r chi.Router) {
		r.Get("/{runID}", s.runMetrics)
		r.Get("/aggregate", s.aggregateMetrics)
	})

	if s.Exporter != nil {
		r.Handle("/metrics/prometheus", promhttp.HandlerFor(s.Exporter.Registry(), promhttp.HandlerOpts{}))
	}

	return r
}
