package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/r3e-network/research-orchestrator/internal/audit"
	"github.com/r3e-network/research-orchestrator/internal/discovery"
	"github.com/r3e-network/research-orchestrator/internal/domain"
	"github.com/r3e-network/research-orchestrator/internal/integration"
	"github.com/r3e-network/research-orchestrator/internal/orchestrator"
	"github.com/r3e-network/research-orchestrator/internal/quality"
	"github.com/r3e-network/research-orchestrator/internal/repository"
	"github.com/r3e-network/research-orchestrator/internal/resilience"
	"github.com/r3e-network/research-orchestrator/internal/review"
	"github.com/r3e-network/research-orchestrator/internal/telemetry"
	"github.com/r3e-network/research-orchestrator/pkg/config"
)

type fakeClient struct{}

func (fakeClient) Name() string                    { return "web" }
func (fakeClient) SourceType() discovery.SourceKind { return discovery.SourceWeb }
func (fakeClient) Search(_ context.Context, _ string, _ int) ([]discovery.RawItem, error) {
	return []discovery.RawItem{{CanonicalID: "https://example.com/a", Title: "Item A"}}, nil
}

func newTestServer(t *testing.T) (*Server, *repository.MemoryRepositories) {
	t.Helper()
	repos := repository.NewMemoryRepositories()
	breakers := resilience.NewRegistry(config.BreakerConfig{}, nil)
	coordinator := discovery.NewCoordinator([]discovery.ExternalClient{fakeClient{}}, breakers, nil)
	scorer := quality.NewQualityScorer(quality.Config{}, nil, breakers, nil)
	analyzer := integration.NewAnalyzer(integration.NewHashEmbedder(32), integration.NewMemoryVectorStore(), repos, nil)
	reviewQueue := review.New(repos, repos, repos, repos, repos, analyzer, nil)
	auditLog := audit.New(repos, repos, repos, repos, repos)
	metrics := telemetry.New(repos, repos, repos)
	cfg := config.OrchestratorConfig{StageConcurrency: 2, StageDeadline: 5 * time.Second}
	orch := orchestrator.New(repos, repos, repos, repos, coordinator, scorer, analyzer, reviewQueue, auditLog, cfg, nil, nil)

	return &Server{
		Runs:         repos,
		Sources:      repos,
		Proposals:    repos,
		Orchestrator: orch,
		ReviewQueue:  reviewQueue,
		Analyzer:     analyzer,
		AuditLog:     auditLog,
		Metrics:      metrics,
	}, repos
}

func TestCreateAndGetResearch(t *testing.T) {
	server, _ := newTestServer(t)
	router := NewRouter(server)

	body, err := json.Marshal(createResearchRequest{Topic: "transformer models", CreatedBy: "tester"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/research", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created createResearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.RunID)

	getReq := httptest.NewRequest(http.MethodGet, "/research/"+created.RunID, nil)
	getRec := httptest.NewRecorder()
	router.ServeHTTP(getRec, getReq)
	assert.Equal(t, http.StatusOK, getRec.Code)

	var run domain.ResearchRun
	require.NoError(t, json.Unmarshal(getRec.Body.Bytes(), &run))
	assert.Equal(t, domain.RunPending, run.Status)
}

func TestStartResearch_RunsToCompletion(t *testing.T) {
	server, repos := newTestServer(t)
	router := NewRouter(server)

	run, err := domain.NewResearchRun("transformer models", "tester", nil)
	require.NoError(t, err)
	require.NoError(t, repos.CreateRun(context.Background(), run))

	req := httptest.NewRequest(http.MethodPost, "/research/"+run.ID+"/start", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code)

	require.Eventually(t, func() bool {
		got, err := repos.GetRun(context.Background(), run.ID)
		return err == nil && got.Status.IsTerminal()
	}, time.Second, 10*time.Millisecond)
}

func TestStartResearch_RejectsNonPendingRun(t *testing.T) {
	server, repos := newTestServer(t)
	router := NewRouter(server)

	run, err := domain.NewResearchRun("already running", "tester", nil)
	require.NoError(t, err)
	require.NoError(t, run.Start(time.Now().UTC()))
	require.NoError(t, repos.CreateRun(context.Background(), run))

	req := httptest.NewRequest(http.MethodPost, "/research/"+run.ID+"/start", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "conflict", resp.Kind)
}

func TestGetResearch_NotFound(t *testing.T) {
	server, _ := newTestServer(t)
	router := NewRouter(server)

	req := httptest.NewRequest(http.MethodGet, "/research/does-not-exist", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReviewLifecycle_AssignAndDecide(t *testing.T) {
	server, repos := newTestServer(t)
	router := NewRouter(server)

	source, err := domain.NewContentSource("run-1", domain.SourceWeb, "https://example.com/a", "Item A", "search", nil)
	require.NoError(t, err)
	require.NoError(t, repos.CreateSource(context.Background(), source))

	overall := 0.8
	entry, err := server.ReviewQueue.Enqueue(context.Background(), source.ID, "run-1", &overall)
	require.NoError(t, err)

	assignBody, err := json.Marshal(assignReviewRequest{Assignee: "reviewer-1"})
	require.NoError(t, err)
	assignReq := httptest.NewRequest(http.MethodPost, "/review/"+entry.ID+"/assign", bytes.NewReader(assignBody))
	assignRec := httptest.NewRecorder()
	router.ServeHTTP(assignRec, assignReq)
	require.Equal(t, http.StatusOK, assignRec.Code)

	decideBody, err := json.Marshal(decideReviewRequest{Decision: domain.DecisionApprove, Notes: "looks good"})
	require.NoError(t, err)
	decideReq := httptest.NewRequest(http.MethodPost, "/review/"+entry.ID+"/decide", bytes.NewReader(decideBody))
	decideRec := httptest.NewRecorder()
	router.ServeHTTP(decideRec, decideReq)
	assert.Equal(t, http.StatusOK, decideRec.Code)
}

func TestAuditTimeline_ReturnsEmittedEvents(t *testing.T) {
	server, _ := newTestServer(t)
	router := NewRouter(server)

	event := domain.NewAuditEvent("run-audit", domain.EventResearchStart, domain.LevelInfo, map[string]interface{}{"topic": "x"})
	require.NoError(t, server.AuditLog.Append(context.Background(), event))

	req := httptest.NewRequest(http.MethodGet, "/audit/run-audit/timeline", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	var events []*domain.AuditEvent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	assert.Len(t, events, 1)
}
