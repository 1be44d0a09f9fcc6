// Command orchestrator-service is the composition root: it loads
// configuration, wires every collaborator package, and serves the
// illustrative HTTP surface (internal/api) alongside the optional cron
// scheduler (internal/scheduler) until SIGINT/SIGTERM.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/r3e-network/research-orchestrator/internal/ai"
	"github.com/r3e-network/research-orchestrator/internal/api"
	"github.com/r3e-network/research-orchestrator/internal/audit"
	"github.com/r3e-network/research-orchestrator/internal/discovery"
	"github.com/r3e-network/research-orchestrator/internal/integration"
	"github.com/r3e-network/research-orchestrator/internal/orchestrator"
	"github.com/r3e-network/research-orchestrator/internal/quality"
	"github.com/r3e-network/research-orchestrator/internal/repository"
	"github.com/r3e-network/research-orchestrator/internal/resilience"
	"github.com/r3e-network/research-orchestrator/internal/review"
	"github.com/r3e-network/research-orchestrator/internal/scheduler"
	"github.com/r3e-network/research-orchestrator/internal/telemetry"
	"github.com/r3e-network/research-orchestrator/pkg/config"
	"github.com/r3e-network/research-orchestrator/pkg/logging"
	"github.com/r3e-network/research-orchestrator/pkg/tracing"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (overrides CONFIG_FILE)")
	addr := flag.String("addr", "", "HTTP listen address (overrides server.host:server.port)")
	flag.Parse()

	if *configPath != "" {
		os.Setenv("CONFIG_FILE", *configPath)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := logging.New("orchestrator-service", cfg.Logging.Level, cfg.Logging.Format)
	tracer := tracing.New(nil, "research-orchestrator")

	repos := repository.NewMemoryRepositories()
	breakers := resilience.NewRegistry(cfg.Breaker, logger)

	clients := buildDiscoveryClients(logger)
	coordinator := discovery.NewCoordinator(clients, breakers, tracer)

	scorer := quality.NewQualityScorer(quality.Config{
		TopicFreshnessDays:   cfg.Scoring.TopicFreshnessDays,
		DefaultFreshnessDays: 90,
		ReputationCacheSize:  256,
	}, buildAIAdapter(cfg.AI, logger), breakers, logger)

	analyzer := integration.NewAnalyzer(integration.NewHashEmbedder(256), integration.NewMemoryVectorStore(), repos, logger)
	reviewQueue := review.New(repos, repos, repos, repos, repos, analyzer, logger)
	auditLog := audit.New(repos, repos, repos, repos, repos)
	metrics := telemetry.New(repos, repos, repos)
	exporter := telemetry.NewPrometheusExporter()

	orch := orchestrator.New(repos, repos, repos, repos, coordinator, scorer, analyzer, reviewQueue, auditLog, cfg.Orchestrator, logger, tracer)

	sched := scheduler.New(repos, orch, logger)
	schedCtx, stopSched := context.WithCancel(context.Background())
	go sched.Start(schedCtx)

	server := &api.Server{
		Runs:         repos,
		Sources:      repos,
		Proposals:    repos,
		Orchestrator: orch,
		ReviewQueue:  reviewQueue,
		Analyzer:     analyzer,
		AuditLog:     auditLog,
		Metrics:      metrics,
		Exporter:     exporter,
		Log:          logger,
	}
	router := api.NewRouter(server)

	listenAddr := resolveAddr(*addr, cfg)
	httpServer := &http.Server{
		Addr:    listenAddr,
		Handler: router,
	}

	go func() {
		logger.WithField("addr", listenAddr).Info("research orchestrator listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("http server failed")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	stopSched()
	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("http server shutdown error")
	}
}

func resolveAddr(flagAddr string, cfg *config.Config) string {
	if trimmed := strings.TrimSpace(flagAddr); trimmed != "" {
		return trimmed
	}
	port := cfg.Server.Port
	if port <= 0 {
		port = 8080
	}
	return cfg.Server.Host + ":" + strconv.Itoa(port)
}

// buildDiscoveryClients wires the three ExternalClients spec §4.3 names;
// a client whose API key is absent from the environment is skipped
// rather than constructed with an empty key, so Coordinator.DiscoverAll's
// "every client unavailable" failure path is the natural outcome instead
// of every request failing on invalid credentials.
func buildDiscoveryClients(logger *logging.Logger) []discovery.ExternalClient {
	var clients []discovery.ExternalClient

	if key := strings.TrimSpace(os.Getenv("GOOGLE_SEARCH_API_KEY")); key != "" {
		engine := strings.TrimSpace(os.Getenv("GOOGLE_SEARCH_ENGINE_ID"))
		clients = append(clients, discovery.NewGoogleSearchClient(key, engine, 10*time.Second))
	}
	if key := strings.TrimSpace(os.Getenv("SEMANTIC_SCHOLAR_API_KEY")); key != "" {
		clients = append(clients, discovery.NewSemanticScholarClient(key, 10*time.Second))
	}
	if key := strings.TrimSpace(os.Getenv("NEWS_API_KEY")); key != "" {
		clients = append(clients, discovery.NewNewsAPIClient(key, 10*time.Second))
	}

	if len(clients) == 0 {
		logger.Warn("no discovery client API keys configured; DISCOVER will fail every run")
	}
	return clients
}

func buildAIAdapter(cfg config.AIConfig, logger *logging.Logger) ai.AIAdapter {
	if !cfg.Enabled || strings.TrimSpace(cfg.APIKey) == "" {
		return nil
	}
	return ai.NewAnthropicAdapter(cfg.APIKey, anthropicsdk.Model(cfg.Model), logger)
}
