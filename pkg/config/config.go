// Package config loads typed configuration for the research orchestrator:
// defaults, then an optional YAML file, then environment variable
// overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ServerConfig controls the illustrative HTTP surface in internal/api.
type ServerConfig struct {
	Host string `json:"host" yaml:"host" env:"SERVER_HOST"`
	Port int    `json:"port" yaml:"port" env:"SERVER_PORT"`
}

// LoggingConfig controls structured logging output.
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level" env:"LOG_LEVEL"`
	Format string `json:"format" yaml:"format" env:"LOG_FORMAT"`
}

// OrchestratorConfig tunes the stage-graph orchestrator's concurrency and
// timing.
type OrchestratorConfig struct {
	// StageConcurrency caps how many content sources/proposals a single
	// stage processes in flight at once.
	StageConcurrency int `json:"stage_concurrency" yaml:"stage_concurrency" env:"ORCHESTRATOR_STAGE_CONCURRENCY"`
	// StageDeadline bounds how long a single stage may run before it is
	// treated as failed for recovery purposes.
	StageDeadline time.Duration `json:"stage_deadline" yaml:"stage_deadline" env:"ORCHESTRATOR_STAGE_DEADLINE"`
	// RunGracePeriod is how long a cancellation request waits for
	// in-flight work to unwind before the run is forced to FAILED.
	RunGracePeriod time.Duration `json:"run_grace_period" yaml:"run_grace_period" env:"ORCHESTRATOR_RUN_GRACE_PERIOD"`
	// MaxConcurrentRuns caps how many research runs may be RUNNING at
	// once across the process.
	MaxConcurrentRuns int `json:"max_concurrent_runs" yaml:"max_concurrent_runs" env:"ORCHESTRATOR_MAX_CONCURRENT_RUNS"`
}

// BreakerServiceConfig tunes a single named external service's circuit
// breaker.
type BreakerServiceConfig struct {
	FailureThreshold    int           `json:"failure_threshold" yaml:"failure_threshold"`
	SuccessThreshold    int           `json:"success_threshold" yaml:"success_threshold"`
	OpenTimeout         time.Duration `json:"open_timeout" yaml:"open_timeout"`
	ResetTimeout        time.Duration `json:"reset_timeout" yaml:"reset_timeout"`
	HalfOpenMaxRequests int           `json:"half_open_max_requests" yaml:"half_open_max_requests"`
}

// BreakerConfig is the per-service circuit breaker table plus the fallback
// entry applied to any service not otherwise listed.
type BreakerConfig struct {
	Default  BreakerServiceConfig            `json:"default" yaml:"default"`
	Services map[string]BreakerServiceConfig `json:"services" yaml:"services"`
}

// ForService returns the tuned config for service, falling back to Default
// when service has no dedicated entry.
func (b BreakerConfig) ForService(service string) BreakerServiceConfig {
	if cfg, ok := b.Services[service]; ok {
		return cfg
	}
	return b.Default
}

// ScoringConfig tunes the QualityScorer's four sub-dimensions.
type ScoringConfig struct {
	// CredibilityWeight, RelevanceWeight, FreshnessWeight, and
	// CompletenessWeight must sum to 1.0; the orchestrator's default is
	// 0.4/0.3/0.2/0.1 per the composite invariant.
	CredibilityWeight  float64 `json:"credibility_weight" yaml:"credibility_weight"`
	RelevanceWeight    float64 `json:"relevance_weight" yaml:"relevance_weight"`
	FreshnessWeight    float64 `json:"freshness_weight" yaml:"freshness_weight"`
	CompletenessWeight float64 `json:"completeness_weight" yaml:"completeness_weight"`

	// TopicFreshnessDays maps a content topic (news, tech, science,
	// unknown) to an age requirement, in days. The freshness score does
	// not stay at 1.0 up to this age: it falls linearly from 1.0 at age 0
	// to 0.7 at this age, then keeps falling beyond it toward a floor of
	// 0.1.
	TopicFreshnessDays map[string]int `json:"topic_freshness_days" yaml:"topic_freshness_days"`
}

// AIConfig controls whether the AI-augmented scoring/integration paths are
// exercised, falling back to deterministic heuristics when disabled or
// when the adapter itself fails.
type AIConfig struct {
	Enabled bool          `json:"enabled" yaml:"enabled" env:"AI_ENABLED"`
	Model   string        `json:"model" yaml:"model" env:"AI_MODEL"`
	Timeout time.Duration `json:"timeout" yaml:"timeout" env:"AI_TIMEOUT"`
	APIKey  string        `json:"-" yaml:"-" env:"ANTHROPIC_API_KEY"`
}

// Config is the top-level configuration structure.
type Config struct {
	Server       ServerConfig        `json:"server" yaml:"server"`
	Logging      LoggingConfig       `json:"logging" yaml:"logging"`
	Orchestrator OrchestratorConfig  `json:"orchestrator" yaml:"orchestrator"`
	Breaker      BreakerConfig       `json:"breaker" yaml:"breaker"`
	Scoring      ScoringConfig       `json:"scoring" yaml:"scoring"`
	AI           AIConfig            `json:"ai" yaml:"ai"`
}

// New returns a configuration populated with defaults grounded in
// original_source's external-service circuit breaker table and scoring
// weights.
func New() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Orchestrator: OrchestratorConfig{
			StageConcurrency:  8,
			StageDeadline:     2 * time.Minute,
			RunGracePeriod:    15 * time.Second,
			MaxConcurrentRuns: 4,
		},
		Breaker: BreakerConfig{
			Default: BreakerServiceConfig{
				FailureThreshold:    5,
				SuccessThreshold:    3,
				OpenTimeout:         60 * time.Second,
				ResetTimeout:        300 * time.Second,
				HalfOpenMaxRequests: 1,
			},
			Services: map[string]BreakerServiceConfig{
				"google_search": {
					FailureThreshold:    3,
					SuccessThreshold:    2,
					OpenTimeout:         30 * time.Second,
					ResetTimeout:        180 * time.Second,
					HalfOpenMaxRequests: 1,
				},
				"semantic_scholar": {
					FailureThreshold:    5,
					SuccessThreshold:    3,
					OpenTimeout:         60 * time.Second,
					ResetTimeout:        300 * time.Second,
					HalfOpenMaxRequests: 1,
				},
				"news_api": {
					FailureThreshold:    4,
					SuccessThreshold:    2,
					OpenTimeout:         45 * time.Second,
					ResetTimeout:        240 * time.Second,
					HalfOpenMaxRequests: 1,
				},
				"ai_service": {
					FailureThreshold:    2,
					SuccessThreshold:    1,
					OpenTimeout:         90 * time.Second,
					ResetTimeout:        360 * time.Second,
					HalfOpenMaxRequests: 1,
				},
			},
		},
		Scoring: ScoringConfig{
			CredibilityWeight:  0.4,
			RelevanceWeight:    0.3,
			FreshnessWeight:    0.2,
			CompletenessWeight: 0.1,
			TopicFreshnessDays: map[string]int{
				"news":    7,
				"tech":    180,
				"science": 365,
				"unknown": 90,
			},
		},
		AI: AIConfig{
			Enabled: false,
			Model:   "claude-3-5-sonnet-latest",
			Timeout: 20 * time.Second,
		},
	}
}

// Load loads configuration from an optional .env file, an optional YAML
// config file, and environment variable overrides, in that order.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := New()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, err
		}
	} else {
		_ = loadFromFile("configs/config.yaml", cfg)
	}

	if err := envdecode.Decode(cfg); err != nil {
		// envdecode errors when no tagged fields are present in the
		// environment; treat that as "no overrides" so local runs work
		// without exporting vars.
		if !strings.Contains(err.Error(), "none of the target fields were set") {
			return nil, fmt.Errorf("decode env: %w", err)
		}
	}

	return cfg, nil
}

// LoadFile reads configuration from a YAML file, layered over defaults.
func LoadFile(path string) (*Config, error) {
	cfg := New()
	if err := loadFromFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	expanded, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, cfg)
}
