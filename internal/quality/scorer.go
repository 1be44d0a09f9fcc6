package quality

import (
	"context"

	"github.com/r3e-network/research-orchestrator/internal/ai"
	"github.com/r3e-network/research-orchestrator/internal/domain"
	"github.com/r3e-network/research-orchestrator/internal/resilience"
	"github.com/r3e-network/research-orchestrator/pkg/logging"
)

// QualityScorer composes the four sub-scorers into a single
// domain.QualityAssessment, taking the AI-augmented path when an
// AIAdapter is configured and its breaker admits, falling back to
// deterministic summarizer/classifier/rationale otherwise (spec §4.4).
type QualityScorer struct {
	credibility  *CredibilityScorer
	relevance    *RelevanceScorer
	freshness    *FreshnessScorer
	completeness *CompletenessScorer

	aiAdapter ai.AIAdapter
	fallback  *ai.FallbackAdapter
	breakers  *resilience.Registry
	log       *logging.Logger
}

// Config assembles the topic-specific freshness requirement table (spec
// §4.4: news ≈7d, tech ≈180d, science ≈365d, unknown ≈90d).
type Config struct {
	TopicFreshnessDays   map[string]int
	DefaultFreshnessDays int
	ReputationCacheSize  int
}

// NewQualityScorer builds a scorer. aiAdapter may be nil, which disables
// the AI-augmented path entirely regardless of breaker state.
func NewQualityScorer(cfg Config, aiAdapter ai.AIAdapter, breakers *resilience.Registry, log *logging.Logger) *QualityScorer {
	return &QualityScorer{
		credibility:  NewCredibilityScorer(NewReputationCache(cfg.ReputationCacheSize)),
		relevance:    NewRelevanceScorer(),
		freshness:    NewFreshnessScorer(cfg.TopicFreshnessDays, cfg.DefaultFreshnessDays),
		completeness: NewCompletenessScorer(),
		aiAdapter:    aiAdapter,
		fallback:     ai.NewFallbackAdapter(),
		breakers:     breakers,
		log:          log,
	}
}

// Score computes all four dimensions and the AI-or-fallback narrative
// fields for source, against the run's research topic.
func (q *QualityScorer) Score(ctx context.Context, source *domain.ContentSource, topic string) (*domain.QualityAssessment, error) {
	return q.score(ctx, source, topic, q.aiAdapter != nil)
}

// ScoreWithoutAI forces the deterministic fallback path regardless of
// adapter configuration — used by the orchestrator's ASSESS-stage
// recovery (spec §4.1: "switch to the deterministic fallback scorer for
// all remaining sources").
func (q *QualityScorer) ScoreWithoutAI(ctx context.Context, source *domain.ContentSource, topic string) (*domain.QualityAssessment, error) {
	return q.score(ctx, source, topic, false)
}

func (q *QualityScorer) score(ctx context.Context, source *domain.ContentSource, topic string, allowAI bool) (*domain.QualityAssessment, error) {
	credibility := q.credibility.Score(source)
	relevance := q.relevance.Score(source, topic)
	freshness := q.freshness.Score(source, topic)
	completeness := q.completeness.Score(source)

	method := domain.MethodFallback
	summary, classification := "", ""

	if allowAI {
		breaker := q.breakers.Get("ai_service")
		if breaker.State() != resilience.StateOpen {
			err := breaker.Execute(ctx, func() error {
				sres, e := q.aiAdapter.Summarize(ctx, source.Title, description(source), source.CombinedText())
				if e != nil {
					return e
				}
				cres, e := q.aiAdapter.Classify(ctx, source.Title, string(source.SourceType))
				if e != nil {
					return e
				}
				summary, classification = sres.Summary, cres.Classification
				return nil
			})
			if err == nil {
				method = domain.MethodAIEnhanced
			} else if q.log != nil {
				q.log.WithField("content_source_id", source.ID).WithError(err).Warn("ai augmentation failed, falling back")
			}
		}
	}

	if method == domain.MethodFallback {
		sres, _ := q.fallback.Summarize(ctx, source.Title, description(source), source.CombinedText())
		cres, _ := q.fallback.Classify(ctx, source.Title, string(source.SourceType))
		summary, classification = sres.Summary, cres.Classification
	}

	assessment, err := domain.NewQualityAssessment(source.ID, source.ResearchRunID, credibility, relevance, freshness, completeness, method)
	if err != nil {
		return nil, err
	}
	assessment.Summary = summary
	assessment.Classification = classification
	assessment.Rationale = q.rationale(ctx, method, source, topic, assessment)
	return assessment, nil
}

func (q *QualityScorer) rationale(ctx context.Context, method domain.ScoringMethod, source *domain.ContentSource, topic string, assessment *domain.QualityAssessment) string {
	input := ai.RationaleInput{
		Credibility:  assessment.Credibility,
		Relevance:    assessment.Relevance,
		Freshness:    assessment.Freshness,
		Completeness: assessment.Completeness,
		Overall:      assessment.Overall,
		Title:        source.Title,
		Topic:        topic,
	}

	if method == domain.MethodAIEnhanced {
		breaker := q.breakers.Get("ai_service")
		var text string
		err := breaker.Execute(ctx, func() error {
			r, e := q.aiAdapter.Rationale(ctx, input)
			if e != nil {
				return e
			}
			text = r
			return nil
		})
		if err == nil {
			return text
		}
	}

	text, _ := q.fallback.Rationale(ctx, input)
	return text
}
