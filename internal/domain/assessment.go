package domain

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/r3e-network/research-orchestrator/pkg/orcherrors"
)

// ScoringMethod records whether an assessment took the AI-augmented path or
// fell back to deterministic heuristics.
type ScoringMethod string

const (
	MethodAIEnhanced ScoringMethod = "ai_enhanced"
	MethodFallback   ScoringMethod = "fallback"
)

// QualityAssessment is the four-dimension weighted score for one
// ContentSource. At most one exists per ContentSource.
type QualityAssessment struct {
	ID              string
	ContentSourceID string
	ResearchRunID   string

	Credibility  float64
	Relevance    float64
	Freshness    float64
	Completeness float64
	Overall      float64

	Summary        string
	Classification string
	Rationale      string

	// AssessmentMetadata records the weights used and Method.
	AssessmentMetadata map[string]interface{}

	Provenance Provenance
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CredibilityWeight, RelevanceWeight, FreshnessWeight, and
// CompletenessWeight are the composite invariant's fixed weights: overall =
// 0.4*cred + 0.3*rel + 0.2*fresh + 0.1*complete.
const (
	CredibilityWeight  = 0.4
	RelevanceWeight    = 0.3
	FreshnessWeight    = 0.2
	CompletenessWeight = 0.1
)

// NewQualityAssessment constructs an assessment from the four per-dimension
// scores, computing Overall per the composite invariant and validating each
// score lies in [0,1].
func NewQualityAssessment(contentSourceID, runID string, credibility, relevance, freshness, completeness float64, method ScoringMethod) (*QualityAssessment, error) {
	for field, score := range map[string]float64{
		"credibility":  credibility,
		"relevance":    relevance,
		"freshness":    freshness,
		"completeness": completeness,
	} {
		if score < 0 || score > 1 {
			return nil, orcherrors.InvalidArgument(field, "score must lie in [0,1]")
		}
	}

	now := time.Now().UTC()
	a := &QualityAssessment{
		ID:              uuid.New().String(),
		ContentSourceID: contentSourceID,
		ResearchRunID:   runID,
		Credibility:     credibility,
		Relevance:       relevance,
		Freshness:       freshness,
		Completeness:    completeness,
		AssessmentMetadata: map[string]interface{}{
			"method": string(method),
			"weights": map[string]float64{
				"credibility":  CredibilityWeight,
				"relevance":    RelevanceWeight,
				"freshness":    FreshnessWeight,
				"completeness": CompletenessWeight,
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	a.Overall = CompositeScore(credibility, relevance, freshness, completeness)
	return a, nil
}

// CompositeScore applies the composite invariant, rounding to two decimal
// places so the invariant is exactly recomputable.
func CompositeScore(credibility, relevance, freshness, completeness float64) float64 {
	raw := CredibilityWeight*credibility + RelevanceWeight*relevance + FreshnessWeight*freshness + CompletenessWeight*completeness
	return math.Round(raw*100) / 100
}

// Method returns the recorded scoring method, defaulting to fallback if
// metadata is missing it.
func (a *QualityAssessment) Method() ScoringMethod {
	if m, ok := a.AssessmentMetadata["method"].(string); ok {
		return ScoringMethod(m)
	}
	return MethodFallback
}
