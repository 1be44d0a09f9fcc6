// Package quality implements the four independent sub-scorers spec §4.4
// names (credibility, relevance, freshness, completeness), the AI
// augmentation path with deterministic fallback, and the composite
// QualityScorer that ties them together into a domain.QualityAssessment.
//
// Grounded on original_source/src/services/scoring/{credibility,relevance,
// freshness,completeness}_scorer.py — reworked from four async classes
// into four pure functions of a domain.ContentSource plus a topic string.
package quality

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/r3e-network/research-orchestrator/internal/domain"
)

// reputableDomains mirrors the original's known-reputable table.
var reputableDomains = map[string]float64{
	"wikipedia.org": 0.8,
	"arxiv.org":     0.9,
	"nih.gov":       0.9,
	"nasa.gov":      0.9,
	"nature.com":    0.8,
	"science.org":   0.8,
	"ieee.org":      0.8,
	"acm.org":       0.8,
}

// lowReputationDomains mirrors the original's known-low-reputation table.
var lowReputationDomains = map[string]float64{
	"blogspot.com":  0.3,
	"wordpress.com": 0.4,
	"medium.com":    0.4,
	"tumblr.com":    0.3,
}

// tldReputation is the TLD-default fallback.
var tldReputation = map[string]float64{
	"edu": 0.9,
	"gov": 0.9,
	"org": 0.7,
	"com": 0.5,
	"net": 0.5,
}

var sourceTypeCredibility = map[domain.SourceType]float64{
	domain.SourceAcademic: 0.9,
	domain.SourceNews:     0.6,
	domain.SourceWeb:      0.5,
	domain.SourceOther:    0.5,
}

var positiveTitlePattern = regexp.MustCompile(`(?i)\b(study|research|analysis|findings|evidence|data|peer.?reviewed|academic|scientific|journal|conference|proceedings)\b`)
var negativeTitlePattern = regexp.MustCompile(`(?i)\b(shocking|amazing|incredible|unbelievable|you won't believe)\b|[!?]{2,}$`)

var institutionalIndicators = []string{"university", "college", "institute", "research center", "laboratory", "department", "faculty"}

// CredibilityScorer scores source trustworthiness on [0,1], grounded on
// CredibilityScorer.score_content's four-signal weighted mix.
type CredibilityScorer struct {
	reputation *ReputationCache
}

// NewCredibilityScorer builds a scorer backed by an LRU-cached domain
// reputation lookup keyed by the source's full URL, so rescoring the same
// URL within a run skips recomputation.
func NewCredibilityScorer(reputation *ReputationCache) *CredibilityScorer {
	return &CredibilityScorer{reputation: reputation}
}

// Score returns the credibility dimension in [0,1].
func (s *CredibilityScorer) Score(source *domain.ContentSource) float64 {
	domainScore := s.scoreDomainReputation(source.URL)
	contentScore := s.scoreContentQuality(source)
	authorScore := s.scoreAuthorCredibility(source)
	validationScore := s.scoreExternalValidation(source)

	weighted := 0.4*domainScore + 0.3*contentScore + 0.2*authorScore + 0.1*validationScore
	return clamp01(weighted)
}

func (s *CredibilityScorer) scoreDomainReputation(rawURL string) float64 {
	if s.reputation != nil {
		if score, ok := s.reputation.Get(rawURL); ok {
			return score
		}
	}
	score := computeDomainReputation(rawURL)
	if s.reputation != nil {
		s.reputation.Put(rawURL, score)
	}
	return score
}

func computeDomainReputation(rawURL string) float64 {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return 0.5
	}
	host := strings.ToLower(parsed.Host)

	for known, score := range reputableDomains {
		if strings.Contains(host, known) {
			return score
		}
	}
	for known, score := range lowReputationDomains {
		if strings.Contains(host, known) {
			return score
		}
	}
	if idx := strings.LastIndex(host, "."); idx >= 0 {
		tld := host[idx+1:]
		if score, ok := tldReputation[tld]; ok {
			return score
		}
	}
	return 0.5
}

func (s *CredibilityScorer) scoreContentQuality(source *domain.ContentSource) float64 {
	score := 0.5
	score += analyzeTitleQuality(source.Title) * 0.2
	score += analyzeDescriptionQuality(description(source)) * 0.2
	score += sourceTypeScore(source.SourceType) * 0.3
	return clamp01(score)
}

func analyzeTitleQuality(title string) float64 {
	if title == "" {
		return 0.3
	}
	score := 0.5
	if positiveTitlePattern.MatchString(title) {
		score += 0.1
	}
	if negativeTitlePattern.MatchString(title) {
		score -= 0.2
	}
	words := len(strings.Fields(title))
	switch {
	case words >= 5 && words <= 15:
		score += 0.1
	case words > 20:
		score -= 0.1
	}
	return clamp01(score)
}

func analyzeDescriptionQuality(desc string) float64 {
	if desc == "" {
		return 0.3
	}
	score := 0.5
	lower := strings.ToLower(desc)
	for _, phrase := range []string{"study found", "research shows", "according to", "evidence suggests", "data indicates", "analysis reveals", "findings demonstrate"} {
		if strings.Contains(lower, phrase) {
			score += 0.05
		}
	}
	for _, term := range []string{"methodology", "hypothesis", "results", "conclusion", "abstract"} {
		if strings.Contains(lower, term) {
			score += 0.05
		}
	}
	words := len(strings.Fields(desc))
	switch {
	case words >= 20 && words <= 100:
		score += 0.1
	case words < 10:
		score -= 0.2
	}
	return clamp01(score)
}

func sourceTypeScore(st domain.SourceType) float64 {
	if score, ok := sourceTypeCredibility[st]; ok {
		return score
	}
	return 0.5
}

func (s *CredibilityScorer) scoreAuthorCredibility(source *domain.ContentSource) float64 {
	score := 0.5
	metaText := strings.ToLower(metadataString(source))
	for _, indicator := range institutionalIndicators {
		if strings.Contains(metaText, indicator) {
			score += 0.2
			break
		}
	}
	if author, ok := source.SourceMetadata["author"].(string); ok && author != "" {
		score += 0.1
	}
	return clamp01(score)
}

func (s *CredibilityScorer) scoreExternalValidation(source *domain.ContentSource) float64 {
	score := 0.5
	if peerReviewed, ok := source.SourceMetadata["peer_reviewed"].(bool); ok && peerReviewed {
		score += 0.3
	}
	if count, ok := asInt(source.SourceMetadata["citation_count"]); ok && count > 10 {
		score += 0.2
	}
	return clamp01(score)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func description(source *domain.ContentSource) string {
	if desc, ok := source.SourceMetadata["description"].(string); ok {
		return desc
	}
	if abstract, ok := source.SourceMetadata["abstract"].(string); ok {
		return abstract
	}
	return ""
}

func metadataString(source *domain.ContentSource) string {
	var parts []string
	for k, v := range source.SourceMetadata {
		parts = append(parts, k, toString(v))
	}
	return strings.Join(parts, " ")
}

func toString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case []string:
		return strings.Join(val, " ")
	default:
		return ""
	}
}

func asInt(v interface{}) (int, bool) {
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	case float64:
		return int(val), true
	default:
		return 0, false
	}
}
