package quality

import (
	"strings"
	"time"

	"github.com/markusmobius/go-dateparser"

	"github.com/r3e-network/research-orchestrator/internal/domain"
)

const (
	veryFreshDays = 7
	veryOldDays   = 1825
)

// dateFields are the metadata keys the original checks, in priority
// order, for a parseable publication date.
var dateFields = []string{
	"publication_date", "published_date", "date_published",
	"created_date", "date_created", "timestamp",
	"last_modified", "updated_date", "published_at", "date",
}

// FreshnessScorer scores content timeliness against a topic-specific
// staleness budget, grounded on FreshnessScorer.score_content but using
// go-dateparser instead of a hand-rolled format list (spec §4.4: "parse
// publication date from metadata, tolerating several formats").
type FreshnessScorer struct {
	topicRequirements map[string]int
	defaultDays       int
	now               func() time.Time
	dateConfig        *dateparser.Configuration
}

// NewFreshnessScorer builds a scorer using the given topic→age-requirement
// table (days), falling back to defaultDays for unmatched topics.
func NewFreshnessScorer(topicRequirements map[string]int, defaultDays int) *FreshnessScorer {
	return &FreshnessScorer{
		topicRequirements: topicRequirements,
		defaultDays:       defaultDays,
		now:               time.Now,
		dateConfig:        &dateparser.Configuration{},
	}
}

// Score returns the freshness dimension in [0,1].
func (s *FreshnessScorer) Score(source *domain.ContentSource, topic string) float64 {
	pubDate, ok := s.extractPublicationDate(source)
	if !ok {
		return 0.5
	}

	ageDays := int(s.now().UTC().Sub(pubDate).Hours() / 24)
	requirement := s.requirementFor(topic)
	score := freshnessCurve(ageDays, requirement)

	if ageDays <= veryFreshDays {
		score = minF(1.0, score+0.1)
	}
	if ageDays > veryOldDays {
		score = maxF(0.1, score-0.2)
	}
	return score
}

func (s *FreshnessScorer) extractPublicationDate(source *domain.ContentSource) (time.Time, bool) {
	for _, field := range dateFields {
		raw, ok := source.SourceMetadata[field]
		if !ok {
			continue
		}
		str, ok := raw.(string)
		if !ok || strings.TrimSpace(str) == "" {
			continue
		}
		parsed, err := dateparser.Parse(s.dateConfig, str)
		if err != nil || parsed == nil {
			continue
		}
		return parsed.Time, true
	}
	if !source.RetrievalTimestamp.IsZero() {
		return source.RetrievalTimestamp, true
	}
	return time.Time{}, false
}

func (s *FreshnessScorer) requirementFor(topic string) int {
	lower := strings.ToLower(topic)
	for key, days := range s.topicRequirements {
		if strings.Contains(lower, key) {
			return days
		}
	}
	if s.defaultDays > 0 {
		return s.defaultDays
	}
	return 90
}

// freshnessCurve implements the original's linear-then-exponential decay:
// score is 1.0 at age 0, decaying by up to 30% at the requirement
// boundary, then decaying exponentially beyond it with a floor of 0.1.
func freshnessCurve(ageDays, requirement int) float64 {
	if ageDays <= 0 {
		return 1.0
	}
	if requirement <= 0 {
		requirement = 90
	}

	var score float64
	if ageDays <= requirement {
		ratio := float64(ageDays) / float64(requirement)
		score = 1.0 - ratio*0.3
	} else {
		excess := ageDays - requirement
		decay := minF(0.9, float64(excess)/float64(requirement*2))
		score = 0.7 * (1.0 - decay)
	}
	return maxF(0.1, minF(1.0, score))
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
