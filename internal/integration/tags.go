package integration

import (
	"regexp"
	"sort"
	"strings"

	"github.com/r3e-network/research-orchestrator/internal/domain"
)

var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {}, "on": {},
	"at": {}, "to": {}, "for": {}, "of": {}, "with": {}, "by": {}, "as": {}, "is": {},
	"are": {}, "was": {}, "were": {}, "be": {}, "been": {}, "have": {}, "has": {},
	"had": {}, "do": {}, "does": {}, "did": {}, "will": {}, "would": {}, "could": {},
	"should": {}, "may": {}, "might": {}, "can": {}, "this": {}, "that": {}, "these": {},
	"those": {},
}

type tagCategory struct {
	patterns []string
	weight   float64
}

var tagCategories = map[string]tagCategory{
	"topic":         {patterns: []string{"topic", "subject", "theme", "domain", "field"}, weight: 1.0},
	"methodology":   {patterns: []string{"method", "approach", "technique", "framework", "model"}, weight: 0.8},
	"technology":    {patterns: []string{"technology", "tool", "software", "platform", "system"}, weight: 0.9},
	"concept":       {patterns: []string{"concept", "principle", "theory", "idea", "notion"}, weight: 0.7},
	"application":   {patterns: []string{"application", "use case", "implementation", "deployment"}, weight: 0.6},
}

var priorTags = map[string]float64{
	"ai":               0.6,
	"machine-learning": 0.5,
	"data-science":     0.5,
	"research":         0.7,
	"innovation":       0.4,
	"best-practices":   0.5,
}

var tokenPattern = regexp.MustCompile(`[a-zA-Z][a-zA-Z0-9]*`)

type scoredTag struct {
	tag        string
	confidence float64
	category   string
}

// TagSuggester generates ranked tag candidates for a ContentSource
// (spec §4.5 step 4), combining keyword frequency, semantic-neighbor
// reweighting, source-context tags, and a small prior list.
type TagSuggester struct{}

// NewTagSuggester constructs a TagSuggester.
func NewTagSuggester() *TagSuggester {
	return &TagSuggester{}
}

// Suggest returns the top maxTags SuggestedTags for source, given its
// vector-store neighbors.
func (s *TagSuggester) Suggest(source *domain.ContentSource, neighbors []Neighbor, maxTags int) []domain.SuggestedTag {
	text := combinedText(source)

	merged := make(map[string]*scoredTag)
	merge := func(tag string, confidence float64, category string) {
		if existing, ok := merged[tag]; ok {
			if confidence > existing.confidence {
				existing.confidence = confidence
			}
			if category != "general" {
				existing.category = category
			}
			return
		}
		merged[tag] = &scoredTag{tag: tag, confidence: confidence, category: category}
	}

	for _, t := range keywordTags(text) {
		merge(t.tag, t.confidence, t.category)
	}
	for _, n := range neighbors {
		neighborText := n.Title
		for _, t := range keywordTags(neighborText) {
			merge(t.tag, t.confidence*n.Similarity, t.category)
		}
	}
	for _, t := range contextualTags(source) {
		merge(t.tag, t.confidence, t.category)
	}
	for _, t := range priorKnowledgeTags(text) {
		merge(t.tag, t.confidence, t.category)
	}

	ranked := make([]*scoredTag, 0, len(merged))
	for _, t := range merged {
		ranked = append(ranked, t)
	}

	type finalTag struct {
		tag   string
		score float64
	}
	final := make([]finalTag, 0, len(ranked))
	for _, t := range ranked {
		categoryWeight := 0.5
		if c, ok := tagCategories[t.category]; ok {
			categoryWeight = c.weight
		}
		categoryAdjusted := t.confidence * categoryWeight
		position := positionScore(t.tag, source)
		specificity := specificityScore(t.tag)
		score := (categoryAdjusted + position + specificity) / 3
		final = append(final, finalTag{tag: t.tag, score: score})
	}

	sort.Slice(final, func(i, j int) bool { return final[i].score > final[j].score })
	if maxTags > 0 && len(final) > maxTags {
		final = final[:maxTags]
	}

	out := make([]domain.SuggestedTag, 0, len(final))
	for _, t := range final {
		out = append(out, domain.SuggestedTag{Tag: t.tag, Confidence: clamp01(t.score)})
	}
	return out
}

func keywordTags(text string) []scoredTag {
	tokens := tokenPattern.FindAllString(strings.ToLower(text), -1)
	freq := make(map[string]int)
	for _, tok := range tokens {
		if len(tok) <= 2 {
			continue
		}
		if _, stop := stopWords[tok]; stop {
			continue
		}
		freq[tok]++
	}

	out := make([]scoredTag, 0, len(freq))
	for word, count := range freq {
		if count < 2 {
			continue
		}
		confidence := float64(count) / 10
		if confidence > 1 {
			confidence = 1
		}
		out = append(out, scoredTag{tag: word, confidence: confidence, category: categorizeTag(word)})
	}
	return out
}

func categorizeTag(tag string) string {
	for category, cfg := range tagCategories {
		for _, pattern := range cfg.patterns {
			if strings.Contains(tag, pattern) {
				return category
			}
		}
	}
	return "general"
}

func contextualTags(source *domain.ContentSource) []scoredTag {
	out := []scoredTag{
		{tag: "source:" + strings.ToLower(string(source.SourceType)), confidence: 0.9, category: "source_type"},
	}
	if contentType := inferContentType(source); contentType != "" {
		out = append(out, scoredTag{tag: "type:" + contentType, confidence: 0.7, category: "content_type"})
	}
	return out
}

var contentTypeIndicators = []struct {
	name       string
	indicators []string
}{
	{"research", []string{"study", "research", "paper", "article", "journal"}},
	{"tutorial", []string{"tutorial", "guide", "how-to", "step-by-step", "walkthrough"}},
	{"news", []string{"news", "update", "announcement", "release", "report"}},
	{"opinion", []string{"opinion", "view", "perspective", "analysis", "commentary"}},
	{"technical", []string{"technical", "specification", "documentation", "api", "sdk"}},
}

func inferContentType(source *domain.ContentSource) string {
	text := strings.ToLower(source.Title + " " + description(source))
	if strings.TrimSpace(text) == "" {
		return ""
	}
	for _, ct := range contentTypeIndicators {
		for _, ind := range ct.indicators {
			if strings.Contains(text, ind) {
				return ct.name
			}
		}
	}
	return "general"
}

func priorKnowledgeTags(text string) []scoredTag {
	lower := strings.ToLower(text)
	out := make([]scoredTag, 0, len(priorTags))
	for tag, base := range priorTags {
		confidence := base
		if strings.Contains(lower, strings.ReplaceAll(tag, "-", " ")) {
			confidence = clamp01(confidence + 0.3)
		}
		out = append(out, scoredTag{tag: tag, confidence: confidence, category: "topic"})
	}
	return out
}

func positionScore(tag string, source *domain.ContentSource) float64 {
	score := 0.0
	if strings.Contains(strings.ToLower(source.Title), tag) {
		score += 0.8
	}
	if strings.Contains(strings.ToLower(description(source)), tag) {
		score += 0.5
	}
	return clamp01(score)
}

func specificityScore(tag string) float64 {
	switch len(strings.Fields(tag)) {
	case 0, 1:
		return 0.5
	case 2:
		return 0.7
	default:
		return 0.9
	}
}
