package quality

import (
	"regexp"
	"strings"

	"github.com/r3e-network/research-orchestrator/internal/domain"
)

var wordPattern = regexp.MustCompile(`[a-zA-Z]{3,}`)

var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {}, "on": {},
	"at": {}, "to": {}, "for": {}, "of": {}, "with": {}, "by": {}, "is": {}, "are": {},
	"was": {}, "were": {}, "be": {}, "been": {}, "being": {},
}

// RelevanceScorer scores a source's alignment with the run's research
// topic, grounded on RelevanceScorer.score_content.
type RelevanceScorer struct{}

func NewRelevanceScorer() *RelevanceScorer {
	return &RelevanceScorer{}
}

// Score returns the relevance dimension in [0,1].
func (s *RelevanceScorer) Score(source *domain.ContentSource, topic string) float64 {
	if strings.TrimSpace(topic) == "" {
		return 0.5
	}

	combined := source.CombinedText()
	keyword := s.scoreKeywordMatching(combined, topic)
	semantic := s.scoreSemanticSimilarity(combined, topic)
	topicAlign := s.scoreTopicAlignment(source, combined, topic)
	depth := s.scoreContentDepth(combined)

	weighted := 0.4*keyword + 0.3*semantic + 0.2*topicAlign + 0.1*depth
	return clamp01(weighted)
}

func (s *RelevanceScorer) scoreKeywordMatching(content, topic string) float64 {
	keywords := extractKeywords(topic)
	if content == "" {
		return 0.3
	}
	if len(keywords) == 0 {
		return 0.5
	}

	lower := strings.ToLower(content)
	matches := 0
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			matches++
		}
	}
	ratio := float64(matches) / float64(len(keywords))

	switch {
	case ratio == 0:
		return 0.1
	case ratio < 0.3:
		return 0.3 + ratio*0.4
	case ratio < 0.7:
		return 0.5 + (ratio-0.3)*0.4
	default:
		return 0.7 + (ratio-0.7)*0.3
	}
}

// scoreSemanticSimilarity approximates the original's SequenceMatcher
// ratio with a token-level Jaccard index — a crude string-similarity
// stand-in named explicitly as such in spec §4.4, with no embedding model
// involved at this layer.
func (s *RelevanceScorer) scoreSemanticSimilarity(content, topic string) float64 {
	if content == "" {
		return 0.3
	}
	similarity := jaccardSimilarity(content, topic)
	switch {
	case similarity < 0.1:
		return 0.1
	case similarity < 0.3:
		return 0.3 + (similarity-0.1)*0.7
	default:
		return 0.7 + (similarity-0.3)*0.3
	}
}

func (s *RelevanceScorer) scoreTopicAlignment(source *domain.ContentSource, content, topic string) float64 {
	normalizedTopic := strings.ToLower(strings.TrimSpace(topic))
	indicators := extractTopicIndicators(source, content)
	if len(indicators) == 0 {
		return 0.3
	}

	score := 0.0
	for _, indicator := range indicators {
		if strings.Contains(normalizedTopic, indicator) || strings.Contains(indicator, normalizedTopic) {
			score += 0.2
		} else if partialMatch(normalizedTopic, indicator) > 0.6 {
			score += 0.1
		}
	}
	return clamp01(score)
}

func (s *RelevanceScorer) scoreContentDepth(content string) float64 {
	if content == "" {
		return 0.3
	}
	score := 0.5
	wordCount := len(strings.Fields(content))
	switch {
	case wordCount > 1000:
		score += 0.2
	case wordCount > 500:
		score += 0.1
	case wordCount < 100:
		score -= 0.2
	}

	found := 0
	lower := strings.ToLower(content)
	for _, indicator := range []string{"methodology", "analysis", "results", "discussion", "conclusion", "experiment", "study", "research", "findings", "data"} {
		if strings.Contains(lower, indicator) {
			found++
		}
	}
	switch {
	case found >= 3:
		score += 0.3
	case found >= 1:
		score += 0.1
	}
	return clamp01(score)
}

func extractKeywords(text string) []string {
	if text == "" {
		return nil
	}
	words := wordPattern.FindAllString(strings.ToLower(text), -1)
	seen := make(map[string]struct{}, len(words))
	var keywords []string
	for _, w := range words {
		if _, stop := stopWords[w]; stop {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		keywords = append(keywords, w)
	}
	return keywords
}

func extractTopicIndicators(source *domain.ContentSource, content string) []string {
	var indicators []string
	if source.SourceType != "" {
		indicators = append(indicators, strings.ToLower(string(source.SourceType)))
	}

	freq := make(map[string]int)
	for _, w := range wordPattern.FindAllString(strings.ToLower(content), -1) {
		if len(w) <= 3 {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		freq[w]++
	}
	indicators = append(indicators, topNByFrequency(freq, 5)...)
	return indicators
}

func topNByFrequency(freq map[string]int, n int) []string {
	type pair struct {
		word  string
		count int
	}
	pairs := make([]pair, 0, len(freq))
	for w, c := range freq {
		pairs = append(pairs, pair{w, c})
	}
	for i := 0; i < len(pairs); i++ {
		for j := i + 1; j < len(pairs); j++ {
			if pairs[j].count > pairs[i].count {
				pairs[i], pairs[j] = pairs[j], pairs[i]
			}
		}
	}
	if len(pairs) > n {
		pairs = pairs[:n]
	}
	out := make([]string, len(pairs))
	for i, p := range pairs {
		out[i] = p.word
	}
	return out
}

func partialMatch(text1, text2 string) float64 {
	words1 := wordSet(text1)
	words2 := wordSet(text2)
	if len(words1) == 0 || len(words2) == 0 {
		return 0
	}
	return jaccardFromSets(words1, words2)
}

func jaccardSimilarity(a, b string) float64 {
	return jaccardFromSets(wordSet(strings.ToLower(a)), wordSet(strings.ToLower(b)))
}

func wordSet(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		out[w] = struct{}{}
	}
	return out
}

func jaccardFromSets(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for w := range a {
		if _, ok := b[w]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
