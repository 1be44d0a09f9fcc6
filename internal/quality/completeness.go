package quality

import (
	"regexp"
	"strings"

	"github.com/r3e-network/research-orchestrator/internal/domain"
)

var structuralElements = []string{
	"introduction", "background", "method", "methodology", "results",
	"findings", "discussion", "conclusion", "summary", "abstract",
	"references", "bibliography", "acknowledgments", "appendix",
}

var referencePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\[\d+\]`),
	regexp.MustCompile(`\(\w+ et al\.`),
	regexp.MustCompile(`\bdoi:`),
	regexp.MustCompile(`\barXiv:`),
	regexp.MustCompile(`\bhttps?://`),
}

var multimediaIndicators = []string{
	"figure", "table", "chart", "graph", "image", "diagram",
	"illustration", "photo", "video", "audio",
}

var methodologyIndicators = []string{
	"method", "methodology", "approach", "procedure", "technique",
	"experiment", "study design", "research design", "data collection",
	"analysis method", "statistical analysis",
}

// CompletenessScorer scores content depth and structural comprehensiveness,
// grounded on CompletenessScorer.score_content's five-signal weighted mix
// (weights 0.2/0.3/0.25/0.15/0.1 — spec §4.4).
type CompletenessScorer struct{}

func NewCompletenessScorer() *CompletenessScorer {
	return &CompletenessScorer{}
}

// Score returns the completeness dimension in [0,1].
func (s *CompletenessScorer) Score(source *domain.ContentSource) float64 {
	content := source.CombinedText()

	length := scoreContentLength(content)
	structure := scoreStructuralElements(content)
	references := scoreReferencePresence(content)
	multimedia := scoreMultimediaElements(content, source)
	methodology := scoreMethodologyPresence(content)

	weighted := 0.2*length + 0.3*structure + 0.25*references + 0.15*multimedia + 0.1*methodology
	return clamp01(weighted)
}

func scoreContentLength(content string) float64 {
	if content == "" {
		return 0.3
	}
	wordCount := len(strings.Fields(content))
	switch {
	case wordCount >= 2000:
		return 1.0
	case wordCount >= 1000:
		return 0.8
	case wordCount >= 500:
		return 0.6
	case wordCount >= 200:
		return 0.4
	case wordCount >= 100:
		return 0.3
	default:
		return 0.2
	}
}

func scoreStructuralElements(content string) float64 {
	if content == "" {
		return 0.3
	}
	lower := strings.ToLower(content)
	present := 0
	for _, el := range structuralElements {
		if strings.Contains(lower, el) {
			present++
		}
	}
	ratio := float64(present) / float64(len(structuralElements))
	switch {
	case ratio == 0:
		return 0.1
	case ratio < 0.3:
		return 0.3 + ratio*0.4
	case ratio < 0.6:
		return 0.5 + (ratio-0.3)*0.4
	default:
		return 0.7 + (ratio-0.6)*0.3
	}
}

func scoreReferencePresence(content string) float64 {
	if content == "" {
		return 0.3
	}
	count := 0
	for _, pattern := range referencePatterns {
		count += len(pattern.FindAllString(content, -1))
	}
	switch {
	case count >= 10:
		return 1.0
	case count >= 5:
		return 0.8
	case count >= 3:
		return 0.6
	case count >= 1:
		return 0.4
	default:
		return 0.2
	}
}

func scoreMultimediaElements(content string, source *domain.ContentSource) float64 {
	if content == "" {
		return 0.3
	}
	lower := strings.ToLower(content)
	count := 0
	for _, indicator := range multimediaIndicators {
		if strings.Contains(lower, indicator) {
			count++
		}
	}
	metaText := strings.ToLower(metadataString(source))
	for _, indicator := range multimediaIndicators {
		if strings.Contains(metaText, indicator) && !strings.Contains(lower, indicator) {
			count++
		}
	}
	switch {
	case count >= 3:
		return 0.8
	case count >= 2:
		return 0.6
	case count >= 1:
		return 0.4
	default:
		return 0.2
	}
}

func scoreMethodologyPresence(content string) float64 {
	if content == "" {
		return 0.3
	}
	lower := strings.ToLower(content)
	present := false
	depth := 0
	for _, indicator := range methodologyIndicators {
		if strings.Contains(lower, indicator) {
			present = true
			switch {
			case containsAny(lower, "detailed", "comprehensive", "thorough"):
				depth += 2
			case containsAny(lower, "brief", "summary", "overview"):
				depth++
			default:
				depth++
			}
		}
	}
	if !present {
		return 0.2
	}
	switch {
	case depth >= 3:
		return 0.9
	case depth >= 2:
		return 0.7
	default:
		return 0.5
	}
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
