package ai

import (
	"context"
	"fmt"
	"strings"
)

// fallbackTopics pattern-matches a title/source-type pair against a fixed
// topic table, used by FallbackAdapter.Classify when no AI classifier is
// available (spec §4.4).
var fallbackTopics = []struct {
	keywords []string
	label    string
}{
	{keywords: []string{"machine learning", "neural network", "deep learning", "artificial intelligence"}, label: "artificial_intelligence"},
	{keywords: []string{"climate", "emissions", "warming"}, label: "climate"},
	{keywords: []string{"election", "senate", "congress", "policy"}, label: "politics"},
	{keywords: []string{"market", "stock", "economy", "inflation"}, label: "finance"},
	{keywords: []string{"vaccine", "disease", "clinical", "patient"}, label: "health"},
}

// FallbackAdapter implements the deterministic fallback paths spec §4.4
// requires when no AIAdapter is configured or the AI circuit breaker is
// open. It never returns an error — these are the "always succeeds"
// baseline the orchestrator falls back to.
type FallbackAdapter struct{}

func NewFallbackAdapter() *FallbackAdapter {
	return &FallbackAdapter{}
}

// Summarize returns the description verbatim when it is substantive
// (spec: "if a substantive description exists, return it"), else the
// title prefixed with a stock phrase.
func (FallbackAdapter) Summarize(_ context.Context, title, description, _ string) (SummarizeResult, error) {
	if len(strings.TrimSpace(description)) >= 40 {
		return SummarizeResult{Summary: description}, nil
	}
	return SummarizeResult{Summary: fmt.Sprintf("No detailed summary available for: %s", title)}, nil
}

// Classify pattern-matches the title against a fixed topic/type table.
func (FallbackAdapter) Classify(_ context.Context, title, sourceType string) (ClassifyResult, error) {
	lowerTitle := strings.ToLower(title)
	for _, topic := range fallbackTopics {
		for _, kw := range topic.keywords {
			if strings.Contains(lowerTitle, kw) {
				return ClassifyResult{Classification: topic.label}, nil
			}
		}
	}
	return ClassifyResult{Classification: "general_" + sourceType}, nil
}

// Rationale assembles a deterministic textual report of the four
// dimension scores, with no model call.
func (FallbackAdapter) Rationale(_ context.Context, input RationaleInput) (string, error) {
	return fmt.Sprintf(
		"%q scored %.2f overall for topic %q: credibility %.2f, relevance %.2f, freshness %.2f, completeness %.2f.",
		input.Title, input.Overall, input.Topic, input.Credibility, input.Relevance, input.Freshness, input.Completeness,
	), nil
}
