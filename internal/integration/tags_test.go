package integration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/r3e-network/research-orchestrator/internal/domain"
)

func TestTagSuggester_ExtractsRepeatedKeywordsAsTags(t *testing.T) {
	source, err := domain.NewContentSource("run-1", domain.SourceAcademic, "https://example.com/a", "Neural network training", "semantic_scholar", map[string]interface{}{
		"description": "This paper studies neural network training. The neural network training approach is novel.",
	})
	require.NoError(t, err)

	suggester := NewTagSuggester()
	tags := suggester.Suggest(source, nil, 15)

	found := false
	for _, tag := range tags {
		if tag.Tag == "neural" || tag.Tag == "network" || tag.Tag == "training" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestTagSuggester_IncludesContextualSourceTypeTag(t *testing.T) {
	source, err := domain.NewContentSource("run-1", domain.SourceNews, "https://example.com/a", "Breaking update", "news_api", nil)
	require.NoError(t, err)

	suggester := NewTagSuggester()
	tags := suggester.Suggest(source, nil, 20)

	found := false
	for _, tag := range tags {
		if tag.Tag == "source:news" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestTagSuggester_RespectsMaxTags(t *testing.T) {
	source, err := domain.NewContentSource("run-1", domain.SourceWeb, "https://example.com/a", "Title", "x", nil)
	require.NoError(t, err)

	suggester := NewTagSuggester()
	tags := suggester.Suggest(source, nil, 3)
	assert.LessOrEqual(t, len(tags), 3)
}
