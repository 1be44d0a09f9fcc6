package quality

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/r3e-network/research-orchestrator/internal/domain"
)

func TestRelevanceScorer_NoTopicIsNeutral(t *testing.T) {
	scorer := NewRelevanceScorer()
	source, err := domain.NewContentSource("run-1", domain.SourceWeb, "https://example.com/a", "Some article", "x", nil)
	require.NoError(t, err)

	assert.Equal(t, 0.5, scorer.Score(source, ""))
}

func TestRelevanceScorer_OnTopicScoresHigherThanOffTopic(t *testing.T) {
	scorer := NewRelevanceScorer()
	onTopic, err := domain.NewContentSource("run-1", domain.SourceWeb, "https://example.com/a", "Neural network training techniques for deep learning", "x", map[string]interface{}{
		"description": "A deep dive into neural network training and machine learning model optimization.",
	})
	require.NoError(t, err)
	offTopic, err := domain.NewContentSource("run-1", domain.SourceWeb, "https://example.com/b", "Gardening tips for spring", "x", map[string]interface{}{
		"description": "How to plant tomatoes and care for your garden this season.",
	})
	require.NoError(t, err)

	topic := "neural network deep learning"
	assert.Greater(t, scorer.Score(onTopic, topic), scorer.Score(offTopic, topic))
}
