package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallbackAdapter_Summarize_UsesDescriptionWhenSubstantive(t *testing.T) {
	a := NewFallbackAdapter()
	res, err := a.Summarize(context.Background(), "Title", "This is a long enough description to count as substantive content.", "")
	require.NoError(t, err)
	assert.Contains(t, res.Summary, "substantive")
}

func TestFallbackAdapter_Summarize_FallsBackToTitle(t *testing.T) {
	a := NewFallbackAdapter()
	res, err := a.Summarize(context.Background(), "Short Title", "too short", "")
	require.NoError(t, err)
	assert.Contains(t, res.Summary, "Short Title")
}

func TestFallbackAdapter_Classify_MatchesKnownTopic(t *testing.T) {
	a := NewFallbackAdapter()
	res, err := a.Classify(context.Background(), "New neural network architecture beats benchmarks", "web")
	require.NoError(t, err)
	assert.Equal(t, "artificial_intelligence", res.Classification)
}

func TestFallbackAdapter_Classify_DefaultsToSourceType(t *testing.T) {
	a := NewFallbackAdapter()
	res, err := a.Classify(context.Background(), "Completely unrelated title", "academic")
	require.NoError(t, err)
	assert.Equal(t, "general_academic", res.Classification)
}
