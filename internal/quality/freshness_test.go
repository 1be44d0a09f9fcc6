package quality

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/r3e-network/research-orchestrator/internal/domain"
)

func TestFreshnessScorer_MissingDateIsNeutral(t *testing.T) {
	scorer := NewFreshnessScorer(map[string]int{"news": 7}, 90)
	scorer.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }

	source := &domain.ContentSource{SourceMetadata: map[string]interface{}{}}
	assert.Equal(t, 0.5, scorer.Score(source, "news"))
}

func TestFreshnessScorer_RecentArticleScoresHigh(t *testing.T) {
	scorer := NewFreshnessScorer(map[string]int{"news": 7}, 90)
	scorer.now = func() time.Time { return time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC) }

	source, err := domain.NewContentSource("run-1", domain.SourceNews, "https://example.com/a", "Breaking news", "news_api", map[string]interface{}{
		"published_at": "2026-01-08",
	})
	require.NoError(t, err)

	score := scorer.Score(source, "news")
	assert.Greater(t, score, 0.7)
}

func TestFreshnessScorer_StaleArticleScoresLow(t *testing.T) {
	scorer := NewFreshnessScorer(map[string]int{"news": 7}, 90)
	scorer.now = func() time.Time { return time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC) }

	source, err := domain.NewContentSource("run-1", domain.SourceNews, "https://example.com/b", "Old news", "news_api", map[string]interface{}{
		"published_at": "2020-01-01",
	})
	require.NoError(t, err)

	score := scorer.Score(source, "news")
	assert.Less(t, score, 0.3)
}
