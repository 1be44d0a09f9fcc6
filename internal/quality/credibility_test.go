package quality

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/r3e-network/research-orchestrator/internal/domain"
)

func TestCredibilityScorer_ReputableDomainScoresHigh(t *testing.T) {
	scorer := NewCredibilityScorer(NewReputationCache(16))
	source, err := domain.NewContentSource("run-1", domain.SourceAcademic, "https://arxiv.org/abs/1234.5678", "A study on transformer efficiency", "semantic_scholar", nil)
	require.NoError(t, err)

	score := scorer.Score(source)
	assert.Greater(t, score, 0.6)
}

func TestCredibilityScorer_LowReputationDomainScoresLower(t *testing.T) {
	scorer := NewCredibilityScorer(NewReputationCache(16))
	reputable, err := domain.NewContentSource("run-1", domain.SourceWeb, "https://arxiv.org/abs/1", "Study", "x", nil)
	require.NoError(t, err)
	low, err := domain.NewContentSource("run-1", domain.SourceWeb, "https://example.blogspot.com/post", "You won't believe this!!", "x", nil)
	require.NoError(t, err)

	assert.Greater(t, scorer.Score(reputable), scorer.Score(low))
}

func TestCredibilityScorer_CachesDomainLookup(t *testing.T) {
	cache := NewReputationCache(16)
	scorer := NewCredibilityScorer(cache)
	source, err := domain.NewContentSource("run-1", domain.SourceWeb, "https://nature.com/articles/1", "Title", "x", nil)
	require.NoError(t, err)

	_ = scorer.Score(source)
	_, cached := cache.Get("https://nature.com/articles/1")
	assert.True(t, cached)
}
