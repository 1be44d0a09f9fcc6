package integration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/r3e-network/research-orchestrator/internal/domain"
)

func TestConnectionSuggester_RanksByStrengthAndAppliesBandMultiplier(t *testing.T) {
	source, err := domain.NewContentSource("run-1", domain.SourceWeb, "https://example.com/a", "A study on transformers", "x", nil)
	require.NoError(t, err)

	neighbors := []Neighbor{
		{ID: "n1", Title: "Thematic neighbor", Similarity: 0.65},
		{ID: "n2", Title: "Direct neighbor", Similarity: 0.9},
		{ID: "n3", Title: "Loose neighbor", Similarity: 0.2},
	}

	suggester := NewConnectionSuggester()
	connections := suggester.Suggest(source, neighbors, 10)

	require.Len(t, connections, 3)
	assert.Equal(t, "n2", connections[0].TargetID)
	assert.Equal(t, domain.ConnectionDirect, connections[0].Kind)
	assert.NotEmpty(t, connections[0].Rationale)
}

func TestConnectionSuggester_LimitsToMaxSuggestions(t *testing.T) {
	source, err := domain.NewContentSource("run-1", domain.SourceWeb, "https://example.com/a", "Title", "x", nil)
	require.NoError(t, err)

	neighbors := make([]Neighbor, 5)
	for i := range neighbors {
		neighbors[i] = Neighbor{ID: string(rune('a' + i)), Similarity: 0.5}
	}

	suggester := NewConnectionSuggester()
	connections := suggester.Suggest(source, neighbors, 2)
	assert.Len(t, connections, 2)
}
