package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryVectorStore_FindSimilar_RespectsThresholdAndK(t *testing.T) {
	store := NewMemoryVectorStore()
	require.NoError(t, store.Upsert(context.Background(), "a", []float64{1, 0, 0}, "A", "WEB"))
	require.NoError(t, store.Upsert(context.Background(), "b", []float64{0.9, 0.1, 0}, "B", "WEB"))
	require.NoError(t, store.Upsert(context.Background(), "c", []float64{0, 1, 0}, "C", "WEB"))

	neighbors, err := store.FindSimilar(context.Background(), []float64{1, 0, 0}, 10, 0.5)
	require.NoError(t, err)

	assert.Len(t, neighbors, 2)
	assert.Equal(t, "a", neighbors[0].ID)
}

func TestMemoryVectorStore_FindSimilar_LimitsToK(t *testing.T) {
	store := NewMemoryVectorStore()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.Upsert(context.Background(), id, []float64{1, 0}, id, "WEB"))
	}

	neighbors, err := store.FindSimilar(context.Background(), []float64{1, 0}, 2, 0.0)
	require.NoError(t, err)
	assert.Len(t, neighbors, 2)
}
