package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreQueryOrder(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	chunks := []Chunk{
		{ID: "camaral-0", Text: "avatares", Metadata: ChunkMetadata{Section: "A"}},
		{ID: "camaral-1", Text: "precios", Metadata: ChunkMetadata{Section: "B"}},
		{ID: "camaral-2", Text: "soporte", Metadata: ChunkMetadata{Section: "C"}},
	}
	vectors := [][]float32{{1, 0}, {0, 1}, {0.7, 0.7}}
	require.NoError(t, s.Upsert(ctx, chunks, vectors))

	results, err := s.Query(ctx, []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "A", results[0].Section)
	assert.Equal(t, "C", results[1].Section)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)
}

func TestMemoryStoreFewerThanK(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, []Chunk{{ID: "x", Text: "t"}}, [][]float32{{1}}))

	results, err := s.Query(ctx, []float32{1}, 4)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestMemoryStoreDeleteAllAndStats(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	chunks, vectors := makeChunks(3)
	require.NoError(t, s.Upsert(ctx, chunks, vectors))

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.VectorCount)

	require.NoError(t, s.DeleteAll(ctx))
	stats, err = s.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.VectorCount)
}

func TestCosineEdgeCases(t *testing.T) {
	assert.Zero(t, cosine([]float32{1}, []float32{1, 2}))
	assert.Zero(t, cosine([]float32{0, 0}, []float32{1, 2}))
	assert.InDelta(t, -1.0, cosine([]float32{1, 0}, []float32{-1, 0}), 1e-6)
}
