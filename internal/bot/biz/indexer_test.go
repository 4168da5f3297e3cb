package biz

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/camaral-bot/internal/bot/store"
	boterrors "github.com/kart-io/camaral-bot/pkg/errors"
)

const testDocument = "¿Qué es Camaral?\n\nCamaral crea avatares de IA para reuniones.\n\n" +
	"Precios\n\nEl plan Pro cuesta $99 al mes e incluye 500 minutos."

func newTestIndexer(embedder *mockEmbedder, vs store.VectorStore, bySections bool) *Indexer {
	return NewIndexer(
		NewChunker(&ChunkerConfig{ChunkSize: 60, ChunkOverlap: 10}),
		NewEmbedder(embedder, &EmbedderConfig{Dimension: testDim}),
		vs,
		&IndexerConfig{DocID: "camaral", BySections: bySections},
	)
}

func TestIndexDocumentReplacesIndex(t *testing.T) {
	vs := store.NewMemoryStore()
	idx := newTestIndexer(&mockEmbedder{dim: testDim}, vs, false)

	res, err := idx.IndexDocument(context.Background(), testDocument)
	require.NoError(t, err)
	assert.Greater(t, res.Chunks, 1)
	assert.EqualValues(t, res.Chunks, res.VectorCount)

	res2, err := idx.IndexDocument(context.Background(), testDocument)
	require.NoError(t, err)
	assert.Equal(t, res.VectorCount, res2.VectorCount)
}

func TestIndexChunksEmbeddingFailureKeepsIndex(t *testing.T) {
	vs := store.NewMemoryStore()
	require.NoError(t, vs.Upsert(context.Background(),
		[]store.Chunk{{ID: "old-0", Text: "viejo"}}, [][]float32{{1, 0, 0, 0}}))

	idx := newTestIndexer(&mockEmbedder{dim: testDim, err: errors.New("quota")}, vs, false)
	_, err := idx.IndexDocument(context.Background(), testDocument)
	require.Error(t, err)
	assert.ErrorIs(t, err, boterrors.ErrIndexing)
	assert.ErrorIs(t, err, boterrors.ErrProvider)

	stats, err := vs.Stats(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.VectorCount)
}

func TestIndexChunksRejectsEmptyDocument(t *testing.T) {
	idx := newTestIndexer(&mockEmbedder{dim: testDim}, store.NewMemoryStore(), false)
	_, err := idx.IndexDocument(context.Background(), "   ")
	assert.ErrorIs(t, err, boterrors.ErrIndexing)
}

func TestIndexerChunkBySections(t *testing.T) {
	idx := newTestIndexer(&mockEmbedder{dim: testDim}, store.NewMemoryStore(), true)
	chunks := idx.Chunk("intro.\n¿Qué es?\ncuerpo.")
	require.Len(t, chunks, 2)
	assert.Equal(t, "¿Qué es?", chunks[1].Metadata.Section)
}

func TestIndexFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "investigacion.md")
	require.NoError(t, os.WriteFile(path, []byte(testDocument), 0o600))

	idx := newTestIndexer(&mockEmbedder{dim: testDim}, store.NewMemoryStore(), false)
	res, err := idx.IndexFile(context.Background(), path)
	require.NoError(t, err)
	assert.Positive(t, res.Chunks)

	_, err = idx.IndexFile(context.Background(), filepath.Join(t.TempDir(), "missing.md"))
	assert.ErrorIs(t, err, boterrors.ErrIndexing)
}
