package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/camaral-bot/cmd/indexer/app/options"
	"github.com/kart-io/camaral-bot/internal/bot/biz"
	"github.com/kart-io/camaral-bot/internal/bot/store"
)

const testDim = 4

type constEmbedder struct{}

func (constEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0, 0}
	}
	return out, nil
}

func (constEmbedder) EmbedSingle(_ context.Context, _ string) ([]float32, error) {
	return []float32{1, 0, 0, 0}, nil
}

func (constEmbedder) Name() string { return "const" }

const document = `# Camaral

Camaral crea avatares con IA para reuniones de ventas.

Los avatares se conectan a Zoom, Teams y Meet.

Planes desde $99 al mes.`

func newTestIndexer(vectors store.VectorStore, bySections bool) *biz.Indexer {
	return biz.NewIndexer(
		biz.NewChunker(&biz.ChunkerConfig{ChunkSize: 60, ChunkOverlap: 0}),
		biz.NewEmbedder(constEmbedder{}, &biz.EmbedderConfig{BatchSize: 2, Dimension: testDim}),
		vectors,
		&biz.IndexerConfig{DocID: "camaral", BySections: bySections},
	)
}

func writeDocument(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "investigacion.md")
	require.NoError(t, os.WriteFile(path, []byte(document), 0o600))
	return path
}

func TestIndexReportsProgress(t *testing.T) {
	opts := options.NewIndexerOptions()
	opts.RAGOptions.DocumentPath = writeDocument(t)
	opts.LLMOptions.Dimensions = testDim
	opts.Wait = time.Millisecond

	vectors := store.NewMemoryStore()
	var out bytes.Buffer
	require.NoError(t, index(context.Background(), newTestIndexer(vectors, false), opts, &out))

	stats, err := vectors.Stats(context.Background())
	require.NoError(t, err)
	require.Positive(t, stats.VectorCount)

	text := out.String()
	assert.Contains(t, text, "Document length: ")
	assert.Contains(t, text, "Chunk preview:")
	assert.Contains(t, text, "   [0] ")
	assert.Contains(t, text, "(dim: 4)")
	assert.Contains(t, text, "Indexing complete!")
	assert.True(t, strings.HasSuffix(text, "Vectors in database: "+strconv.FormatInt(stats.VectorCount, 10)+"\n"))
}

func TestIndexMissingDocument(t *testing.T) {
	opts := options.NewIndexerOptions()
	opts.RAGOptions.DocumentPath = filepath.Join(t.TempDir(), "missing.md")

	err := index(context.Background(), newTestIndexer(store.NewMemoryStore(), false), opts, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestIndexStopsWhenCancelledDuringWait(t *testing.T) {
	opts := options.NewIndexerOptions()
	opts.RAGOptions.DocumentPath = writeDocument(t)
	opts.Wait = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := index(ctx, newTestIndexer(store.NewMemoryStore(), true), opts, &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHeadRunes(t *testing.T) {
	assert.Equal(t, "Cámara", headRunes("Cámaral", 6))
	assert.Equal(t, "ok", headRunes("ok", 40))
}
