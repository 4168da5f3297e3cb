package biz

import (
	"context"
	"fmt"
	"os"

	"github.com/kart-io/logger"

	"github.com/kart-io/camaral-bot/internal/bot/metrics"
	"github.com/kart-io/camaral-bot/internal/bot/store"
	"github.com/kart-io/camaral-bot/pkg/errors"
)

// IndexerConfig 索引器配置。
type IndexerConfig struct {
	// DocID 分块 ID 前缀。
	DocID string
	// BySections 为 true 时按章节分块。
	BySections bool
}

// IndexResult 索引结果。
type IndexResult struct {
	// Chunks 写入的分块数。
	Chunks int `json:"chunks"`
	// VectorCount 写入后向量库中的向量数。
	VectorCount int64 `json:"vectorCount"`
}

// Indexer 负责知识文档的全量索引。
type Indexer struct {
	chunker  *Chunker
	embedder *Embedder
	store    store.VectorStore
	config   *IndexerConfig
	metrics  *metrics.BotMetrics
}

// NewIndexer 创建索引器实例。
func NewIndexer(chunker *Chunker, embedder *Embedder, vectorStore store.VectorStore, config *IndexerConfig) *Indexer {
	if config == nil {
		config = &IndexerConfig{}
	}
	if config.DocID == "" {
		config.DocID = "camaral"
	}
	return &Indexer{
		chunker:  chunker,
		embedder: embedder,
		store:    vectorStore,
		config:   config,
		metrics:  metrics.Get(),
	}
}

// Chunk 按配置的分块策略切分文档。
func (i *Indexer) Chunk(text string) []store.Chunk {
	if i.config.BySections {
		return i.chunker.ChunkDocumentBySections(text, i.config.DocID)
	}
	return i.chunker.ChunkDocument(text, i.config.DocID)
}

// IndexChunks 生成向量后清空向量库并写入分块。
// 清空发生在写入之前，写入失败会留下部分或空的索引。
func (i *Indexer) IndexChunks(ctx context.Context, chunks []store.Chunk) (err error) {
	defer func() { i.metrics.RecordIndexing(len(chunks), err) }()

	if len(chunks) == 0 {
		return errors.ErrIndexing.WithMessage("document produced no chunks")
	}

	texts := make([]string, len(chunks))
	for idx, c := range chunks {
		texts[idx] = c.Text
	}

	logger.Infof("Generating embeddings for %d chunks...", len(chunks))
	vectors, err := i.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return errors.ErrIndexing.WithCause(err)
	}

	logger.Info("Deleting existing vectors...")
	if err := i.store.DeleteAll(ctx); err != nil {
		return errors.ErrIndexing.WithCause(err)
	}

	logger.Info("Upserting vectors...")
	if err := i.store.Upsert(ctx, chunks, vectors); err != nil {
		return errors.ErrIndexing.WithCause(err)
	}

	logger.Infow("Chunks indexed", "chunks", len(chunks))
	return nil
}

// IndexDocument 对文本执行完整索引流程并返回统计。
func (i *Indexer) IndexDocument(ctx context.Context, text string) (*IndexResult, error) {
	chunks := i.Chunk(text)
	if err := i.IndexChunks(ctx, chunks); err != nil {
		return nil, err
	}

	stats, err := i.store.Stats(ctx)
	if err != nil {
		return nil, errors.ErrIndexing.WithCause(err)
	}
	return &IndexResult{Chunks: len(chunks), VectorCount: stats.VectorCount}, nil
}

// IndexFile 读取并索引文件。
func (i *Indexer) IndexFile(ctx context.Context, path string) (*IndexResult, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.ErrIndexing.WithCause(fmt.Errorf("read %s: %w", path, err))
	}
	logger.Infow("Indexing document", "path", path, "chars", len([]rune(string(content))))
	return i.IndexDocument(ctx, string(content))
}

// Stats 返回向量库统计信息。
func (i *Indexer) Stats(ctx context.Context) (store.Stats, error) {
	return i.store.Stats(ctx)
}
