package biz

import (
	"context"

	"github.com/kart-io/logger"

	"github.com/kart-io/camaral-bot/pkg/errors"
	"github.com/kart-io/camaral-bot/pkg/llm"
)

const (
	// DefaultEmbeddingBatchSize 单次 Embedding 请求的最大文本数。
	DefaultEmbeddingBatchSize = 100
	// DefaultEmbeddingDimension 默认向量维度。
	DefaultEmbeddingDimension = 1536
)

// EmbedderConfig 嵌入配置。
type EmbedderConfig struct {
	// BatchSize 每批文本数。
	BatchSize int
	// Dimension 期望的向量维度，需与向量库一致。
	Dimension int
}

// Embedder 负责分批生成向量。
type Embedder struct {
	provider llm.EmbeddingProvider
	config   EmbedderConfig
}

// NewEmbedder 创建嵌入器实例。
func NewEmbedder(provider llm.EmbeddingProvider, config *EmbedderConfig) *Embedder {
	cfg := EmbedderConfig{BatchSize: DefaultEmbeddingBatchSize, Dimension: DefaultEmbeddingDimension}
	if config != nil {
		if config.BatchSize > 0 {
			cfg.BatchSize = config.BatchSize
		}
		if config.Dimension > 0 {
			cfg.Dimension = config.Dimension
		}
	}
	return &Embedder{provider: provider, config: cfg}
}

// Dimension 返回向量维度。
func (e *Embedder) Dimension() int {
	return e.config.Dimension
}

// Embed 为单个文本生成向量。
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := e.provider.EmbedSingle(ctx, text)
	if err != nil {
		return nil, providerError(err)
	}
	if err := e.checkDimension(vec); err != nil {
		return nil, err
	}
	return vec, nil
}

// EmbedBatch 按批次生成向量，结果顺序与输入一致。
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += e.config.BatchSize {
		end := start + e.config.BatchSize
		if end > len(texts) {
			end = len(texts)
		}

		batch, err := e.provider.Embed(ctx, texts[start:end])
		if err != nil {
			return nil, providerError(err)
		}
		if len(batch) != end-start {
			return nil, errors.ErrProvider.WithMessagef(
				"embedding count mismatch: got %d, want %d", len(batch), end-start)
		}
		for _, vec := range batch {
			if err := e.checkDimension(vec); err != nil {
				return nil, err
			}
		}

		vectors = append(vectors, batch...)
		logger.Debugw("Embedded batch", "from", start, "to", end, "total", len(texts))
	}

	return vectors, nil
}

func (e *Embedder) checkDimension(vec []float32) error {
	if len(vec) != e.config.Dimension {
		return errors.ErrProvider.WithMessagef(
			"embedding dimension mismatch: got %d, want %d", len(vec), e.config.Dimension)
	}
	return nil
}
