package store

import (
	"context"

	"github.com/kart-io/camaral-bot/pkg/errors"
)

// DefaultBatchSize 单次写入的最大向量数。
const DefaultBatchSize = 100

// ChunkMetadata 分块元数据。
type ChunkMetadata struct {
	// Section 所属章节。
	Section string `json:"section"`
	// Index 分块序号。
	Index int `json:"index"`
	// CharStart 近似起始字符位置。
	CharStart int `json:"charStart"`
	// CharEnd 近似结束字符位置。
	CharEnd int `json:"charEnd"`
}

// Chunk 表示文档块。
type Chunk struct {
	// ID 分块 ID，格式为 "<docId>-<index>"。
	ID string `json:"id"`
	// Text 分块内容。
	Text string `json:"text"`
	// Metadata 分块元数据。
	Metadata ChunkMetadata `json:"metadata"`
}

// SearchResult 表示检索结果，Score 越高越相似。
type SearchResult struct {
	Text    string  `json:"text"`
	Section string  `json:"section"`
	Score   float32 `json:"score"`
}

// Stats 向量库统计信息。
type Stats struct {
	VectorCount int64 `json:"vectorCount"`
}

// VectorStore 定义向量存储接口。
type VectorStore interface {
	// Upsert 按下标配对写入分块和向量。
	Upsert(ctx context.Context, chunks []Chunk, vectors [][]float32) error

	// Query 返回最相似的 topK 条结果，按分数降序。
	Query(ctx context.Context, vector []float32, topK int) ([]SearchResult, error)

	// DeleteAll 清空向量库。
	DeleteAll(ctx context.Context) error

	// Stats 返回当前统计信息。
	Stats(ctx context.Context) (Stats, error)

	// Close 释放连接。
	Close() error
}

// checkPairs 校验分块与向量数量一致。
func checkPairs(chunks []Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return errors.ErrInvalidArgument.WithMessagef(
			"chunks and vectors length mismatch: %d != %d", len(chunks), len(vectors))
	}
	return nil
}

// batches 将 [0, n) 按 size 切分为区间。
func batches(n, size int) [][2]int {
	if size <= 0 {
		size = DefaultBatchSize
	}
	var out [][2]int
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		out = append(out, [2]int{start, end})
	}
	return out
}

// normalizeCosine 将余弦相似度 [-1, 1] 映射到 [0, 1]。
func normalizeCosine(cos float32) float32 {
	return (1 + cos) / 2
}
