package store

import (
	"context"
	"fmt"

	"github.com/kart-io/camaral-bot/pkg/component/milvus"
	"github.com/kart-io/camaral-bot/pkg/errors"
)

// MilvusClient MilvusStore 依赖的客户端操作。
type MilvusClient interface {
	EnsureCollection(ctx context.Context, name string, dim int) error
	Upsert(ctx context.Context, collection string, rows []milvus.Row) error
	Search(ctx context.Context, collection string, vector []float32, topK int) ([]milvus.Hit, error)
	DropCollection(ctx context.Context, collection string) error
	Count(ctx context.Context, collection string) (int64, error)
	Close(ctx context.Context) error
}

// MilvusStore 实现基于 Milvus 的向量存储。
type MilvusStore struct {
	client     MilvusClient
	collection string
	dimension  int
	batchSize  int
}

// NewMilvusStore 创建 Milvus 存储实例，并确保集合存在。
func NewMilvusStore(ctx context.Context, client MilvusClient, collection string, dimension, batchSize int) (*MilvusStore, error) {
	s := &MilvusStore{
		client:     client,
		collection: collection,
		dimension:  dimension,
		batchSize:  batchSize,
	}
	if err := client.EnsureCollection(ctx, collection, dimension); err != nil {
		return nil, errors.ErrProvider.WithCause(err)
	}
	return s, nil
}

// Upsert 分批写入分块。
func (s *MilvusStore) Upsert(ctx context.Context, chunks []Chunk, vectors [][]float32) error {
	if err := checkPairs(chunks, vectors); err != nil {
		return err
	}

	for _, b := range batches(len(chunks), s.batchSize) {
		rows := make([]milvus.Row, 0, b[1]-b[0])
		for i := b[0]; i < b[1]; i++ {
			if len(vectors[i]) != s.dimension {
				return errors.ErrInvalidArgument.WithMessagef(
					"vector %d has dimension %d, want %d", i, len(vectors[i]), s.dimension)
			}
			rows = append(rows, milvus.Row{
				ID:        chunks[i].ID,
				Embedding: vectors[i],
				Text:      chunks[i].Text,
				Section:   chunks[i].Metadata.Section,
				Index:     int64(chunks[i].Metadata.Index),
			})
		}
		if err := s.client.Upsert(ctx, s.collection, rows); err != nil {
			return errors.ErrProvider.WithCause(err)
		}
	}
	return nil
}

// Query 执行向量相似度搜索。
func (s *MilvusStore) Query(ctx context.Context, vector []float32, topK int) ([]SearchResult, error) {
	hits, err := s.client.Search(ctx, s.collection, vector, topK)
	if err != nil {
		return nil, errors.ErrProvider.WithCause(err)
	}

	results := make([]SearchResult, 0, len(hits))
	for _, h := range hits {
		if h.Text == "" {
			continue
		}
		results = append(results, SearchResult{
			Text:    h.Text,
			Section: h.Section,
			Score:   normalizeCosine(h.Score),
		})
	}
	return results, nil
}

// DeleteAll 删除并重建集合。
func (s *MilvusStore) DeleteAll(ctx context.Context) error {
	if err := s.client.DropCollection(ctx, s.collection); err != nil {
		return errors.ErrProvider.WithCause(err)
	}
	if err := s.client.EnsureCollection(ctx, s.collection, s.dimension); err != nil {
		return errors.ErrProvider.WithCause(fmt.Errorf("recreate collection: %w", err))
	}
	return nil
}

// Stats 获取集合统计信息。
func (s *MilvusStore) Stats(ctx context.Context) (Stats, error) {
	n, err := s.client.Count(ctx, s.collection)
	if err != nil {
		return Stats{}, errors.ErrProvider.WithCause(err)
	}
	return Stats{VectorCount: n}, nil
}

// Close 关闭 Milvus 连接。
func (s *MilvusStore) Close() error {
	return s.client.Close(context.Background())
}

// 确保 MilvusStore 实现了 VectorStore 接口。
var _ VectorStore = (*MilvusStore)(nil)
