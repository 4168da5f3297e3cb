package store

import (
	"context"
	"math"
	"sort"
	"sync"
)

type memoryRecord struct {
	chunk  Chunk
	vector []float32
}

// MemoryStore 进程内暴力检索的向量存储，用于测试和本地开发。
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]memoryRecord
}

// NewMemoryStore 创建内存存储实例。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]memoryRecord)}
}

// Upsert 写入或覆盖分块。
func (s *MemoryStore) Upsert(_ context.Context, chunks []Chunk, vectors [][]float32) error {
	if err := checkPairs(chunks, vectors); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range chunks {
		v := make([]float32, len(vectors[i]))
		copy(v, vectors[i])
		s.records[c.ID] = memoryRecord{chunk: c, vector: v}
	}
	return nil
}

// Query 计算余弦相似度并返回前 topK 条。
func (s *MemoryStore) Query(ctx context.Context, vector []float32, topK int) ([]SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	results := make([]SearchResult, 0, len(s.records))
	for _, r := range s.records {
		results = append(results, SearchResult{
			Text:    r.chunk.Text,
			Section: r.chunk.Metadata.Section,
			Score:   normalizeCosine(cosine(vector, r.vector)),
		})
	}
	s.mu.RUnlock()

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if topK >= 0 && len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// DeleteAll 清空所有记录。
func (s *MemoryStore) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	s.records = make(map[string]memoryRecord)
	s.mu.Unlock()
	return nil
}

// Stats 返回记录数。
func (s *MemoryStore) Stats(_ context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{VectorCount: int64(len(s.records))}, nil
}

// Close 无需释放资源。
func (s *MemoryStore) Close() error {
	return nil
}

// cosine 维度不同或零向量时返回 0。
func cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

// 确保 MemoryStore 实现了 VectorStore 接口。
var _ VectorStore = (*MemoryStore)(nil)
