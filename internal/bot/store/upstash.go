package store

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/kart-io/logger"

	"github.com/kart-io/camaral-bot/pkg/errors"
	vectoropts "github.com/kart-io/camaral-bot/pkg/options/vector"
	"github.com/kart-io/camaral-bot/pkg/utils/httpclient"
)

// upstashVector Upstash 写入的向量记录。
type upstashVector struct {
	ID       string           `json:"id"`
	Vector   []float32        `json:"vector"`
	Metadata *upstashMetadata `json:"metadata,omitempty"`
}

// upstashMetadata 持久化的元数据，不包含字符偏移。
type upstashMetadata struct {
	Text    string `json:"text"`
	Section string `json:"section"`
	Index   int    `json:"index"`
}

type upstashQuery struct {
	Vector          []float32 `json:"vector"`
	TopK            int       `json:"topK"`
	IncludeMetadata bool      `json:"includeMetadata"`
	IncludeVectors  bool      `json:"includeVectors"`
}

type upstashMatch struct {
	ID       string           `json:"id"`
	Score    float32          `json:"score"`
	Metadata *upstashMetadata `json:"metadata,omitempty"`
}

type upstashInfo struct {
	VectorCount        int64  `json:"vectorCount"`
	PendingVectorCount int64  `json:"pendingVectorCount"`
	Dimension          int    `json:"dimension"`
	SimilarityFunction string `json:"similarityFunction"`
}

// upstashResponse Upstash REST 响应包装。
type upstashResponse[T any] struct {
	Result T      `json:"result"`
	Error  string `json:"error,omitempty"`
}

// UpstashStore 实现基于 Upstash Vector REST API 的向量存储。
type UpstashStore struct {
	baseURL   string
	token     string
	batchSize int
	client    *httpclient.Client
}

// NewUpstashStore 创建 Upstash 存储实例。
func NewUpstashStore(opts *vectoropts.Options) (*UpstashStore, error) {
	if opts == nil || opts.Upstash == nil {
		return nil, errors.ErrConfiguration.WithMessage("upstash options are required")
	}
	if opts.Upstash.URL == "" || opts.Upstash.Token == "" {
		return nil, errors.ErrConfiguration.WithMessage("upstash url and token are required")
	}

	return &UpstashStore{
		baseURL:   strings.TrimRight(opts.Upstash.URL, "/"),
		token:     opts.Upstash.Token,
		batchSize: opts.BatchSize,
		client:    httpclient.NewClient(opts.Upstash.Timeout, opts.Upstash.MaxRetries),
	}, nil
}

// Upsert 分批写入向量。
func (s *UpstashStore) Upsert(ctx context.Context, chunks []Chunk, vectors [][]float32) error {
	if err := checkPairs(chunks, vectors); err != nil {
		return err
	}

	for _, b := range batches(len(chunks), s.batchSize) {
		records := make([]upstashVector, 0, b[1]-b[0])
		for i := b[0]; i < b[1]; i++ {
			records = append(records, upstashVector{
				ID:     chunks[i].ID,
				Vector: vectors[i],
				Metadata: &upstashMetadata{
					Text:    chunks[i].Text,
					Section: chunks[i].Metadata.Section,
					Index:   chunks[i].Metadata.Index,
				},
			})
		}

		var resp upstashResponse[string]
		if err := s.do(ctx, http.MethodPost, "/upsert", records, &resp); err != nil {
			return err
		}
		logger.Debugw("Upserted vector batch", "from", b[0], "to", b[1])
	}
	return nil
}

// Query 执行相似度检索，丢弃没有元数据的结果。
func (s *UpstashStore) Query(ctx context.Context, vector []float32, topK int) ([]SearchResult, error) {
	body := upstashQuery{
		Vector:          vector,
		TopK:            topK,
		IncludeMetadata: true,
	}

	var resp upstashResponse[[]upstashMatch]
	if err := s.do(ctx, http.MethodPost, "/query", body, &resp); err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(resp.Result))
	for _, m := range resp.Result {
		if m.Metadata == nil {
			continue
		}
		results = append(results, SearchResult{
			Text:    m.Metadata.Text,
			Section: m.Metadata.Section,
			Score:   m.Score,
		})
	}
	return results, nil
}

// DeleteAll 重置索引。
func (s *UpstashStore) DeleteAll(ctx context.Context) error {
	var resp upstashResponse[string]
	return s.do(ctx, http.MethodDelete, "/reset", nil, &resp)
}

// Stats 返回索引统计信息。
func (s *UpstashStore) Stats(ctx context.Context) (Stats, error) {
	var resp upstashResponse[upstashInfo]
	if err := s.do(ctx, http.MethodGet, "/info", nil, &resp); err != nil {
		return Stats{}, err
	}
	return Stats{VectorCount: resp.Result.VectorCount}, nil
}

// Close 无需释放资源。
func (s *UpstashStore) Close() error {
	return nil
}

func (s *UpstashStore) do(ctx context.Context, method, path string, body, out interface{}) error {
	req, err := httpclient.NewJSONRequest(ctx, method, s.baseURL+path, body)
	if err != nil {
		return errors.ErrInternal.WithCause(err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)

	if err := s.client.DoJSON(req, out); err != nil {
		return errors.ErrProvider.WithCause(fmt.Errorf("upstash %s %s: %w", method, path, err))
	}
	return nil
}

// 确保 UpstashStore 实现了 VectorStore 接口。
var _ VectorStore = (*UpstashStore)(nil)
