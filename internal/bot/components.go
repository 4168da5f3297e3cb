package botsvc

import (
	"context"
	"fmt"

	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"

	"github.com/kart-io/camaral-bot/internal/bot/biz"
	"github.com/kart-io/camaral-bot/internal/bot/conversation"
	"github.com/kart-io/camaral-bot/internal/bot/store"
	"github.com/kart-io/camaral-bot/pkg/component/milvus"
	"github.com/kart-io/camaral-bot/pkg/component/sqldb"
	"github.com/kart-io/camaral-bot/pkg/llm"
	// 导入 LLM 供应商以自动注册
	_ "github.com/kart-io/camaral-bot/pkg/llm/openai"
	"github.com/kart-io/camaral-bot/pkg/llm/resilience"
	convopts "github.com/kart-io/camaral-bot/pkg/options/conversation"
	llmopts "github.com/kart-io/camaral-bot/pkg/options/llm"
	milvusopts "github.com/kart-io/camaral-bot/pkg/options/milvus"
	ragopts "github.com/kart-io/camaral-bot/pkg/options/rag"
	sqlopts "github.com/kart-io/camaral-bot/pkg/options/sql"
	vectoropts "github.com/kart-io/camaral-bot/pkg/options/vector"
)

// Providers 汇总 LLM 能力。
type Providers struct {
	Embedding     llm.EmbeddingProvider
	Chat          llm.ChatProvider
	Transcription llm.TranscriptionProvider
	// Breakers 熔断器未启用时为 nil。
	Breakers *resilience.Provider
}

// NewProviders 创建 LLM 供应商，按配置包装熔断器与 Embedding 缓存。
func NewProviders(opts *llmopts.Options, rdb goredis.UniversalClient) (*Providers, error) {
	provider, err := llm.NewProvider(opts.Provider, opts.ToConfigMap())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize llm provider: %w", err)
	}

	p := &Providers{Embedding: provider, Chat: provider, Transcription: provider}
	if opts.Breaker.Enabled {
		wrapped := resilience.Wrap(provider, &resilience.Config{
			ConsecutiveFailures: opts.Breaker.ConsecutiveFailures,
			OpenTimeout:         opts.Breaker.OpenTimeout,
			HalfOpenMaxCalls:    1,
		})
		p.Embedding, p.Chat, p.Transcription = wrapped, wrapped, wrapped
		p.Breakers = wrapped
	}

	if opts.EmbeddingCache.Enabled {
		if rdb == nil {
			logger.Warn("Embedding cache is enabled but Redis is not available, cache disabled")
		} else {
			p.Embedding = llm.NewCachedEmbeddingProvider(p.Embedding, rdb, &llm.EmbeddingCacheConfig{
				TTL:       opts.EmbeddingCache.TTL,
				KeyPrefix: opts.CacheKeyPrefix(),
			})
			logger.Infow("Embedding cache initialized", "ttl", opts.EmbeddingCache.TTL)
		}
	}

	logger.Infow("LLM provider initialized",
		"provider", opts.Provider,
		"embedding_model", opts.EmbeddingModel,
		"chat_model", opts.ChatModel,
		"breaker", opts.Breaker.Enabled,
	)
	return p, nil
}

// NewVectorStore 按后端创建向量存储。
func NewVectorStore(ctx context.Context, opts *vectoropts.Options, milvusOpts *milvusopts.Options, dimension int) (store.VectorStore, error) {
	switch opts.Backend {
	case vectoropts.BackendUpstash:
		s, err := store.NewUpstashStore(opts)
		if err != nil {
			return nil, err
		}
		logger.Infow("Upstash vector store initialized", "url", opts.Upstash.URL)
		return s, nil
	case vectoropts.BackendMilvus:
		client, err := milvus.New(ctx, milvusOpts)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize milvus: %w", err)
		}
		s, err := store.NewMilvusStore(ctx, client, milvusOpts.Collection, dimension, opts.BatchSize)
		if err != nil {
			_ = client.Close(ctx)
			return nil, err
		}
		logger.Infow("Milvus vector store initialized",
			"address", milvusOpts.Address,
			"collection", milvusOpts.Collection,
		)
		return s, nil
	case vectoropts.BackendMemory:
		logger.Warn("Using in-memory vector store, the index is lost on restart")
		return store.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported vector backend %q", opts.Backend)
	}
}

// NewConversationStore 按后端创建会话存储，返回的 closer 释放底层连接。
func NewConversationStore(opts *convopts.Options, sqlOpts *sqlopts.Options, rdb goredis.UniversalClient) (conversation.Store, func() error, error) {
	nop := func() error { return nil }

	switch opts.Backend {
	case convopts.BackendMemory:
		return conversation.NewMemoryStore(opts.MaxHistory), nop, nil
	case convopts.BackendRedis:
		if rdb == nil {
			return nil, nil, fmt.Errorf("conversation backend redis requires a redis connection")
		}
		return conversation.NewRedisStore(rdb, conversation.RedisConfig{
			MaxHistory: opts.MaxHistory,
			KeyPrefix:  opts.KeyPrefix,
			TTL:        opts.TTL,
		}), nop, nil
	case convopts.BackendSQL:
		db, err := sqldb.Open(sqlOpts)
		if err != nil {
			return nil, nil, err
		}
		s, err := conversation.NewSQLStore(db, opts.MaxHistory, sqlOpts.AutoMigrate)
		if err != nil {
			_ = sqldb.Close(db)
			return nil, nil, err
		}
		return s, func() error { return sqldb.Close(db) }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported conversation backend %q", opts.Backend)
	}
}

// NewIndexer 创建索引器。
func NewIndexer(ragOpts *ragopts.Options, llmOpts *llmopts.Options, embedding llm.EmbeddingProvider, vectorStore store.VectorStore) *biz.Indexer {
	chunker := biz.NewChunker(&biz.ChunkerConfig{
		ChunkSize:    ragOpts.ChunkSize,
		ChunkOverlap: ragOpts.ChunkOverlap,
	})
	return biz.NewIndexer(chunker, newEmbedder(llmOpts, embedding), vectorStore, &biz.IndexerConfig{
		DocID:      ragOpts.DocID,
		BySections: ragOpts.BySections,
	})
}

func newEmbedder(opts *llmopts.Options, embedding llm.EmbeddingProvider) *biz.Embedder {
	return biz.NewEmbedder(embedding, &biz.EmbedderConfig{
		BatchSize: opts.EmbeddingBatchSize,
		Dimension: opts.Dimensions,
	})
}

// NewGate 创建主题拦截器，配置了策略文件时加载并监听该文件。
func NewGate(opts *ragopts.Options) (*biz.Gate, error) {
	policy := biz.DefaultPolicy()
	policy.Threshold = opts.MinScore
	gate, err := biz.NewGate(policy)
	if err != nil {
		return nil, err
	}
	if opts.PolicyFile != "" {
		if err := gate.WatchPolicyFile(opts.PolicyFile); err != nil {
			return nil, fmt.Errorf("failed to load relevance policy: %w", err)
		}
	}
	return gate, nil
}
