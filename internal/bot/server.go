// Package botsvc provides the Camaral bot server implementation.
package botsvc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/kart-io/camaral-bot/internal/bot/biz"
	"github.com/kart-io/camaral-bot/internal/bot/handler"
	"github.com/kart-io/camaral-bot/internal/bot/router"
	"github.com/kart-io/camaral-bot/internal/bot/store"
	"github.com/kart-io/camaral-bot/pkg/component/redis"
	"github.com/kart-io/camaral-bot/pkg/infra/app"
	"github.com/kart-io/camaral-bot/pkg/infra/middleware"
	"github.com/kart-io/camaral-bot/pkg/infra/pool"
	"github.com/kart-io/camaral-bot/pkg/infra/tracing"
	convopts "github.com/kart-io/camaral-bot/pkg/options/conversation"
	llmopts "github.com/kart-io/camaral-bot/pkg/options/llm"
	logopts "github.com/kart-io/camaral-bot/pkg/options/logger"
	milvusopts "github.com/kart-io/camaral-bot/pkg/options/milvus"
	poolopts "github.com/kart-io/camaral-bot/pkg/options/pool"
	ragopts "github.com/kart-io/camaral-bot/pkg/options/rag"
	redisopts "github.com/kart-io/camaral-bot/pkg/options/redis"
	serveropts "github.com/kart-io/camaral-bot/pkg/options/server"
	sqlopts "github.com/kart-io/camaral-bot/pkg/options/sql"
	telegramopts "github.com/kart-io/camaral-bot/pkg/options/telegram"
	tracingopts "github.com/kart-io/camaral-bot/pkg/options/tracing"
	vectoropts "github.com/kart-io/camaral-bot/pkg/options/vector"
	"github.com/kart-io/camaral-bot/pkg/telegram"
)

// Name is the name of the application.
const Name = "camaral-bot"

// Config contains application-related configurations.
type Config struct {
	HTTPOptions         *serveropts.Options
	LogOptions          *logopts.Options
	TracingOptions      *tracingopts.Options
	LLMOptions          *llmopts.Options
	RAGOptions          *ragopts.Options
	TelegramOptions     *telegramopts.Options
	VectorOptions       *vectoropts.Options
	MilvusOptions       *milvusopts.Options
	RedisOptions        *redisopts.Options
	ConversationOptions *convopts.Options
	SQLOptions          *sqlopts.Options
	PoolOptions         *poolopts.Options
}

// needsRedis reports whether a component is configured to use Redis.
func (cfg *Config) needsRedis() bool {
	return cfg.ConversationOptions.Backend == convopts.BackendRedis ||
		cfg.LLMOptions.EmbeddingCache.Enabled
}

// Server represents the bot server.
type Server struct {
	httpServer      *http.Server
	workers         *pool.Pool
	shutdownTimeout time.Duration
	closers         []func() error
}

// NewServer initializes and returns a new Server instance.
func (cfg *Config) NewServer(ctx context.Context) (_ *Server, err error) {
	printBanner(cfg)

	s := &Server{shutdownTimeout: cfg.HTTPOptions.ShutdownTimeout}
	defer func() {
		if err != nil {
			s.close()
		}
	}()

	// 1. 初始化日志
	if err := cfg.LogOptions.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Infow("Starting bot service...", "version", app.GetVersion())

	// 2. 初始化链路追踪
	tracer, err := tracing.NewProvider(ctx, cfg.TracingOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	s.closers = append(s.closers, func() error { return tracer.Shutdown(context.Background()) })
	logger.Infow("Tracing initialized", "enabled", tracer.Enabled())

	// 3. 初始化 Redis 客户端（会话存储与 Embedding 缓存）
	var rdb goredis.UniversalClient
	if cfg.needsRedis() {
		redisClient, err := redis.New(ctx, cfg.RedisOptions)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis: %w", err)
		}
		rdb = redisClient.Client()
		s.closers = append(s.closers, redisClient.Close)
		logger.Infow("Redis client initialized", "addr", cfg.RedisOptions.Addr())
	}

	// 4. 初始化 LLM 供应商
	providers, err := NewProviders(cfg.LLMOptions, rdb)
	if err != nil {
		return nil, err
	}

	// 5. 初始化向量存储
	vectorStore, err := NewVectorStore(ctx, cfg.VectorOptions, cfg.MilvusOptions, cfg.LLMOptions.Dimensions)
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, vectorStore.Close)

	// 6. 初始化会话存储
	history, closeHistory, err := NewConversationStore(cfg.ConversationOptions, cfg.SQLOptions, rdb)
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, closeHistory)
	logger.Infow("Conversation store initialized",
		"backend", cfg.ConversationOptions.Backend,
		"max_history", cfg.ConversationOptions.MaxHistory,
	)

	// 7. 初始化主题拦截器
	gate, err := NewGate(cfg.RAGOptions)
	if err != nil {
		return nil, err
	}

	// 8. 初始化 Biz 层
	generator := biz.NewGenerator(newEmbedder(cfg.LLMOptions, providers.Embedding), vectorStore, gate, providers.Chat, &biz.GeneratorConfig{
		TopK:           cfg.RAGOptions.TopK,
		ChatModel:      cfg.LLMOptions.ChatModel,
		QuickModel:     cfg.LLMOptions.QuickModel,
		Temperature:    cfg.LLMOptions.Temperature,
		MaxTokens:      cfg.LLMOptions.MaxTokens,
		QuickMaxTokens: cfg.LLMOptions.QuickMaxTokens,
	})
	chatService := biz.NewChatService(generator, history)
	transcriber := biz.NewTranscriber(providers.Transcription, &biz.TranscriberConfig{
		Model:    cfg.LLMOptions.TranscribeModel,
		Language: cfg.LLMOptions.TranscribeLanguage,
	})
	indexer := NewIndexer(cfg.RAGOptions, cfg.LLMOptions, providers.Embedding, vectorStore)
	logger.Infow("Bot service initialized", "top_k", cfg.RAGOptions.TopK, "min_score", cfg.RAGOptions.MinScore)

	// 9. 初始化 Telegram 客户端与 Worker 池
	bot, err := telegram.NewClient(telegram.Config{
		Token:      cfg.TelegramOptions.Token,
		BaseURL:    cfg.TelegramOptions.BaseURL,
		Timeout:    cfg.TelegramOptions.Timeout,
		MaxRetries: cfg.TelegramOptions.MaxRetries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telegram client: %w", err)
	}
	s.workers, err = pool.NewPool("telegram-updates", cfg.PoolOptions.ToConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize worker pool: %w", err)
	}

	// 10. 初始化 Handler 层
	handlers, err := newHandlers(cfg, chatService, transcriber, bot, s.workers, indexer, vectorStore, providers)
	if err != nil {
		return nil, err
	}
	logger.Info("Handler layer initialized")

	// 11. 注册路由
	gin.SetMode(cfg.HTTPOptions.Mode)
	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		middleware.LoggerWithConfig(middleware.LoggerConfig{SkipPaths: []string{"/healthz", "/metrics"}}),
		middleware.Recovery(),
	)
	router.Register(engine, handlers)

	s.httpServer = &http.Server{
		Addr:         cfg.HTTPOptions.Addr,
		Handler:      engine,
		ReadTimeout:  cfg.HTTPOptions.ReadTimeout,
		WriteTimeout: cfg.HTTPOptions.WriteTimeout,
		IdleTimeout:  cfg.HTTPOptions.IdleTimeout,
	}

	logger.Info("Bot service is ready")
	return s, nil
}

func newHandlers(
	cfg *Config,
	assistant handler.Assistant,
	transcriber handler.Transcriber,
	messenger handler.Messenger,
	workers *pool.Pool,
	indexer handler.DocumentIndexer,
	vectorStore store.VectorStore,
	providers *Providers,
) (*router.Handlers, error) {
	tg, err := handler.NewTelegramHandler(assistant, transcriber, messenger, workers, handler.TelegramConfig{
		SecretToken:   cfg.TelegramOptions.SecretToken,
		UpdateTimeout: cfg.TelegramOptions.UpdateTimeout,
		DedupSize:     cfg.TelegramOptions.DedupSize,
	})
	if err != nil {
		return nil, err
	}

	var breakers handler.BreakerStates
	if providers.Breakers != nil {
		breakers = providers.Breakers
	}

	return &router.Handlers{
		Telegram: tg,
		Index: handler.NewIndexHandler(indexer, handler.IndexConfig{
			DocumentPath: cfg.RAGOptions.DocumentPath,
			APIKey:       cfg.LLMOptions.APIKey,
			Token:        cfg.RAGOptions.IndexToken,
		}),
		Stats: handler.NewStatsHandler(vectorStore, breakers, workers),
	}, nil
}

// Run starts the server and blocks until ctx is cancelled or the listener fails.
func (s *Server) Run(ctx context.Context) error {
	defer s.close()

	errCh := make(chan error, 1)
	go func() {
		logger.Infow("HTTP server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down bot service...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	var errs []error
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	// 等待已接收的更新处理完成
	if err := s.workers.Release(s.shutdownTimeout); err != nil {
		errs = append(errs, fmt.Errorf("worker pool release: %w", err))
	}
	s.workers = nil

	if err := utilerrors.NewAggregate(errs); err != nil {
		return err
	}
	logger.Info("Bot service stopped")
	return nil
}

// close releases resources in reverse order of creation.
func (s *Server) close() {
	if s.workers != nil {
		_ = s.workers.Release(s.shutdownTimeout)
		s.workers = nil
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			logger.Warnw("Failed to release resource", "error", err.Error())
		}
	}
	s.closers = nil
}

func printBanner(cfg *Config) {
	fmt.Printf("Starting %s...\n", Name)
	fmt.Printf("  LLM: %s (%s, %s)\n", cfg.LLMOptions.Provider, cfg.LLMOptions.ChatModel, cfg.LLMOptions.EmbeddingModel)
	fmt.Printf("  Vector store: %s\n", cfg.VectorOptions.Backend)
	fmt.Printf("  Conversation store: %s\n", cfg.ConversationOptions.Backend)
}
