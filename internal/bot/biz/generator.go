package biz

import (
	"context"
	"strings"
	"time"

	"github.com/kart-io/logger"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kart-io/camaral-bot/internal/bot/conversation"
	"github.com/kart-io/camaral-bot/internal/bot/metrics"
	"github.com/kart-io/camaral-bot/internal/bot/store"
	"github.com/kart-io/camaral-bot/pkg/infra/tracing"
	"github.com/kart-io/camaral-bot/pkg/llm"
)

const tracerName = "camaral-bot/biz"

// GeneratorConfig 生成器配置。
type GeneratorConfig struct {
	// TopK 每次检索的分块数。
	TopK int
	// ChatModel 问答使用的模型。
	ChatModel string
	// QuickModel 快速回复使用的模型。
	QuickModel string
	// Temperature 采样温度。
	Temperature float64
	// MaxTokens 问答的最大输出 token 数。
	MaxTokens int
	// QuickMaxTokens 快速回复的最大输出 token 数。
	QuickMaxTokens int
	// SystemPrompt 系统提示词，为空时使用 SystemPrompt。
	SystemPrompt string
}

// DefaultGeneratorConfig 返回默认配置。
func DefaultGeneratorConfig() *GeneratorConfig {
	return &GeneratorConfig{
		TopK:           4,
		ChatModel:      "gpt-4o",
		QuickModel:     "gpt-4o-mini",
		Temperature:    0.7,
		MaxTokens:      800,
		QuickMaxTokens: 500,
		SystemPrompt:   SystemPrompt,
	}
}

// Generator 负责检索增强的回答生成。
type Generator struct {
	embedder *Embedder
	store    store.VectorStore
	gate     *Gate
	chat     llm.ChatProvider
	config   *GeneratorConfig
	metrics  *metrics.BotMetrics
}

// NewGenerator 创建生成器实例。
func NewGenerator(embedder *Embedder, vectorStore store.VectorStore, gate *Gate, chat llm.ChatProvider, config *GeneratorConfig) *Generator {
	cfg := *DefaultGeneratorConfig()
	if config != nil {
		cfg = *config
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = SystemPrompt
	}
	return &Generator{
		embedder: embedder,
		store:    vectorStore,
		gate:     gate,
		chat:     chat,
		config:   &cfg,
		metrics:  metrics.Get(),
	}
}

// Generate 检索上下文并生成回答。离题问题直接返回固定回复，不调用 LLM。
func (g *Generator) Generate(ctx context.Context, userMessage string, history []conversation.Message) (answer string, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "Generator.Generate")
	defer span.End()

	offTopic := false
	defer func() {
		g.metrics.RecordQuery(offTopic, err)
		tracing.RecordError(ctx, err)
	}()

	queryVector, err := g.embedder.Embed(ctx, userMessage)
	if err != nil {
		return "", err
	}

	start := time.Now()
	results, err := g.store.Query(ctx, queryVector, g.config.TopK)
	g.metrics.RecordRetrieval(time.Since(start), err)
	if err != nil {
		return "", providerError(err)
	}
	span.SetAttributes(attribute.Int("rag.results", len(results)))

	if g.gate.IsOffTopic(userMessage, results) {
		offTopic = true
		span.SetAttributes(attribute.Bool("rag.off_topic", true))
		logger.Infow("Question is off-topic", "results", len(results), "mean_score", meanScore(results))
		return OffTopicResponse, nil
	}

	messages := g.buildMessages(userMessage, results, history)

	start = time.Now()
	content, err := g.chat.Chat(ctx, messages,
		llm.WithModel(g.config.ChatModel),
		llm.WithTemperature(g.config.Temperature),
		llm.WithMaxTokens(g.config.MaxTokens),
	)
	g.metrics.RecordLLMCall(time.Since(start), err)
	if err != nil {
		logger.Errorw("Chat completion failed", "error", err.Error())
		return "", providerError(err)
	}

	if strings.TrimSpace(content) == "" {
		return FallbackResponse, nil
	}

	logger.Infow("Answer generated",
		"results", len(results),
		"history", len(history),
		"length", len(content),
	)
	return content, nil
}

// QuickResponse 不经检索直接调用快速模型，空内容返回空字符串。
func (g *Generator) QuickResponse(ctx context.Context, prompt string) (string, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "Generator.QuickResponse")
	defer span.End()

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: g.config.SystemPrompt},
		{Role: llm.RoleUser, Content: prompt},
	}

	start := time.Now()
	content, err := g.chat.Chat(ctx, messages,
		llm.WithModel(g.config.QuickModel),
		llm.WithTemperature(g.config.Temperature),
		llm.WithMaxTokens(g.config.QuickMaxTokens),
	)
	g.metrics.RecordLLMCall(time.Since(start), err)
	if err != nil {
		tracing.RecordError(ctx, err)
		return "", providerError(err)
	}
	return content, nil
}

// buildMessages 组装 [系统提示, 上下文, 历史..., 用户消息]。
func (g *Generator) buildMessages(userMessage string, results []store.SearchResult, history []conversation.Message) []llm.Message {
	messages := make([]llm.Message, 0, len(history)+3)
	messages = append(messages,
		llm.Message{Role: llm.RoleSystem, Content: g.config.SystemPrompt},
		llm.Message{Role: llm.RoleSystem, Content: contextHeader + buildContext(results)},
	)
	for _, m := range history {
		messages = append(messages, llm.Message{Role: llm.Role(m.Role), Content: m.Content})
	}
	return append(messages, llm.Message{Role: llm.RoleUser, Content: userMessage})
}

// buildContext 每个分块以 "[章节]" 开头，分块之间用分隔线连接。
func buildContext(results []store.SearchResult) string {
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = "[" + r.Section + "]\n" + r.Text
	}
	return strings.Join(parts, contextSeparator)
}
