// Package llm provides LLM provider configuration options.
package llm

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/camaral-bot/pkg/options"
	"github.com/kart-io/camaral-bot/pkg/validator"
)

var _ options.IOptions = (*Options)(nil)

// Options 定义 LLM 供应商配置，覆盖 Embedding、Chat 与语音转写。
type Options struct {
	// Provider 供应商名称。
	Provider string `json:"provider" mapstructure:"provider" validate:"required"`
	// BaseURL API 基础地址。
	BaseURL string `json:"base-url" mapstructure:"base-url" validate:"required,url"`
	// APIKey API 密钥。
	APIKey string `json:"-" mapstructure:"api-key" validate:"required"`
	// Organization 组织 ID（可选）。
	Organization string `json:"organization" mapstructure:"organization"`

	// EmbeddingModel Embedding 模型。
	EmbeddingModel string `json:"embedding-model" mapstructure:"embedding-model" validate:"required"`
	// Dimensions 向量维度，必须与向量库一致。
	Dimensions int `json:"dimensions" mapstructure:"dimensions" validate:"gte=1"`
	// EmbeddingBatchSize 单次 Embedding 请求的最大文本数。
	EmbeddingBatchSize int `json:"embedding-batch-size" mapstructure:"embedding-batch-size" validate:"gte=1,lte=2048"`

	// ChatModel 回答生成使用的模型。
	ChatModel string `json:"chat-model" mapstructure:"chat-model" validate:"required"`
	// QuickModel 快速回复使用的模型。
	QuickModel string `json:"quick-model" mapstructure:"quick-model" validate:"required"`
	// Temperature 采样温度。
	Temperature float64 `json:"temperature" mapstructure:"temperature" validate:"gte=0,lte=2"`
	// MaxTokens 回答的最大 token 数。
	MaxTokens int `json:"max-tokens" mapstructure:"max-tokens" validate:"gte=1"`
	// QuickMaxTokens 快速回复的最大 token 数。
	QuickMaxTokens int `json:"quick-max-tokens" mapstructure:"quick-max-tokens" validate:"gte=1"`

	// TranscribeModel 语音转写模型。
	TranscribeModel string `json:"transcribe-model" mapstructure:"transcribe-model" validate:"required"`
	// TranscribeLanguage 语音转写语言（ISO-639-1）。
	TranscribeLanguage string `json:"transcribe-language" mapstructure:"transcribe-language"`

	// Timeout 单次请求超时时间。
	Timeout time.Duration `json:"timeout" mapstructure:"timeout" validate:"gt=0"`
	// MaxRetries 5xx 重试次数，0 表示不重试。
	MaxRetries int `json:"max-retries" mapstructure:"max-retries" validate:"gte=0"`

	// Breaker 熔断器配置。
	Breaker *BreakerOptions `json:"breaker" mapstructure:"breaker" validate:"required"`
	// EmbeddingCache Embedding 缓存配置（需要 Redis）。
	EmbeddingCache *EmbeddingCacheOptions `json:"embedding-cache" mapstructure:"embedding-cache" validate:"required"`
}

// BreakerOptions 熔断器配置。
type BreakerOptions struct {
	Enabled             bool          `json:"enabled" mapstructure:"enabled"`
	ConsecutiveFailures uint32        `json:"consecutive-failures" mapstructure:"consecutive-failures" validate:"gte=1"`
	OpenTimeout         time.Duration `json:"open-timeout" mapstructure:"open-timeout" validate:"gt=0"`
}

// EmbeddingCacheOptions Embedding 缓存配置。
type EmbeddingCacheOptions struct {
	Enabled   bool          `json:"enabled" mapstructure:"enabled"`
	TTL       time.Duration `json:"ttl" mapstructure:"ttl" validate:"gte=0"`
	KeyPrefix string        `json:"key-prefix" mapstructure:"key-prefix"`
}

// NewOptions 创建默认配置。
func NewOptions() *Options {
	return &Options{
		Provider:           "openai",
		BaseURL:            "https://api.openai.com/v1",
		EmbeddingModel:     "text-embedding-3-small",
		Dimensions:         1536,
		EmbeddingBatchSize: 100,
		ChatModel:          "gpt-4o",
		QuickModel:         "gpt-4o-mini",
		Temperature:        0.7,
		MaxTokens:          800,
		QuickMaxTokens:     500,
		TranscribeModel:    "whisper-1",
		TranscribeLanguage: "es",
		Timeout:            60 * time.Second,
		MaxRetries:         0,
		Breaker: &BreakerOptions{
			Enabled:             true,
			ConsecutiveFailures: 5,
			OpenTimeout:         30 * time.Second,
		},
		EmbeddingCache: &EmbeddingCacheOptions{
			Enabled: false,
			TTL:     24 * time.Hour,
		},
	}
}

// ToConfigMap 转换为配置 map，用于供应商工厂。
func (o *Options) ToConfigMap() map[string]any {
	return map[string]any{
		"base_url":         o.BaseURL,
		"api_key":          o.APIKey,
		"organization":     o.Organization,
		"embed_model":      o.EmbeddingModel,
		"dimensions":       o.Dimensions,
		"chat_model":       o.ChatModel,
		"transcribe_model": o.TranscribeModel,
		"temperature":      o.Temperature,
		"max_tokens":       o.MaxTokens,
		"timeout":          o.Timeout,
		"max_retries":      o.MaxRetries,
	}
}

// CacheKeyPrefix 返回 Embedding 缓存键前缀。未配置时由模型与维度派生，
// 避免切换模型后命中旧向量。
func (o *Options) CacheKeyPrefix() string {
	if o.EmbeddingCache.KeyPrefix != "" {
		return o.EmbeddingCache.KeyPrefix
	}
	return fmt.Sprintf("camaral:emb:%s:%d:", o.EmbeddingModel, o.Dimensions)
}

// AddFlags adds flags for LLM provider options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "llm."
	fs.StringVar(&o.Provider, p+"provider", o.Provider, "LLM provider.")
	fs.StringVar(&o.BaseURL, p+"base-url", o.BaseURL, "LLM API base URL.")
	fs.StringVar(&o.APIKey, p+"api-key", o.APIKey, "LLM API key (prefer CAMARAL_BOT_LLM_API_KEY).")
	fs.StringVar(&o.Organization, p+"organization", o.Organization, "LLM organization ID (optional).")
	fs.StringVar(&o.EmbeddingModel, p+"embedding-model", o.EmbeddingModel, "Embedding model name.")
	fs.IntVar(&o.Dimensions, p+"dimensions", o.Dimensions, "Embedding vector dimension.")
	fs.IntVar(&o.EmbeddingBatchSize, p+"embedding-batch-size", o.EmbeddingBatchSize, "Maximum texts per embedding request.")
	fs.StringVar(&o.ChatModel, p+"chat-model", o.ChatModel, "Chat model used for answers.")
	fs.StringVar(&o.QuickModel, p+"quick-model", o.QuickModel, "Chat model used for quick replies.")
	fs.Float64Var(&o.Temperature, p+"temperature", o.Temperature, "Sampling temperature.")
	fs.IntVar(&o.MaxTokens, p+"max-tokens", o.MaxTokens, "Maximum tokens per answer.")
	fs.IntVar(&o.QuickMaxTokens, p+"quick-max-tokens", o.QuickMaxTokens, "Maximum tokens per quick reply.")
	fs.StringVar(&o.TranscribeModel, p+"transcribe-model", o.TranscribeModel, "Speech-to-text model.")
	fs.StringVar(&o.TranscribeLanguage, p+"transcribe-language", o.TranscribeLanguage, "Speech-to-text language hint.")
	fs.DurationVar(&o.Timeout, p+"timeout", o.Timeout, "LLM request timeout.")
	fs.IntVar(&o.MaxRetries, p+"max-retries", o.MaxRetries, "Retries on 5xx responses.")
	fs.BoolVar(&o.Breaker.Enabled, p+"breaker.enabled", o.Breaker.Enabled, "Wrap the provider with a circuit breaker.")
	fs.Uint32Var(&o.Breaker.ConsecutiveFailures, p+"breaker.consecutive-failures", o.Breaker.ConsecutiveFailures, "Consecutive failures before the breaker opens.")
	fs.DurationVar(&o.Breaker.OpenTimeout, p+"breaker.open-timeout", o.Breaker.OpenTimeout, "Time the breaker stays open.")
	fs.BoolVar(&o.EmbeddingCache.Enabled, p+"embedding-cache.enabled", o.EmbeddingCache.Enabled, "Cache embeddings in Redis.")
	fs.DurationVar(&o.EmbeddingCache.TTL, p+"embedding-cache.ttl", o.EmbeddingCache.TTL, "Embedding cache TTL.")
	fs.StringVar(&o.EmbeddingCache.KeyPrefix, p+"embedding-cache.key-prefix", o.EmbeddingCache.KeyPrefix, "Embedding cache key prefix.")
}

// Validate validates the LLM provider options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}
	return validator.Struct(o)
}
