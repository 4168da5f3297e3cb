// Package openai 提供 OpenAI 供应商实现，覆盖 Embedding、Chat Completions
// 与 Whisper 语音转写，同时兼容 OpenAI 风格的 API 服务。
//
// 基本用法：
//
//	import _ "github.com/kart-io/camaral-bot/pkg/llm/openai"
//
//	provider, err := llm.NewProvider("openai", map[string]any{
//	    "api_key":    os.Getenv("OPENAI_API_KEY"),
//	    "chat_model": "gpt-4o",
//	    "dimensions": 1536,
//	})
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/kart-io/camaral-bot/pkg/llm"
	"github.com/kart-io/camaral-bot/pkg/utils/httpclient"
	"github.com/kart-io/camaral-bot/pkg/utils/json"
)

// ProviderName 是 OpenAI 供应商的名称标识符。
const ProviderName = "openai"

func init() {
	llm.RegisterProvider(ProviderName, NewProvider)
}

// Config OpenAI 供应商配置。
type Config struct {
	// BaseURL API 基础地址。
	BaseURL string `json:"base_url" mapstructure:"base_url"`
	// APIKey API 密钥。
	APIKey string `json:"-" mapstructure:"api_key"`
	// Organization 组织 ID（可选）。
	Organization string `json:"organization" mapstructure:"organization"`

	// EmbedModel Embedding 模型。
	EmbedModel string `json:"embed_model" mapstructure:"embed_model"`
	// Dimensions Embedding 向量维度，0 表示使用模型默认维度。
	Dimensions int `json:"dimensions" mapstructure:"dimensions"`
	// ChatModel 对话模型。
	ChatModel string `json:"chat_model" mapstructure:"chat_model"`
	// TranscribeModel 语音转写模型。
	TranscribeModel string `json:"transcribe_model" mapstructure:"transcribe_model"`

	// Temperature 默认采样温度，调用方可通过 llm.WithTemperature 覆盖。
	Temperature float64 `json:"temperature" mapstructure:"temperature"`
	// MaxTokens 默认最大输出 token 数，0 表示不设置。
	MaxTokens int `json:"max_tokens" mapstructure:"max_tokens"`

	// Timeout 请求超时时间。
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
	// MaxRetries 5xx 重试次数，0 表示不重试。
	MaxRetries int `json:"max_retries" mapstructure:"max_retries"`
}

// DefaultConfig 返回默认配置。
func DefaultConfig() *Config {
	return &Config{
		BaseURL:         "https://api.openai.com/v1",
		EmbedModel:      "text-embedding-3-small",
		Dimensions:      1536,
		ChatModel:       "gpt-4o",
		TranscribeModel: "whisper-1",
		Temperature:     0.7,
		MaxTokens:       800,
		Timeout:         120 * time.Second,
	}
}

// Provider OpenAI 供应商实现。
type Provider struct {
	config *Config
	client *httpclient.Client
}

var _ llm.Provider = (*Provider)(nil)

// NewProvider 从配置 map 创建 OpenAI 供应商。
func NewProvider(configMap map[string]any) (llm.Provider, error) {
	cfg := DefaultConfig()

	setString := func(key string, dst *string) {
		if v, ok := configMap[key].(string); ok && v != "" {
			*dst = v
		}
	}
	setString("base_url", &cfg.BaseURL)
	setString("api_key", &cfg.APIKey)
	setString("organization", &cfg.Organization)
	setString("embed_model", &cfg.EmbedModel)
	setString("chat_model", &cfg.ChatModel)
	setString("transcribe_model", &cfg.TranscribeModel)

	if v, ok := configMap["dimensions"].(int); ok && v >= 0 {
		cfg.Dimensions = v
	}
	if v, ok := configMap["temperature"].(float64); ok {
		cfg.Temperature = v
	}
	if v, ok := configMap["max_tokens"].(int); ok {
		cfg.MaxTokens = v
	}
	if v, ok := configMap["timeout"].(time.Duration); ok && v > 0 {
		cfg.Timeout = v
	}
	if v, ok := configMap["max_retries"].(int); ok && v >= 0 {
		cfg.MaxRetries = v
	}

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: api_key 是必需的")
	}

	return NewProviderWithConfig(cfg), nil
}

// NewProviderWithConfig 使用结构化配置创建 OpenAI 供应商。
func NewProviderWithConfig(cfg *Config) *Provider {
	return &Provider{
		config: cfg,
		client: httpclient.NewClient(cfg.Timeout, cfg.MaxRetries),
	}
}

// Name 返回供应商名称。
func (p *Provider) Name() string {
	return ProviderName
}

// APIError 表示 OpenAI 返回的错误响应。
type APIError struct {
	StatusCode int
	Type       string
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("openai: status %d: %s (%s)", e.StatusCode, e.Message, e.Type)
}

// Retryable 报告该错误是否属于限流或服务端故障。
func (e *APIError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// asAPIError 将 httpclient.StatusError 解析为 APIError。
func asAPIError(err error) error {
	var se *httpclient.StatusError
	if !errors.As(err, &se) {
		return err
	}

	var body struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
			Code    any    `json:"code"`
		} `json:"error"`
	}
	apiErr := &APIError{StatusCode: se.StatusCode, Message: se.Body}
	if json.Unmarshal([]byte(se.Body), &body) == nil && body.Error.Message != "" {
		apiErr.Message = body.Error.Message
		apiErr.Type = body.Error.Type
		if body.Error.Code != nil {
			apiErr.Code = fmt.Sprint(body.Error.Code)
		}
	}
	return apiErr
}

func (p *Provider) do(ctx context.Context, method, path string, body, out any) error {
	req, err := httpclient.NewJSONRequest(ctx, method, p.config.BaseURL+path, body)
	if err != nil {
		return err
	}
	p.setHeaders(req)
	return asAPIError(p.client.DoJSON(req, out))
}

// setHeaders 设置鉴权请求头。
func (p *Provider) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+p.config.APIKey)
	if p.config.Organization != "" {
		req.Header.Set("OpenAI-Organization", p.config.Organization)
	}
}
