// Package resilience 为模型供应商提供熔断保护。
// 上游持续失败时快速失败，避免每个请求都等待超时；不做本地重试。
package resilience

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/kart-io/logger"
	"github.com/sony/gobreaker"

	"github.com/kart-io/camaral-bot/pkg/llm"
)

// ErrOpen 熔断器打开时返回。
var ErrOpen = gobreaker.ErrOpenState

// Config 熔断器配置。
type Config struct {
	// ConsecutiveFailures 连续失败多少次后打开熔断器。
	ConsecutiveFailures uint32
	// OpenTimeout 打开状态持续时间，之后进入半开状态。
	OpenTimeout time.Duration
	// HalfOpenMaxCalls 半开状态允许的探测请求数。
	HalfOpenMaxCalls uint32
}

// DefaultConfig 返回默认配置。
func DefaultConfig() *Config {
	return &Config{
		ConsecutiveFailures: 5,
		OpenTimeout:         30 * time.Second,
		HalfOpenMaxCalls:    1,
	}
}

// retryable 由供应商错误类型实现（例如 openai.APIError）。
type retryable interface {
	Retryable() bool
}

// IsUpstreamFailure 判断错误是否代表上游故障：网络错误、超时、限流或 5xx。
// 鉴权失败与请求参数错误不计入熔断。
func IsUpstreamFailure(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var r retryable
	if errors.As(err, &r) {
		return r.Retryable()
	}
	// 网络错误与超时
	return true
}

func newBreaker(name string, cfg *Config) *gobreaker.CircuitBreaker {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.HalfOpenMaxCalls,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		IsSuccessful: func(err error) bool {
			return !IsUpstreamFailure(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warnw("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
}

// Provider 为完整供应商的每种能力分别维护熔断器。
type Provider struct {
	inner      llm.Provider
	embedCB    *gobreaker.CircuitBreaker
	chatCB     *gobreaker.CircuitBreaker
	transcribe *gobreaker.CircuitBreaker
}

var _ llm.Provider = (*Provider)(nil)

// Wrap 为 inner 加上熔断保护。
func Wrap(inner llm.Provider, cfg *Config) *Provider {
	name := inner.Name()
	return &Provider{
		inner:      inner,
		embedCB:    newBreaker(name+"-embed", cfg),
		chatCB:     newBreaker(name+"-chat", cfg),
		transcribe: newBreaker(name+"-transcribe", cfg),
	}
}

// Embed 带熔断的批量 Embedding。
func (p *Provider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	v, err := p.embedCB.Execute(func() (interface{}, error) {
		return p.inner.Embed(ctx, texts)
	})
	if err != nil {
		return nil, err
	}
	return v.([][]float32), nil
}

// EmbedSingle 带熔断的单条 Embedding。
func (p *Provider) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	v, err := p.embedCB.Execute(func() (interface{}, error) {
		return p.inner.EmbedSingle(ctx, text)
	})
	if err != nil {
		return nil, err
	}
	return v.([]float32), nil
}

// Chat 带熔断的对话调用。
func (p *Provider) Chat(ctx context.Context, messages []llm.Message, opts ...llm.ChatOption) (string, error) {
	v, err := p.chatCB.Execute(func() (interface{}, error) {
		return p.inner.Chat(ctx, messages, opts...)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Transcribe 带熔断的语音转写。
func (p *Provider) Transcribe(ctx context.Context, audio io.Reader, filename string, opts ...llm.TranscribeOption) (string, error) {
	v, err := p.transcribe.Execute(func() (interface{}, error) {
		return p.inner.Transcribe(ctx, audio, filename, opts...)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Name 返回供应商名称。
func (p *Provider) Name() string {
	return p.inner.Name()
}

// States 返回各熔断器当前状态，用于监控。
func (p *Provider) States() map[string]string {
	return map[string]string{
		"embed":      p.embedCB.State().String(),
		"chat":       p.chatCB.State().String(),
		"transcribe": p.transcribe.State().String(),
	}
}
