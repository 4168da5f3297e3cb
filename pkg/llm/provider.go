// Package llm 提供统一的模型供应商抽象层。
// Embedding、Chat 与语音转写可以分别由不同供应商提供。
package llm

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
)

// EmbeddingProvider 定义 Embedding 供应商接口。
type EmbeddingProvider interface {
	// Embed 为多个文本生成向量，结果顺序与输入一致。
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedSingle 为单个文本生成向量。
	EmbedSingle(ctx context.Context, text string) ([]float32, error)

	// Name 返回供应商名称。
	Name() string
}

// ChatProvider 定义 Chat 供应商接口。
type ChatProvider interface {
	// Chat 进行多轮对话，返回首个候选的文本内容，可能为空字符串。
	Chat(ctx context.Context, messages []Message, opts ...ChatOption) (string, error)

	// Name 返回供应商名称。
	Name() string
}

// TranscriptionProvider 定义语音转写供应商接口。
type TranscriptionProvider interface {
	// Transcribe 将音频转写为文本。
	Transcribe(ctx context.Context, audio io.Reader, filename string, opts ...TranscribeOption) (string, error)

	// Name 返回供应商名称。
	Name() string
}

// Provider 同时支持 Embedding、Chat 与转写的完整供应商。
type Provider interface {
	EmbeddingProvider
	ChatProvider
	TranscriptionProvider
}

// Message 表示对话中的一条消息。
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Role 定义消息角色。
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatOptions 单次 Chat 调用的参数，零值表示使用供应商默认配置。
type ChatOptions struct {
	Model       string
	Temperature *float64
	MaxTokens   int
}

// ChatOption 修改 ChatOptions。
type ChatOption func(*ChatOptions)

// WithModel 指定模型。
func WithModel(model string) ChatOption {
	return func(o *ChatOptions) { o.Model = model }
}

// WithTemperature 指定采样温度。
func WithTemperature(t float64) ChatOption {
	return func(o *ChatOptions) { o.Temperature = &t }
}

// WithMaxTokens 指定最大输出 token 数。
func WithMaxTokens(n int) ChatOption {
	return func(o *ChatOptions) { o.MaxTokens = n }
}

// ApplyChatOptions 合并选项。
func ApplyChatOptions(opts ...ChatOption) ChatOptions {
	var o ChatOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// TranscribeOptions 单次转写调用的参数。
type TranscribeOptions struct {
	Model    string
	Language string
}

// TranscribeOption 修改 TranscribeOptions。
type TranscribeOption func(*TranscribeOptions)

// WithLanguage 指定音频语言（ISO-639-1）。
func WithLanguage(lang string) TranscribeOption {
	return func(o *TranscribeOptions) { o.Language = lang }
}

// WithTranscribeModel 指定转写模型。
func WithTranscribeModel(model string) TranscribeOption {
	return func(o *TranscribeOptions) { o.Model = model }
}

// ApplyTranscribeOptions 合并选项。
func ApplyTranscribeOptions(opts ...TranscribeOption) TranscribeOptions {
	var o TranscribeOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ProviderFactory 供应商工厂函数类型。
type ProviderFactory func(config map[string]any) (Provider, error)

var registry = struct {
	mu        sync.RWMutex
	factories map[string]ProviderFactory
}{factories: make(map[string]ProviderFactory)}

// RegisterProvider 注册供应商工厂，通常在供应商包的 init 中调用。
func RegisterProvider(name string, factory ProviderFactory) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.factories[name] = factory
}

// NewProvider 根据名称创建供应商实例。
func NewProvider(name string, config map[string]any) (Provider, error) {
	registry.mu.RLock()
	factory, ok := registry.factories[name]
	registry.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", name)
	}
	return factory(config)
}

// NewEmbeddingProvider 根据名称创建 Embedding 供应商。
func NewEmbeddingProvider(name string, config map[string]any) (EmbeddingProvider, error) {
	return NewProvider(name, config)
}

// NewChatProvider 根据名称创建 Chat 供应商。
func NewChatProvider(name string, config map[string]any) (ChatProvider, error) {
	return NewProvider(name, config)
}

// NewTranscriptionProvider 根据名称创建转写供应商。
func NewTranscriptionProvider(name string, config map[string]any) (TranscriptionProvider, error) {
	return NewProvider(name, config)
}

// ListProviders 列出已注册的供应商名称（已排序）。
func ListProviders() []string {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	names := make([]string, 0, len(registry.factories))
	for name := range registry.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
