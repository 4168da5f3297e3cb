package biz

import (
	"bytes"
	"context"
	"strings"

	"github.com/kart-io/camaral-bot/internal/bot/metrics"
	"github.com/kart-io/camaral-bot/pkg/llm"
)

// TranscriberConfig 语音转写配置。
type TranscriberConfig struct {
	// Model 转写模型。
	Model string
	// Language 音频语言。
	Language string
}

// Transcriber 将语音消息转写为文本。
type Transcriber struct {
	provider llm.TranscriptionProvider
	config   *TranscriberConfig
	metrics  *metrics.BotMetrics
}

// NewTranscriber 创建转写器。
func NewTranscriber(provider llm.TranscriptionProvider, config *TranscriberConfig) *Transcriber {
	if config == nil {
		config = &TranscriberConfig{Model: "whisper-1", Language: "es"}
	}
	return &Transcriber{provider: provider, config: config, metrics: metrics.Get()}
}

// Transcribe 返回去除首尾空白的转写文本。
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	opts := []llm.TranscribeOption{llm.WithTranscribeModel(t.config.Model)}
	if t.config.Language != "" {
		opts = append(opts, llm.WithLanguage(t.config.Language))
	}

	text, err := t.provider.Transcribe(ctx, bytes.NewReader(audio), filename, opts...)
	t.metrics.RecordTranscription(err)
	if err != nil {
		return "", providerError(err)
	}
	return strings.TrimSpace(text), nil
}
