package biz

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/kart-io/camaral-bot/pkg/llm"
)

// mockEmbedder 根据关键词生成确定性的向量。
type mockEmbedder struct {
	mu         sync.Mutex
	dim        int
	batchSizes []int
	err        error
}

func (m *mockEmbedder) vector(text string) []float32 {
	v := make([]float32, m.dim)
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "precio") || strings.Contains(lower, "cuesta") || strings.Contains(lower, "plan"):
		v[0] = 1
	case strings.Contains(lower, "avatar"):
		v[1] = 1
	default:
		v[m.dim-1] = 1
	}
	return v
}

func (m *mockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.batchSizes = append(m.batchSizes, len(texts))
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vector(t)
	}
	return out, nil
}

func (m *mockEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.vector(text), nil
}

func (m *mockEmbedder) Name() string { return "mock" }

// mockChat 记录调用并返回固定内容。
type mockChat struct {
	mu       sync.Mutex
	calls    int
	messages []llm.Message
	options  llm.ChatOptions
	content  string
	err      error
}

func (m *mockChat) Chat(_ context.Context, messages []llm.Message, opts ...llm.ChatOption) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.messages = messages
	m.options = llm.ApplyChatOptions(opts...)
	return m.content, m.err
}

func (m *mockChat) Name() string { return "mock" }

// mockTranscriber 记录转写参数。
type mockTranscriber struct {
	text     string
	err      error
	filename string
	audio    string
	options  llm.TranscribeOptions
}

func (m *mockTranscriber) Transcribe(_ context.Context, audio io.Reader, filename string, opts ...llm.TranscribeOption) (string, error) {
	b, _ := io.ReadAll(audio)
	m.audio = string(b)
	m.filename = filename
	m.options = llm.ApplyTranscribeOptions(opts...)
	return m.text, m.err
}

func (m *mockTranscriber) Name() string { return "mock" }
