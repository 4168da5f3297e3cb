package openai

import (
	"context"
	"net/http"

	"github.com/kart-io/camaral-bot/pkg/llm"
)

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Chat 调用 /chat/completions。没有候选或内容为空时返回空字符串。
func (p *Provider) Chat(ctx context.Context, messages []llm.Message, opts ...llm.ChatOption) (string, error) {
	o := llm.ApplyChatOptions(opts...)

	reqBody := chatRequest{
		Model:     p.config.ChatModel,
		Messages:  make([]chatMessage, len(messages)),
		MaxTokens: p.config.MaxTokens,
	}
	for i, m := range messages {
		reqBody.Messages[i] = chatMessage{Role: string(m.Role), Content: m.Content}
	}

	temperature := p.config.Temperature
	reqBody.Temperature = &temperature
	if o.Temperature != nil {
		reqBody.Temperature = o.Temperature
	}
	if o.Model != "" {
		reqBody.Model = o.Model
	}
	if o.MaxTokens > 0 {
		reqBody.MaxTokens = o.MaxTokens
	}

	var resp chatResponse
	if err := p.do(ctx, http.MethodPost, "/chat/completions", reqBody, &resp); err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
