package biz

import (
	"context"

	"github.com/kart-io/logger"

	"github.com/kart-io/camaral-bot/internal/bot/conversation"
)

// ChatService 结合对话历史的问答入口。
type ChatService struct {
	generator *Generator
	history   conversation.Store
}

// NewChatService 创建问答服务。
func NewChatService(generator *Generator, history conversation.Store) *ChatService {
	return &ChatService{generator: generator, history: history}
}

// Ask 基于用户历史生成回答，成功后依次追加用户消息和回答。
func (s *ChatService) Ask(ctx context.Context, userID int64, message string) (string, error) {
	history, err := s.history.Get(ctx, userID)
	if err != nil {
		logger.Warnw("Failed to load conversation history, continuing without it",
			"user_id", userID,
			"error", err.Error(),
		)
		history = nil
	}

	answer, err := s.generator.Generate(ctx, message, history)
	if err != nil {
		return "", err
	}

	if err := s.history.Append(ctx, userID, conversation.RoleUser, message); err != nil {
		logger.Warnw("Failed to append user message", "user_id", userID, "error", err.Error())
	}
	if err := s.history.Append(ctx, userID, conversation.RoleAssistant, answer); err != nil {
		logger.Warnw("Failed to append assistant message", "user_id", userID, "error", err.Error())
	}
	return answer, nil
}

// Reset 清空用户历史。
func (s *ChatService) Reset(ctx context.Context, userID int64) error {
	return s.history.Clear(ctx, userID)
}
