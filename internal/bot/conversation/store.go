// Package conversation 提供按用户保存的对话历史。
package conversation

import (
	"context"
)

// DefaultMaxHistory 每个用户保留的消息条数。
const DefaultMaxHistory = 10

// Role 消息角色。
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message 一条对话消息。
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Store 定义对话历史存储接口。
type Store interface {
	// Get 返回用户的历史消息，按时间顺序；未知用户返回空切片。
	Get(ctx context.Context, userID int64) ([]Message, error)

	// Append 追加一条消息，并只保留最新的 N 条。
	Append(ctx context.Context, userID int64, role Role, content string) error

	// Clear 清空用户的历史。
	Clear(ctx context.Context, userID int64) error
}

func normalizeMax(n int) int {
	if n <= 0 {
		return DefaultMaxHistory
	}
	return n
}
