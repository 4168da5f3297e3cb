package conversation

import (
	"context"
	"sync"
)

// MemoryStore 基于进程内 map 的对话存储，重启后历史丢失。
type MemoryStore struct {
	mu         sync.Mutex
	maxHistory int
	histories  map[int64][]Message
}

// NewMemoryStore 创建内存对话存储。
func NewMemoryStore(maxHistory int) *MemoryStore {
	return &MemoryStore{
		maxHistory: normalizeMax(maxHistory),
		histories:  make(map[int64][]Message),
	}
}

// Get 返回历史消息的副本。
func (s *MemoryStore) Get(_ context.Context, userID int64) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := s.histories[userID]
	out := make([]Message, len(h))
	copy(out, h)
	return out, nil
}

// Append 追加消息并按 FIFO 淘汰最旧的消息。
func (s *MemoryStore) Append(_ context.Context, userID int64, role Role, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := append(s.histories[userID], Message{Role: role, Content: content})
	if len(h) > s.maxHistory {
		h = append([]Message(nil), h[len(h)-s.maxHistory:]...)
	}
	s.histories[userID] = h
	return nil
}

// Clear 删除用户历史。
func (s *MemoryStore) Clear(_ context.Context, userID int64) error {
	s.mu.Lock()
	delete(s.histories, userID)
	s.mu.Unlock()
	return nil
}

var _ Store = (*MemoryStore)(nil)
