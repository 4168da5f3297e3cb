package conversation

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/kart-io/camaral-bot/pkg/errors"
)

// MessageRecord 对话消息表记录。
type MessageRecord struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	UserID    int64     `gorm:"index:idx_conversation_user;not null"`
	Role      string    `gorm:"size:16;not null"`
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName 返回表名。
func (MessageRecord) TableName() string {
	return "conversation_messages"
}

// SQLStore 基于 gorm 的对话存储。
type SQLStore struct {
	db         *gorm.DB
	maxHistory int
}

// NewSQLStore 创建 SQL 对话存储，autoMigrate 为 true 时自动建表。
func NewSQLStore(db *gorm.DB, maxHistory int, autoMigrate bool) (*SQLStore, error) {
	if autoMigrate {
		if err := db.AutoMigrate(&MessageRecord{}); err != nil {
			return nil, errors.ErrConversationStore.WithCause(err)
		}
	}
	return &SQLStore{db: db, maxHistory: normalizeMax(maxHistory)}, nil
}

// Get 按插入顺序返回历史。
func (s *SQLStore) Get(ctx context.Context, userID int64) ([]Message, error) {
	var records []MessageRecord
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&records).Error
	if err != nil {
		return nil, errors.ErrConversationStore.WithCause(err)
	}

	messages := make([]Message, 0, len(records))
	for _, r := range records {
		messages = append(messages, Message{Role: Role(r.Role), Content: r.Content})
	}
	return messages, nil
}

// Append 在一个事务中插入消息并删除超出上限的旧消息。
func (s *SQLStore) Append(ctx context.Context, userID int64, role Role, content string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record := &MessageRecord{UserID: userID, Role: string(role), Content: content}
		if err := tx.Create(record).Error; err != nil {
			return err
		}

		var keep []uint64
		if err := tx.Model(&MessageRecord{}).
			Where("user_id = ?", userID).
			Order("id DESC").
			Limit(s.maxHistory).
			Pluck("id", &keep).Error; err != nil {
			return err
		}
		if len(keep) < s.maxHistory {
			return nil
		}

		oldest := keep[len(keep)-1]
		return tx.Where("user_id = ? AND id < ?", userID, oldest).
			Delete(&MessageRecord{}).Error
	})
	if err != nil {
		return errors.ErrConversationStore.WithCause(err)
	}
	return nil
}

// Clear 删除用户的全部消息。
func (s *SQLStore) Clear(ctx context.Context, userID int64) error {
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&MessageRecord{}).Error
	if err != nil {
		return errors.ErrConversationStore.WithCause(err)
	}
	return nil
}

var _ Store = (*SQLStore)(nil)
