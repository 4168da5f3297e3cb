package conversation

import (
	"context"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kart-io/camaral-bot/pkg/errors"
	"github.com/kart-io/camaral-bot/pkg/utils/json"
)

// RedisConfig Redis 对话存储配置。
type RedisConfig struct {
	// MaxHistory 每个用户保留的消息条数。
	MaxHistory int
	// KeyPrefix 键前缀。
	KeyPrefix string
	// TTL 空闲过期时间，0 表示不过期。
	TTL time.Duration
}

// RedisStore 每个用户一个 Redis 列表。
type RedisStore struct {
	client goredis.UniversalClient
	config RedisConfig
}

// NewRedisStore 创建 Redis 对话存储。
func NewRedisStore(client goredis.UniversalClient, config RedisConfig) *RedisStore {
	config.MaxHistory = normalizeMax(config.MaxHistory)
	return &RedisStore{client: client, config: config}
}

func (s *RedisStore) key(userID int64) string {
	return s.config.KeyPrefix + strconv.FormatInt(userID, 10)
}

// Get 读取整个列表。
func (s *RedisStore) Get(ctx context.Context, userID int64) ([]Message, error) {
	items, err := s.client.LRange(ctx, s.key(userID), 0, -1).Result()
	if err != nil {
		return nil, errors.ErrConversationStore.WithCause(err)
	}

	messages := make([]Message, 0, len(items))
	for _, item := range items {
		var m Message
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			return nil, errors.ErrConversationStore.WithCause(err)
		}
		messages = append(messages, m)
	}
	return messages, nil
}

// Append 在同一事务管道中执行 RPUSH 与 LTRIM。
func (s *RedisStore) Append(ctx context.Context, userID int64, role Role, content string) error {
	data, err := json.Marshal(Message{Role: role, Content: content})
	if err != nil {
		return errors.ErrConversationStore.WithCause(err)
	}

	key := s.key(userID)
	_, err = s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.RPush(ctx, key, data)
		pipe.LTrim(ctx, key, int64(-s.config.MaxHistory), -1)
		if s.config.TTL > 0 {
			pipe.Expire(ctx, key, s.config.TTL)
		}
		return nil
	})
	if err != nil {
		return errors.ErrConversationStore.WithCause(err)
	}
	return nil
}

// Clear 删除用户列表。
func (s *RedisStore) Clear(ctx context.Context, userID int64) error {
	if err := s.client.Del(ctx, s.key(userID)).Err(); err != nil {
		return errors.ErrConversationStore.WithCause(err)
	}
	return nil
}

var _ Store = (*RedisStore)(nil)
