package conversation

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/camaral-bot/pkg/component/sqldb"
	sqlopts "github.com/kart-io/camaral-bot/pkg/options/sql"
)

func newRedisStore(t *testing.T, maxHistory int, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, RedisConfig{MaxHistory: maxHistory, KeyPrefix: "camaral:conv:", TTL: ttl}), mr
}

func newSQLStore(t *testing.T, maxHistory int) *SQLStore {
	t.Helper()
	opts := sqlopts.NewOptions()
	opts.DSN = fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	opts.MaxOpenConns = 1
	db, err := sqldb.Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqldb.Close(db) })

	s, err := NewSQLStore(db, maxHistory, true)
	require.NoError(t, err)
	return s
}

func stores(t *testing.T, maxHistory int) map[string]Store {
	rs, _ := newRedisStore(t, maxHistory, 0)
	return map[string]Store{
		"memory": NewMemoryStore(maxHistory),
		"redis":  rs,
		"sql":    newSQLStore(t, maxHistory),
	}
}

func TestStoreUnknownUserIsEmpty(t *testing.T) {
	for name, s := range stores(t, 10) {
		t.Run(name, func(t *testing.T) {
			h, err := s.Get(context.Background(), 404)
			require.NoError(t, err)
			assert.NotNil(t, h)
			assert.Empty(t, h)
		})
	}
}

func TestStoreKeepsNewestMessages(t *testing.T) {
	for name, s := range stores(t, 10) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for i := 0; i < 12; i++ {
				role := RoleUser
				if i%2 == 1 {
					role = RoleAssistant
				}
				require.NoError(t, s.Append(ctx, 7, role, fmt.Sprintf("m%d", i)))
			}

			h, err := s.Get(ctx, 7)
			require.NoError(t, err)
			require.Len(t, h, 10)
			assert.Equal(t, "m2", h[0].Content)
			assert.Equal(t, RoleUser, h[0].Role)
			assert.Equal(t, "m11", h[9].Content)
			assert.Equal(t, RoleAssistant, h[9].Role)
		})
	}
}

func TestStoreClearIsolatesUsers(t *testing.T) {
	for name, s := range stores(t, 10) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.Append(ctx, 1, RoleUser, "hola"))
			require.NoError(t, s.Append(ctx, 2, RoleUser, "precio"))

			require.NoError(t, s.Clear(ctx, 1))

			h1, err := s.Get(ctx, 1)
			require.NoError(t, err)
			assert.Empty(t, h1)

			h2, err := s.Get(ctx, 2)
			require.NoError(t, err)
			assert.Len(t, h2, 1)
		})
	}
}

func TestRedisStoreSetsTTL(t *testing.T) {
	s, mr := newRedisStore(t, 10, time.Hour)
	require.NoError(t, s.Append(context.Background(), 9, RoleUser, "demo"))

	assert.Equal(t, time.Hour, mr.TTL("camaral:conv:9"))

	mr.FastForward(2 * time.Hour)
	h, err := s.Get(context.Background(), 9)
	require.NoError(t, err)
	assert.Empty(t, h)
}

func TestMemoryStoreGetReturnsCopy(t *testing.T) {
	s := NewMemoryStore(0)
	ctx := context.Background()
	require.NoError(t, s.Append(ctx, 1, RoleUser, "a"))

	h, _ := s.Get(ctx, 1)
	h[0].Content = "changed"

	h2, _ := s.Get(ctx, 1)
	assert.Equal(t, "a", h2[0].Content)
}
