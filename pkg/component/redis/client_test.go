package redis

import (
	"context"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	options "github.com/kart-io/camaral-bot/pkg/options/redis"
)

func optionsFor(t *testing.T, mr *miniredis.Miniredis) *options.Options {
	t.Helper()
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	opts := options.NewOptions()
	opts.Host = mr.Host()
	opts.Port = port
	opts.MaxRetries = 0
	return opts
}

func TestNewPingsServer(t *testing.T) {
	mr := miniredis.RunT(t)

	c, err := New(context.Background(), optionsFor(t, mr))
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	require.NoError(t, c.Client().Set(context.Background(), "k", "v", 0).Err())
	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestNewFailsWhenUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	opts := optionsFor(t, mr)
	mr.Close()

	_, err := New(context.Background(), opts)
	assert.Error(t, err)
}

func TestNilOptions(t *testing.T) {
	_, err := New(context.Background(), nil)
	assert.Error(t, err)
}
