package resilience

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/camaral-bot/pkg/llm"
)

type statusErr struct{ code int }

func (e *statusErr) Error() string   { return "status" }
func (e *statusErr) Retryable() bool { return e.code == 429 || e.code >= 500 }

type flakyProvider struct {
	err   error
	calls atomic.Int32
}

func (f *flakyProvider) Name() string { return "flaky" }

func (f *flakyProvider) Embed(context.Context, []string) ([][]float32, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return [][]float32{{1}}, nil
}

func (f *flakyProvider) EmbedSingle(context.Context, string) ([]float32, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return []float32{1}, nil
}

func (f *flakyProvider) Chat(context.Context, []llm.Message, ...llm.ChatOption) (string, error) {
	f.calls.Add(1)
	if f.err != nil {
		return "", f.err
	}
	return "ok", nil
}

func (f *flakyProvider) Transcribe(context.Context, io.Reader, string, ...llm.TranscribeOption) (string, error) {
	f.calls.Add(1)
	return "texto", f.err
}

func TestBreakerOpensOnUpstreamFailures(t *testing.T) {
	inner := &flakyProvider{err: &statusErr{code: 503}}
	p := Wrap(inner, &Config{ConsecutiveFailures: 2, OpenTimeout: time.Minute, HalfOpenMaxCalls: 1})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := p.Chat(ctx, nil)
		require.Error(t, err)
	}

	_, err := p.Chat(ctx, nil)
	assert.True(t, errors.Is(err, ErrOpen))
	assert.Equal(t, int32(2), inner.calls.Load())
	assert.Equal(t, "open", p.States()["chat"])

	// embed breaker is independent
	inner.err = nil
	v, err := p.EmbedSingle(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, []float32{1}, v)
}

func TestClientErrorsDoNotTrip(t *testing.T) {
	inner := &flakyProvider{err: &statusErr{code: 401}}
	p := Wrap(inner, &Config{ConsecutiveFailures: 1, OpenTimeout: time.Minute, HalfOpenMaxCalls: 1})

	for i := 0; i < 3; i++ {
		_, err := p.Embed(context.Background(), []string{"a"})
		var se *statusErr
		require.True(t, errors.As(err, &se))
	}
	assert.Equal(t, int32(3), inner.calls.Load())
	assert.Equal(t, "closed", p.States()["embed"])
}

func TestIsUpstreamFailure(t *testing.T) {
	assert.False(t, IsUpstreamFailure(nil))
	assert.False(t, IsUpstreamFailure(context.Canceled))
	assert.True(t, IsUpstreamFailure(context.DeadlineExceeded))
	assert.True(t, IsUpstreamFailure(&statusErr{code: 429}))
	assert.False(t, IsUpstreamFailure(&statusErr{code: 400}))
	assert.True(t, IsUpstreamFailure(errors.New("connection reset")))
}
