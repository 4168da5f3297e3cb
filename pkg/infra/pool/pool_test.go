package pool

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitRunsTasks(t *testing.T) {
	p, err := NewPool("test", &Config{Capacity: 4, ExpiryDuration: time.Second})
	require.NoError(t, err)
	defer func() { _ = p.Release(time.Second) }()

	var wg sync.WaitGroup
	var mu sync.Mutex
	sum := 0
	for i := 1; i <= 10; i++ {
		wg.Add(1)
		n := i
		require.NoError(t, p.Submit(func() {
			defer wg.Done()
			mu.Lock()
			sum += n
			mu.Unlock()
		}))
	}
	wg.Wait()

	assert.Equal(t, 55, sum)
	assert.Equal(t, int64(10), p.Stats().Submitted)
}

func TestPanicIsRecovered(t *testing.T) {
	p, err := NewPool("panics", &Config{Capacity: 1, ExpiryDuration: time.Second})
	require.NoError(t, err)
	defer func() { _ = p.Release(time.Second) }()

	done := make(chan struct{})
	require.NoError(t, p.Submit(func() {
		defer close(done)
		panic("boom")
	}))
	<-done

	assert.Eventually(t, func() bool { return p.Stats().Panics == 1 }, time.Second, 10*time.Millisecond)
}

func TestNonblockingOverload(t *testing.T) {
	p, err := NewPool("tiny", &Config{Capacity: 1, ExpiryDuration: time.Second, Nonblocking: true})
	require.NoError(t, err)
	defer func() { _ = p.Release(time.Second) }()

	block := make(chan struct{})
	require.NoError(t, p.Submit(func() { <-block }))
	assert.ErrorIs(t, p.Submit(func() {}), ErrPoolOverload)
	close(block)

	assert.Equal(t, int64(1), p.Stats().Rejected)
}

func TestSubmitWithCanceledContext(t *testing.T) {
	p, err := NewPool("ctx", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.SubmitWithContext(ctx, func(context.Context) {}), context.Canceled)

	require.NoError(t, p.Release(time.Second))
	assert.ErrorIs(t, p.Submit(func() {}), ErrPoolClosed)
}
