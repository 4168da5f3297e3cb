// Package pool wraps ants worker pools with task statistics.
package pool

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/kart-io/logger"
	"github.com/panjf2000/ants/v2"
)

// 池相关错误
var (
	// ErrPoolClosed 池已关闭
	ErrPoolClosed = errors.New("pool is closed")
	// ErrPoolOverload 池已满（非阻塞模式）
	ErrPoolOverload = errors.New("pool is overloaded")
)

// Config 池配置。
type Config struct {
	// Capacity 最大并发 goroutine 数
	Capacity int `json:"capacity" mapstructure:"capacity"`
	// ExpiryDuration 空闲 worker 回收时间
	ExpiryDuration time.Duration `json:"expiry-duration" mapstructure:"expiry-duration"`
	// Nonblocking 池满时 Submit 立即返回 ErrPoolOverload
	Nonblocking bool `json:"nonblocking" mapstructure:"nonblocking"`
	// MaxBlockingTasks 阻塞模式下最多排队的任务数，0 表示不限制
	MaxBlockingTasks int `json:"max-blocking-tasks" mapstructure:"max-blocking-tasks"`
}

// DefaultConfig 返回默认配置。
func DefaultConfig() *Config {
	return &Config{
		Capacity:         64,
		ExpiryDuration:   10 * time.Second,
		Nonblocking:      false,
		MaxBlockingTasks: 1000,
	}
}

// Stats 池统计快照。
type Stats struct {
	Running   int   `json:"running"`
	Waiting   int   `json:"waiting"`
	Submitted int64 `json:"submitted"`
	Completed int64 `json:"completed"`
	Rejected  int64 `json:"rejected"`
	Panics    int64 `json:"panics"`
}

// Pool 是带统计的 ants 池。
type Pool struct {
	name   string
	pool   *ants.Pool
	closed atomic.Bool

	submitted atomic.Int64
	completed atomic.Int64
	rejected  atomic.Int64
	panics    atomic.Int64
}

// NewPool 创建池。
func NewPool(name string, cfg *Config) (*Pool, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	pool, err := ants.NewPool(cfg.Capacity,
		ants.WithExpiryDuration(cfg.ExpiryDuration),
		ants.WithNonblocking(cfg.Nonblocking),
		ants.WithMaxBlockingTasks(cfg.MaxBlockingTasks),
	)
	if err != nil {
		return nil, fmt.Errorf("create ants pool: %w", err)
	}

	logger.Infow("Worker pool created", "name", name, "capacity", cfg.Capacity)
	return &Pool{name: name, pool: pool}, nil
}

// Submit 提交任务。任务内的 panic 会被恢复并记录。
func (p *Pool) Submit(task func()) error {
	if p.closed.Load() {
		return ErrPoolClosed
	}

	err := p.pool.Submit(func() {
		defer func() {
			if r := recover(); r != nil {
				p.panics.Add(1)
				logger.Errorw("Worker panic recovered", "pool", p.name, "panic", r)
				return
			}
			p.completed.Add(1)
		}()
		task()
	})
	if err != nil {
		if errors.Is(err, ants.ErrPoolOverload) {
			p.rejected.Add(1)
			return ErrPoolOverload
		}
		if errors.Is(err, ants.ErrPoolClosed) {
			return ErrPoolClosed
		}
		return err
	}
	p.submitted.Add(1)
	return nil
}

// SubmitWithContext 提交任务；若任务开始前 ctx 已取消则跳过执行。
func (p *Pool) SubmitWithContext(ctx context.Context, task func(ctx context.Context)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.Submit(func() {
		if ctx.Err() != nil {
			return
		}
		task(ctx)
	})
}

// Stats 返回统计快照。
func (p *Pool) Stats() Stats {
	return Stats{
		Running:   p.pool.Running(),
		Waiting:   p.pool.Waiting(),
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
		Rejected:  p.rejected.Load(),
		Panics:    p.panics.Load(),
	}
}

// Release 等待运行中的任务结束后关闭池，最多等待 timeout。
func (p *Pool) Release(timeout time.Duration) error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	defer logger.Infow("Worker pool released", "name", p.name)
	return p.pool.ReleaseTimeout(timeout)
}
