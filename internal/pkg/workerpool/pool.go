package workerpool

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

var (
	ErrPoolClosed   = errors.New("worker pool is closed")
	ErrPoolOverload = errors.New("worker pool is overloaded")
	ErrTaskPanicked = errors.New("task panicked")
)

// TaskResult 任务结果
type TaskResult struct {
	Data  interface{}
	Error error
}

// Config Worker Pool 配置
type Config struct {
	// Workers 最大并发 worker 数
	Workers int `mapstructure:"workers"`
	// MaxBlockingTasks 等待空闲 worker 的最大任务数，0 表示不限制
	MaxBlockingTasks int `mapstructure:"max_blocking_tasks"`
	// Nonblocking 为 true 时 worker 耗尽立即返回 ErrPoolOverload
	Nonblocking bool `mapstructure:"nonblocking"`
	// ExpiryDuration 空闲 worker 回收间隔
	ExpiryDuration time.Duration `mapstructure:"expiry_duration"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		Workers:          16,
		MaxBlockingTasks: 64,
		ExpiryDuration:   time.Minute,
	}
}

// Statistics 统计信息
type Statistics struct {
	Submitted int64 // 已提交
	Completed int64 // 已完成
	Failed    int64 // 失败（返回错误或 panic）
	Rejected  int64 // 提交被拒绝
}

// Pool 基于 ants 的 worker 池
type Pool struct {
	pool   *ants.Pool
	config *Config
	logger *zap.Logger

	submitted atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
	rejected  atomic.Int64
}

// New 创建 Worker Pool
func New(config *Config, logger *zap.Logger) (*Pool, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Workers <= 0 {
		return nil, fmt.Errorf("workers must be > 0, got %d", config.Workers)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &Pool{config: config, logger: logger}

	opts := []ants.Option{
		ants.WithNonblocking(config.Nonblocking),
		ants.WithMaxBlockingTasks(config.MaxBlockingTasks),
		ants.WithPanicHandler(func(err interface{}) {
			p.failed.Add(1)
			logger.Error("worker panic", zap.Any("error", err), zap.Stack("stacktrace"))
		}),
	}
	if config.ExpiryDuration > 0 {
		opts = append(opts, ants.WithExpiryDuration(config.ExpiryDuration))
	}

	antsPool, err := ants.NewPool(config.Workers, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create ants pool: %w", err)
	}
	p.pool = antsPool

	logger.Info("worker pool started",
		zap.Int("workers", config.Workers),
		zap.Int("max_blocking_tasks", config.MaxBlockingTasks),
	)
	return p, nil
}

// Submit 提交任务
func (p *Pool) Submit(task func()) error {
	err := p.pool.Submit(func() {
		task()
		p.completed.Add(1)
	})
	if err != nil {
		p.rejected.Add(1)
		return translate(err)
	}
	p.submitted.Add(1)
	return nil
}

// SubmitWithResult 提交任务并获取结果
// 提交失败或任务 panic 时，错误同样通过返回的 channel 送达
func (p *Pool) SubmitWithResult(task func() (interface{}, error)) <-chan TaskResult {
	resultCh := make(chan TaskResult, 1)

	err := p.Submit(func() {
		defer close(resultCh)
		defer func() {
			if r := recover(); r != nil {
				p.failed.Add(1)
				p.logger.Error("task panic", zap.Any("error", r), zap.Stack("stacktrace"))
				resultCh <- TaskResult{Error: fmt.Errorf("%w: %v", ErrTaskPanicked, r)}
			}
		}()

		data, err := task()
		if err != nil {
			p.failed.Add(1)
		}
		resultCh <- TaskResult{Data: data, Error: err}
	})
	if err != nil {
		resultCh <- TaskResult{Error: err}
		close(resultCh)
	}

	return resultCh
}

func translate(err error) error {
	switch {
	case errors.Is(err, ants.ErrPoolClosed):
		return ErrPoolClosed
	case errors.Is(err, ants.ErrPoolOverload):
		return ErrPoolOverload
	}
	return err
}

// Running 正在执行任务的 worker 数
func (p *Pool) Running() int {
	return p.pool.Running()
}

// Stats 返回统计信息快照
func (p *Pool) Stats() Statistics {
	return Statistics{
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
		Failed:    p.failed.Load(),
		Rejected:  p.rejected.Load(),
	}
}

// Shutdown 关闭池，最多等待 timeout 让运行中的任务结束
func (p *Pool) Shutdown(timeout time.Duration) error {
	stats := p.Stats()
	p.logger.Info("shutting down worker pool",
		zap.Int64("submitted", stats.Submitted),
		zap.Int64("completed", stats.Completed),
		zap.Int64("failed", stats.Failed),
		zap.Int("running", p.Running()),
	)
	if timeout <= 0 {
		p.pool.Release()
		return nil
	}
	return p.pool.ReleaseTimeout(timeout)
}
