// Package queue bounds the number of concurrent outbound provider calls.
package queue

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"foodsense/internal/infrastructure/config"
	"foodsense/internal/pkg/common"

	"go.uber.org/zap"
)

// Job 在 worker 上執行的工作
type Job func(ctx context.Context) (string, error)

// request 隊列請求
type request struct {
	ctx    context.Context
	job    Job
	result chan result
}

// result 處理結果
type result struct {
	value string
	err   error
}

// Status 隊列狀態
type Status struct {
	QueueLength    int   `json:"queue_length"`
	ProcessedCount int64 `json:"processed_count"`
	FailedCount    int64 `json:"failed_count"`
	MaxQueueSize   int   `json:"max_queue_size"`
	Workers        int   `json:"workers"`
	Closed         bool  `json:"closed"`
}

// Manager 固定數量 worker 的工作隊列
type Manager struct {
	config    *config.QueueConfig
	queue     chan *request
	wg        sync.WaitGroup
	mu        sync.RWMutex
	closed    bool
	processed int64
	failed    int64
}

// NewManager 建立隊列並啟動 worker
func NewManager(cfg *config.QueueConfig) *Manager {
	m := &Manager{
		config: cfg,
		queue:  make(chan *request, cfg.MaxSize),
	}
	for i := 0; i < cfg.Workers; i++ {
		m.wg.Add(1)
		go m.worker(i)
	}
	common.LogInfo("provider queue started",
		zap.Int("workers", cfg.Workers),
		zap.Int("max_queue_size", cfg.MaxSize),
	)
	return m
}

// Submit 送出工作並等待結果；隊列已滿時立即回傳 ErrQueueFull
func (m *Manager) Submit(ctx context.Context, job Job) (string, error) {
	req := &request{ctx: ctx, job: job, result: make(chan result, 1)}

	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return "", common.ErrQueueClosed
	}
	select {
	case m.queue <- req:
		m.mu.RUnlock()
	default:
		m.mu.RUnlock()
		common.LogWarn("provider queue is full", zap.Int("max_queue_size", m.config.MaxSize))
		return "", common.ErrQueueFull
	}

	select {
	case res := <-req.result:
		return res.value, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (m *Manager) worker(id int) {
	defer m.wg.Done()
	for req := range m.queue {
		value, err := m.run(req)
		if err != nil {
			atomic.AddInt64(&m.failed, 1)
		} else {
			atomic.AddInt64(&m.processed, 1)
		}
		req.result <- result{value: value, err: err}
	}
	common.LogDebug("queue worker stopped", zap.Int("worker", id))
}

// run 執行單一工作；呼叫端已放棄的工作直接略過
func (m *Manager) run(req *request) (value string, err error) {
	if err := req.ctx.Err(); err != nil {
		return "", err
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("queue job panicked: %v", r)
		}
	}()
	return req.job(req.ctx)
}

// Status 隊列狀態
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return Status{
		QueueLength:    len(m.queue),
		ProcessedCount: atomic.LoadInt64(&m.processed),
		FailedCount:    atomic.LoadInt64(&m.failed),
		MaxQueueSize:   m.config.MaxSize,
		Workers:        m.config.Workers,
		Closed:         m.closed,
	}
}

// Close 停止接收新工作並等待 worker 處理完剩餘工作
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	close(m.queue)
	m.mu.Unlock()

	m.wg.Wait()
	common.LogInfo("provider queue closed",
		zap.Int64("processed", atomic.LoadInt64(&m.processed)),
		zap.Int64("failed", atomic.LoadInt64(&m.failed)),
	)
}
