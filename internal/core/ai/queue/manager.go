package queue

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"meal-planner/internal/infrastructure/config"
	"meal-planner/internal/pkg/common"

	"go.uber.org/zap"
)

// ErrQueueFull 等待數超過上限；訊息含 overloaded，讓呼叫端視為暫時性過載
var ErrQueueFull = errors.New("model queue is full: service overloaded")

// ErrClosed 管理器已關閉
var ErrClosed = errors.New("queue manager is closed")

// Status 隊列狀態
type Status struct {
	InFlight       int `json:"in_flight"`
	Waiting        int `json:"waiting"`
	ProcessedCount int `json:"processed_count"`
	MaxQueueSize   int `json:"max_queue_size"`
	Workers        int `json:"workers"`
}

// Manager 限制同時送往模型的請求數
type Manager struct {
	slots     chan struct{}
	done      chan struct{}
	maxSize   int
	waiting   int64
	processed int64
}

// NewManager 創建新的隊列管理器
func NewManager(cfg *config.QueueConfig) *Manager {
	return &Manager{
		slots:   make(chan struct{}, cfg.Workers),
		done:    make(chan struct{}),
		maxSize: cfg.MaxSize,
	}
}

// Acquire 取得一個執行位置；回傳的 release 必須呼叫一次
func (m *Manager) Acquire(ctx context.Context) (func(), error) {
	// 有空位時直接進入
	select {
	case m.slots <- struct{}{}:
		return m.release, nil
	default:
	}

	if int(atomic.AddInt64(&m.waiting, 1)) > m.maxSize {
		atomic.AddInt64(&m.waiting, -1)
		common.LogWarn("Model queue full", zap.Int("max_queue_size", m.maxSize))
		return nil, ErrQueueFull
	}
	defer atomic.AddInt64(&m.waiting, -1)

	select {
	case m.slots <- struct{}{}:
		return m.release, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for model slot: %w", ctx.Err())
	case <-m.done:
		return nil, ErrClosed
	}
}

func (m *Manager) release() {
	<-m.slots
	atomic.AddInt64(&m.processed, 1)
}

// GetQueueStatus 獲取隊列狀態
func (m *Manager) GetQueueStatus() *Status {
	return &Status{
		InFlight:       len(m.slots),
		Waiting:        int(atomic.LoadInt64(&m.waiting)),
		ProcessedCount: int(atomic.LoadInt64(&m.processed)),
		MaxQueueSize:   m.maxSize,
		Workers:        cap(m.slots),
	}
}

// Close 關閉隊列管理器，喚醒所有等待者
func (m *Manager) Close() {
	select {
	case <-m.done:
	default:
		close(m.done)
	}
}
