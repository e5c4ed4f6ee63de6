// Package imagestore 计数信号量
package imagestore

import (
	"context"
)

// SemaphoreMaxVal 信号量饱和上限
// 超过上限的post被丢弃，读者最多积压这么多未消费的帧信号
const SemaphoreMaxVal = 10

// Semaphore 带饱和上限的计数信号量
type Semaphore struct {
	ch chan struct{}
}

// NewSemaphore 创建上限为max的信号量
func NewSemaphore(max int) *Semaphore {
	if max <= 0 {
		max = SemaphoreMaxVal
	}
	return &Semaphore{ch: make(chan struct{}, max)}
}

// Post 信号量加一，已饱和时返回false
func (s *Semaphore) Post() bool {
	select {
	case s.ch <- struct{}{}:
		return true
	default:
		return false
	}
}

// Wait 阻塞直到信号量大于0或ctx结束
func (s *Semaphore) Wait(ctx context.Context) error {
	select {
	case <-s.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryWait 非阻塞地减一
func (s *Semaphore) TryWait() bool {
	select {
	case <-s.ch:
		return true
	default:
		return false
	}
}

// Value 返回当前值
func (s *Semaphore) Value() int {
	return len(s.ch)
}
