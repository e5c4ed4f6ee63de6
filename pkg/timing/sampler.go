// Package timing 采样器
package timing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/Kevin-Rudy/imgmon/pkg/core"
	"github.com/sirupsen/logrus"
)

// MinSamples 一个采样周期的最少样本数
const MinSamples = 2

// ErrStreamStalled 数据流在等待超时内没有新帧
var ErrStreamStalled = errors.New("数据流在超时时间内没有新帧")

// Lifetime 跨采样周期的累计间隔分布
type Lifetime struct {
	Count    int64
	Dropped  int64 // 超出直方图上限的样本
	P50, P99 time.Duration
	P999     time.Duration
	Max      time.Duration
}

// Sampler 阻塞在数据流信号量上测量帧间隔
//
// 每次Wait都会消耗一个与同槽位其他读者共享的信号，
// 测量期间这些读者会少收到帧。
type Sampler struct {
	config *Config
	now    func() time.Time
	log    *logrus.Entry

	mu       sync.Mutex
	table    *Table
	lifetime *hdrhistogram.Histogram
	dropped  int64
}

// NewSampler 创建采样器，config为nil时使用默认配置
func NewSampler(config *Config) *Sampler {
	if config == nil {
		config = DefaultConfig()
	}
	return &Sampler{
		config:   config,
		now:      time.Now,
		log:      logrus.WithField("component", "timing"),
		lifetime: hdrhistogram.New(1, config.LifetimeMax.Microseconds(), 3),
	}
}

// Table 返回n个样本的分位表，样本数不变时复用
func (s *Sampler) Table(n int) *Table {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.table == nil || s.table.Samples != n {
		s.table = BuildTableCap(n, s.config.TableCapacity)
	}
	return s.table
}

// Sample 执行一个采样周期：丢弃积压信号，等待一个信号作为时间原点，
// 再等待n个信号并记录相邻信号的时间差
func (s *Sampler) Sample(ctx context.Context, stream core.Stream, n int) (*Report, error) {
	if n < MinSamples {
		return nil, fmt.Errorf("样本数 %d 小于最小值 %d", n, MinSamples)
	}
	table := s.Table(n)

	release := s.enterRealtime()
	defer release()

	drained := 0
	for drained < s.config.WarmupBound && stream.TryWait() {
		drained++
	}

	start := stream.Counter()
	if err := s.wait(ctx, stream); err != nil {
		return nil, fmt.Errorf("等待起始帧失败: %w", err)
	}
	t0 := s.now()

	intervals := make([]float64, n)
	for i := 0; i < n; i++ {
		if err := s.wait(ctx, stream); err != nil {
			return nil, fmt.Errorf("等待第%d帧失败: %w", i, err)
		}
		t1 := s.now()
		intervals[i] = t1.Sub(t0).Seconds()
		t0 = t1
	}

	r := NewReport(intervals, table)
	r.Drift = Drift{Expected: int64(n), Observed: int64(stream.Counter()-start) - 1}
	s.record(intervals)

	s.log.WithFields(logrus.Fields{
		"samples": n,
		"drained": drained,
		"missed":  r.Drift.Missed(),
	}).Debug("采样完成")
	return r, nil
}

// wait 带超时的单次等待
func (s *Sampler) wait(ctx context.Context, stream core.Stream) error {
	if s.config.WaitTimeout <= 0 {
		return stream.Wait(ctx)
	}
	wctx, cancel := context.WithTimeout(ctx, s.config.WaitTimeout)
	defer cancel()

	err := stream.Wait(wctx)
	if err != nil && ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w (%v)", ErrStreamStalled, s.config.WaitTimeout)
	}
	return err
}

// record 把间隔计入累计直方图（微秒）
func (s *Sampler) record(intervals []float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range intervals {
		us := int64(v * 1e6)
		if us < 1 {
			us = 1
		}
		if err := s.lifetime.RecordValue(us); err != nil {
			s.dropped++
		}
	}
}

// Lifetime 返回累计分布的摘要
func (s *Sampler) Lifetime() Lifetime {
	s.mu.Lock()
	defer s.mu.Unlock()

	us := func(v int64) time.Duration { return time.Duration(v) * time.Microsecond }
	return Lifetime{
		Count:   s.lifetime.TotalCount(),
		Dropped: s.dropped,
		P50:     us(s.lifetime.ValueAtQuantile(50)),
		P99:     us(s.lifetime.ValueAtQuantile(99)),
		P999:    us(s.lifetime.ValueAtQuantile(99.9)),
		Max:     us(s.lifetime.Max()),
	}
}

// ResetLifetime 清空累计分布
func (s *Sampler) ResetLifetime() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lifetime.Reset()
	s.dropped = 0
}
