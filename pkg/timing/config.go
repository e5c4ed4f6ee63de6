// Package timing 配置定义
package timing

import (
	"errors"
	"time"
)

// DefaultWarmupBound 预热阶段最多丢弃的积压信号数，与信号量饱和上限一致
const DefaultWarmupBound = 10

// Config 采样器配置
type Config struct {
	WarmupBound      int           // 预热阶段最多丢弃的积压信号数
	WaitTimeout      time.Duration // 单次等待的超时，0表示只受ctx约束
	TableCapacity    int           // 分位表容量
	RealtimePriority int           // SCHED_FIFO优先级，0表示不提升
	LifetimeMax      time.Duration // 累计直方图可记录的最大间隔
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		WarmupBound:      DefaultWarmupBound,
		WaitTimeout:      2 * time.Second,
		TableCapacity:    DefaultTableCapacity,
		RealtimePriority: 0,
		LifetimeMax:      10 * time.Second,
	}
}

// Validate 验证配置的合理性
func (c *Config) Validate() error {
	if c.WarmupBound < 0 {
		return errors.New("预热信号数不能为负数")
	}

	if c.WaitTimeout < 0 {
		return errors.New("等待超时不能为负数")
	}

	if c.TableCapacity < 2 {
		return errors.New("分位表容量不能小于2")
	}

	if c.RealtimePriority < 0 || c.RealtimePriority > 99 {
		return errors.New("实时优先级必须在0到99之间")
	}

	if c.LifetimeMax < time.Millisecond {
		return errors.New("累计直方图上限不能小于1ms")
	}

	return nil
}

// Option 采样器配置选项函数类型
type Option func(*Config)

// WithWaitTimeout 设置单次等待超时
func WithWaitTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.WaitTimeout = timeout
	}
}

// WithRealtimePriority 设置采样期间的SCHED_FIFO优先级
func WithRealtimePriority(priority int) Option {
	return func(c *Config) {
		c.RealtimePriority = priority
	}
}

// WithWarmupBound 设置预热阶段最多丢弃的积压信号数
func WithWarmupBound(bound int) Option {
	return func(c *Config) {
		c.WarmupBound = bound
	}
}

// NewConfigWithOptions 使用选项模式创建采样器配置
func NewConfigWithOptions(opts ...Option) *Config {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(config)
	}
	return config
}
