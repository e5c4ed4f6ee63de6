// Package feed 选项模式支持
package feed

import "time"

// Option 配置选项函数类型
type Option func(*Config)

// WithRate 设置模拟器帧率
func WithRate(rate float64) Option {
	return func(c *Config) {
		c.Rate = rate
	}
}

// WithJitter 设置帧间隔抖动比例
func WithJitter(jitter float64) Option {
	return func(c *Config) {
		c.Jitter = jitter
	}
}

// WithListenAddr 设置UDP监听地址
func WithListenAddr(addr string) Option {
	return func(c *Config) {
		c.ListenAddr = addr
	}
}

// WithBatchSize 设置批量读取大小
func WithBatchSize(size int) Option {
	return func(c *Config) {
		c.BatchSize = size
	}
}

// WithReadTimeout 设置读取超时
func WithReadTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.ReadTimeout = timeout
	}
}

// WithSeed 设置随机数种子
func WithSeed(seed uint64) Option {
	return func(c *Config) {
		c.Seed = seed
	}
}

// NewConfigWithOptions 基于默认配置应用选项
func NewConfigWithOptions(opts ...Option) *Config {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(config)
	}
	return config
}
