// Package tui 选项模式支持
package tui

// Option TUI配置选项函数类型
type Option func(*Config)

// WithFrequency 设置刷新频率
func WithFrequency(frequency float64) Option {
	return func(c *Config) {
		c.Frequency = frequency
	}
}

// WithTimingSamples 设置计时视图初始样本数
func WithTimingSamples(samples int) Option {
	return func(c *Config) {
		c.TimingSamples = samples
	}
}

// WithPartitions 设置计时视图初始分区数
func WithPartitions(partitions int) Option {
	return func(c *Config) {
		c.Partitions = partitions
	}
}

// WithSampleBounds 设置样本数上下限
func WithSampleBounds(lower, upper int) Option {
	return func(c *Config) {
		c.MinSamples = lower
		c.MaxSamples = upper
	}
}

// WithChartSize 设置图表尺寸
func WithChartSize(width, height int) Option {
	return func(c *Config) {
		c.MinChartWidth = width
		c.MinChartHeight = height
	}
}

// WithChartHeight 设置间隔曲线高度
func WithChartHeight(height int) Option {
	return func(c *Config) {
		c.ChartHeight = height
	}
}

// NewConfigWithOptions 使用选项模式创建TUI配置
func NewConfigWithOptions(opts ...Option) *Config {
	config := DefaultConfig()

	// 应用所有选项
	for _, opt := range opts {
		opt(config)
	}

	return config
}
