// Package match 配置定义
package match

import (
	"errors"
	"runtime"
)

// Config 切片匹配的配置
type Config struct {
	MinGap   int     // 最小切片间隔（含）
	MaxGap   int     // 最大切片间隔（含）
	MinValue float64 // 差值必须严格大于该值
	Keep     int     // RMS图像使用的最佳配对数
	Workers  int     // 并行计算矩阵行的goroutine数
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		MinGap:   996,
		MaxGap:   1004,
		MinValue: 1,
		Keep:     10,
		Workers:  runtime.GOMAXPROCS(0),
	}
}

// Validate 验证配置的合理性
func (c *Config) Validate() error {
	if c.MinGap < 1 {
		return errors.New("最小切片间隔必须大于0")
	}

	if c.MaxGap < c.MinGap {
		return errors.New("最大切片间隔不能小于最小切片间隔")
	}

	if c.MinValue < 0 {
		return errors.New("最小差值不能为负数")
	}

	if c.Keep <= 0 {
		return errors.New("保留配对数必须大于0")
	}

	if c.Workers <= 0 {
		return errors.New("并行数必须大于0")
	}

	return nil
}
