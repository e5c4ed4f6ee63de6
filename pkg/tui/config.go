// Package tui 配置定义
package tui

import (
	"errors"
	"time"
)

// Config TUI组件的配置结构
type Config struct {
	Frequency      float64 // 刷新频率(Hz)，每个节拍处理一个按键
	TimingSamples  int     // 计时视图初始样本数
	Partitions     int     // 计时视图初始分区数
	MinSamples     int     // 样本数下限
	MaxSamples     int     // 样本数上限
	KeyBuffer      int     // 按键缓冲区大小
	MinChartWidth  int     // 最小图表宽度
	MinChartHeight int     // 最小图表高度
	ChartHeight    int     // 计时视图中间隔曲线的高度
	MaxChartSize   int     // 最大图表尺寸（防止极端值）
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Frequency:      10,      // 默认10Hz刷新
		TimingSamples:  1024,    // 默认1024个样本
		Partitions:     4,       // 默认4个分区
		MinSamples:     16,      // 最少16个样本
		MaxSamples:     1 << 20, // 最多1M个样本
		KeyBuffer:      16,      // 最多缓存16个按键
		MinChartWidth:  20,      // 最小图表宽度
		MinChartHeight: 5,       // 最小图表高度
		ChartHeight:    10,      // 间隔曲线占10行
		MaxChartSize:   1000,    // 最大图表尺寸
	}
}

// RefreshInterval 返回节拍间隔 1/Frequency
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(float64(time.Second) / c.Frequency)
}

// Validate 验证配置的合理性
func (c *Config) Validate() error {
	if c.Frequency <= 0 {
		return errors.New("刷新频率必须大于0")
	}

	if c.Frequency > 100 {
		return errors.New("刷新频率不能超过100Hz")
	}

	if c.MinSamples < 2 {
		return errors.New("样本数下限不能小于2")
	}

	if c.MaxSamples < c.MinSamples {
		return errors.New("样本数上限不能小于下限")
	}

	if c.TimingSamples < c.MinSamples || c.TimingSamples > c.MaxSamples {
		return errors.New("初始样本数超出上下限")
	}

	if c.Partitions < 1 {
		return errors.New("分区数必须大于0")
	}

	if c.KeyBuffer <= 0 {
		return errors.New("按键缓冲区大小必须大于0")
	}

	if c.MinChartWidth <= 0 {
		return errors.New("最小图表宽度必须大于0")
	}

	if c.MinChartHeight <= 0 {
		return errors.New("最小图表高度必须大于0")
	}

	if c.ChartHeight < c.MinChartHeight {
		return errors.New("图表高度不能小于最小图表高度")
	}

	if c.MaxChartSize <= 0 {
		return errors.New("最大图表尺寸必须大于0")
	}

	return nil
}
