// Package feed 配置定义
package feed

import (
	"errors"
	"time"
)

// Config 帧生产者的配置结构
type Config struct {
	Rate        float64       // 模拟器帧率(Hz)
	Jitter      float64       // 帧间隔的随机抖动比例，0到1之间
	ListenAddr  string        // UDP接收器监听地址
	BatchSize   int           // 一次批量读取的最大数据报数
	ReadTimeout time.Duration // 单次读取的超时时间，用于检查停止信号
	Seed        uint64        // 模拟器随机数种子
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Rate:        100,                    // 默认100Hz
		Jitter:      0.05,                   // 默认5%抖动
		ListenAddr:  "127.0.0.1:0",          // 默认随机端口
		BatchSize:   16,                     // 默认一次读16个数据报
		ReadTimeout: 200 * time.Millisecond, // 默认200ms
		Seed:        1,
	}
}

// Interval 返回标称帧间隔
func (c *Config) Interval() time.Duration {
	return time.Duration(float64(time.Second) / c.Rate)
}

// Validate 验证配置的合理性
func (c *Config) Validate() error {
	if c.Rate <= 0 {
		return errors.New("帧率必须大于0")
	}

	if c.Rate > 100000 {
		return errors.New("帧率不能超过100kHz")
	}

	if c.Jitter < 0 || c.Jitter >= 1 {
		return errors.New("抖动比例必须在[0, 1)之间")
	}

	if c.ListenAddr == "" {
		return errors.New("监听地址不能为空")
	}

	if c.BatchSize <= 0 {
		return errors.New("批量读取大小必须大于0")
	}

	if c.ReadTimeout < time.Millisecond {
		return errors.New("读取超时不能小于1ms")
	}

	return nil
}
