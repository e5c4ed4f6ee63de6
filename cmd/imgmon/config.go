package main

import (
	"fmt"

	"github.com/Kevin-Rudy/imgmon/pkg/core"
	"github.com/Kevin-Rudy/imgmon/pkg/feed"
	"github.com/Kevin-Rudy/imgmon/pkg/match"
	"github.com/Kevin-Rudy/imgmon/pkg/timing"
	"github.com/Kevin-Rudy/imgmon/pkg/tui"
	"github.com/urfave/cli/v2"
)

// AppConfig 数据流相关命令的配置聚合
type AppConfig struct {
	ImageName    string
	Type         core.DataType
	Size         []int
	UDPAddr      string // 非空时从UDP接收帧，否则使用模拟器
	FeedConfig   *feed.Config
	TimingConfig *timing.Config
	TUIConfig    *tui.Config
}

// buildConfigFromCLI 从命令行参数构建配置
func buildConfigFromCLI(c *cli.Context) (*AppConfig, error) {
	name := c.Args().First()
	if name == "" {
		name = "stream"
	}

	dtype, err := core.ParseDataType(c.String("type"))
	if err != nil {
		return nil, err
	}
	size, err := parseSize(c.String("size"))
	if err != nil {
		return nil, err
	}

	// 构建 feed 配置
	feedConfig := feed.DefaultConfig()
	if c.IsSet("rate") {
		feedConfig.Rate = c.Float64("rate")
	}
	if c.IsSet("jitter") {
		feedConfig.Jitter = c.Float64("jitter")
	}
	udpAddr := c.String("udp")
	if udpAddr != "" {
		feedConfig.ListenAddr = udpAddr
	}

	// 构建 timing 配置
	timingConfig := timing.DefaultConfig()
	if c.IsSet("realtime-priority") {
		timingConfig.RealtimePriority = c.Int("realtime-priority")
	}
	if c.IsSet("wait-timeout") {
		timingConfig.WaitTimeout = c.Duration("wait-timeout")
	}

	// 构建 TUI 配置
	tuiConfig := tui.DefaultConfig()
	if c.IsSet("frequ") {
		tuiConfig.Frequency = c.Float64("frequ")
	}
	if c.IsSet("samples") {
		tuiConfig.TimingSamples = c.Int("samples")
	}
	if c.IsSet("partitions") {
		tuiConfig.Partitions = c.Int("partitions")
	}

	return &AppConfig{
		ImageName:    name,
		Type:         dtype,
		Size:         size,
		UDPAddr:      udpAddr,
		FeedConfig:   feedConfig,
		TimingConfig: timingConfig,
		TUIConfig:    tuiConfig,
	}, nil
}

// validateConfig 验证配置的合理性
func validateConfig(config *AppConfig) error {
	// 验证 feed 配置
	if err := config.FeedConfig.Validate(); err != nil {
		return fmt.Errorf("feed配置错误: %v", err)
	}

	// 验证 timing 配置
	if err := config.TimingConfig.Validate(); err != nil {
		return fmt.Errorf("timing配置错误: %v", err)
	}

	// 验证 TUI 配置
	if err := config.TUIConfig.Validate(); err != nil {
		return fmt.Errorf("tui配置错误: %v", err)
	}

	return nil
}

// buildMatchConfig 从命令行参数构建切片匹配配置
func buildMatchConfig(c *cli.Context) (*match.Config, error) {
	config := match.DefaultConfig()
	if c.IsSet("min-gap") {
		config.MinGap = c.Int("min-gap")
	}
	if c.IsSet("max-gap") {
		config.MaxGap = c.Int("max-gap")
	}
	if c.IsSet("min-value") {
		config.MinValue = c.Float64("min-value")
	}
	if c.IsSet("keep") {
		config.Keep = c.Int("keep")
	}
	if c.IsSet("workers") {
		config.Workers = c.Int("workers")
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("match配置错误: %v", err)
	}
	return config, nil
}
