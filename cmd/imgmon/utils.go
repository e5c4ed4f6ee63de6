package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Kevin-Rudy/imgmon/pkg/core"
	"github.com/sirupsen/logrus"
)

// 程序信息常量
const (
	AppName    = "imgmon"
	AppVersion = "0.1.0"
	AppDesc    = "图像统计与数据流延迟监控工具"
)

// parseSize 解析WxH或WxHxD形式的尺寸
func parseSize(s string) ([]int, error) {
	parts := strings.Split(strings.ToLower(s), "x")
	if len(parts) < 1 || len(parts) > 3 {
		return nil, fmt.Errorf("尺寸 %q 必须是1到3维", s)
	}
	size := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("尺寸 %q 的第%d维无效", s, i+1)
		}
		size[i] = v
	}
	return size, nil
}

// setupLogging 按全局参数设置日志级别和输出，返回需要关闭的日志文件
func setupLogging(level, file string) (io.Closer, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("无效的日志级别 %q: %v", level, err)
	}
	logrus.SetLevel(lvl)

	if file == "" {
		logrus.SetOutput(os.Stderr)
		return nil, nil
	}
	f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("无法打开日志文件: %v", err)
	}
	logrus.SetOutput(f)
	return f, nil
}

// quietLogs 监控界面占用终端期间，未指定日志文件时丢弃日志输出
// 返回的函数恢复原来的输出
func quietLogs(logFile string) func() {
	if logFile != "" {
		return func() {}
	}
	logrus.SetOutput(io.Discard)
	return func() {
		logrus.SetOutput(os.Stderr)
	}
}

// typeNames 列出可用的元素类型名称
func typeNames() string {
	var names []string
	for _, k := range core.Kinds() {
		names = append(names, strings.ToLower(k.Short))
	}
	return strings.Join(names, ", ")
}

// printUsageInstructions 显示监控界面操作说明
func printUsageInstructions() {
	fmt.Println("操作说明:")
	fmt.Println("  s     - 统计视图")
	fmt.Println("  0/1/2 - 计时视图，测量对应的信号量槽位")
	fmt.Println("  +/-   - 计时样本数加倍/减半")
	fmt.Println("  ↑/↓   - 增减分段数")
	fmt.Println("  r     - 清空累计延迟分布")
	fmt.Println("  f     - 冻结/恢复显示")
	fmt.Println("  x 或 Ctrl+C - 退出监控")
	fmt.Println("========================================")
}
