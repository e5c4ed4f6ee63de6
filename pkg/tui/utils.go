// Package tui 工具函数
package tui

import (
	"fmt"
	"math"
	"strings"
)

// formatMicros 以自适应单位格式化秒数
func formatMicros(seconds float64) string {
	if math.IsNaN(seconds) {
		return "N/A"
	}

	us := seconds * 1e6
	switch {
	case us < 1000:
		return fmt.Sprintf("%.1fµs", us)
	case us < 1e6:
		return fmt.Sprintf("%.2fms", us/1000)
	default:
		return fmt.Sprintf("%.2fs", seconds)
	}
}

// headerLine 将文本居中并用'-'填充到width
func headerLine(text string, width int) string {
	pad := width - len(text)
	if pad <= 0 {
		return text
	}
	left := pad / 2
	return strings.Repeat("-", left) + text + strings.Repeat("-", pad-left)
}

// dims 格式化图像尺寸，例如"[    512 x    512]"
func dims(size []int) string {
	var b strings.Builder
	b.WriteString("[")
	for i, s := range size {
		if i > 0 {
			b.WriteString(" x")
		}
		fmt.Fprintf(&b, " %6d", s)
	}
	b.WriteString("]")
	return b.String()
}

// columns 将每个槽位的值格式化为" %6d "列
func columns[T int | int64](values []T) string {
	var b strings.Builder
	for _, v := range values {
		fmt.Fprintf(&b, " %6d ", v)
	}
	return b.String()
}

// barLength 按峰值缩放直方图条长度
func barLength(count, peak, width int) int {
	if count <= 0 || peak <= 0 || width <= 0 {
		return 0
	}
	return max(count*width/peak, 1)
}

// boolInt 将写入标志转为0/1
func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// abs 返回整数的绝对值
func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
