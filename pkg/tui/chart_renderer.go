// Package tui 图表渲染模块
package tui

import (
	"fmt"
	"math"
	"strings"
)

// brailleCell 定义盲文字符的cell结构
type brailleCell struct {
	char  int
	color string
}

// traceColor 间隔曲线的颜色
const traceColor = "[green]"

// 定义盲文点阵的映射关系 (2x4 grid)
var brailleDotMap = [4][2]int{
	{0b00000001, 0b00001000}, // (y:0, x:0), (y:0, x:1)
	{0b00000010, 0b00010000}, // (y:1, x:0), (y:1, x:1)
	{0b00000100, 0b00100000}, // (y:2, x:0), (y:2, x:1)
	{0b01000000, 0b10000000}, // (y:3, x:0), (y:3, x:1)
}

// validateChartSize 验证图表尺寸是否合理
func validateChartSize(width, height int, config *Config) string {
	if height < config.MinChartHeight || width < config.MinChartWidth {
		return "终端尺寸过小"
	}
	if width > config.MaxChartSize || height > config.MaxChartSize {
		return "终端尺寸过大"
	}
	return ""
}

// valueRange 计算有限值的范围，所有值相同时上下各扩展1
func valueRange(values []float64) (minVal, maxVal float64, ok bool) {
	minVal, maxVal = math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		minVal, maxVal = min(minVal, v), max(maxVal, v)
	}
	if minVal > maxVal {
		return 0, 0, false
	}
	if maxVal == minVal {
		maxVal++
		minVal = max(minVal-1, 0)
	}
	return minVal, maxVal, true
}

// drawTrace 按采样顺序绘制间隔曲线（单位微秒）
// 横轴为样本下标，样本多于像素列时多个样本落在同一列
func drawTrace(values []float64, width, height int, config *Config) string {
	// 检查图表尺寸是否合理
	if sizeErr := validateChartSize(width, height, config); sizeErr != "" {
		return sizeErr
	}
	if len(values) == 0 {
		return "没有数据"
	}

	minVal, maxVal, ok := valueRange(values)
	if !ok {
		return "没有有效数据"
	}
	span := maxVal - minVal

	// 动态计算Y轴标签宽度
	topLabel := formatMicros(maxVal / 1e6)
	bottomLabel := formatMicros(minVal / 1e6)
	yAxisLabelWidth := max(len(topLabel), len(bottomLabel)) + 2

	// 为X轴和下标留出2行空间
	bodyHeight := height - 2
	chartWidth := width - yAxisLabelWidth
	if bodyHeight <= 0 || chartWidth <= 0 {
		return "可绘制区域过小"
	}

	canvas := make([][]brailleCell, chartWidth)
	for i := range canvas {
		canvas[i] = make([]brailleCell, bodyHeight)
	}

	pixelsX, pixelsY := chartWidth*2, bodyHeight*4
	lastX, lastY := -1, -1
	for i, v := range values {
		x := 0
		if len(values) > 1 {
			x = i * (pixelsX - 1) / (len(values) - 1)
		}

		// 非有限值画到顶部
		y := 0
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			y = int((1.0 - (v-minVal)/span) * float64(pixelsY-1))
		}
		y = min(max(y, 0), pixelsY-1)

		if lastX != -1 {
			drawBrailleLine(canvas, lastX, lastY, x, y, pixelsY, pixelsX, traceColor)
		} else {
			setDot(canvas, x, y, traceColor)
		}
		lastX, lastY = x, y
	}

	var lines []string

	// 预先计算所有Y轴标签及其对应的行号
	yAxisLabelCount := min(5, bodyHeight)
	yAxisLabels := make(map[int]string)
	if yAxisLabelCount > 1 {
		for i := 0; i < yAxisLabelCount; i++ {
			normalized := float64(i) / float64(yAxisLabelCount-1)
			value := maxVal - normalized*span
			row := int(normalized * float64(bodyHeight-1))
			yAxisLabels[row] = formatMicros(value / 1e6)
		}
	}

	for i := 0; i < bodyHeight; i++ {
		var b strings.Builder
		fmt.Fprintf(&b, "[gray]%*s[white] [gray]│[white]", yAxisLabelWidth-2, yAxisLabels[i])
		for j := 0; j < chartWidth; j++ {
			cell := canvas[j][i]
			if cell.char == 0 {
				b.WriteByte(' ')
			} else {
				b.WriteString(cell.color + string(rune(0x2800+cell.char)) + "[white]")
			}
		}
		lines = append(lines, b.String())
	}

	// X轴与样本下标
	lines = append(lines, "[gray]"+fmt.Sprintf("%-*s└%s", yAxisLabelWidth-1, "", strings.Repeat("─", chartWidth))+"[white]")
	first, last := "0", fmt.Sprintf("%d", len(values)-1)
	spaceCount := max(chartWidth-len(first)-len(last), 1)
	lines = append(lines, "[gray]"+fmt.Sprintf("%-*s%s%*s%s", yAxisLabelWidth, "", first, spaceCount, "", last)+"[white]")

	// 确保输出不会超过可用高度，保证X轴总是可见
	if len(lines) > height {
		lines = lines[:height]
	}
	return strings.Join(lines, "\n")
}

// setDot 在高分辨率坐标(x, y)处点亮一个盲文点
func setDot(canvas [][]brailleCell, x, y int, color string) {
	canvasX, canvasY := x/2, y/4
	if canvasX < 0 || canvasX >= len(canvas) || canvasY < 0 || canvasY >= len(canvas[0]) {
		return
	}
	canvas[canvasX][canvasY].char |= brailleDotMap[y%4][x%2]
	canvas[canvasX][canvasY].color = color
}

// drawBrailleLine 使用布雷森汉姆算法在盲文画布上绘制线段
func drawBrailleLine(canvas [][]brailleCell, x1, y1, x2, y2, maxHeight, maxWidth int, color string) {
	dx := abs(x2 - x1)
	dy := abs(y2 - y1)
	sx := 1
	if x1 > x2 {
		sx = -1
	}
	sy := 1
	if y1 > y2 {
		sy = -1
	}
	err := dx - dy

	x, y := x1, y1
	for {
		if y >= 0 && y < maxHeight && x >= 0 && x < maxWidth {
			setDot(canvas, x, y, color)
		}

		// 检查是否到达终点
		if x == x2 && y == y2 {
			break
		}

		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x += sx
		}
		if e2 < dx {
			err += dx
			y += sy
		}
	}
}
