// Package tui 布局管理模块
package tui

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"
)

// setupUI 设置用户界面布局
func (t *TUI) setupUI() {
	t.header.SetDynamicColors(true)
	t.header.SetWordWrap(false)

	t.body.SetDynamicColors(true)
	t.body.SetWordWrap(false)
	t.body.SetText("[yellow]正在初始化，等待第一个节拍...[white]")

	t.chart.SetDynamicColors(true)
	t.chart.SetWordWrap(false)

	// 创建主垂直布局
	t.flex = tview.NewFlex()
	t.flex.SetDirection(tview.FlexRow)
	t.flex.AddItem(t.header, 1, 0, false)
	t.flex.AddItem(t.body, 0, 1, false)
	t.flex.AddItem(t.chart, 0, 0, false)

	t.app.SetRoot(t.flex, true)
}

// present 刷新标题、正文和图表，body或chart为nil时保持原内容
func (t *TUI) present(header string, body func(width int) string, chart func(width, height int) string) {
	if t.testMode {
		t.lastHeader = headerLine(header, testWidth)
		if body != nil {
			t.lastBody = body(testWidth)
		}
		t.lastChart = ""
		if chart != nil {
			t.lastChart = chart(testWidth, t.config.ChartHeight)
		}
		return
	}

	t.safeUIUpdate(func() {
		_, _, width, _ := t.header.GetInnerRect()
		t.header.SetText("[::b]" + tview.Escape(headerLine(header, width)) + "[::-]")
		if body != nil {
			_, _, width, _ = t.body.GetInnerRect()
			t.body.SetText(body(width))
		}
		if chart == nil {
			if body != nil {
				t.flex.ResizeItem(t.chart, 0, 0)
				t.chart.SetText("")
			}
			return
		}
		t.flex.ResizeItem(t.chart, t.config.ChartHeight, 0)
		_, _, width, height := t.chart.GetInnerRect()
		if height <= 0 {
			height = t.config.ChartHeight
		}
		t.chart.SetText(chart(width, height))
	})
}

// modeHeader 返回当前模式的标题
func (t *TUI) modeHeader() string {
	return fmt.Sprintf("Mode %d   PRESS x TO STOP MONITOR", t.state.Mode)
}

// frozenHeader 冻结时的标题
func (t *TUI) frozenHeader() string {
	return fmt.Sprintf("Mode %d   FROZEN   PRESS f TO RESUME", t.state.Mode)
}

// render 摘要视图正文
func (v summaryView) render(width int) string {
	var b strings.Builder
	st := v.status

	line(&b, fmt.Sprintf("%s  type:  %-16s %-28s", v.name, st.kind, dims(st.size)), "")
	fmt.Fprintf(&b, "%s\n", tview.Escape(fmt.Sprintf("[write %d] [status %2d] [cnt0 %8d] [%6.2f Hz] [cnt1 %8d]",
		boolInt(st.writing), st.code, st.cnt0, st.rate, st.cnt1)))
	fmt.Fprintf(&b, "%s\n", tview.Escape(fmt.Sprintf("[%3d sems %s]", len(st.sems), columns(st.sems))))
	fmt.Fprintf(&b, "%s\n", tview.Escape(fmt.Sprintf("[ WRITE   %s]", columns(st.writers))))
	fmt.Fprintf(&b, "%s\n", tview.Escape(fmt.Sprintf("[ READ    %s]", columns(st.readers))))
	fmt.Fprintf(&b, "%s\n\n", tview.Escape(fmt.Sprintf(" [semlog %3d]", st.semLog)))

	if v.err != nil {
		line(&b, "统计失败: "+v.err.Error(), "[red::b]")
		return b.String()
	}

	r := v.report
	line(&b, fmt.Sprintf("median %12g   average %12g    total = %12g", r.Median(), r.Mean, r.Total), "")
	line(&b, fmt.Sprintf("RMS = %12.6g     ->  %12.6g", r.RMSDevPerPixel, v.rms01), "")
	if r.Repaired > 0 {
		line(&b, fmt.Sprintf("NaN replaced by 0: %d", r.Repaired), "[yellow::b]")
	}
	line(&b, headerLine(" PIXEL VALUES ", width), "")
	line(&b, fmt.Sprintf("min - max   :   %12.6e - %12.6e", r.Min, r.Max), "")

	if v.hist == nil {
		for i, s := range v.values {
			line(&b, fmt.Sprintf("%3d  %s", i, s), "")
		}
		return b.String()
	}

	h := v.hist
	peak := h.Peak()
	for k := range h.Counts {
		label := fmt.Sprintf("[%12.4e - %12.4e] %7d", h.BinStart(k), h.BinStart(k+1), h.Counts[k])
		b.WriteString(tview.Escape(label))
		color := "[:blue]"
		if k == len(h.Counts)-1 {
			color = "[:red]"
		}
		b.WriteString(color + strings.Repeat(" ", barLength(h.Counts[k], peak, width-len(label)-1)) + "[:-]\n")
	}
	return b.String()
}

// render 计时视图正文
func (v timingView) render(width int) string {
	var b strings.Builder

	if v.err != nil {
		line(&b, fmt.Sprintf("Stream slot %d : 采样失败: %v", v.slot, v.err), "[red::b]")
		return b.String()
	}

	r := v.report
	n := len(r.Sorted)
	line(&b, fmt.Sprintf("Stream slot %d", v.slot), "")
	line(&b, fmt.Sprintf(" NBsamples = %d  (cntdiff = %d)   part %3d/%3d   NBperccnt = %d",
		n, r.Drift.Observed, v.state.Part, v.state.NParts, len(r.Table.Entries)), "")
	b.WriteString("\n")

	median := r.Median()
	for k, e := range r.Table.Entries {
		val := r.Value(e)
		if k == r.Table.Median {
			line(&b, fmt.Sprintf("%6.3f%%  %6.3f%%  [%10d] [%10d]    %10.3f us",
				100*e.Quantile, 100*(1-e.Quantile), e.Index, n-e.Index, 1e6*val), "[::b]")
			continue
		}
		line(&b, fmt.Sprintf("%6.3f%%  %6.3f%%  [%10d] [%10d]    %10.3f us   %+10.3f us",
			100*e.Quantile, 100*(1-e.Quantile), e.Index, n-e.Index, 1e6*val, 1e6*(val-median)),
			rowColor(val, median))
	}

	b.WriteString("\n")
	line(&b, fmt.Sprintf("  Average Time Interval = %10.3f us    -> frequ = %10.3f Hz", 1e6*r.Mean, r.Frequency()), "")
	line(&b, fmt.Sprintf("                    RMS = %10.3f us  ( %5.3f %%)", 1e6*r.StdDev, r.RelativeRMS()), "")
	line(&b, fmt.Sprintf("  Max delay : %10.3f us   frame # %d", 1e6*r.Max, r.MaxIndex), "")
	if missed := r.Drift.Missed(); missed != 0 {
		line(&b, fmt.Sprintf("  Drift : expected %d  observed %d  (%+d)", r.Drift.Expected, r.Drift.Observed, missed), "[yellow::b]")
	}

	lt := v.lifetime
	line(&b, fmt.Sprintf("  Lifetime : n = %d   p50 = %s   p99 = %s   p99.9 = %s   max = %s",
		lt.Count, formatMicros(lt.P50.Seconds()), formatMicros(lt.P99.Seconds()),
		formatMicros(lt.P999.Seconds()), formatMicros(lt.Max.Seconds())), "")
	return b.String()
}

// trace 计时视图的间隔曲线
func (v timingView) trace(width, height int) string {
	if v.report == nil {
		return ""
	}
	values := make([]float64, len(v.report.Intervals))
	for i, s := range v.report.Intervals {
		values[i] = 1e6 * s
	}
	return drawTrace(values, width, height, v.config)
}

// rowColor 按相对中位数的比例选择颜色
func rowColor(v, median float64) string {
	switch {
	case v > 1.99*median:
		return "[black:red:b]"
	case v > 1.5*median:
		return "[red::b]"
	case v > 1.2*median:
		return "[yellow::b]"
	}
	return ""
}

// line 写入一行转义后的文本，color非空时加颜色标签
func line(b *strings.Builder, text, color string) {
	if color == "" {
		b.WriteString(tview.Escape(text))
	} else {
		b.WriteString(color + tview.Escape(text) + "[-:-:-]")
	}
	b.WriteString("\n")
}

// safeUIUpdate 安全地执行UI更新操作
func (t *TUI) safeUIUpdate(updateFunc func()) {
	defer func() {
		if r := recover(); r != nil {
			// 如果应用已经停止，忽略panic
		}
	}()
	t.app.QueueUpdateDraw(updateFunc)
}
