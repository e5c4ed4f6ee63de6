// Package persist 立方体统计的HTML图表
package persist

import (
	"fmt"
	"io"

	"github.com/Kevin-Rudy/imgmon/pkg/core"
	"github.com/Kevin-Rudy/imgmon/pkg/stats"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// CubeStatsHTML 将逐切片统计渲染为折线图页面
func CubeStatsHTML(w io.Writer, rows []stats.SliceStats, title string) error {
	if len(rows) == 0 {
		return fmt.Errorf("%w: 没有切片统计", core.ErrDimensionality)
	}

	x := make([]int, len(rows))
	series := map[string][]opts.LineData{}
	names := []string{"min", "max", "mean", "rms"}
	for k, r := range rows {
		x[k] = r.Index
		series["min"] = append(series["min"], opts.LineData{Value: r.Min})
		series["max"] = append(series["max"], opts.LineData{Value: r.Max})
		series["mean"] = append(series["mean"], opts.LineData{Value: r.Mean})
		series["rms"] = append(series["rms"], opts.LineData{Value: r.RMS})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "1200px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("slices=%d", len(rows))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "slice"}),
	)
	line.SetXAxis(x)
	for _, name := range names {
		line.AddSeries(name, series[name])
	}

	if err := line.Render(w); err != nil {
		return fmt.Errorf("%w: %v", core.ErrIO, err)
	}
	return nil
}

// SaveCubeStatsHTML 将折线图页面写入文件
func SaveCubeStatsHTML(path string, rows []stats.SliceStats, title string) error {
	return saveTo(path, func(w io.Writer) error {
		return CubeStatsHTML(w, rows, title)
	})
}
