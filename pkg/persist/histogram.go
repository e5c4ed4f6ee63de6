// Package persist 直方图输出
package persist

import (
	"fmt"
	"io"

	"github.com/Kevin-Rudy/imgmon/pkg/core"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
)

// HistogramPNG 将样本渲染为bins个区间的PNG直方图
func HistogramPNG(w io.Writer, values []float64, bins int, title, xlabel string) error {
	if len(values) == 0 {
		return fmt.Errorf("%w: 没有可绘制的样本", core.ErrDimensionality)
	}
	h, err := plotter.NewHist(plotter.Values(values), max(bins, 1))
	if err != nil {
		return fmt.Errorf("构建直方图失败: %w", err)
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = "count"
	p.Add(h)

	return render(w, p, chartWidth, chartHeight)
}

// SaveHistogram 将直方图写入文件
func SaveHistogram(path string, values []float64, bins int, title, xlabel string) error {
	return saveTo(path, func(w io.Writer) error {
		return HistogramPNG(w, values, bins, title, xlabel)
	})
}
