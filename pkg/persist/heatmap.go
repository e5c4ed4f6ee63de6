// Package persist 将诊断图像、直方图和立方体统计写成PNG或HTML文件
package persist

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/Kevin-Rudy/imgmon/pkg/core"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var log = logrus.WithField("component", "persist")

// 图像输出尺寸
const (
	imageWidth  = 8 * vg.Inch
	imageHeight = 8 * vg.Inch
	chartWidth  = 10 * vg.Inch
	chartHeight = 5 * vg.Inch

	paletteSize = 255
)

// grid 将二维缓冲区适配为plotter.GridXYZ
// 列对应x，行对应y，第0行在图像底部
type grid struct {
	ops  core.Ordered
	w, h int
}

func (g grid) Dims() (c, r int)   { return g.w, g.h }
func (g grid) Z(c, r int) float64 { return g.ops.At(r*g.w + c) }
func (g grid) X(c int) float64    { return float64(c) }
func (g grid) Y(r int) float64    { return float64(r) }

// bounds 返回网格中有限值的最小值和最大值
func (g grid) bounds() (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for r := 0; r < g.h; r++ {
		for c := 0; c < g.w; c++ {
			v := g.Z(c, r)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			lo, hi = min(lo, v), max(hi, v)
		}
	}
	if lo > hi {
		return 0, 0
	}
	return lo, hi
}

// Heatmap 将二维实数缓冲区渲染为PNG热图
func Heatmap(w io.Writer, buf *core.Buffer, title string) error {
	if buf.Naxis() != 2 {
		return fmt.Errorf("%w: 热图需要二维图像，实际为%d维", core.ErrDimensionality, buf.Naxis())
	}
	ops, err := buf.Ordered()
	if err != nil {
		return err
	}
	g := grid{ops: ops, w: buf.Size[0], h: buf.Size[1]}

	hm := plotter.NewHeatMap(g, palette.Heat(paletteSize, 1))
	hm.Min, hm.Max = g.bounds()
	if hm.Max == hm.Min {
		hm.Max = hm.Min + 1
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"
	p.Add(hm)

	return render(w, p, imageWidth, imageHeight)
}

// SaveHeatmap 将热图写入文件
func SaveHeatmap(path string, buf *core.Buffer, title string) error {
	return saveTo(path, func(w io.Writer) error {
		return Heatmap(w, buf, title)
	})
}

// render 以PNG格式输出图表
func render(w io.Writer, p *plot.Plot, width, height vg.Length) error {
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrIO, err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("%w: %v", core.ErrIO, err)
	}
	return nil
}

// saveTo 创建文件并交给write写入，写入失败时删除不完整的文件
func saveTo(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrIO, err)
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %v", core.ErrIO, err)
	}
	log.WithField("path", path).Info("文件已写入")
	return nil
}
