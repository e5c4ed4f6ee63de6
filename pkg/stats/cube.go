// Package stats 数据立方体统计
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/Kevin-Rudy/imgmon/pkg/core"
)

// MaskThreshold 掩模值大于该阈值的像素参与统计
const MaskThreshold = 0.5

// DefaultMaxLag 切片相关性计算的默认最大滞后
const DefaultMaxLag = 100

// SliceStats 立方体中单个切片在掩模内的统计
type SliceStats struct {
	Index      int
	Min, Max   float64
	Total      float64
	Mean       float64 // Total / 掩模总和
	SumSquares float64
	RMS        float64
}

// LagCorrelation 给定滞后的平均归一化切片相关
type LagCorrelation struct {
	Lag   int
	Value float64
}

// cubeView 立方体与掩模的公共校验结果
type cubeView struct {
	ops    core.Ordered
	xy     int
	depth  int
	pixels []int   // 掩模内像素的平面索引
	weight float64 // 掩模值总和
}

func newCubeView(cube, mask *core.Buffer) (*cubeView, error) {
	if cube.Naxis() != 3 {
		return nil, fmt.Errorf("%w: 需要三维数据立方体，实际为%d维", core.ErrDimensionality, cube.Naxis())
	}
	ops, err := cube.Ordered()
	if err != nil {
		return nil, err
	}
	repairNaN(ops)

	v := &cubeView{ops: ops, xy: cube.Size[0] * cube.Size[1], depth: cube.Size[2]}
	if mask == nil {
		v.pixels = make([]int, v.xy)
		for i := range v.pixels {
			v.pixels[i] = i
		}
		v.weight = float64(v.xy)
		return v, nil
	}

	if mask.NElement() != v.xy {
		return nil, fmt.Errorf("%w: 掩模元素数 %d 与切片像素数 %d 不符", core.ErrDimensionality, mask.NElement(), v.xy)
	}
	mops, err := mask.Ordered()
	if err != nil {
		return nil, err
	}
	for i := 0; i < v.xy; i++ {
		m := mops.At(i)
		v.weight += m
		if m > MaskThreshold {
			v.pixels = append(v.pixels, i)
		}
	}
	if v.weight == 0 {
		return nil, fmt.Errorf("%w: 掩模总和为0", core.ErrDimensionality)
	}
	return v, nil
}

// CubeStats 对立方体逐切片计算掩模内的统计，mask为nil时使用全部像素
func CubeStats(cube, mask *core.Buffer) ([]SliceStats, error) {
	v, err := newCubeView(cube, mask)
	if err != nil {
		return nil, err
	}

	rows := make([]SliceStats, v.depth)
	for k := 0; k < v.depth; k++ {
		s := SliceStats{Index: k, Min: math.NaN(), Max: math.NaN()}
		offset := k * v.xy
		for n, p := range v.pixels {
			val := v.ops.At(offset + p)
			if n == 0 {
				s.Min, s.Max = val, val
			}
			s.Min = min(s.Min, val)
			s.Max = max(s.Max, val)
			s.Total += val
			s.SumSquares += val * val
		}
		s.Mean = s.Total / v.weight
		s.RMS = math.Sqrt((s.SumSquares - s.Total*s.Total/v.weight) / v.weight)
		rows[k] = s
	}
	return rows, nil
}

// CubeCorrelation 计算滞后1到maxLag-1的平均归一化切片相关
// 滞后不超过depth-1
func CubeCorrelation(cube, mask *core.Buffer, maxLag int) ([]LagCorrelation, error) {
	v, err := newCubeView(cube, mask)
	if err != nil {
		return nil, err
	}
	if maxLag <= 0 {
		maxLag = DefaultMaxLag
	}

	var out []LagCorrelation
	for lag := 1; lag < maxLag && lag < v.depth; lag++ {
		var sum float64
		for k := 0; k < v.depth-lag; k++ {
			o1, o2 := k*v.xy, (k+lag)*v.xy
			var n1, n2, xp float64
			for _, p := range v.pixels {
				a := v.ops.At(o1 + p)
				b := v.ops.At(o2 + p)
				n1 += a * a
				n2 += b * b
				xp += a * b
			}
			sum += xp / math.Sqrt(n1*n2)
		}
		out = append(out, LagCorrelation{Lag: lag, Value: sum / float64(v.depth-lag)})
	}
	return out, nil
}

// WriteCubeStats 每行：index min max total mean sumSquares rms
func WriteCubeStats(w io.Writer, rows []SliceStats) error {
	var b strings.Builder
	for _, s := range rows {
		fmt.Fprintf(&b, "%5d  %20f  %20f  %20f  %20f  %20f  %20f\n",
			s.Index, s.Min, s.Max, s.Total, s.Mean, s.SumSquares, s.RMS)
	}
	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("%w: %v", core.ErrIO, err)
	}
	return nil
}

// WriteCorrelation 每行：lag value
func WriteCorrelation(w io.Writer, corr []LagCorrelation) error {
	var b strings.Builder
	for _, c := range corr {
		fmt.Fprintf(&b, "%3d   %g\n", c.Lag, c.Value)
	}
	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("%w: %v", core.ErrIO, err)
	}
	return nil
}
