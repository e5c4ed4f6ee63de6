// Package stats 计算像素缓冲区的描述性统计量
// 只通过core.Ordered访问元素，对全部实数元素类型使用同一套归约代码
package stats

import (
	"fmt"
	"math"
	"slices"

	"github.com/Kevin-Rudy/imgmon/pkg/core"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "stats")

// Quantiles 报告中固定输出的分位点
var Quantiles = []float64{0.01, 0.05, 0.10, 0.20, 0.50, 0.80, 0.90, 0.95, 0.99, 0.995, 0.998, 0.999}

// Barycenter 亮度加权质心，X为列方向，Y为行方向
type Barycenter struct {
	X, Y float64
}

// Report 一次统计的结果，每次调用都是新值
type Report struct {
	N int // 元素个数

	Min, Max           float64
	MinIndex, MaxIndex int // 扁平索引

	Total      float64
	SumSquares float64

	Mean           float64
	RMS            float64 // sqrt(SumSquares)
	RMSPerPixel    float64
	RMSDevPerPixel float64

	Barycenter *Barycenter // 仅二维缓冲区

	Percentiles map[float64]float64
	Sorted      []float64 // 升序排列的元素值

	Repaired int // 被置0的NaN个数
}

// Percentile 返回固定分位点上的值
func (r *Report) Percentile(q float64) (float64, bool) {
	v, ok := r.Percentiles[q]
	return v, ok
}

// Median 返回0.5分位点的值
func (r *Report) Median() float64 {
	return r.Percentiles[0.5]
}

// Compute 对缓冲区计算完整的统计报告
// 第一遍修复NaN并累加，第二遍对float64副本排序取分位点
func Compute(buf *core.Buffer) (*Report, error) {
	ops, err := buf.Ordered()
	if err != nil {
		return nil, err
	}
	n := ops.Len()
	if n == 0 {
		return nil, fmt.Errorf("%w: 空缓冲区", core.ErrDimensionality)
	}

	r := &Report{N: n}
	r.Repaired = repairNaN(ops)

	for i := 0; i < n; i++ {
		v := ops.At(i)
		if ops.Less(i, r.MinIndex) {
			r.MinIndex = i
		}
		if ops.Less(r.MaxIndex, i) {
			r.MaxIndex = i
		}
		r.Total += v
		r.SumSquares += v * v
	}
	r.Min = ops.At(r.MinIndex)
	r.Max = ops.At(r.MaxIndex)

	fn := float64(n)
	r.Mean = r.Total / fn
	r.RMS = math.Sqrt(r.SumSquares)
	r.RMSPerPixel = r.RMS / math.Sqrt(fn)
	r.RMSDevPerPixel = math.Sqrt(r.RMS*r.RMS/fn - r.Total*r.Total/fn/fn)

	if buf.Naxis() == 2 {
		r.Barycenter = barycenter(ops, buf.Size[0], buf.Size[1], r.Total)
	}

	sorted := widen(ops)
	slices.Sort(sorted)
	r.Sorted = sorted
	r.Percentiles = make(map[float64]float64, len(Quantiles))
	for _, q := range Quantiles {
		r.Percentiles[q] = sorted[percentileIndex(q, n)]
	}

	return r, nil
}

// Values 返回缓冲区元素的float64副本，NaN已修复
func Values(buf *core.Buffer) ([]float64, error) {
	ops, err := buf.Ordered()
	if err != nil {
		return nil, err
	}
	repairNaN(ops)
	return widen(ops), nil
}

// percentileIndex floor(q*n)，截断到n-1
func percentileIndex(q float64, n int) int {
	idx := int(q * float64(n))
	if idx > n-1 {
		idx = n - 1
	}
	if idx < 0 {
		idx = 0
	}
	return idx
}

// repairNaN 将NaN元素置0并返回修复个数
func repairNaN(ops core.Ordered) int {
	repaired := 0
	for i := 0; i < ops.Len(); i++ {
		if ops.IsNaN(i) {
			ops.Repair(i)
			repaired++
			log.Debugf("元素 %d 为NaN，已置0", i)
		}
	}
	if repaired > 0 {
		log.WithField("count", repaired).Warn("缓冲区中的NaN已置0")
	}
	return repaired
}

func widen(ops core.Ordered) []float64 {
	out := make([]float64, ops.Len())
	for i := range out {
		out[i] = ops.At(i)
	}
	return out
}

func barycenter(ops core.Ordered, w, h int, total float64) *Barycenter {
	var xtot, ytot float64
	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			v := ops.At(j*w + i)
			xtot += v * float64(i)
			ytot += v * float64(j)
		}
	}
	return &Barycenter{X: xtot / total, Y: ytot / total}
}
