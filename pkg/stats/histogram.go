// Package stats 直方图
package stats

import (
	"math"

	"github.com/Kevin-Rudy/imgmon/pkg/core"
)

// HistogramBins 直方图固定的桶数
const HistogramBins = 20

// Histogram 在有限值的[min, max]区间上等宽分桶的直方图
type Histogram struct {
	Min, Max float64
	Counts   [HistogramBins]int
	Skipped  int // 跳过的非有限值
	Repaired int
}

// Total 返回计入直方图的元素数
func (h *Histogram) Total() int {
	total := 0
	for _, c := range h.Counts {
		total += c
	}
	return total
}

// Peak 返回最大桶计数
func (h *Histogram) Peak() int {
	peak := 0
	for _, c := range h.Counts {
		peak = max(peak, c)
	}
	return peak
}

// BinStart 返回第k个桶的下边界
func (h *Histogram) BinStart(k int) float64 {
	return h.Min + (h.Max-h.Min)*float64(k)/HistogramBins
}

// ComputeHistogram 对缓冲区做20桶直方图
// max == min时全部计入第0桶
func ComputeHistogram(buf *core.Buffer) (*Histogram, error) {
	ops, err := buf.Ordered()
	if err != nil {
		return nil, err
	}

	h := &Histogram{Min: math.Inf(1), Max: math.Inf(-1)}
	h.Repaired = repairNaN(ops)

	n := ops.Len()
	for i := 0; i < n; i++ {
		v := ops.At(i)
		if math.IsInf(v, 0) {
			continue
		}
		h.Min = min(h.Min, v)
		h.Max = max(h.Max, v)
	}

	span := h.Max - h.Min
	for i := 0; i < n; i++ {
		v := ops.At(i)
		if math.IsInf(v, 0) {
			h.Skipped++
			continue
		}
		bin := 0
		if span > 0 {
			bin = int(HistogramBins * (v - h.Min) / span)
			bin = max(0, min(bin, HistogramBins-1))
		}
		h.Counts[bin]++
	}

	if h.Skipped == n {
		h.Min, h.Max = 0, 0
	}
	return h, nil
}
