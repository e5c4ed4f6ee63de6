// Package timing 计时报告
package timing

import (
	"slices"

	"gonum.org/v1/gonum/stat"
)

// Drift 帧计数器漂移：预期样本数与实际观察到的计数器增量
type Drift struct {
	Expected int64
	Observed int64
}

// Missed 返回期间未被本读者消费到的帧数，负值表示信号多于帧
func (d Drift) Missed() int64 {
	return d.Observed - d.Expected
}

// Report 一个采样周期的结果，时间单位为秒
type Report struct {
	Intervals []float64 // 按采样顺序
	Sorted    []float64 // 升序副本

	Mean   float64
	StdDev float64 // 总体标准差

	Max      float64
	MaxIndex int // 最大间隔在采样顺序中的下标

	Table *Table
	Drift Drift
}

// NewReport 由帧间隔序列构建报告，table为nil或样本数不符时重新构建
func NewReport(intervals []float64, table *Table) *Report {
	n := len(intervals)
	if table == nil || table.Samples != n {
		table = BuildTable(n)
	}

	r := &Report{
		Intervals: intervals,
		Sorted:    slices.Clone(intervals),
		Table:     table,
	}
	slices.Sort(r.Sorted)
	if n == 0 {
		return r
	}

	r.Mean, r.StdDev = stat.PopMeanStdDev(intervals, nil)
	r.Max = intervals[0]
	for i, v := range intervals {
		if v > r.Max {
			r.Max, r.MaxIndex = v, i
		}
	}
	return r
}

// Value 返回分位表条目对应的间隔
func (r *Report) Value(e Entry) float64 {
	return r.Sorted[e.Index]
}

// Median 返回中位间隔
func (r *Report) Median() float64 {
	return r.Value(r.Table.MedianEntry())
}

// Percentile 返回floor(q*n)处的间隔
func (r *Report) Percentile(q float64) float64 {
	n := len(r.Sorted)
	idx := min(max(int(q*float64(n)), 0), n-1)
	return r.Sorted[idx]
}

// Frequency 返回平均帧率（Hz）
func (r *Report) Frequency() float64 {
	if r.Mean == 0 {
		return 0
	}
	return 1 / r.Mean
}

// RelativeRMS 返回标准差占均值的百分比
func (r *Report) RelativeRMS() float64 {
	if r.Mean == 0 {
		return 0
	}
	return 100 * r.StdDev / r.Mean
}
