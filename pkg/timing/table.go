// Package timing 测量信号量门控数据流的帧间隔抖动
package timing

import (
	"math"
)

// DefaultTableCapacity 分位表的最大条目数
const DefaultTableCapacity = 1000

// Entry 分位表的一个条目：分位点与排序后样本中的下标
type Entry struct {
	Quantile float64
	Index    int
}

// Table 稀疏、尾部加密的分位表
// 下标严格递增，Median指向中位数条目
type Table struct {
	Samples int
	Entries []Entry
	Median  int
}

// MedianEntry 返回中位数条目
func (t *Table) MedianEntry() Entry {
	return t.Entries[t.Median]
}

// BuildTable 按默认容量为n个样本构建分位表
func BuildTable(n int) *Table {
	return BuildTableCap(n, DefaultTableCapacity)
}

// BuildTableCap 为n个样本构建分位表
// 候选下标只有严格大于上一个保留下标、且容量允许时才被保留
func BuildTableCap(n, capacity int) *Table {
	t := &Table{Samples: n, Entries: make([]Entry, 0, 48)}
	if n <= 0 {
		return t
	}

	add := func(idx int) {
		if idx < 0 || idx >= n {
			return
		}
		if len(t.Entries) > 0 && idx <= t.Entries[len(t.Entries)-1].Index {
			return
		}
		if len(t.Entries) >= capacity-1 {
			return
		}
		t.Entries = append(t.Entries, Entry{Quantile: float64(idx) / float64(n), Index: idx})
	}

	// 最小的几个样本逐个列出
	for idx := 1; idx <= 4; idx++ {
		add(idx)
	}

	// 1e-4, 1e-3, 1e-2
	for e := 4; e >= 2; e-- {
		add(scaled(n, math.Pow10(-e)))
	}

	for k := 1; k <= 4; k++ {
		add(k * n / 10)
	}

	// 中位数必须在表中：过小的n可能已经越过它，丢弃尾部条目
	mid := n / 2
	for len(t.Entries) > 0 && t.Entries[len(t.Entries)-1].Index >= mid {
		t.Entries = t.Entries[:len(t.Entries)-1]
	}
	t.Median = len(t.Entries)
	t.Entries = append(t.Entries, Entry{Quantile: float64(mid) / float64(n), Index: mid})

	for k := 6; k <= 9; k++ {
		add(k * n / 10)
	}

	// 从0.9开始每次把剩余部分减半
	for p := 0.9; p < 0.999; p += 0.5 * (1 - p) {
		add(scaled(n, p))
	}

	for k := 5; k >= 1; k-- {
		if n-k > 0 {
			add(n - k)
		}
	}

	return t
}

// scaled floor(p*n)，容忍浮点误差
func scaled(n int, p float64) int {
	return int(math.Floor(p*float64(n) + 1e-9))
}
