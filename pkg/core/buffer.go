// Package core 数值缓冲区
package core

import (
	"fmt"
)

// Buffer 图像数据缓冲区
// 缓冲区通常从图像库借用，生产者可能同时写入。读取方不加锁，
// 得到的统计结果是尽力而为的快照。
type Buffer struct {
	Type DataType // 元素类型标签
	Size []int    // 各维尺寸，Size[0]为x方向（行内最快变化）

	data any // []T，T与Type对应
}

// NewBuffer 分配指定类型和尺寸的零值缓冲区
func NewBuffer(t DataType, size ...int) *Buffer {
	kind := KindOf(t)
	return &Buffer{
		Type: t,
		Size: append([]int(nil), size...),
		data: kind.alloc(product(size)),
	}
}

// Wrap 用已有切片构造缓冲区，不复制数据
// 未给出尺寸时视为一维
func Wrap[T Element](data []T, size ...int) (*Buffer, error) {
	if len(size) == 0 {
		size = []int{len(data)}
	}
	if product(size) != len(data) {
		return nil, fmt.Errorf("%w: 尺寸 %v 与元素数 %d 不符", ErrDimensionality, size, len(data))
	}
	return &Buffer{
		Type: typeOf[T](),
		Size: append([]int(nil), size...),
		data: data,
	}, nil
}

// Data 返回底层切片，类型不符时ok为false
func Data[T Element](b *Buffer) (data []T, ok bool) {
	data, ok = b.data.([]T)
	return data, ok
}

// Kind 返回缓冲区元素类型的分派表条目
func (b *Buffer) Kind() Kind {
	return KindOf(b.Type)
}

// NElement 返回元素总数
func (b *Buffer) NElement() int {
	return product(b.Size)
}

// Naxis 返回维数
func (b *Buffer) Naxis() int {
	return len(b.Size)
}

// Bytes 返回数据占用的字节数
func (b *Buffer) Bytes() int {
	return b.NElement() * b.Kind().Size
}

// Ordered 返回可排序操作集合，复数类型返回ErrUnsupportedType
func (b *Buffer) Ordered() (Ordered, error) {
	kind := b.Kind()
	if !kind.Ordered() {
		return nil, fmt.Errorf("%w: %s 无法排序", ErrUnsupportedType, kind.Name)
	}
	return kind.ordered(b.data), nil
}

// Window 返回元素区间[i, j)的底层切片
// 结果为[]T，可直接交给encoding/binary读写
func (b *Buffer) Window(i, j int) any {
	return b.Kind().slice(b.data, i, j)
}

// SetFloat 将v转换为元素类型后写入第i个元素
func (b *Buffer) SetFloat(i int, v float64) {
	b.Kind().set(b.data, i, v)
}

// Format 按元素类型格式化第i个元素
func (b *Buffer) Format(i int) string {
	return b.Kind().format(b.data, i)
}

// Slice 返回第k个二维切片（三维数据立方体）
// 返回的缓冲区与原缓冲区共享数据
func (b *Buffer) Slice(k int) (*Buffer, error) {
	if b.Naxis() != 3 {
		return nil, fmt.Errorf("%w: 需要三维数据，实际为%d维", ErrDimensionality, b.Naxis())
	}
	if k < 0 || k >= b.Size[2] {
		return nil, fmt.Errorf("%w: 切片索引 %d 越界 [0,%d)", ErrDimensionality, k, b.Size[2])
	}
	xy := b.Size[0] * b.Size[1]
	return &Buffer{
		Type: b.Type,
		Size: []int{b.Size[0], b.Size[1]},
		data: b.Window(k*xy, (k+1)*xy),
	}, nil
}

func product(size []int) int {
	n := 1
	for _, s := range size {
		n *= s
	}
	if len(size) == 0 {
		return 0
	}
	return n
}
