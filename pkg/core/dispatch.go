// Package core 数值操作分派
package core

import (
	"fmt"
)

// Ordered 可排序元素缓冲区的能力集合
// 统计模块只通过这个接口访问元素，不关心具体类型
type Ordered interface {
	// Len 返回元素个数
	Len() int

	// At 将第i个元素拓宽为float64
	At(i int) float64

	// Less 按元素原生类型比较
	Less(i, j int) bool

	// IsNaN 判断第i个元素是否为NaN，整数类型总是false
	IsNaN(i int) bool

	// Repair 将第i个元素置0
	Repair(i int)

	// Format 按元素类型格式化第i个元素
	Format(i int) string
}

// realOps 所有实数类型共用的泛型实现
type realOps[T Real] struct {
	data  []T
	float bool
}

func (o realOps[T]) Len() int {
	return len(o.data)
}

func (o realOps[T]) At(i int) float64 {
	return float64(o.data[i])
}

func (o realOps[T]) Less(i, j int) bool {
	return o.data[i] < o.data[j]
}

func (o realOps[T]) IsNaN(i int) bool {
	return o.float && isNaN(float64(o.data[i]))
}

func (o realOps[T]) Repair(i int) {
	o.data[i] = 0
}

func (o realOps[T]) Format(i int) string {
	if o.float {
		return fmt.Sprintf("%f", float64(o.data[i]))
	}
	return fmt.Sprintf("%5v", o.data[i])
}
