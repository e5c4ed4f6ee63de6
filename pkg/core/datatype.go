// Package core 元素类型与分派表
package core

import (
	"fmt"
	"math"
	"strings"
)

// DataType 图像元素类型标签
type DataType uint8

const (
	TypeUint8 DataType = iota + 1
	TypeInt8
	TypeUint16
	TypeInt16
	TypeUint32
	TypeInt32
	TypeUint64
	TypeInt64
	TypeFloat32
	TypeFloat64
	TypeComplex64
	TypeComplex128
)

// Real 所有可排序的实数元素类型
type Real interface {
	uint8 | int8 | uint16 | int16 | uint32 | int32 | uint64 | int64 | float32 | float64
}

// Complex 复数元素类型
type Complex interface {
	complex64 | complex128
}

// Element 缓冲区支持的全部元素类型
type Element interface {
	Real | Complex
}

// Kind 描述一种元素类型的能力
// 分派表在包初始化时构建一次，之后只读
type Kind struct {
	Type    DataType
	Name    string // 完整名称，如 COMPLEX_FLOAT
	Short   string // 控制台输出用的短名称，如 CFLOAT
	Size    int    // 单个元素的字节数
	Float   bool   // 可能出现NaN
	Complex bool   // 无序，不支持排序类操作

	alloc   func(n int) any
	ordered func(data any) Ordered
	slice   func(data any, i, j int) any
	set     func(data any, i int, v float64)
	format  func(data any, i int) string
}

// Ordered 返回该类型是否支持排序类操作
func (k Kind) Ordered() bool {
	return k.ordered != nil
}

var kinds = [...]Kind{
	TypeUint8:      realKind[uint8](TypeUint8, "UINT8", "UINT8", 1, false),
	TypeInt8:       realKind[int8](TypeInt8, "INT8", "INT8", 1, false),
	TypeUint16:     realKind[uint16](TypeUint16, "UINT16", "UINT16", 2, false),
	TypeInt16:      realKind[int16](TypeInt16, "INT16", "INT16", 2, false),
	TypeUint32:     realKind[uint32](TypeUint32, "UINT32", "UINT32", 4, false),
	TypeInt32:      realKind[int32](TypeInt32, "INT32", "INT32", 4, false),
	TypeUint64:     realKind[uint64](TypeUint64, "UINT64", "UINT64", 8, false),
	TypeInt64:      realKind[int64](TypeInt64, "INT64", "INT64", 8, false),
	TypeFloat32:    realKind[float32](TypeFloat32, "FLOAT", "FLOAT", 4, true),
	TypeFloat64:    realKind[float64](TypeFloat64, "DOUBLE", "DOUBLE", 8, true),
	TypeComplex64:  complexKind[complex64](TypeComplex64, "COMPLEX_FLOAT", "CFLOAT", 8),
	TypeComplex128: complexKind[complex128](TypeComplex128, "COMPLEX_DOUBLE", "CDOUBLE", 16),
}

// KindOf 返回元素类型标签对应的分派表条目
// 未知标签属于编程错误，直接panic
func KindOf(t DataType) Kind {
	if t == 0 || int(t) >= len(kinds) {
		panic(fmt.Sprintf("core: 未知的元素类型标签 %d", t))
	}
	return kinds[t]
}

// Kinds 按标签顺序返回全部类型
func Kinds() []Kind {
	out := make([]Kind, 0, len(kinds)-1)
	for t := TypeUint8; int(t) < len(kinds); t++ {
		out = append(out, kinds[t])
	}
	return out
}

// String 实现fmt.Stringer
func (t DataType) String() string {
	if t == 0 || int(t) >= len(kinds) {
		return fmt.Sprintf("DataType(%d)", uint8(t))
	}
	return kinds[t].Name
}

func realKind[T Real](t DataType, name, short string, size int, float bool) Kind {
	return Kind{
		Type:  t,
		Name:  name,
		Short: short,
		Size:  size,
		Float: float,
		alloc: func(n int) any { return make([]T, n) },
		ordered: func(data any) Ordered {
			return realOps[T]{data: data.([]T), float: float}
		},
		slice: func(data any, i, j int) any { return data.([]T)[i:j] },
		set:   func(data any, i int, v float64) { data.([]T)[i] = T(v) },
		format: func(data any, i int) string {
			return realOps[T]{data: data.([]T), float: float}.Format(i)
		},
	}
}

func complexKind[T Complex](t DataType, name, short string, size int) Kind {
	return Kind{
		Type:    t,
		Name:    name,
		Short:   short,
		Size:    size,
		Float:   true,
		Complex: true,
		alloc:   func(n int) any { return make([]T, n) },
		slice:   func(data any, i, j int) any { return data.([]T)[i:j] },
		set:     func(data any, i int, v float64) { data.([]T)[i] = T(complex(v, 0)) },
		format: func(data any, i int) string {
			return fmt.Sprintf("%g", data.([]T)[i])
		},
	}
}

// typeOf 返回Go元素类型对应的标签
func typeOf[T Element]() DataType {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return TypeUint8
	case int8:
		return TypeInt8
	case uint16:
		return TypeUint16
	case int16:
		return TypeInt16
	case uint32:
		return TypeUint32
	case int32:
		return TypeInt32
	case uint64:
		return TypeUint64
	case int64:
		return TypeInt64
	case float32:
		return TypeFloat32
	case float64:
		return TypeFloat64
	case complex64:
		return TypeComplex64
	case complex128:
		return TypeComplex128
	}
	panic("core: 不支持的元素类型")
}

// isNaN 只有浮点类型可能出现NaN
func isNaN(v float64) bool {
	return math.IsNaN(v)
}

// ParseDataType 按名称或缩写查找元素类型，不区分大小写
func ParseDataType(name string) (DataType, error) {
	for _, k := range Kinds() {
		if strings.EqualFold(name, k.Name) || strings.EqualFold(name, k.Short) {
			return k.Type, nil
		}
	}
	return 0, fmt.Errorf("%w: 未知的元素类型 %q", ErrUnsupportedType, name)
}
