// Package core 错误定义
package core

import "errors"

var (
	// ErrInvalidReference 引用的图像或数据流不存在
	ErrInvalidReference = errors.New("引用的图像或数据流不存在")

	// ErrDimensionality 图像维度不符合操作要求
	ErrDimensionality = errors.New("图像维度不符合要求")

	// ErrUnsupportedType 元素类型不支持该操作
	ErrUnsupportedType = errors.New("元素类型不支持该操作")

	// ErrIO 输出文件无法打开或写入
	ErrIO = errors.New("输出文件无法写入")
)
