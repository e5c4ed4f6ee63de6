// Package core 定义了监控引擎的核心接口和数据结构
// 统计、计时、界面与具体的帧生产者通过这些接口解耦
package core

import (
	"context"
)

// Stream 信号量门控的数据流
// 生产者每写完一帧对每个槽位的信号量post一次，消费者一次Wait消耗一个信号
type Stream interface {
	// Wait 阻塞直到有帧就绪信号或ctx结束
	Wait(ctx context.Context) error

	// TryWait 非阻塞地消耗一个信号，没有信号时返回false
	TryWait() bool

	// Counter 返回生产者的帧计数器（cnt0）
	Counter() uint64
}

// Producer 定义了帧生产者的标准接口
// 模拟器、UDP接收器等都实现这个接口，向图像库中的图像写帧
type Producer interface {
	// Start 启动帧生产
	// 这个方法应该是非阻塞的，实际工作在后台goroutine中进行
	Start() error

	// Stop 停止帧生产并清理资源
	// 所有相关的goroutine应该优雅地退出
	Stop()

	// Frames 返回已发布的帧数
	Frames() uint64
}
