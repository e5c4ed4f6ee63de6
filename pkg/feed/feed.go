// Package feed 实现了core.Producer接口，向图像库中的图像写帧
// 提供合成帧模拟器和UDP帧接收器两种生产者
package feed

import (
	"errors"
	"os"
	"sync"
	"sync/atomic"

	"github.com/Kevin-Rudy/imgmon/pkg/imagestore"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "feed")

// ErrAlreadyRunning 生产者重复启动
var ErrAlreadyRunning = errors.New("生产者已经在运行")

// 生产者写入图像的状态码，在监控界面的status字段显示
const (
	StatusIdle int32 = iota
	StatusRunning
	StatusStopped
)

// baseProducer 定义了所有生产者的基本结构
type baseProducer struct {
	image     *imagestore.Image // 目标图像
	config    *Config           // 配置信息
	stopChan  chan struct{}     // 停止信号通道
	wg        sync.WaitGroup    // 等待组，用于优雅关闭
	running   bool              // 运行状态
	runningMu sync.RWMutex      // 保护running状态的锁
	frames    atomic.Uint64     // 已发布的帧数
}

// newBaseProducer 创建基础生产者结构
func newBaseProducer(im *imagestore.Image, config *Config) (*baseProducer, error) {
	if im == nil {
		return nil, errors.New("必须指定目标图像")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	im.RegisterWriter(int64(os.Getpid()))
	return &baseProducer{
		image:    im,
		config:   config,
		stopChan: make(chan struct{}),
	}, nil
}

// Frames 实现core.Producer接口
func (bp *baseProducer) Frames() uint64 {
	return bp.frames.Load()
}

// Stop 实现core.Producer接口
func (bp *baseProducer) Stop() {
	bp.runningMu.Lock()
	if !bp.running {
		bp.runningMu.Unlock()
		return
	}
	bp.running = false
	bp.runningMu.Unlock()

	// 发送停止信号
	close(bp.stopChan)

	// 等待所有goroutine结束
	bp.wg.Wait()
	bp.image.SetStatus(StatusStopped)
}

// begin 标记为运行状态，已经运行或已经停止过时返回错误
func (bp *baseProducer) begin() error {
	bp.runningMu.Lock()
	defer bp.runningMu.Unlock()
	if bp.running {
		return ErrAlreadyRunning
	}
	select {
	case <-bp.stopChan:
		return errors.New("生产者已经停止，不能再次启动")
	default:
	}
	bp.running = true
	bp.image.SetStatus(StatusRunning)
	return nil
}

// isRunning 检查是否正在运行
func (bp *baseProducer) isRunning() bool {
	bp.runningMu.RLock()
	defer bp.runningMu.RUnlock()
	return bp.running
}

// publish 结束一帧写入并通知所有读者
func (bp *baseProducer) publish(slice uint64) {
	bp.image.EndWrite(slice)
	bp.frames.Add(1)
}
