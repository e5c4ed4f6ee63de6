// Package tui 提供图像与数据流的终端监控界面
// 在摘要视图和信号量计时视图之间切换，以固定节拍刷新
package tui

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Kevin-Rudy/imgmon/pkg/core"
	"github.com/Kevin-Rudy/imgmon/pkg/timing"
	"github.com/rivo/tview"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "tui")

// Source 被监控的图像
// *imagestore.Image实现了这个接口
type Source interface {
	Buffer() *core.Buffer
	Cnt0() uint64
	Cnt1() uint64
	Writing() bool
	Status() int32
	NSem() int
	SemValue(slot int) int
	WriterPID(slot int) int64
	ReaderPID(slot int) int64
	SemLogValue() int
	Stream(slot int) (core.Stream, error)
}

// testWidth 测试模式下的虚拟终端宽度
const testWidth = 100

// TUI 主界面结构
type TUI struct {
	app    *tview.Application
	header *tview.TextView
	body   *tview.TextView
	chart  *tview.TextView
	flex   *tview.Flex

	name    string
	source  Source
	sampler *timing.Sampler

	// 配置信息
	config *Config

	// 界面状态，只在processData中修改
	state   State
	session *session
	keys    chan Key

	// 控制
	stopChan chan struct{}
	stopOnce sync.Once
	doneChan chan struct{}
	cancel   context.CancelFunc
	loopErr  error

	// 当前计时周期的取消函数，按x时由事件goroutine调用
	cycleMu       sync.Mutex
	cycleCancel   context.CancelFunc
	exitRequested bool

	// 测试模式标志
	testMode bool

	// 测试模式下最近一次渲染的内容
	lastHeader string
	lastBody   string
	lastChart  string
}

// NewTUI 创建新的TUI实例
func NewTUI(name string, source Source, sampler *timing.Sampler, config *Config) *TUI {
	t := newTUI(name, source, sampler, config)
	t.header = tview.NewTextView()
	t.body = tview.NewTextView()
	t.chart = tview.NewTextView()

	t.setupUI()
	t.setupKeyBindings()

	return t
}

// NewTUIForTest 创建用于测试的TUI实例（不初始化图形组件）
func NewTUIForTest(name string, source Source, sampler *timing.Sampler, config *Config) *TUI {
	t := newTUI(name, source, sampler, config)
	t.testMode = true
	return t
}

func newTUI(name string, source Source, sampler *timing.Sampler, config *Config) *TUI {
	if config == nil {
		config = DefaultConfig()
	}
	if sampler == nil {
		sampler = timing.NewSampler(nil)
	}
	return &TUI{
		app:      tview.NewApplication(),
		name:     name,
		source:   source,
		sampler:  sampler,
		config:   config,
		state:    newState(config),
		session:  newSession(time.Now()),
		keys:     make(chan Key, config.KeyBuffer),
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
}

// State 返回当前状态的副本
func (t *TUI) State() State {
	return t.state
}

// Run 启动TUI界面，直到按下x、ctx结束或调用Stop
// 终端状态由tview持有，任何退出路径上都会恢复
func (t *TUI) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	defer cancel()

	log.WithFields(logrus.Fields{
		"image":   t.name,
		"session": t.session.short(),
	}).Info("监控界面启动")

	// 启动数据处理goroutine
	go t.processData(ctx)

	// 运行应用
	err := t.app.Run()

	// 确保清理工作完成
	cancel()
	<-t.doneChan

	if err != nil {
		return err
	}
	return t.loopErr
}

// Stop 停止TUI界面
func (t *TUI) Stop() {
	t.stopOnce.Do(func() {
		close(t.stopChan)
	})
	if t.cancel != nil {
		t.cancel()
	}

	// 停止应用
	t.app.Stop()
}

// errStopped 主循环因panic退出
var errStopped = errors.New("监控主循环异常退出")
