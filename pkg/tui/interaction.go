// Package tui 交互控制模块
package tui

import (
	"context"

	"github.com/gdamore/tcell/v2"
)

// Mode 显示模式
type Mode int

const (
	ModeSummary Mode = iota // 图像摘要
	ModeTiming              // 信号量计时
)

// Key 一个节拍内处理的按键，方向键使用专用值
type Key rune

const (
	KeyNone Key = 0
	KeyUp   Key = -1
	KeyDown Key = -2
)

// State 仪表盘状态，只在主循环goroutine中修改
type State struct {
	Mode    Mode
	Frozen  bool
	Samples int // 计时样本数
	Part    int // 当前分区下标
	NParts  int // 分区数
	Slot    int // 信号量槽位 0-2
	Active  bool
}

// newState 按配置创建初始状态
func newState(config *Config) State {
	return State{
		Mode:    ModeSummary,
		Samples: config.TimingSamples,
		NParts:  config.Partitions,
		Active:  true,
	}
}

// Apply 处理一个按键，返回状态是否改变
func (s *State) Apply(k Key, config *Config) bool {
	prev := *s
	switch k {
	case 'f':
		s.Frozen = !s.Frozen
	case 'x':
		s.Active = false
	case 's':
		s.Mode = ModeSummary
	case '0', '1', '2':
		s.Mode = ModeTiming
		s.Slot = int(k - '0')
	case '+':
		if s.Mode == ModeTiming {
			s.Samples = min(s.Samples*2, config.MaxSamples)
		}
	case '-':
		if s.Mode == ModeTiming {
			s.Samples = max(s.Samples/2, config.MinSamples)
		}
	case KeyUp:
		if s.Mode == ModeTiming {
			s.NParts++
			s.Part = 0
		}
	case KeyDown:
		if s.Mode == ModeTiming {
			s.NParts = max(s.NParts-1, 1)
			s.Part = 0
		}
	}
	return *s != prev
}

// advance 计时周期结束后推进分区下标
func (s *State) advance() {
	s.Part = (s.Part + 1) % s.NParts
}

// keyOf 将终端事件转换为按键，Ctrl+C等同于x
func keyOf(event *tcell.EventKey) Key {
	switch event.Key() {
	case tcell.KeyCtrlC:
		return 'x'
	case tcell.KeyUp:
		return KeyUp
	case tcell.KeyDown:
		return KeyDown
	case tcell.KeyRune:
		return Key(event.Rune())
	}
	return KeyNone
}

// setupKeyBindings 设置键盘绑定
// 事件goroutine只把按键放入缓冲通道，状态由主循环在节拍中修改
func (t *TUI) setupKeyBindings() {
	t.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		k := keyOf(event)
		if k == KeyNone {
			return event
		}
		t.handleKey(k)
		return nil
	})
}

// handleKey 缓存按键，x同时中断正在进行的计时周期
func (t *TUI) handleKey(k Key) {
	t.pushKey(k)
	if k == 'x' {
		t.interruptCycle()
	}
}

// beginCycle 登记计时周期的取消函数，已经按过x时立即取消
func (t *TUI) beginCycle(cancel context.CancelFunc) {
	t.cycleMu.Lock()
	defer t.cycleMu.Unlock()
	t.cycleCancel = cancel
	if t.exitRequested {
		cancel()
	}
}

// endCycle 清除登记并释放周期上下文
func (t *TUI) endCycle() {
	t.cycleMu.Lock()
	cancel := t.cycleCancel
	t.cycleCancel = nil
	t.cycleMu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// exitPending 是否按过x
func (t *TUI) exitPending() bool {
	t.cycleMu.Lock()
	defer t.cycleMu.Unlock()
	return t.exitRequested
}

// interruptCycle 取消正在进行的计时周期，并让之后的周期立即结束
func (t *TUI) interruptCycle() {
	t.cycleMu.Lock()
	defer t.cycleMu.Unlock()
	t.exitRequested = true
	if t.cycleCancel != nil {
		t.cycleCancel()
	}
}

// pushKey 非阻塞地缓存按键，缓冲区满时丢弃
func (t *TUI) pushKey(k Key) {
	select {
	case t.keys <- k:
	default:
	}
}

// pollKey 非阻塞地取出一个按键
func (t *TUI) pollKey() Key {
	select {
	case k := <-t.keys:
		return k
	default:
		return KeyNone
	}
}
