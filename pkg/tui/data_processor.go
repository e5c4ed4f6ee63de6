// Package tui 主循环与视图数据采集
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/Kevin-Rudy/imgmon/pkg/stats"
	"github.com/Kevin-Rudy/imgmon/pkg/timing"
)

// status 一个节拍内读取的图像状态
type status struct {
	kind       string
	size       []int
	writing    bool
	code       int32
	cnt0, cnt1 uint64
	rate       float64
	sems       []int
	writers    []int64
	readers    []int64
	semLog     int
}

// summaryView 摘要视图的数据
type summaryView struct {
	name   string
	status status
	report *stats.Report
	hist   *stats.Histogram
	rms01  float64
	values []string // 元素较少时逐个显示
	err    error
}

// timingView 计时视图的数据
type timingView struct {
	config   *Config
	slot     int
	state    State
	report   *timing.Report
	lifetime timing.Lifetime
	err      error

	interrupted bool // 周期被x中断，不渲染
}

// smallImage 元素数不超过该值时逐个列出元素而不画直方图
const smallImage = 25

// processData 以固定节拍运行状态机
func (t *TUI) processData(ctx context.Context) {
	defer close(t.doneChan)
	defer func() {
		if r := recover(); r != nil {
			t.loopErr = fmt.Errorf("%w: %v", errStopped, r)
			log.WithField("panic", r).Error("监控主循环异常")
			t.app.Stop()
		}
	}()

	ticker := time.NewTicker(t.config.RefreshInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.app.Stop()
			return

		case <-t.stopChan:
			return

		case <-ticker.C:
			if !t.tick(ctx) {
				t.app.Stop()
				return
			}
		}
	}
}

// tick 处理一个按键并在未冻结时刷新当前视图，会话结束时返回false
func (t *TUI) tick(ctx context.Context) bool {
	k := t.pollKey()
	wasFrozen := t.state.Frozen
	t.applyKey(k)
	if !t.state.Active || t.exitPending() {
		log.WithField("session", t.session.short()).Info("监控界面退出")
		return false
	}

	if t.state.Frozen {
		if !wasFrozen {
			t.present(t.frozenHeader(), nil, nil)
		}
		return true
	}

	switch t.state.Mode {
	case ModeSummary:
		view := t.collectSummary(time.Now())
		t.present(t.modeHeader(), view.render, nil)
	case ModeTiming:
		view := t.collectTiming(ctx)
		if view.interrupted {
			return t.drainKeys()
		}
		t.present(t.modeHeader(), view.render, view.trace)
		t.state.advance()
	}
	return true
}

// applyKey 修改界面状态，r同时清空累计分布
func (t *TUI) applyKey(k Key) {
	if k == 'r' {
		t.sampler.ResetLifetime()
		log.WithField("session", t.session.short()).Info("累计分布已清空")
	}
	t.state.Apply(k, t.config)
}

// drainKeys 周期被中断后立即处理缓存的按键，会话结束时返回false
func (t *TUI) drainKeys() bool {
	for k := t.pollKey(); k != KeyNone; k = t.pollKey() {
		t.applyKey(k)
	}
	if !t.state.Active || t.exitPending() {
		log.WithField("session", t.session.short()).Info("监控界面退出")
		return false
	}
	return true
}

// readStatus 读取图像的计数器和信号量状态
func (t *TUI) readStatus(now time.Time) status {
	buf := t.source.Buffer()
	st := status{
		kind:    buf.Kind().Name,
		size:    buf.Size,
		writing: t.source.Writing(),
		code:    t.source.Status(),
		cnt0:    t.source.Cnt0(),
		cnt1:    t.source.Cnt1(),
		semLog:  t.source.SemLogValue(),
	}
	st.rate = t.session.rate(st.cnt0, now)
	for s := 0; s < t.source.NSem(); s++ {
		st.sems = append(st.sems, t.source.SemValue(s))
		st.writers = append(st.writers, t.source.WriterPID(s))
		st.readers = append(st.readers, t.source.ReaderPID(s))
	}
	return st
}

// collectSummary 重新计算统计报告和直方图
// 缓冲区在生产者写入时不加锁读取，结果是尽力而为的快照
func (t *TUI) collectSummary(now time.Time) summaryView {
	view := summaryView{name: t.name, status: t.readStatus(now)}
	buf := t.source.Buffer()

	report, err := stats.Compute(buf)
	if err != nil {
		view.err = err
		log.WithError(err).Debug("统计失败")
		return view
	}
	view.report = report
	view.rms01 = t.session.smoothRMS(report.RMSDevPerPixel)

	if buf.NElement() > smallImage {
		hist, err := stats.ComputeHistogram(buf)
		if err != nil {
			view.err = err
			return view
		}
		view.hist = hist
	} else {
		for i := 0; i < buf.NElement(); i++ {
			view.values = append(view.values, buf.Format(i))
		}
	}
	return view
}

// collectTiming 执行一个采样周期
func (t *TUI) collectTiming(ctx context.Context) timingView {
	view := timingView{config: t.config, slot: t.state.Slot, state: t.state}

	stream, err := t.source.Stream(t.state.Slot)
	if err != nil {
		view.err = err
		log.WithError(err).Warn("无法打开数据流")
		return view
	}
	cycleCtx, cancel := context.WithCancel(ctx)
	t.beginCycle(cancel)
	defer t.endCycle()

	report, err := t.sampler.Sample(cycleCtx, stream, t.state.Samples)
	if err != nil {
		if cycleCtx.Err() != nil && ctx.Err() == nil {
			view.interrupted = true
			return view
		}
		view.err = err
		log.WithError(err).Warn("采样失败")
		return view
	}
	view.report = report
	view.lifetime = t.sampler.Lifetime()
	return view
}
