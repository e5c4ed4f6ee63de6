//go:build linux

package timing

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// enterRealtime 将当前goroutine锁定到线程并切换为SCHED_FIFO
// 返回的函数恢复原调度策略并解锁线程；提升失败时只记录日志
func (s *Sampler) enterRealtime() func() {
	prio := s.config.RealtimePriority
	if prio <= 0 {
		return func() {}
	}

	runtime.LockOSThread()
	old, err := unix.SchedGetAttr(0, 0)
	if err != nil {
		runtime.UnlockOSThread()
		s.log.WithError(err).Debug("读取调度属性失败")
		return func() {}
	}

	attr := &unix.SchedAttr{
		Size:     unix.SizeofSchedAttr,
		Policy:   unix.SCHED_FIFO,
		Priority: uint32(prio),
	}
	if err := unix.SchedSetAttr(0, attr, 0); err != nil {
		runtime.UnlockOSThread()
		s.log.WithError(err).WithField("priority", prio).Warn("无法切换到SCHED_FIFO，以普通优先级采样")
		return func() {}
	}

	return func() {
		if err := unix.SchedSetAttr(0, old, 0); err != nil {
			s.log.WithError(err).Warn("恢复调度策略失败")
		}
		runtime.UnlockOSThread()
	}
}
