//go:build !linux

package timing

// enterRealtime 非Linux平台不支持实时调度
func (s *Sampler) enterRealtime() func() {
	if s.config.RealtimePriority > 0 {
		s.log.Debug("当前平台不支持SCHED_FIFO，忽略实时优先级")
	}
	return func() {}
}
