// Package tui 会话状态
package tui

import (
	"time"

	"github.com/google/uuid"
)

// rmsSmoothing RMS指数平滑系数
const rmsSmoothing = 0.1

// session 一次仪表盘运行期间跨节拍保存的状态
type session struct {
	id      uuid.UUID
	started time.Time

	lastCnt0 uint64
	lastTick time.Time
	rms01    float64
}

func newSession(now time.Time) *session {
	return &session{id: uuid.New(), started: now}
}

// rate 返回自上个节拍以来的写入频率，第一个节拍返回0
func (s *session) rate(cnt0 uint64, now time.Time) float64 {
	defer func() {
		s.lastCnt0, s.lastTick = cnt0, now
	}()
	if s.lastTick.IsZero() || cnt0 < s.lastCnt0 {
		return 0
	}
	dt := now.Sub(s.lastTick).Seconds()
	if dt <= 0 {
		return 0
	}
	return float64(cnt0-s.lastCnt0) / dt
}

// smoothRMS 更新并返回平滑后的RMS
func (s *session) smoothRMS(rms float64) float64 {
	s.rms01 = (1-rmsSmoothing)*s.rms01 + rmsSmoothing*rms
	return s.rms01
}

// short 返回会话标识的前8位
func (s *session) short() string {
	return s.id.String()[:8]
}
