// Package imagestore 共享图像
package imagestore

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/Kevin-Rudy/imgmon/pkg/core"
)

// Image 图像库中的一个命名图像
// 缓冲区由写者更新，读者不加锁读取；计数器和标志位使用原子操作
type Image struct {
	Name string

	buf *core.Buffer

	cnt0    atomic.Uint64 // 完成的写入次数
	cnt1    atomic.Uint64 // 环形缓冲中最近写入的切片索引
	writing atomic.Bool
	status  atomic.Int32

	sems      []*Semaphore
	writerPID []atomic.Int64
	readerPID []atomic.Int64
	semLog    *Semaphore
}

func newImage(name string, buf *core.Buffer, nsem int) *Image {
	im := &Image{
		Name:      name,
		buf:       buf,
		sems:      make([]*Semaphore, nsem),
		writerPID: make([]atomic.Int64, nsem),
		readerPID: make([]atomic.Int64, nsem),
		semLog:    NewSemaphore(SemaphoreMaxVal),
	}
	for i := range im.sems {
		im.sems[i] = NewSemaphore(SemaphoreMaxVal)
	}
	return im
}

// Buffer 返回图像的数据缓冲区
func (im *Image) Buffer() *core.Buffer {
	return im.buf
}

// Cnt0 返回写入计数器
func (im *Image) Cnt0() uint64 {
	return im.cnt0.Load()
}

// Cnt1 返回最近写入的切片索引
func (im *Image) Cnt1() uint64 {
	return im.cnt1.Load()
}

// Writing 返回写者是否正在写入
func (im *Image) Writing() bool {
	return im.writing.Load()
}

// Status 返回写者设置的状态码
func (im *Image) Status() int32 {
	return im.status.Load()
}

// SetStatus 设置状态码
func (im *Image) SetStatus(status int32) {
	im.status.Store(status)
}

// NSem 返回信号量槽位数
func (im *Image) NSem() int {
	return len(im.sems)
}

// SemValue 返回槽位的信号量值，越界返回-1
func (im *Image) SemValue(slot int) int {
	if slot < 0 || slot >= len(im.sems) {
		return -1
	}
	return im.sems[slot].Value()
}

// WriterPID 返回槽位的写者标识
func (im *Image) WriterPID(slot int) int64 {
	if slot < 0 || slot >= len(im.sems) {
		return 0
	}
	return im.writerPID[slot].Load()
}

// ReaderPID 返回槽位的读者标识
func (im *Image) ReaderPID(slot int) int64 {
	if slot < 0 || slot >= len(im.sems) {
		return 0
	}
	return im.readerPID[slot].Load()
}

// SemLogValue 返回日志信号量的值
func (im *Image) SemLogValue() int {
	return im.semLog.Value()
}

// RegisterWriter 在所有槽位登记写者标识
func (im *Image) RegisterWriter(pid int64) {
	for i := range im.writerPID {
		im.writerPID[i].Store(pid)
	}
}

// BeginWrite 标记写入开始
func (im *Image) BeginWrite() {
	im.writing.Store(true)
}

// EndWrite 结束写入：计数器加一，post全部槽位信号量和日志信号量
// slice为本次写入的环形缓冲切片索引
func (im *Image) EndWrite(slice uint64) {
	im.cnt1.Store(slice)
	im.cnt0.Add(1)
	im.writing.Store(false)
	for _, s := range im.sems {
		s.Post()
	}
	im.semLog.Post()
}

// Stream 返回槽位上的数据流，并把当前进程登记为该槽位的读者
func (im *Image) Stream(slot int) (core.Stream, error) {
	if slot < 0 || slot >= len(im.sems) {
		return nil, fmt.Errorf("%w: 图像 %s 没有信号量槽位 %d", core.ErrInvalidReference, im.Name, slot)
	}
	im.readerPID[slot].Store(int64(os.Getpid()))
	return &slotStream{im: im, sem: im.sems[slot]}, nil
}

// slotStream 单个槽位的数据流视图
type slotStream struct {
	im  *Image
	sem *Semaphore
}

func (s *slotStream) Wait(ctx context.Context) error {
	return s.sem.Wait(ctx)
}

func (s *slotStream) TryWait() bool {
	return s.sem.TryWait()
}

func (s *slotStream) Counter() uint64 {
	return s.im.Cnt0()
}
