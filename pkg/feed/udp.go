// Package feed UDP帧接收器
package feed

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/Kevin-Rudy/imgmon/pkg/core"
	"github.com/Kevin-Rudy/imgmon/pkg/imagestore"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/ipv4"
)

// 数据报格式：8字节小端头（帧号uint32，元素偏移uint32），之后是小端编码的元素
const (
	HeaderSize    = 8
	MaxDatagram   = 65507
	maxPayloadLen = MaxDatagram - HeaderSize
)

// UDPReceiver 从UDP数据报拼装帧并写入图像
// 一帧的最后一个元素到达时发布该帧
type UDPReceiver struct {
	*baseProducer
	conn *net.UDPConn
	pc   *ipv4.PacketConn

	frame   uint32 // 正在拼装的帧号
	pending bool   // 是否有未发布的帧
	dropped uint64 // 格式错误或越界的数据报数
}

// NewUDPReceiver 在配置的地址上监听
func NewUDPReceiver(im *imagestore.Image, config *Config) (*UDPReceiver, error) {
	base, err := newBaseProducer(im, config)
	if err != nil {
		return nil, err
	}
	if im.Buffer().NElement() == 0 {
		return nil, fmt.Errorf("%w: 图像 %s 为空", core.ErrDimensionality, im.Name)
	}

	addr, err := net.ResolveUDPAddr("udp4", base.config.ListenAddr)
	if err != nil {
		return nil, fmt.Errorf("无法解析监听地址 '%s': %w", base.config.ListenAddr, err)
	}
	conn, err := net.ListenUDP("udp4", addr)
	if err != nil {
		return nil, fmt.Errorf("监听 %s 失败: %w", addr, err)
	}

	return &UDPReceiver{
		baseProducer: base,
		conn:         conn,
		pc:           ipv4.NewPacketConn(conn),
	}, nil
}

// Addr 返回实际监听地址
func (r *UDPReceiver) Addr() net.Addr {
	return r.conn.LocalAddr()
}

// Dropped 返回被丢弃的数据报数
func (r *UDPReceiver) Dropped() uint64 {
	r.runningMu.RLock()
	defer r.runningMu.RUnlock()
	return r.dropped
}

// Start 实现core.Producer接口
func (r *UDPReceiver) Start() error {
	if err := r.begin(); err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"image": r.image.Name,
		"addr":  r.Addr().String(),
	}).Info("UDP接收器启动")

	r.wg.Add(1)
	go r.run()
	return nil
}

// Stop 停止接收并关闭套接字
func (r *UDPReceiver) Stop() {
	r.baseProducer.Stop()
	r.conn.Close()
}

// run 批量读取数据报直到收到停止信号
func (r *UDPReceiver) run() {
	defer r.wg.Done()

	msgs := make([]ipv4.Message, r.config.BatchSize)
	for i := range msgs {
		msgs[i].Buffers = [][]byte{make([]byte, MaxDatagram)}
	}

	for {
		select {
		case <-r.stopChan:
			return
		default:
		}

		if err := r.conn.SetReadDeadline(time.Now().Add(r.config.ReadTimeout)); err != nil {
			log.WithError(err).Warn("设置读取超时失败")
			return
		}
		n, err := r.pc.ReadBatch(msgs, 0)
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			if !r.isRunning() {
				return
			}
			log.WithError(err).Warn("读取数据报失败")
			continue
		}
		for i := 0; i < n; i++ {
			if err := r.handle(msgs[i].Buffers[0][:msgs[i].N]); err != nil {
				r.runningMu.Lock()
				r.dropped++
				r.runningMu.Unlock()
				log.WithError(err).Debug("丢弃数据报")
			}
		}
	}
}

// handle 将一个数据报写入缓冲区，帧完整时发布
func (r *UDPReceiver) handle(datagram []byte) error {
	if len(datagram) < HeaderSize {
		return fmt.Errorf("数据报长度%d小于头部长度", len(datagram))
	}
	frame := binary.LittleEndian.Uint32(datagram[0:4])
	offset := int(binary.LittleEndian.Uint32(datagram[4:8]))
	payload := datagram[HeaderSize:]

	buf := r.image.Buffer()
	size := buf.Kind().Size
	if len(payload) == 0 || len(payload)%size != 0 {
		return fmt.Errorf("负载长度%d不是元素大小%d的整数倍", len(payload), size)
	}
	count := len(payload) / size
	if offset+count > buf.NElement() {
		return fmt.Errorf("%w: 元素区间[%d,%d)越界", core.ErrDimensionality, offset, offset+count)
	}

	if !r.pending || frame != r.frame {
		r.frame = frame
		r.pending = true
		r.image.BeginWrite()
	}
	if err := binary.Read(bytes.NewReader(payload), binary.LittleEndian, buf.Window(offset, offset+count)); err != nil {
		return fmt.Errorf("%w: %v", core.ErrIO, err)
	}

	if offset+count == buf.NElement() {
		r.pending = false
		r.publish(uint64(frame))
	}
	return nil
}

// SendFrame 将缓冲区按chunk个元素一块编码为数据报写入conn
func SendFrame(conn net.Conn, frame uint32, buf *core.Buffer, chunk int) error {
	size := buf.Kind().Size
	chunk = min(max(chunk, 1), maxPayloadLen/size)

	var b bytes.Buffer
	for off := 0; off < buf.NElement(); off += chunk {
		end := min(off+chunk, buf.NElement())
		b.Reset()
		var header [HeaderSize]byte
		binary.LittleEndian.PutUint32(header[0:4], frame)
		binary.LittleEndian.PutUint32(header[4:8], uint32(off))
		b.Write(header[:])
		if err := binary.Write(&b, binary.LittleEndian, buf.Window(off, end)); err != nil {
			return fmt.Errorf("%w: %v", core.ErrIO, err)
		}
		if _, err := conn.Write(b.Bytes()); err != nil {
			return fmt.Errorf("%w: %v", core.ErrIO, err)
		}
	}
	return nil
}
