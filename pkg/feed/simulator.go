// Package feed 合成帧模拟器
package feed

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/Kevin-Rudy/imgmon/pkg/core"
	"github.com/Kevin-Rudy/imgmon/pkg/imagestore"
	"github.com/sirupsen/logrus"
)

// Simulator 以给定帧率向图像写入合成帧
// 帧内容是缓慢移动的高斯光斑加噪声，三维图像按环形缓冲逐切片写入
type Simulator struct {
	*baseProducer
	rng *rand.Rand
}

// NewSimulator 创建模拟器
func NewSimulator(im *imagestore.Image, config *Config) (*Simulator, error) {
	base, err := newBaseProducer(im, config)
	if err != nil {
		return nil, err
	}
	return &Simulator{
		baseProducer: base,
		rng:          rand.New(rand.NewPCG(base.config.Seed, base.config.Seed^0x9e3779b97f4a7c15)),
	}, nil
}

// Start 实现core.Producer接口，在后台goroutine中生产帧
func (s *Simulator) Start() error {
	if err := s.begin(); err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"image": s.image.Name,
		"rate":  s.config.Rate,
	}).Info("模拟器启动")

	s.wg.Add(1)
	go s.run()
	return nil
}

// run 帧循环，每帧等待一个带抖动的间隔
func (s *Simulator) run() {
	defer s.wg.Done()

	timer := time.NewTimer(s.nextInterval())
	defer timer.Stop()

	var frame uint64
	for {
		select {
		case <-s.stopChan:
			return
		case <-timer.C:
			s.writeFrame(frame)
			frame++
			timer.Reset(s.nextInterval())
		}
	}
}

// nextInterval 标称间隔乘以(1 ± Jitter)内的随机因子
func (s *Simulator) nextInterval() time.Duration {
	base := float64(s.config.Interval())
	factor := 1 + s.config.Jitter*(2*s.rng.Float64()-1)
	return time.Duration(base * factor)
}

// writeFrame 写入第frame帧并发布
func (s *Simulator) writeFrame(frame uint64) {
	buf := s.image.Buffer()
	w, h := 1, 1
	if buf.Naxis() > 0 {
		w = buf.Size[0]
	}
	if buf.Naxis() > 1 {
		h = buf.Size[1]
	}
	xy := w * h
	depth := max(buf.NElement()/max(xy, 1), 1)
	slice := frame % uint64(depth)

	s.image.BeginWrite()
	fillFrame(buf, int(slice)*xy, w, h, float64(frame), s.rng)
	s.publish(slice)
}

// fillFrame 从offset开始写入w×h个像素
func fillFrame(buf *core.Buffer, offset, w, h int, t float64, rng *rand.Rand) {
	cx := float64(w) * (0.5 + 0.25*math.Cos(t/50))
	cy := float64(h) * (0.5 + 0.25*math.Sin(t/50))
	sigma := math.Max(float64(min(w, h))/8, 1)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx, dy := float64(x)-cx, float64(y)-cy
			v := 100*math.Exp(-(dx*dx+dy*dy)/(2*sigma*sigma)) + 10 + rng.NormFloat64()
			buf.SetFloat(offset+y*w+x, math.Max(v, 0))
		}
	}
}
