// Package stats 径向轮廓
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/Kevin-Rudy/imgmon/pkg/core"
)

// ProfileBin 一个径向环上的统计
type ProfileBin struct {
	Index    int
	Distance float64 // 环内像素到中心的平均距离
	Mean     float64
	RMS      float64 // 相对环均值的均方根
	Count    int
}

// Profile 以(cx, cy)为中心、step为环宽计算nstep个环的径向轮廓
// mask不为nil时只统计掩模值大于0.5的像素，返回的结果只含非空的环
func Profile(img, mask *core.Buffer, cx, cy, step float64, nstep int) ([]ProfileBin, error) {
	if img.Naxis() != 2 {
		return nil, fmt.Errorf("%w: 径向轮廓需要二维图像，实际为%d维", core.ErrDimensionality, img.Naxis())
	}
	if step <= 0 || nstep <= 0 {
		return nil, fmt.Errorf("%w: 环宽和环数必须大于0", core.ErrDimensionality)
	}
	ops, err := img.Ordered()
	if err != nil {
		return nil, err
	}
	repairNaN(ops)

	w, h := img.Size[0], img.Size[1]
	var mops core.Ordered
	if mask != nil {
		if mask.NElement() != w*h {
			return nil, fmt.Errorf("%w: 掩模元素数 %d 与图像像素数 %d 不符", core.ErrDimensionality, mask.NElement(), w*h)
		}
		if mops, err = mask.Ordered(); err != nil {
			return nil, err
		}
	}

	bins := make([]ProfileBin, nstep)
	ring := make([]int, w*h)
	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			p := j*w + i
			ring[p] = -1
			if mops != nil && mops.At(p) <= MaskThreshold {
				continue
			}
			d := math.Hypot(float64(i)-cx, float64(j)-cy)
			k := int(d / step)
			if k >= nstep {
				continue
			}
			ring[p] = k
			bins[k].Distance += d
			bins[k].Mean += ops.At(p)
			bins[k].Count++
		}
	}

	for k := range bins {
		bins[k].Index = k
		if bins[k].Count > 0 {
			bins[k].Distance /= float64(bins[k].Count)
			bins[k].Mean /= float64(bins[k].Count)
		}
	}

	for p, k := range ring {
		if k < 0 {
			continue
		}
		d := ops.At(p) - bins[k].Mean
		bins[k].RMS += d * d
	}

	out := make([]ProfileBin, 0, nstep)
	for _, b := range bins {
		if b.Count == 0 {
			continue
		}
		b.RMS = math.Sqrt(b.RMS / float64(b.Count))
		out = append(out, b)
	}
	return out, nil
}

// WriteProfile 每行：distance mean rms count index
func WriteProfile(w io.Writer, bins []ProfileBin) error {
	var b strings.Builder
	for _, p := range bins {
		fmt.Fprintf(&b, "%.18f %.18g %.18g %d %d\n", p.Distance, p.Mean, p.RMS, p.Count, p.Index)
	}
	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("%w: %v", core.ErrIO, err)
	}
	return nil
}
