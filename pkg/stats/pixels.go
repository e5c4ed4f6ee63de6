// Package stats 像素列表、亮度计数与背景噪声估计
package stats

import (
	"fmt"
	"io"
	"strings"

	"github.com/Kevin-Rudy/imgmon/pkg/core"
)

// 标准正态分布函数在-0.3σ、-0.6σ、-0.9σ、-1.3σ处的值
const (
	cdfMinus03 = 0.382088577811
	cdfMinus06 = 0.27425311775
	cdfMinus09 = 0.184060125347
	cdfMinus13 = 0.0968004845855
)

// Brighter 统计大于value的元素个数，其余计入fainter
func Brighter(buf *core.Buffer, value float64) (brighter, fainter int, err error) {
	values, err := Values(buf)
	if err != nil {
		return 0, 0, err
	}
	for _, v := range values {
		if v > value {
			brighter++
		} else {
			fainter++
		}
	}
	return brighter, fainter, nil
}

// WritePixels 列出像素值
// 二维图像每行 x y value，每列之后空一行；三维立方体每行 x y z value
// 只输出x方向每istep个、y方向每jstep个像素
func WritePixels(w io.Writer, buf *core.Buffer, istep, jstep int) error {
	if istep < 1 || jstep < 1 {
		return fmt.Errorf("%w: 像素步长必须大于0", core.ErrDimensionality)
	}
	values, err := Values(buf)
	if err != nil {
		return err
	}

	var b strings.Builder
	switch buf.Naxis() {
	case 2:
		nx, ny := buf.Size[0], buf.Size[1]
		for ii := 0; ii < nx; ii += istep {
			for jj := 0; jj < ny; jj += jstep {
				fmt.Fprintf(&b, "%d %d %g\n", ii, jj, values[jj*nx+ii])
			}
			b.WriteString("\n")
		}
	case 3:
		nx, ny, nz := buf.Size[0], buf.Size[1], buf.Size[2]
		for ii := 0; ii < nx; ii += istep {
			for jj := 0; jj < ny; jj += jstep {
				for kk := 0; kk < nz; kk++ {
					fmt.Fprintf(&b, "%d %d %d %f\n", ii, jj, kk, values[kk*nx*ny+jj*nx+ii])
				}
			}
		}
	default:
		return fmt.Errorf("%w: 像素列表需要二维或三维图像，实际为%d维", core.ErrDimensionality, buf.Naxis())
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("%w: %v", core.ErrIO, err)
	}
	return nil
}

// CumulativeFlux 返回升序累加的通量，第i项为最暗的i+1个元素之和
func CumulativeFlux(r *Report) ([]float64, error) {
	if len(r.Sorted) == 0 {
		return nil, fmt.Errorf("%w: 报告中没有排序后的元素", core.ErrDimensionality)
	}
	out := make([]float64, len(r.Sorted))
	var sum float64
	for i, v := range r.Sorted {
		sum += v
		out[i] = sum
	}
	return out, nil
}

// WriteCumulativeFlux 每行：像素数下标 累计通量
func WriteCumulativeFlux(w io.Writer, flux []float64) error {
	var b strings.Builder
	for i, v := range flux {
		fmt.Fprintf(&b, "%d  %20.18e\n", i, v)
	}
	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("%w: %v", core.ErrIO, err)
	}
	return nil
}

// NoiseEstimate 由暗端分位点之差估计的背景噪声σ
// 三个估计都以F(-1.3σ)为下端，上端分别取F(-0.9σ)、F(-0.6σ)、F(-0.3σ)
type NoiseEstimate struct {
	Narrow float64
	Medium float64
	Wide   float64
}

// Sigma 返回最终采用的估计
func (e NoiseEstimate) Sigma() float64 {
	return e.Wide
}

// BackgroundNoise 假设暗端像素服从正态分布，用排序后的元素估计背景噪声
func BackgroundNoise(r *Report) (NoiseEstimate, error) {
	n := len(r.Sorted)
	if n == 0 {
		return NoiseEstimate{}, fmt.Errorf("%w: 报告中没有排序后的元素", core.ErrDimensionality)
	}
	at := func(p float64) float64 {
		return r.Sorted[min(int(p*float64(n)), n-1)]
	}
	low := at(cdfMinus13)
	return NoiseEstimate{
		Narrow: (at(cdfMinus09) - low) / (1.3 - 0.9),
		Medium: (at(cdfMinus06) - low) / (1.3 - 0.6),
		Wide:   (at(cdfMinus03) - low) / (1.3 - 0.3),
	}, nil
}

// WriteNoise 输出三个估计
func WriteNoise(w io.Writer, e NoiseEstimate) error {
	_, err := fmt.Fprintf(w, "(-1.3 -0.9) %f\n(-1.3 -0.6) %f\n(-1.3 -0.3) %f\n", e.Narrow, e.Medium, e.Wide)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrIO, err)
	}
	return nil
}
