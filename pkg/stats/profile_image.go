// Package stats 由径向轮廓重建图像
package stats

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/Kevin-Rudy/imgmon/pkg/core"
)

// ReadProfile 读取WriteProfile格式的轮廓文件，返回每行第二列的环均值
// n大于0时只读取前n行，行数不足时报错
func ReadProfile(r io.Reader, n int) ([]float64, error) {
	var values []float64
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() && (n <= 0 || len(values) < n) {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 2 {
			return nil, fmt.Errorf("%w: 轮廓第%d行少于两列", core.ErrIO, line)
		}
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: 轮廓第%d行: %v", core.ErrIO, line, err)
		}
		values = append(values, v)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrIO, err)
	}
	if n > 0 && len(values) < n {
		return nil, fmt.Errorf("%w: 轮廓只有%d个点，需要%d个", core.ErrIO, len(values), n)
	}
	return values, nil
}

// ProfileImage 生成size×size的FLOAT图像，像素值按到(cx, cy)的距离在轮廓上线性插值
// 轮廓的len(profile)个点均匀分布在[0, radius)上，超出radius的像素为0
func ProfileImage(profile []float64, size int, cx, cy, radius float64) (*core.Buffer, error) {
	n := len(profile)
	if n == 0 || size <= 0 || radius <= 0 {
		return nil, fmt.Errorf("%w: 轮廓、图像尺寸和半径都必须非空", core.ErrDimensionality)
	}

	out := core.NewBuffer(core.TypeFloat32, size, size)
	data, _ := core.Data[float32](out)
	for jj := 0; jj < size; jj++ {
		for ii := 0; ii < size; ii++ {
			r := math.Hypot(float64(ii)-cx, float64(jj)-cy) / radius
			pos := r * float64(n)
			i := int(pos)
			x := pos - float64(i)
			switch {
			case i+1 < n:
				data[jj*size+ii] = float32((1-x)*profile[i] + x*profile[i+1])
			case i < n:
				data[jj*size+ii] = float32(profile[i])
			}
		}
	}
	return out, nil
}
