// Package stats 结构函数
package stats

import (
	"fmt"

	"github.com/Kevin-Rudy/imgmon/pkg/core"
)

// 结构函数的采样步长：起点每2像素取一个，终点每3像素取一个
const (
	structureOriginStep = 2
	structureTargetStep = 3
)

// StructureFunction 计算二维图像的结构函数D(dx, dy) = mean((v1 - v2)²)
// 起点按列优先遍历，最多使用npoints个；终点必须在起点的右上方(dx>0, dy>0)
// 结果是与输入同尺寸的FLOAT图像，没有样本的偏移为0
func StructureFunction(img *core.Buffer, npoints int) (*core.Buffer, error) {
	if img.Naxis() != 2 {
		return nil, fmt.Errorf("%w: 结构函数需要二维图像，实际为%d维", core.ErrDimensionality, img.Naxis())
	}
	if npoints <= 0 {
		return nil, fmt.Errorf("%w: 起点数必须大于0", core.ErrDimensionality)
	}
	values, err := Values(img)
	if err != nil {
		return nil, err
	}

	nx, ny := img.Size[0], img.Size[1]
	sum := make([]float64, nx*ny)
	count := make([]float64, nx*ny)
	used := 0
	for ii1 := 0; ii1 < nx && used < npoints; ii1 += structureOriginStep {
		for jj1 := 0; jj1 < ny && used < npoints; jj1 += structureOriginStep {
			used++
			v1 := values[jj1*nx+ii1]
			for ii2 := 0; ii2 < nx; ii2 += structureTargetStep {
				for jj2 := 0; jj2 < ny; jj2 += structureTargetStep {
					if ii2 <= ii1 || jj2 <= jj1 {
						continue
					}
					d := v1 - values[jj2*nx+ii2]
					p := (jj2-jj1)*nx + ii2 - ii1
					sum[p] += d * d
					count[p]++
				}
			}
		}
	}
	log.WithField("origins", used).Debug("结构函数计算完成")

	out := core.NewBuffer(core.TypeFloat32, nx, ny)
	data, _ := core.Data[float32](out)
	for p := range data {
		if count[p] > 0 {
			data[p] = float32(sum[p] / count[p])
		}
	}
	return out, nil
}
