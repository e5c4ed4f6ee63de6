// Package match 计算数据立方体中切片两两之间的差异矩阵
// 并按间隔窗口找出最相似的切片对
package match

import (
	"context"
	"fmt"

	"github.com/Kevin-Rudy/imgmon/pkg/core"
	"github.com/Kevin-Rudy/imgmon/pkg/imagestore"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

var log = logrus.WithField("component", "match")

// Matrix depth×depth上三角差异矩阵，只有行<列的元素有值
// 数据存放在DOUBLE缓冲区中，可以放入图像库复用
type Matrix struct {
	Depth int
	tri   *mat.TriDense
	buf   *core.Buffer
}

// newMatrix 以DOUBLE缓冲区为底层存储构建矩阵
func newMatrix(buf *core.Buffer) (*Matrix, error) {
	data, ok := core.Data[float64](buf)
	if !ok || buf.Naxis() != 2 || buf.Size[0] != buf.Size[1] || buf.Size[0] < 1 {
		return nil, fmt.Errorf("%w: 差异矩阵必须是方形二维DOUBLE图像", core.ErrDimensionality)
	}
	n := buf.Size[0]
	return &Matrix{Depth: n, tri: mat.NewTriDense(n, mat.Upper, data), buf: buf}, nil
}

// At 返回M[i][j]，i >= j时为0
func (m *Matrix) At(i, j int) float64 {
	if i >= j {
		return 0
	}
	return m.tri.At(i, j)
}

// Buffer 返回底层缓冲区
func (m *Matrix) Buffer() *core.Buffer {
	return m.buf
}

// Compute 计算立方体的差异矩阵M[i][j] = Σ(slice_i - slice_j)²
// 各行并行计算，每行只写自己的元素
func Compute(ctx context.Context, cube *core.Buffer, workers int) (*Matrix, error) {
	if cube.Naxis() != 3 {
		return nil, fmt.Errorf("%w: 需要三维数据立方体，实际为%d维", core.ErrDimensionality, cube.Naxis())
	}
	ops, err := cube.Ordered()
	if err != nil {
		return nil, err
	}

	depth := cube.Size[2]
	xy := cube.Size[0] * cube.Size[1]
	m, err := newMatrix(core.NewBuffer(core.TypeFloat64, depth, depth))
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for i := 0; i < depth; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			oi := i * xy
			for j := i + 1; j < depth; j++ {
				oj := j * xy
				var sum float64
				for p := 0; p < xy; p++ {
					d := ops.At(oi+p) - ops.At(oj+p)
					sum += d * d
				}
				m.tri.SetTri(i, j, sum)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{"depth": depth, "pixels": xy}).Debug("差异矩阵计算完成")
	return m, nil
}

// ComputeInStore 读取图像库中的立方体并得到差异矩阵
// outName已存在时直接复用，否则计算后以outName存入图像库
func ComputeInStore(ctx context.Context, store *imagestore.Store, cubeName, outName string, config *Config) (*Matrix, bool, error) {
	if existing, err := store.Lookup(outName); err == nil {
		m, err := reuse(existing.Buffer())
		if err != nil {
			return nil, false, err
		}
		log.WithField("image", outName).Info("复用已有的差异矩阵")
		return m, true, nil
	}

	im, err := store.Lookup(cubeName)
	if err != nil {
		return nil, false, err
	}
	m, err := Compute(ctx, im.Buffer(), config.Workers)
	if err != nil {
		return nil, false, err
	}
	store.Put(outName, m.Buffer(), imagestore.DefaultSemaphores)
	return m, false, nil
}

// reuse 以已有图像构建矩阵，非DOUBLE类型先转换
func reuse(buf *core.Buffer) (*Matrix, error) {
	if buf.Type != core.TypeFloat64 {
		converted, err := toFloat64(buf)
		if err != nil {
			return nil, err
		}
		buf = converted
	}
	return newMatrix(buf)
}

// toFloat64 将其他实数类型的矩阵图像转换为DOUBLE
func toFloat64(buf *core.Buffer) (*core.Buffer, error) {
	ops, err := buf.Ordered()
	if err != nil {
		return nil, err
	}
	out := core.NewBuffer(core.TypeFloat64, buf.Size...)
	data, _ := core.Data[float64](out)
	for i := range data {
		data[i] = ops.At(i)
	}
	return out, nil
}
