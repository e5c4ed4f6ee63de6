// Package match 配对排序与输出
package match

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/Kevin-Rudy/imgmon/pkg/core"
	"gonum.org/v1/gonum/floats"
)

// Pair 一对切片及其差值
type Pair struct {
	I, J  int
	Value float64
}

// Gap 返回切片间隔j-i
func (p Pair) Gap() int {
	return p.J - p.I
}

// Ranking 按差值升序排列的配对
type Ranking []Pair

// Top 返回前k个配对
func (r Ranking) Top(k int) Ranking {
	return r[:min(k, len(r))]
}

// Candidates 按行列顺序列出间隔在[MinGap, MaxGap]内且差值大于MinValue的配对
// 相同或重复的切片差值为0，默认下限会排除它们
func Candidates(m *Matrix, config *Config) []Pair {
	var pairs []Pair
	for i := 0; i < m.Depth; i++ {
		for j := i + config.MinGap; j <= i+config.MaxGap && j < m.Depth; j++ {
			v := m.At(i, j)
			if v > config.MinValue {
				pairs = append(pairs, Pair{I: i, J: j, Value: v})
			}
		}
	}
	return pairs
}

// Rank 返回按差值升序排列的候选配对，差值相同的保持行列顺序
func Rank(m *Matrix, config *Config) Ranking {
	return Sort(Candidates(m, config))
}

// Sort 按差值升序排序配对
func Sort(pairs []Pair) Ranking {
	values := make([]float64, len(pairs))
	for k, p := range pairs {
		values[k] = p.Value
	}
	inds := make([]int, len(pairs))
	floats.ArgsortStable(values, inds)

	out := make(Ranking, len(pairs))
	for k, idx := range inds {
		out[k] = pairs[idx]
	}
	return out
}

// RMSImage 对最佳的k个配对逐像素计算sqrt(mean((slice_i - slice_j)²))
// 实际使用的配对数为min(k, len(r))
func RMSImage(cube *core.Buffer, r Ranking, k int) (*core.Buffer, error) {
	if cube.Naxis() != 3 {
		return nil, fmt.Errorf("%w: 需要三维数据立方体，实际为%d维", core.ErrDimensionality, cube.Naxis())
	}
	ops, err := cube.Ordered()
	if err != nil {
		return nil, err
	}
	best := r.Top(k)
	if len(best) == 0 {
		return nil, fmt.Errorf("%w: 没有可用的配对", core.ErrDimensionality)
	}

	w, h, depth := cube.Size[0], cube.Size[1], cube.Size[2]
	xy := w * h
	out := core.NewBuffer(core.TypeFloat32, w, h)
	data, _ := core.Data[float32](out)
	acc := make([]float64, xy)
	for _, p := range best {
		if p.I < 0 || p.J >= depth || p.I >= p.J {
			return nil, fmt.Errorf("%w: 配对(%d,%d)超出立方体深度%d", core.ErrDimensionality, p.I, p.J, depth)
		}
		oi, oj := p.I*xy, p.J*xy
		for q := 0; q < xy; q++ {
			d := ops.At(oi+q) - ops.At(oj+q)
			acc[q] += d * d
		}
	}
	for q := range data {
		data[q] = float32(math.Sqrt(acc[q] / float64(len(best))))
	}
	return out, nil
}

// WritePairs 每行：i j gap value
func WritePairs(w io.Writer, pairs []Pair) error {
	var b strings.Builder
	for _, p := range pairs {
		fmt.Fprintf(&b, "%5d  %5d  %+5d   %g\n", p.I, p.J, p.Gap(), p.Value)
	}
	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("%w: %v", core.ErrIO, err)
	}
	return nil
}

// WriteMatrixListing 列出全部上三角元素，每行：gap value i j
func WriteMatrixListing(w io.Writer, m *Matrix) error {
	var b strings.Builder
	for i := 0; i < m.Depth; i++ {
		for j := i + 1; j < m.Depth; j++ {
			fmt.Fprintf(&b, "%5d  %20f  %5d %5d\n", j-i, m.At(i, j), i, j)
		}
	}
	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("%w: %v", core.ErrIO, err)
	}
	return nil
}

// ReadMatrixListing 读取WriteMatrixListing输出的列表，重建depth×depth的DOUBLE矩阵图像
// depth取列表中最大的j加1，未列出的元素为0
func ReadMatrixListing(r io.Reader) (*core.Buffer, error) {
	type entry struct {
		i, j int
		v    float64
	}
	var entries []entry
	depth := 0
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 4 {
			return nil, fmt.Errorf("%w: 矩阵列表第%d行应有4列，实际为%d列", core.ErrIO, line, len(fields))
		}
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: 矩阵列表第%d行: %v", core.ErrIO, line, err)
		}
		i, erri := strconv.Atoi(fields[2])
		j, errj := strconv.Atoi(fields[3])
		if erri != nil || errj != nil || i < 0 || j <= i {
			return nil, fmt.Errorf("%w: 矩阵列表第%d行的下标无效", core.ErrIO, line)
		}
		entries = append(entries, entry{i, j, v})
		depth = max(depth, j+1)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrIO, err)
	}
	if depth == 0 {
		return nil, fmt.Errorf("%w: 矩阵列表为空", core.ErrIO)
	}

	buf := core.NewBuffer(core.TypeFloat64, depth, depth)
	data, _ := core.Data[float64](buf)
	for _, e := range entries {
		data[e.i*depth+e.j] = e.v
	}
	return buf, nil
}
