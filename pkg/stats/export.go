// Package stats 变量导出
package stats

import (
	"fmt"

	"github.com/Kevin-Rudy/imgmon/pkg/core"
)

// Setter 接收导出变量的注册表
type Setter interface {
	Set(name string, value float64) error
}

type variable struct {
	name  string
	value float64
}

// Export 将报告写入变量表：imsize0..、vmin、vmax、vtot、vrms、vrmsp、vrmsdp、
// vmean、vbx、vby（二维）以及vp01到vp999
func Export(reg Setter, buf *core.Buffer, r *Report) error {
	values := make([]variable, 0, 32)
	add := func(name string, v float64) {
		values = append(values, variable{name, v})
	}

	for i, s := range buf.Size {
		add(fmt.Sprintf("imsize%d", i), float64(s))
	}
	add("vmin", r.Min)
	add("vmax", r.Max)
	add("vtot", r.Total)
	add("vrms", r.RMS)
	add("vrmsp", r.RMSPerPixel)
	add("vrmsdp", r.RMSDevPerPixel)
	add("vmean", r.Mean)
	if r.Barycenter != nil {
		add("vbx", r.Barycenter.X)
		add("vby", r.Barycenter.Y)
	}
	for _, row := range percentileRows {
		add("vp"+row.tag, r.Percentiles[row.q])
	}

	for _, v := range values {
		if err := reg.Set(v.name, v.value); err != nil {
			return fmt.Errorf("导出变量 %s 失败: %w", v.name, err)
		}
	}
	return nil
}
