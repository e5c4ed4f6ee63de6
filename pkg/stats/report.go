// Package stats 报告输出
package stats

import (
	"fmt"
	"io"
	"strings"

	"github.com/Kevin-Rudy/imgmon/pkg/core"
)

// percentileRow 分位点在文件、控制台和变量表中的名字
type percentileRow struct {
	q       float64
	tag     string
	console string
}

var percentileRows = []percentileRow{
	{0.01, "01", "1  percent"},
	{0.05, "05", "5  percent"},
	{0.10, "10", "10 percent"},
	{0.20, "20", "20 percent"},
	{0.50, "50", "50 percent"},
	{0.80, "80", "80 percent"},
	{0.90, "90", "90 percent"},
	{0.95, "95", "95 percent"},
	{0.99, "99", "99 percent"},
	{0.995, "995", "99.5 percent"},
	{0.998, "998", "99.8 percent"},
	{0.999, "999", "99.9 percent"},
}

// WriteText 写出imstat.info.txt格式的报告
func WriteText(w io.Writer, r *Report) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%-25s%20.18e [ pix %d ]\n", "minimum", r.Min, r.MinIndex)
	fmt.Fprintf(&b, "%-25s%20.18e [ pix %d ]\n", "maximum", r.Max, r.MaxIndex)
	fmt.Fprintf(&b, "%-25s%20.18e\n", "total", r.Total)
	fmt.Fprintf(&b, "%-25s%20.18e\n", "rms", r.RMS)
	fmt.Fprintf(&b, "%-25s%20.18e\n", "rms per pixel", r.RMSPerPixel)
	fmt.Fprintf(&b, "%-25s%20.18e\n", "rms dev per pixel", r.RMSDevPerPixel)
	fmt.Fprintf(&b, "%-25s%20.18e\n", "mean", r.Mean)
	if r.Barycenter != nil {
		fmt.Fprintf(&b, "%-25s%20.18e\n", "photocenterX", r.Barycenter.X)
		fmt.Fprintf(&b, "%-25s%20.18e\n", "photocenterY", r.Barycenter.Y)
	}
	for _, row := range percentileRows {
		fmt.Fprintf(&b, "%-25s%20.18e\n", "percentile"+row.tag, r.Percentiles[row.q])
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("%w: %v", core.ErrIO, err)
	}
	return nil
}

// WriteConsole 写出带变量名提示的控制台报告
func WriteConsole(w io.Writer, name string, buf *core.Buffer, r *Report) error {
	var b strings.Builder
	kind := buf.Kind()

	fmt.Fprintf(&b, "\nImage %s\n", name)
	b.WriteString("Image size (->imsize0...):     [")
	for i, s := range buf.Size {
		if i == 0 {
			fmt.Fprintf(&b, "% d", s)
		} else {
			fmt.Fprintf(&b, " %d", s)
		}
	}
	b.WriteString(" ]\n")
	fmt.Fprintf(&b, "type:            %7s\n", kind.Short)
	fmt.Fprintf(&b, "Memory size:     %d Kb\n", buf.Bytes()/1024)

	line := func(label, v string, value float64, suffix string) {
		fmt.Fprintf(&b, "%-16s%-13s%20.18e%s\n", label, "(->"+v+")", value, suffix)
	}
	line("minimum", "vmin", r.Min, fmt.Sprintf(" [ pix %d ]", r.MinIndex))
	line("maximum", "vmax", r.Max, fmt.Sprintf(" [ pix %d ]", r.MaxIndex))
	line("total", "vtot", r.Total, "")
	line("rms", "vrms", r.RMS, "")
	line("rms per pixel", "vrmsp", r.RMSPerPixel, "")
	line("rms dev per pix", "vrmsdp", r.RMSDevPerPixel, "")
	line("mean", "vmean", r.Mean, "")
	if r.Barycenter != nil {
		fmt.Fprintf(&b, "%-16s%-13s%20.18f\n", "Barycenter x", "(->vbx)", r.Barycenter.X)
		fmt.Fprintf(&b, "%-16s%-13s%20.18f\n", "Barycenter y", "(->vby)", r.Barycenter.Y)
	}
	if r.Repaired > 0 {
		fmt.Fprintf(&b, "%d NaN values replaced by 0\n", r.Repaired)
	}

	b.WriteString("\npercentile values:\n")
	for _, row := range percentileRows {
		line(row.console, "vp"+row.tag, r.Percentiles[row.q], "")
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("%w: %v", core.ErrIO, err)
	}
	return nil
}
