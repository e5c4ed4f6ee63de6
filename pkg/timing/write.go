// Package timing 纯文本计时报告输出
package timing

import (
	"fmt"
	"io"
	"strings"

	"github.com/Kevin-Rudy/imgmon/pkg/core"
)

// WriteReport 以纯文本输出分位表与汇总行，不带颜色标记
func WriteReport(w io.Writer, r *Report) error {
	if r == nil || len(r.Sorted) == 0 {
		return fmt.Errorf("%w: 报告中没有样本", core.ErrDimensionality)
	}

	var b strings.Builder
	n := len(r.Sorted)
	fmt.Fprintf(&b, " NBsamples = %d  (cntdiff = %d)   NBperccnt = %d\n\n", n, r.Drift.Observed, len(r.Table.Entries))

	median := r.Median()
	for k, e := range r.Table.Entries {
		val := r.Value(e)
		fmt.Fprintf(&b, "%6.3f%%  %6.3f%%  [%10d] [%10d]    %10.3f us", 100*e.Quantile, 100*(1-e.Quantile), e.Index, n-e.Index, 1e6*val)
		if k != r.Table.Median {
			fmt.Fprintf(&b, "   %+10.3f us", 1e6*(val-median))
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "\n  Average Time Interval = %10.3f us    -> frequ = %10.3f Hz\n", 1e6*r.Mean, r.Frequency())
	fmt.Fprintf(&b, "                    RMS = %10.3f us  ( %5.3f %%)\n", 1e6*r.StdDev, r.RelativeRMS())
	fmt.Fprintf(&b, "  Max delay : %10.3f us   frame # %d\n", 1e6*r.Max, r.MaxIndex)
	if missed := r.Drift.Missed(); missed != 0 {
		fmt.Fprintf(&b, "  Drift : expected %d  observed %d  (%+d)\n", r.Drift.Expected, r.Drift.Observed, missed)
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("%w: %v", core.ErrIO, err)
	}
	return nil
}
