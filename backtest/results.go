package backtest

import (
	"fmt"
	"io"
	"sort"
	"time"
)

func PrintResult(w io.Writer, r Result) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Backtest Result")
	fmt.Fprintln(w, "==================================================")

	fmt.Fprintf(w, "Run ID:        %s\n", r.RunID)
	if r.Dataset != "" {
		fmt.Fprintf(w, "Dataset:       %s\n", r.Dataset)
	}
	fmt.Fprintf(w, "Bars:          %d\n", r.Bars)

	if !r.Start.IsZero() {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Period")
		fmt.Fprintln(w, "--------------------------------------------------")
		fmt.Fprintf(w, "Start:         %s\n", r.Start.Format(time.RFC3339))
		fmt.Fprintf(w, "End:           %s\n", r.End.Format(time.RFC3339))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Account Performance")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintln(w, r.Summary)

	if len(r.ByLabel) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Results by Strategy")
		fmt.Fprintln(w, "--------------------------------------------------")
		labels := make([]string, 0, len(r.ByLabel))
		for l := range r.ByLabel {
			labels = append(labels, l)
		}
		sort.Strings(labels)
		for _, l := range labels {
			res := r.ByLabel[l]
			fmt.Fprintf(w, "%-14s wins=%d losses=%d\n", l+":", res.Wins, res.Losses)
		}
	}

	fmt.Fprintln(w)
}
