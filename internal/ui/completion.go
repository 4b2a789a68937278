package ui

import (
	"fmt"
	"strings"

	"github.com/bamsammich/ferry/internal/engine"
)

// OutcomeSummary builds the final report for one copy.
// Format: done ✓  size 2.1 GiB  avg 641 MB/s  time 3s  staged  verified hash (blake3)
func OutcomeSummary(o engine.Outcome) string {
	var b strings.Builder

	switch {
	case o.OK():
		avg := 0.0
		if secs := o.Timings.Copy.Seconds(); secs > 0 {
			avg = float64(o.BytesCopied) / secs
		}
		fmt.Fprintf(&b, "done ✓  size %s  avg %s  time %s  %s",
			FormatBytes(o.BytesCopied),
			FormatRate(avg),
			FormatDuration(o.Timings.Total),
			strategyLabel(o),
		)
		b.WriteString("  " + verifyLabel(o))

	case o.Critical():
		fmt.Fprintf(&b, "CRITICAL ✗  %s", o.Err.Error())
		fmt.Fprintf(&b, "\n  original preserved at: %s", o.Err.BackupPath)

	case o.Status == engine.StatusCancelled:
		b.WriteString("cancelled  destination left unchanged")

	default:
		fmt.Fprintf(&b, "failed ✗  %s", o.Err.Error())
	}

	if o.Err != nil && o.Err.Hint != "" {
		fmt.Fprintf(&b, "\n  hint: %s", o.Err.Hint)
	}
	for _, w := range o.Warnings {
		fmt.Fprintf(&b, "\n  warning: %s", w)
	}
	return b.String()
}

func strategyLabel(o engine.Outcome) string {
	if o.Strategy == engine.Direct {
		return fmt.Sprintf("direct (%s)", o.Method)
	}
	return o.Strategy.String()
}

func verifyLabel(o engine.Outcome) string {
	switch o.VerifyMethod {
	case engine.VerifySkipped:
		return "not verified"
	case engine.VerifyHashCompare:
		alg := o.HashAlgorithm.String()
		if o.HashFallback {
			alg += ", fallback"
		}
		return fmt.Sprintf("verified hash (%s)", alg)
	default:
		return "verified " + o.VerifyMethod.String()
	}
}
