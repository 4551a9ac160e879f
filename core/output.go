package core

import (
	"fmt"
	"os"
)

// Printer handles all display output for the CLI.
type Printer struct {
	Writer *os.File
}

// NewPrinter creates a default Printer writing to stdout.
func NewPrinter() *Printer {
	return &Printer{Writer: os.Stdout}
}

// PrintResult renders one per-file outcome line as it completes.
func (p *Printer) PrintResult(r ProcessResult) {
	reasons := r.Reasons
	if reasons == "" {
		reasons = "(none)"
	}
	fmt.Fprintf(p.Writer, "[%s] %s\n  -> %s\n  => %s\n", r.Status, r.Path, reasons, r.Message)
}

// PrintSummary renders the run-level summary. It is printed even when every
// file failed.
func (p *Printer) PrintSummary(total, okOrDry, fixed, failOrError int) {
	fmt.Fprintln(p.Writer, "\n=== Summary ===")
	fmt.Fprintf(p.Writer, "Total: %d | OK/DRY: %d | FIXED: %d | FAIL/ERROR: %d\n",
		total, okOrDry, fixed, failOrError)
}

// PrintInfo prints an info line.
func (p *Printer) PrintInfo(msg string) {
	fmt.Fprintln(p.Writer, msg)
}

// PrintError prints an error to stderr.
func PrintError(msg string) {
	fmt.Fprintln(os.Stderr, "✗ Error: "+msg)
}

// HumanBytes formats a byte count for reason strings: whole bytes below 1
// KiB, one decimal above.
func HumanBytes(n int64) string {
	if n < 1024 {
		return fmt.Sprintf("%dB", n)
	}
	v := float64(n) / 1024
	for _, unit := range []string{"KB", "MB"} {
		if v < 1024 {
			return fmt.Sprintf("%.1f%s", v, unit)
		}
		v /= 1024
	}
	return fmt.Sprintf("%.1fGB", v)
}
