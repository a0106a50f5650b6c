// Package report turns a run summary into console text and a process exit
// code.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"absync/internal/reconcile"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
)

// Reporter writes run summaries to a single output stream. Color is applied
// only when the stream is a terminal.
type Reporter struct {
	out      io.Writer
	colorize bool
}

func New(out io.Writer) *Reporter {
	return &Reporter{out: out, colorize: shouldColorize(out)}
}

// Render prints the per-book outcome table followed by a one-line summary.
func (r *Reporter) Render(summary *reconcile.Summary) {
	title := fmt.Sprintf("Sync run %s", summary.RunID)
	if summary.DryRun {
		title += " (dry run)"
	}
	fmt.Fprintln(r.out, title)

	if len(summary.Outcomes) == 0 {
		fmt.Fprintln(r.out, "Nothing to sync: source collection is empty.")
		return
	}

	rows := make([][]string, 0, len(summary.Outcomes))
	for _, o := range summary.Outcomes {
		rows = append(rows, []string{
			r.statusCell(o),
			o.Title,
			o.Author,
			o.Path,
			o.Reason,
		})
	}
	fmt.Fprintln(r.out, Table(
		[]string{"STATUS", "TITLE", "AUTHOR", "PATH", "DETAIL"},
		rows,
		nil,
	))

	counts := summary.Counts()
	line := fmt.Sprintf("%d processed, %d downloaded, %d skipped existing, %d skipped invalid, %d failed (%s)",
		counts.Processed, counts.Downloaded, counts.SkippedExisting, counts.SkippedInvalid, counts.Failed,
		summary.Finished.Sub(summary.Started).Round(time.Millisecond))
	if counts.Failed > 0 {
		line = r.color(ansiRed, line)
	} else {
		line = r.color(ansiGreen, line)
	}
	fmt.Fprintln(r.out, line)
}

func (r *Reporter) statusCell(o reconcile.Outcome) string {
	label := strings.ReplaceAll(string(o.Status), "_", " ")
	switch {
	case o.Failed():
		return r.color(ansiRed, label)
	case o.Status == reconcile.StatusSkippedInvalid:
		return r.color(ansiYellow, label)
	default:
		return r.color(ansiGreen, label)
	}
}

func (r *Reporter) color(color, value string) string {
	if !r.colorize || value == "" {
		return value
	}
	return color + value + ansiReset
}

// ExitCode maps a summary to the process exit code: 0 for success including
// an empty run, 1 when any book failed.
func ExitCode(summary *reconcile.Summary) int {
	if summary.Succeeded() {
		return 0
	}
	return 1
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
