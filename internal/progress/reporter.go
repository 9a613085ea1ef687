package progress

import (
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
)

// Reporter provides progress feedback while a batch of rows is processed.
type Reporter interface {
	Start(total int, label string)
	Update(current int)
	Finish(summary string)
}

// NewReporter returns a CIReporter when the CI environment variable is set
// and a TerminalReporter otherwise. Output goes to w.
func NewReporter(w io.Writer) Reporter {
	if os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != "" {
		return &CIReporter{out: w}
	}
	return &TerminalReporter{out: w}
}

// TerminalReporter displays a progress bar. A total of -1 shows a spinner.
type TerminalReporter struct {
	out io.Writer
	bar *progressbar.ProgressBar
}

func (r *TerminalReporter) Start(total int, label string) {
	r.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(r.out),
		progressbar.OptionSetDescription(label),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

func (r *TerminalReporter) Update(current int) {
	if r.bar != nil {
		_ = r.bar.Set(current)
	}
}

func (r *TerminalReporter) Finish(summary string) {
	if r.bar != nil {
		_ = r.bar.Finish()
	}
	fmt.Fprintln(r.out, summary)
}

// CIReporter prints line-by-line progress suitable for CI logs. Only every
// Every-th row is printed; zero means 100.
type CIReporter struct {
	out   io.Writer
	label string
	total int
	Every int
}

func (r *CIReporter) Start(total int, label string) {
	r.total = total
	r.label = label
	if total < 0 {
		fmt.Fprintf(r.out, "%s\n", label)
		return
	}
	fmt.Fprintf(r.out, "%s: %d rows\n", label, total)
}

func (r *CIReporter) Update(current int) {
	every := r.Every
	if every <= 0 {
		every = 100
	}
	if current%every != 0 && current != r.total {
		return
	}
	if r.total < 0 {
		fmt.Fprintf(r.out, "[%d] %s\n", current, r.label)
		return
	}
	fmt.Fprintf(r.out, "[%d/%d] %s\n", current, r.total, r.label)
}

func (r *CIReporter) Finish(summary string) {
	fmt.Fprintln(r.out, summary)
}
