package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"

	coreapp "pyuml/internal/core/app"
)

// newReporter picks a progress bar for interactive runs and plain lines for
// CI or verbose runs, where log output would tear the bar.
func newReporter(w io.Writer, verbose bool) coreapp.Reporter {
	if verbose || os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != "" {
		return &lineReporter{w: w}
	}
	return &barReporter{w: w}
}

type barReporter struct {
	w   io.Writer
	bar *progressbar.ProgressBar
}

func (r *barReporter) Start(kind string, total int) {
	r.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(r.w),
		progressbar.OptionSetDescription(kind+" diagrams"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

func (r *barReporter) Advance(source string, err error) {
	if r.bar == nil {
		return
	}
	r.bar.Describe(filepath.Base(source))
	_ = r.bar.Add(1)
}

func (r *barReporter) Finish(string) {
	if r.bar != nil {
		_ = r.bar.Finish()
		r.bar = nil
	}
}

type lineReporter struct {
	w       io.Writer
	total   int
	current int
}

func (r *lineReporter) Start(kind string, total int) {
	r.total, r.current = total, 0
	fmt.Fprintf(r.w, "Generating %s diagrams for %d sources\n", kind, total)
}

func (r *lineReporter) Advance(source string, err error) {
	r.current++
	if err != nil {
		fmt.Fprintf(r.w, "[%d/%d] %s (failed: %v)\n", r.current, r.total, source, err)
		return
	}
	fmt.Fprintf(r.w, "[%d/%d] %s\n", r.current, r.total, source)
}

func (r *lineReporter) Finish(kind string) {
	fmt.Fprintf(r.w, "Finished %s diagrams\n", kind)
}
