package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// renderProgressReporter draws a one-line spinner on a terminal. Workers
// call Update concurrently.
type renderProgressReporter struct {
	mu      sync.Mutex
	w       io.Writer
	enabled bool
	label   string
	total   int
	count   int
	start   time.Time
	spinner int
	lastLen int
}

func newRenderProgressReporter(w io.Writer, label string, total int, quiet bool) *renderProgressReporter {
	enabled := false
	if f, ok := w.(*os.File); ok && !quiet {
		stat, err := f.Stat()
		enabled = err == nil && (stat.Mode()&os.ModeCharDevice) != 0
	}
	return &renderProgressReporter{
		w:       w,
		enabled: enabled,
		label:   label,
		total:   total,
		start:   time.Now(),
	}
}

// Update counts one finished file.
func (r *renderProgressReporter) Update(file string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.count++
	if !r.enabled {
		return
	}
	frames := [4]string{"-", "\\", "|", "/"}
	frame := frames[r.spinner%len(frames)]
	r.spinner++
	file = strings.TrimSpace(file)
	if len(file) > 88 {
		file = "..." + file[len(file)-85:]
	}

	status := fmt.Sprintf("%s %s %d rendering %s", frame, r.label, r.count, file)
	if r.total > 0 {
		status = fmt.Sprintf("%s %s %d/%d rendering %s", frame, r.label, r.count, r.total, file)
	}
	r.printStatus(status)
}

func (r *renderProgressReporter) Done() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.enabled {
		return
	}
	elapsed := time.Since(r.start).Round(time.Millisecond)
	r.printStatus(fmt.Sprintf("%s complete (%d files in %s)", r.label, r.count, elapsed))
	fmt.Fprintln(r.w)
}

func (r *renderProgressReporter) printStatus(status string) {
	if r.lastLen > len(status) {
		status = status + strings.Repeat(" ", r.lastLen-len(status))
	}
	r.lastLen = len(status)
	fmt.Fprintf(r.w, "\r%s", status)
}
