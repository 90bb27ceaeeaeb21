package ui

import (
	"fmt"
	"io"

	"github.com/arthur-debert/reshader/pkg/style"
)

// Progress prints install steps as they complete. JSON output gets no
// progress lines so stdout stays a single document.
type Progress struct {
	w     io.Writer
	rich  bool
	quiet bool
}

// NewProgress writes steps to w in the style of format
func NewProgress(w io.Writer, format Format) *Progress {
	return &Progress{
		w:     w,
		rich:  format == FormatTerminal,
		quiet: format == FormatJSON,
	}
}

// Step reports a state by its String name
func (p *Progress) Step(state string) {
	if p.quiet {
		return
	}
	status := style.StatusDone
	if state == "failed" {
		status = style.StatusFailed
	}
	if p.rich {
		fmt.Fprintln(p.w, style.RenderStep(state, status))
		return
	}
	label, ok := style.StepLabels[state]
	if !ok {
		label = state
	}
	fmt.Fprintf(p.w, "  %s\n", label)
}
