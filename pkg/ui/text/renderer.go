// Package text provides plain text output without any styling
package text

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/arthur-debert/reshader/pkg/style"
	"github.com/arthur-debert/reshader/pkg/ui/display"
)

// Renderer provides plain text output without colors or styling
type Renderer struct {
	output io.Writer
}

// New creates a new text renderer
func New(output io.Writer) *Renderer {
	return &Renderer{output: output}
}

// RenderResult renders display view models; other values are printed with %+v
func (r *Renderer) RenderResult(result interface{}) error {
	views, ok := display.Views(result)
	if !ok {
		_, err := fmt.Fprintf(r.output, "%+v\n", result)
		return err
	}
	for i, v := range views {
		if i > 0 {
			fmt.Fprintln(r.output)
		}
		if err := r.renderView(v); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) renderView(v display.View) error {
	var b strings.Builder
	if v.Title != "" {
		b.WriteString(v.Title + "\n")
	}

	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	for _, f := range v.Fields {
		fmt.Fprintf(tw, "  %s:\t%s\n", f.Label, f.Value)
	}
	tw.Flush()

	if v.Table != nil {
		if len(v.Table.Rows) == 0 {
			if v.Empty != "" {
				b.WriteString(v.Empty + "\n")
			}
		} else {
			if len(v.Fields) > 0 {
				b.WriteString("\n")
			}
			tw = tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, strings.Join(v.Table.Header, "\t"))
			for _, row := range v.Table.Rows {
				fmt.Fprintln(tw, strings.Join(row, "\t"))
			}
			tw.Flush()
		}
	}

	for _, n := range v.Notes {
		b.WriteString("note: " + n + "\n")
	}
	_, err := io.WriteString(r.output, b.String())
	return err
}

// RenderError renders an error as plain text
func (r *Renderer) RenderError(err error) error {
	_, werr := fmt.Fprintf(r.output, "Error: %v\n", err)
	return werr
}

// RenderMessage renders a simple message without markup
func (r *Renderer) RenderMessage(msg string) error {
	_, err := fmt.Fprintln(r.output, style.Strip(msg))
	return err
}
