// Package terminal provides rich terminal output with colors and styling
package terminal

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/arthur-debert/reshader/pkg/errors"
	"github.com/arthur-debert/reshader/pkg/style"
	"github.com/arthur-debert/reshader/pkg/ui/display"
	"github.com/charmbracelet/lipgloss"
	"github.com/pterm/pterm"
)

// Renderer styles display views with lipgloss and draws tables with pterm
type Renderer struct {
	output io.Writer
}

// New creates a new terminal renderer
func New(w io.Writer) *Renderer {
	return &Renderer{output: w}
}

// RenderResult renders any result type with rich terminal formatting
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
		out, err := renderView(v)
		if err != nil {
			return err
		}
		if _, err := io.WriteString(r.output, out); err != nil {
			return err
		}
	}
	return nil
}

func renderView(v display.View) (string, error) {
	var b strings.Builder
	if v.Title != "" {
		b.WriteString(style.TitleStyle.Render(v.Title) + "\n")
	}

	if len(v.Fields) > 0 {
		width := 0
		for _, f := range v.Fields {
			width = max(width, lipgloss.Width(f.Label))
		}
		label := style.LabelStyle.Width(width + 2)
		for _, f := range v.Fields {
			b.WriteString("  " + label.Render(f.Label+":") + fieldValue(f) + "\n")
		}
	}

	if v.Table != nil {
		if len(v.Table.Rows) == 0 {
			if v.Empty != "" {
				b.WriteString(style.MutedStyle.Render(v.Empty) + "\n")
			}
		} else {
			data := pterm.TableData{v.Table.Header}
			data = append(data, v.Table.Rows...)
			table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
			if err != nil {
				return "", errors.Wrap(err, errors.ErrInternal, "cannot render table")
			}
			if len(v.Fields) > 0 {
				b.WriteString("\n")
			}
			b.WriteString(table + "\n")
		}
	}

	for _, n := range v.Notes {
		b.WriteString(style.WarningIndicator + " " + style.NormalStyle.Render(n) + "\n")
	}
	return b.String(), nil
}

func fieldValue(f display.Field) string {
	switch f.Kind {
	case display.KindAPI:
		return style.APIStyle(f.Value).Render(f.Value)
	case display.KindPath:
		return style.PathStyle.Render(f.Value)
	case display.KindNote:
		return style.WarningStyle.Render(f.Value)
	}
	return style.NormalStyle.Render(f.Value)
}

// RenderError renders the error in a bordered box, with its details
func (r *Renderer) RenderError(err error) error {
	var b strings.Builder
	b.WriteString(style.ErrorIndicator + " " + style.ErrorStyle.Render(err.Error()))
	details := errors.GetErrorDetails(err)
	for _, k := range sortedKeys(details) {
		b.WriteString("\n  " + style.LabelStyle.Render(k+":") + " " + style.MutedStyle.Render(fmt.Sprint(details[k])))
	}
	_, werr := fmt.Fprintln(r.output, style.BoxStyle.BorderForeground(style.ErrorColor).Render(b.String()))
	return werr
}

// RenderMessage renders a message with markup applied
func (r *Renderer) RenderMessage(msg string) error {
	_, err := fmt.Fprintln(r.output, style.Render(msg))
	return err
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
