package style

import (
	"regexp"

	"github.com/charmbracelet/lipgloss"
)

// markupTag matches innermost tags only: the content may hold brackets, but
// never the start of another tag
var markupTag = regexp.MustCompile(`\[([a-z]+)\]((?:[^\[]|\[[^a-z/])*?)\[/([a-z]+)\]`)

// MarkupParser renders [tag]text[/tag] markup with lipgloss styles.
// Unknown or mismatched tags are left as is.
type MarkupParser struct {
	styles map[string]lipgloss.Style
}

// NewMarkupParser creates a new markup parser with default styles
func NewMarkupParser() *MarkupParser {
	return &MarkupParser{
		styles: map[string]lipgloss.Style{
			"title":   TitleStyle,
			"label":   LabelStyle,
			"success": SuccessStyle,
			"error":   ErrorStyle,
			"warning": WarningStyle,
			"info":    InfoStyle,
			"code":    CodeStyle,
			"path":    PathStyle,
			"muted":   MutedStyle,
			"bold":    lipgloss.NewStyle().Bold(true),

			"directx": DirectXStyle,
			"opengl":  OpenGLStyle,
			"vulkan":  VulkanStyle,
		},
	}
}

// Render applies styles, innermost tags first
func (p *MarkupParser) Render(text string) string {
	for {
		next := markupTag.ReplaceAllStringFunc(text, func(match string) string {
			m := markupTag.FindStringSubmatch(match)
			st, ok := p.styles[m[1]]
			if !ok || m[1] != m[3] {
				return match
			}
			return st.Render(m[2])
		})
		if next == text {
			return next
		}
		text = next
	}
}

// Strip removes known tags without styling, for plain output
func (p *MarkupParser) Strip(text string) string {
	for {
		next := markupTag.ReplaceAllStringFunc(text, func(match string) string {
			m := markupTag.FindStringSubmatch(match)
			if _, ok := p.styles[m[1]]; !ok || m[1] != m[3] {
				return match
			}
			return m[2]
		})
		if next == text {
			return next
		}
		text = next
	}
}

// AddStyle allows adding custom styles
func (p *MarkupParser) AddStyle(tag string, style lipgloss.Style) {
	p.styles[tag] = style
}

var defaultParser = NewMarkupParser()

// Render is a convenience function using the default parser
func Render(text string) string {
	return defaultParser.Render(text)
}

// Strip is a convenience function using the default parser
func Strip(text string) string {
	return defaultParser.Strip(text)
}
