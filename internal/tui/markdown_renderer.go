package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// minDetailWrap is the narrowest wrap width the detail pane renders at.
const minDetailWrap = 24

// markdownRenderer renders record descriptions for the detail pane.
// The glamour renderer is rebuilt only when the wrap width changes, and the last output is reused
// while the source and width stay the same.
type markdownRenderer struct {
	style    string
	width    int
	renderer *glamour.TermRenderer

	lastSource string
	lastOutput string
}

func newMarkdownRenderer(style string) *markdownRenderer {
	if strings.TrimSpace(style) == "" {
		style = "dark"
	}
	return &markdownRenderer{style: style}
}

// render returns source as styled terminal text wrapped at width. On any glamour failure it
// returns the trimmed source unchanged.
func (r *markdownRenderer) render(source string, width int) string {
	source = strings.TrimSpace(source)
	if source == "" {
		return ""
	}
	width = max(width, minDetailWrap)
	if r.renderer != nil && r.width == width && r.lastSource == source {
		return r.lastOutput
	}

	if r.renderer == nil || r.width != width {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(r.style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return source
		}
		r.renderer, r.width = renderer, width
	}

	out, err := r.renderer.Render(source)
	if err != nil {
		return source
	}
	r.lastSource = source
	r.lastOutput = strings.TrimRight(out, "\n")
	return r.lastOutput
}
