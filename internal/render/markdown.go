package render

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	glamouransi "github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
)

var (
	rendererMu       sync.Mutex
	renderersByWidth = map[int]*glamour.TermRenderer{}
)

// Terminal renders markdown for a terminal of the given width. When no
// renderer can be built the markdown is returned as is.
func Terminal(markdown string, width int) string {
	markdown = strings.TrimRight(markdown, "\n")
	if markdown == "" {
		return ""
	}
	if width <= 0 {
		width = 80
	}
	r := getRenderer(width)
	if r == nil {
		return markdown
	}
	out, err := r.Render(markdown)
	if err != nil {
		return markdown
	}
	return strings.TrimRight(out, "\n")
}

func getRenderer(width int) *glamour.TermRenderer {
	rendererMu.Lock()
	defer rendererMu.Unlock()
	if renderer, ok := renderersByWidth[width]; ok && renderer != nil {
		return renderer
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(styleConfig()),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	renderersByWidth[width] = r
	return r
}

func styleConfig() glamouransi.StyleConfig {
	base := styles.DarkStyleConfig
	// Panels own their padding; drop glamour's document margins.
	base.Document.StylePrimitive.BlockPrefix = ""
	base.Document.StylePrimitive.BlockSuffix = ""
	zero := uint(0)
	base.Document.Margin = &zero
	return base
}

// Markdown lays a card out as a markdown section. Details are included only
// when the card is expanded.
func (c Card) Markdown() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("## %s · %s\n\n", escapeMarkdown(c.AgentName), escapeMarkdown(c.StatusText)))
	b.WriteString(fmt.Sprintf("_%s_ · confidence **%d%%** (%s)\n\n", c.Timestamp, c.ConfidencePercent, c.Band))
	b.WriteString(escapeMarkdown(c.Reasoning) + "\n")
	if c.Escalation {
		b.WriteString("\n> ⚠ Escalation required: " + escapeMarkdown(c.EscalationReason) + "\n")
	}
	if c.Expanded && c.Detail != "" {
		b.WriteString("\n```json\n" + c.Detail + "\n```\n")
	}
	return b.String()
}

// escapeMarkdown backslash-escapes every ASCII punctuation character so the
// text renders literally. Leading indentation is kept.
func escapeMarkdown(text string) string {
	if text == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(text) + len(text)/4)
	for _, r := range text {
		if isASCIIPunct(r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isASCIIPunct(r rune) bool {
	switch {
	case r >= '!' && r <= '/',
		r >= ':' && r <= '@',
		r >= '[' && r <= '`',
		r >= '{' && r <= '~':
		return true
	}
	return false
}
