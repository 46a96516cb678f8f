package tui

import (
	"fmt"
	"strings"

	xansi "github.com/charmbracelet/x/ansi"
)

func wrapText(text string, width int) string {
	if width <= 0 {
		return text
	}
	lines := strings.Split(text, "\n")
	wrapped := make([]string, 0, len(lines))
	for _, line := range lines {
		words := strings.Fields(line)
		if len(words) == 0 {
			wrapped = append(wrapped, "")
			continue
		}
		current := words[0]
		for _, word := range words[1:] {
			if xansi.StringWidth(current)+1+xansi.StringWidth(word) <= width {
				current += " " + word
				continue
			}
			wrapped = append(wrapped, current)
			current = word
		}
		wrapped = append(wrapped, current)
	}
	return strings.Join(wrapped, "\n")
}

// compactTimelineMessage caps text at maxLines lines and maxChars cells,
// noting what was cut.
func compactTimelineMessage(text string, maxLines int, maxChars int) string {
	normalized := strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
	if normalized == "" {
		return ""
	}
	lines := strings.Split(normalized, "\n")
	if maxLines > 0 && len(lines) > maxLines {
		hidden := len(lines) - maxLines
		lines = append(lines[:maxLines:maxLines], fmt.Sprintf("[... %d lines hidden]", hidden))
	}
	joined := strings.Join(lines, "\n")
	if maxChars > 0 && xansi.StringWidth(joined) > maxChars {
		return truncate(joined, maxChars-18) + "\n[... truncated]"
	}
	return joined
}

// truncate cuts text to at most limit terminal cells without splitting a
// rune or a wide character.
func truncate(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if xansi.StringWidth(text) <= limit {
		return text
	}
	if limit <= 3 {
		return xansi.Truncate(text, limit, "")
	}
	return xansi.Truncate(text, limit-3, "") + "..."
}

func compactSingleLine(text string, limit int) string {
	return truncate(strings.Join(strings.Fields(text), " "), limit)
}

func nullCoalesce(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func clampInt(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
