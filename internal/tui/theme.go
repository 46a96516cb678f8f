package tui

import "github.com/charmbracelet/lipgloss"

var (
	pink    = lipgloss.Color("#ff71ce")
	blue    = lipgloss.Color("#01cdfe")
	mint    = lipgloss.Color("#05ffa1")
	amber   = lipgloss.Color("#ffd166")
	bg      = lipgloss.Color("#120924")
	panelBg = lipgloss.Color("#1b0f35")
	text    = lipgloss.Color("#f3f3ff")
	muted   = lipgloss.Color("#9ca3d8")
	ink     = lipgloss.Color("#22062f")
)

type uiTheme struct {
	root        lipgloss.Style
	header      lipgloss.Style
	tabActive   lipgloss.Style
	tabInactive lipgloss.Style
	panel       lipgloss.Style
	panelTitle  lipgloss.Style
	footer      lipgloss.Style
	status      lipgloss.Style
	errorStatus lipgloss.Style
	helpText    lipgloss.Style
	modalFrame  lipgloss.Style
	accent      lipgloss.Style
	pick        lipgloss.Style

	option         lipgloss.Style
	optionSelected lipgloss.Style
	optionLocked   lipgloss.Style

	stage map[string]lipgloss.Style

	card        lipgloss.Style
	cardFocused lipgloss.Style
	agentName   lipgloss.Style
	badge       map[string]lipgloss.Style
	badgeOther  lipgloss.Style
	band        map[string]lipgloss.Style
	barEmpty    lipgloss.Style
	escalation  lipgloss.Style
	button      lipgloss.Style
	buttonDone  lipgloss.Style
	detail      lipgloss.Style

	severity map[string]lipgloss.Style
}

func newTheme() uiTheme {
	return uiTheme{
		root: lipgloss.NewStyle().
			Background(bg).
			Foreground(text).
			Padding(0, 1),
		header: lipgloss.NewStyle().
			Background(panelBg).
			Foreground(text).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(blue).
			Padding(0, 1),
		tabActive: lipgloss.NewStyle().
			Background(pink).
			Foreground(ink).
			Bold(true).
			Padding(0, 1),
		tabInactive: lipgloss.NewStyle().
			Background(lipgloss.Color("#2a184a")).
			Foreground(muted).
			Padding(0, 1),
		panel: lipgloss.NewStyle().
			Background(panelBg).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(blue).
			Padding(0, 1),
		panelTitle: lipgloss.NewStyle().
			Foreground(mint).
			Bold(true),
		footer: lipgloss.NewStyle().
			Background(panelBg).
			Foreground(muted).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(pink).
			Padding(0, 1),
		status:      lipgloss.NewStyle().Foreground(blue).Bold(true),
		errorStatus: lipgloss.NewStyle().Foreground(pink).Bold(true),
		helpText:    lipgloss.NewStyle().Foreground(muted),
		modalFrame: lipgloss.NewStyle().
			Background(panelBg).
			BorderStyle(lipgloss.ThickBorder()).
			BorderForeground(blue).
			Padding(1, 2),
		accent: lipgloss.NewStyle().Foreground(mint).Bold(true),
		pick:   lipgloss.NewStyle().Foreground(pink).Bold(true),

		option: lipgloss.NewStyle().Foreground(text),
		optionSelected: lipgloss.NewStyle().
			Foreground(ink).
			Background(pink).
			Bold(true).
			Padding(0, 1),
		optionLocked: lipgloss.NewStyle().Foreground(muted),

		stage: map[string]lipgloss.Style{
			"pending":   lipgloss.NewStyle().Foreground(muted),
			"active":    lipgloss.NewStyle().Foreground(amber).Bold(true),
			"completed": lipgloss.NewStyle().Foreground(mint).Bold(true),
		},

		card: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3b2a66")).
			Padding(0, 1),
		cardFocused: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(pink).
			Padding(0, 1),
		agentName: lipgloss.NewStyle().Foreground(blue).Bold(true),
		badge: map[string]lipgloss.Style{
			"success":      lipgloss.NewStyle().Foreground(ink).Background(mint).Bold(true).Padding(0, 1),
			"needs_review": lipgloss.NewStyle().Foreground(ink).Background(amber).Bold(true).Padding(0, 1),
			"failed":       lipgloss.NewStyle().Foreground(ink).Background(pink).Bold(true).Padding(0, 1),
		},
		badgeOther: lipgloss.NewStyle().Foreground(ink).Background(muted).Bold(true).Padding(0, 1),
		band: map[string]lipgloss.Style{
			"high":   lipgloss.NewStyle().Foreground(mint),
			"medium": lipgloss.NewStyle().Foreground(amber),
			"low":    lipgloss.NewStyle().Foreground(pink),
		},
		barEmpty:   lipgloss.NewStyle().Foreground(lipgloss.Color("#3b2a66")),
		escalation: lipgloss.NewStyle().Foreground(ink).Background(amber).Bold(true).Padding(0, 1),
		button:     lipgloss.NewStyle().Foreground(blue),
		buttonDone: lipgloss.NewStyle().Foreground(mint).Bold(true),
		detail:     lipgloss.NewStyle().Foreground(muted),

		severity: map[string]lipgloss.Style{
			"critical": lipgloss.NewStyle().Foreground(text).Background(lipgloss.Color("#b3003c")).Bold(true).Padding(0, 1),
			"high":     lipgloss.NewStyle().Foreground(ink).Background(pink).Bold(true).Padding(0, 1),
			"medium":   lipgloss.NewStyle().Foreground(ink).Background(amber).Bold(true).Padding(0, 1),
			"low":      lipgloss.NewStyle().Foreground(ink).Background(mint).Bold(true).Padding(0, 1),
		},
	}
}

// styleFor returns the style registered under tag, or fallback.
func styleFor(styles map[string]lipgloss.Style, tag string, fallback lipgloss.Style) lipgloss.Style {
	if style, ok := styles[tag]; ok {
		return style
	}
	return fallback
}
