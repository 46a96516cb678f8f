package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"incidentdemo/internal/playback"
	"incidentdemo/internal/render"
)

const sidebarWidth = 38

func (m Model) View() string {
	if m.startupErr != nil {
		errorPanel := m.theme.panel.
			Width(maxInt(20, m.width-4)).
			Render(
				m.theme.panelTitle.Render("Incident Demo Startup Failed") + "\n\n" +
					m.theme.errorStatus.Render(m.startupErr.Error()) + "\n\n" +
					m.theme.helpText.Render("Press q or Ctrl+C to exit."),
			)
		return m.theme.root.Render(errorPanel)
	}
	out := lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), m.renderContent(), m.renderFooter())
	if m.quitConfirm {
		out = m.renderQuitModal()
	}
	return m.theme.root.Render(out)
}

func (m *Model) renderHeader() string {
	tabs := []struct {
		id    tabID
		label string
	}{
		{tabPlayback, "Playback"},
		{tabPlan, "Response Plan"},
		{tabHelp, "Help"},
	}
	segments := make([]string, 0, len(tabs)+1)
	for _, tab := range tabs {
		style := m.theme.tabInactive
		if tab.id == m.activeTab {
			style = m.theme.tabActive
		}
		segments = append(segments, style.Render(tab.label))
	}
	meta := fmt.Sprintf(" Status: %s · Scenario: %s", m.state.Status, nullCoalesce(m.state.SelectedID(), "none"))
	if m.state.Controls().Spinner {
		meta += " " + m.spinner.View()
	}
	segments = append(segments, m.theme.helpText.Render(meta))
	joined := lipgloss.JoinHorizontal(lipgloss.Left, segments...)
	return m.theme.header.Width(maxInt(20, m.width-4)).Render(joined)
}

func (m *Model) renderContent() string {
	contentHeight := maxInt(8, m.height-10)
	contentWidth := maxInt(40, m.width-4)

	switch m.activeTab {
	case tabPlayback:
		leftWidth, rightWidth := paneWidths(contentWidth)
		left := m.theme.panel.Width(leftWidth).Height(contentHeight).Render(m.renderSidebar(leftWidth - 4))
		right := m.theme.panel.Width(rightWidth).Height(contentHeight).Render(
			m.theme.panelTitle.Render("Agent Outputs") + "\n" + m.cards.View(),
		)
		return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	case tabPlan:
		panel := m.theme.panel.Width(contentWidth).Height(contentHeight)
		return panel.Render(m.theme.panelTitle.Render(render.PlanTitle) + "\n" + m.plan.View())
	case tabHelp:
		panel := m.theme.panel.Width(contentWidth).Height(contentHeight)
		return panel.Render(m.theme.panelTitle.Render("Incident Demo Help") + "\n" + m.renderHelp())
	default:
		return ""
	}
}

func paneWidths(contentWidth int) (int, int) {
	left := minInt(sidebarWidth, contentWidth/2)
	return left, contentWidth - left - 1
}

func (m *Model) renderSidebar(width int) string {
	controls := m.state.Controls()
	lines := []string{m.theme.panelTitle.Render("Scenario")}
	for idx, opt := range m.options {
		label := truncate(opt.Label, maxInt(8, width-4))
		switch {
		case idx == m.cursor && controls.Select:
			lines = append(lines, m.theme.optionSelected.Render(label))
		case idx == m.cursor:
			lines = append(lines, m.theme.optionLocked.Render("› "+label))
		case controls.Select:
			lines = append(lines, m.theme.option.Render("  "+label))
		default:
			lines = append(lines, m.theme.optionLocked.Render("  "+label))
		}
	}

	lines = append(lines, "", m.renderButtons(controls), "", m.theme.panelTitle.Render("Agent Pipeline"))
	for _, stage := range playback.Stages {
		status := m.state.StageStatus(stage)
		line := fmt.Sprintf("%s %s", status.Icon(), stage.Label())
		if status == playback.StageActive {
			line += " " + m.spinner.View()
		}
		lines = append(lines, styleFor(m.theme.stage, string(status), m.theme.helpText).Render(line))
	}

	if preview := m.state.Preview; preview != nil {
		lines = append(lines, "",
			m.theme.panelTitle.Render("Incident Input")+"  "+m.renderButton("[y] "+preview.Copy.Label(), preview.Copy.Copied),
			m.theme.detail.Render(compactTimelineMessage(preview.Text, 14, 900)),
		)
	}

	if len(m.logs) > 0 {
		start := maxInt(0, len(m.logs)-5)
		lines = append(lines, "", m.theme.panelTitle.Render("Activity"))
		for _, line := range m.logs[start:] {
			lines = append(lines, m.theme.helpText.Render(truncate(line, maxInt(10, width))))
		}
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderButtons(controls playback.Controls) string {
	run := m.theme.helpText.Render("[r] Run")
	if controls.Run {
		run = m.theme.pick.Render("[r] Run")
	}
	if controls.Spinner {
		run = m.theme.accent.Render(m.spinner.View() + " Processing...")
	}
	reset := m.theme.helpText.Render("[x] Reset")
	if controls.Reset {
		reset = m.theme.pick.Render("[x] Reset")
	}
	return run + "   " + reset
}

func (m *Model) renderButton(label string, done bool) string {
	if done {
		return m.theme.buttonDone.Render(label)
	}
	return m.theme.button.Render(label)
}

// renderCard lays out one agent card for a pane of the given inner width.
func (m *Model) renderCard(card render.Card, width int, focused bool) string {
	inner := maxInt(20, width-4)
	badge := styleFor(m.theme.badge, card.StatusStyle, m.theme.badgeOther).Render(card.StatusText)
	head := m.theme.agentName.Render(nullCoalesce(card.AgentName, card.AgentType)) + " " + badge
	stamp := m.theme.helpText.Render(card.Timestamp)
	gap := maxInt(1, inner-lipgloss.Width(head)-lipgloss.Width(stamp))
	lines := []string{
		head + strings.Repeat(" ", gap) + stamp,
		m.theme.helpText.Render(strings.ToUpper(card.AgentType) + " AGENT"),
		"",
		wrapText(card.Reasoning, inner),
		"",
		m.renderConfidence(card, inner),
	}
	if card.Escalation {
		banner := "⚠ Escalation required"
		if strings.TrimSpace(card.EscalationReason) != "" {
			banner += ": " + card.EscalationReason
		}
		lines = append(lines, "", m.theme.escalation.Width(inner).Render(wrapText(banner, inner-2)))
	}
	lines = append(lines, "",
		m.renderButton("[d] "+card.ToggleLabel(), false)+"   "+m.renderButton("[c] "+card.Copy.Label(), card.Copy.Copied),
	)
	if card.Expanded {
		lines = append(lines, "", m.theme.detail.Render(card.Detail))
	}

	style := m.theme.card
	if focused {
		style = m.theme.cardFocused
	}
	return style.Width(maxInt(20, width-2)).Render(strings.Join(lines, "\n"))
}

func (m *Model) renderConfidence(card render.Card, width int) string {
	label := fmt.Sprintf(" %d%%", card.ConfidencePercent)
	barWidth := maxInt(10, width-len("Confidence ")-len(label))
	fill := card.FillWidth(barWidth)
	band := styleFor(m.theme.band, string(card.Band), m.theme.helpText)
	return "Confidence " +
		band.Render(strings.Repeat("█", fill)) +
		m.theme.barEmpty.Render(strings.Repeat("░", barWidth-fill)) +
		band.Render(label)
}

func (m *Model) renderCards(width int) string {
	if len(m.state.Cards) == 0 {
		switch {
		case m.state.Controls().Spinner:
			return m.theme.helpText.Render(m.spinner.View() + " waiting for the monitoring agent...")
		case m.state.Selected == nil:
			return m.theme.helpText.Render("Select a scenario with ↑/↓, then press r to run it.")
		default:
			return m.theme.helpText.Render("Press r to run " + m.state.Selected.Name + ".")
		}
	}
	blocks := make([]string, 0, len(m.state.Cards)+1)
	for idx, card := range m.state.Cards {
		blocks = append(blocks, m.renderCard(card, width, idx == m.focusCard))
	}
	if m.state.Plan != nil {
		blocks = append(blocks, m.renderPlan(width))
	}
	return strings.Join(blocks, "\n")
}

func (m *Model) renderPlan(width int) string {
	plan := m.state.Plan
	if plan == nil {
		if m.state.Controls().Spinner {
			return m.theme.helpText.Render(m.spinner.View() + " the response plan appears when the run completes.")
		}
		return m.theme.helpText.Render("No response plan yet. Run a scenario from the Playback tab.")
	}
	badge := ""
	if plan.Severity != "" {
		badge = styleFor(m.theme.severity, plan.SeverityStyle, m.theme.badgeOther).Render(plan.Severity) + " "
	}
	header := badge + m.theme.helpText.Render(plan.RenderedAt)
	return header + "\n" + render.Terminal(plan.Body(), maxInt(20, width-2))
}

func (m *Model) renderFooter() string {
	contentWidth := maxInt(40, m.width-4)
	statusStyle := m.theme.status
	lower := strings.ToLower(m.statusLine)
	if strings.Contains(lower, "failed") || strings.Contains(lower, "error") {
		statusStyle = m.theme.errorStatus
	}
	line := statusStyle.Render(compactSingleLine(m.statusLine, 180))
	return m.theme.footer.Width(contentWidth).Render(line + "\n" + m.help.View(keys))
}

func (m *Model) renderHelp() string {
	lines := []string{
		"Playback",
		"- ↑/↓ or k/j: pick a scenario (only while idle)",
		"- Enter or r: run the selected scenario",
		"- x: reset once the run has completed",
		"- [ and ]: move between agent cards",
		"- d: show or hide the raw record of the focused card",
		"- c: copy the focused card's record as JSON",
		"- y: copy the scenario input as JSON",
		"- PgUp/PgDn: scroll the current pane",
		"- Tab / Shift+Tab: switch views",
		"- q or Esc: quit prompt · Ctrl+C: quit",
		"",
		"Run order",
		"- Monitoring (1.5s), Analysis (1s), Response (1s), then the response plan (0.5s)",
		"- Confidence bars: above 80% high, 60-80% medium, below 60% low",
		"- Reset is ignored while a run is in progress",
		"",
		"Source: " + nullCoalesce(m.source, "(none)"),
	}
	return m.theme.helpText.Render(strings.Join(lines, "\n"))
}

func (m *Model) renderQuitModal() string {
	canvasWidth := maxInt(40, m.width-4)
	canvasHeight := maxInt(12, m.height-4)
	modalWidth := clampInt(int(float64(canvasWidth)*0.56), 32, 78)
	if modalWidth > canvasWidth-2 {
		modalWidth = canvasWidth - 2
	}

	body := strings.Join([]string{
		m.theme.errorStatus.Render("END DEMO?"),
		m.theme.helpText.Render("Are you sure you want to quit the incident demo?"),
		"",
		m.theme.pick.Render("[Y / Enter] Quit") + "    " + m.theme.helpText.Render("[N / Esc] Return"),
	}, "\n")
	panel := m.theme.modalFrame.Width(modalWidth).Render(body)
	return lipgloss.Place(
		canvasWidth,
		canvasHeight,
		lipgloss.Center,
		lipgloss.Center,
		panel,
		lipgloss.WithWhitespaceBackground(bg),
	)
}

// renderPanes refreshes viewport contents, keeping the scroll position
// unless the pane was already at the bottom.
func (m *Model) renderPanes() {
	contentHeight := maxInt(8, m.height-10)
	contentWidth := maxInt(40, m.width-4)
	_, rightWidth := paneWidths(contentWidth)

	prevCardsOffset := m.cards.YOffset
	prevCardsAtBottom := m.cards.AtBottom()
	m.cards.Width = maxInt(20, rightWidth-4)
	m.cards.Height = maxInt(5, contentHeight-3)
	m.cards.SetContent(m.renderCards(m.cards.Width))
	if prevCardsAtBottom {
		m.cards.GotoBottom()
	} else {
		m.cards.SetYOffset(prevCardsOffset)
	}

	m.plan.Width = maxInt(20, contentWidth-4)
	m.plan.Height = maxInt(5, contentHeight-3)
	m.plan.SetContent(m.renderPlan(m.plan.Width))
}
