// Package tui is the interactive terminal host for incident playback. It
// feeds keys and timers to the playback sequencer and carries out the
// effects it returns.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"incidentdemo/internal/clipboard"
	"incidentdemo/internal/playback"
	"incidentdemo/internal/scenario"
)

const (
	copyTimeout = 3 * time.Second
	maxLogLines = 50
)

type tabID int

const (
	tabPlayback tabID = iota
	tabPlan
	tabHelp
	tabCount
)

// ClipboardFunc writes text to a clipboard.
type ClipboardFunc func(ctx context.Context, text string) (clipboard.Method, error)

// Options configures the terminal host.
type Options struct {
	Source    string
	Logger    *zap.Logger
	Renderer  playback.Renderer
	Clipboard ClipboardFunc
	Clock     func() time.Time
}

type Model struct {
	source    string
	logger    *zap.Logger
	renderer  playback.Renderer
	clipboard ClipboardFunc
	clock     func() time.Time
	schedule  func(time.Duration, playback.Event) tea.Cmd

	seq     *playback.Sequencer
	state   playback.State
	options []scenario.Option

	ready       bool
	startupErr  error
	statusLine  string
	logs        []string
	activeTab   tabID
	cursor      int
	focusCard   int
	quitConfirm bool

	width  int
	height int

	cards   viewport.Model
	plan    viewport.Model
	spinner spinner.Model
	help    help.Model

	theme uiTheme
}

type loadDoneMsg struct {
	store *scenario.Store
	err   error
}

// eventMsg delivers a timed sequencer event.
type eventMsg struct {
	event playback.Event
}

type copyDoneMsg struct {
	target playback.Target
	method clipboard.Method
	err    error
}

func New(opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clip := opts.Clipboard
	if clip == nil {
		clip = clipboard.WriteContext
	}

	sp := spinner.New()
	sp.Spinner = spinner.Points
	sp.Style = lipgloss.NewStyle().Foreground(mint)

	cards := viewport.New(0, 0)
	cards.MouseWheelEnabled = true
	cards.MouseWheelDelta = 4
	plan := viewport.New(0, 0)
	plan.MouseWheelEnabled = true
	plan.MouseWheelDelta = 4

	return Model{
		source:     opts.Source,
		logger:     logger,
		renderer:   opts.Renderer,
		clipboard:  clip,
		clock:      opts.Clock,
		schedule:   tickEvent,
		statusLine: "loading scenarios...",
		logs:       []string{},
		activeTab:  tabPlayback,
		cards:      cards,
		plan:       plan,
		spinner:    sp,
		help:       help.New(),
		theme:      newTheme(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadCmd())
}

func (m Model) loadCmd() tea.Cmd {
	source := m.source
	return func() tea.Msg {
		store, err := scenario.Load(context.Background(), source)
		return loadDoneMsg{store: store, err: err}
	}
}

func tickEvent(delay time.Duration, ev playback.Event) tea.Cmd {
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return eventMsg{event: ev}
	})
}

func (m Model) copyCmd(target playback.Target, text string) tea.Cmd {
	write := m.clipboard
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), copyTimeout)
		defer cancel()
		method, err := write(ctx, text)
		return copyDoneMsg{target: target, method: method, err: err}
	}
}

func (m *Model) loaded(store *scenario.Store) {
	var opts []playback.Option
	if m.clock != nil {
		opts = append(opts, playback.WithClock(m.clock))
	}
	m.seq = playback.New(store, m.renderer, opts...)
	m.state = m.seq.Initial()
	m.options = store.Options()
	m.cursor = 0
	m.ready = true
	m.statusLine = fmt.Sprintf("ready · %d scenarios", store.Len())
	m.logger.Info("scenarios loaded", zap.String("source", store.Source()), zap.Int("count", store.Len()))
	m.appendLog(m.statusLine)
}

// apply runs ev through the sequencer and returns the commands for the
// resulting effects.
func (m *Model) apply(ev playback.Event) tea.Cmd {
	if m.seq == nil {
		return nil
	}
	next, effects := m.seq.Apply(m.state, ev)
	m.state = next
	m.syncCursor()
	m.focusCard = clampInt(m.focusCard, 0, maxInt(0, len(m.state.Cards)-1))
	cmds := m.perform(effects)
	m.renderPanes()
	return tea.Batch(cmds...)
}

func (m *Model) perform(effects []playback.Effect) []tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(effects))
	for _, effect := range effects {
		switch effect := effect.(type) {
		case playback.Wait:
			cmds = append(cmds, m.schedule(effect.Delay, effect.Then))
		case playback.WriteClipboard:
			cmds = append(cmds, m.copyCmd(effect.Target, effect.Text))
		case playback.StatusChanged:
			m.logger.Info("status changed",
				zap.String("from", string(effect.From)),
				zap.String("to", string(effect.To)),
				zap.String("scenario", m.state.SelectedID()),
			)
			m.statusLine = m.describeStatus(effect.To)
			m.appendLog(m.statusLine)
			if effect.To == playback.StatusCompleted && m.state.Plan != nil {
				m.logger.Debug("plan rendered", zap.String("severity", m.state.Plan.Severity), zap.Int("action_groups", len(m.state.Plan.Actions)))
			}
		case playback.StageChanged:
			m.logger.Debug("stage changed", zap.String("stage", string(effect.Stage)), zap.String("status", string(effect.Status)))
			if effect.Status == playback.StageActive {
				m.statusLine = effect.Stage.Label() + " agent working..."
			} else {
				m.appendLog(effect.Stage.Label() + " output received")
				m.focusCard = maxInt(0, len(m.state.Cards)-1)
			}
		}
	}
	return cmds
}

func (m *Model) describeStatus(status playback.Status) string {
	switch status {
	case playback.StatusProcessing:
		return "running " + nullCoalesce(m.state.SelectedID(), "scenario")
	case playback.StatusCompleted:
		return "response plan ready"
	default:
		return "reset · select a scenario"
	}
}

// syncCursor keeps the selector cursor on the selected scenario.
func (m *Model) syncCursor() {
	id := m.state.SelectedID()
	for idx, opt := range m.options {
		if opt.ID == id {
			m.cursor = idx
			return
		}
	}
	m.cursor = 0
}

func (m *Model) moveCursor(delta int) tea.Cmd {
	if !m.state.Controls().Select || len(m.options) == 0 {
		return nil
	}
	m.cursor = clampInt(m.cursor+delta, 0, len(m.options)-1)
	id := m.options[m.cursor].ID
	cmd := m.apply(playback.SelectScenario{ID: id})
	if m.state.Selected != nil {
		m.logger.Debug("scenario selected", zap.String("id", id))
		m.statusLine = "selected " + m.state.Selected.Name
	}
	return cmd
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case loadDoneMsg:
		if msg.err != nil {
			m.startupErr = msg.err
			m.statusLine = "startup failed"
			m.logger.Error("scenario load failed", zap.String("source", m.source), zap.Error(msg.err))
			m.logError(msg.err)
			return m, nil
		}
		m.loaded(msg.store)
		m.renderPanes()
	case eventMsg:
		cmds = append(cmds, m.apply(msg.event))
	case copyDoneMsg:
		if msg.err != nil {
			m.logger.Warn("clipboard write failed", zap.Error(msg.err))
			m.logError(msg.err)
		} else {
			m.logger.Debug("copied to clipboard", zap.Stringer("method", msg.method))
			m.statusLine = "copied via " + msg.method.String()
		}
		cmds = append(cmds, m.apply(playback.CopyFinished{Target: msg.target, Err: msg.err}))
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = maxInt(20, m.width-8)
		m.renderPanes()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.state.Controls().Spinner {
			m.renderPanes()
		}
		cmds = append(cmds, cmd)
	case tea.MouseMsg:
		if m.startupErr != nil || m.quitConfirm {
			break
		}
		var cmd tea.Cmd
		switch m.activeTab {
		case tabPlayback:
			m.cards, cmd = m.cards.Update(msg)
		case tabPlan:
			m.plan, cmd = m.plan.Update(msg)
		}
		cmds = append(cmds, cmd)
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.startupErr != nil {
			if key.Matches(msg, keys.Quit) {
				return m, tea.Quit
			}
			return m, nil
		}
		if m.quitConfirm {
			switch msg.String() {
			case "y", "Y", "enter":
				return m, tea.Quit
			case "n", "N", "esc":
				m.quitConfirm = false
				m.statusLine = "quit canceled"
			}
			return m, nil
		}
		cmds = append(cmds, m.handleKey(msg))
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, keys.Quit):
		m.beginQuitConfirm()
		return nil
	case key.Matches(msg, keys.Tab):
		if msg.String() == "shift+tab" {
			m.activeTab = (m.activeTab + tabCount - 1) % tabCount
		} else {
			m.activeTab = (m.activeTab + 1) % tabCount
		}
		m.renderPanes()
		return nil
	}
	if !m.ready {
		return nil
	}

	pane := &m.cards
	if m.activeTab == tabPlan {
		pane = &m.plan
	}
	switch {
	case key.Matches(msg, keys.ScrollUp):
		pane.LineUp(8)
	case key.Matches(msg, keys.ScrollDn):
		pane.LineDown(8)
	case m.activeTab != tabPlayback:
		return nil
	case key.Matches(msg, keys.Up):
		return m.moveCursor(-1)
	case key.Matches(msg, keys.Down):
		return m.moveCursor(1)
	case key.Matches(msg, keys.Run):
		if !m.state.Controls().Run {
			return nil
		}
		return m.apply(playback.StartRun{})
	case key.Matches(msg, keys.Reset):
		return m.apply(playback.Reset{})
	case key.Matches(msg, keys.NextCard):
		m.focusCard = clampInt(m.focusCard+1, 0, maxInt(0, len(m.state.Cards)-1))
		m.renderPanes()
	case key.Matches(msg, keys.PrevCard):
		m.focusCard = clampInt(m.focusCard-1, 0, maxInt(0, len(m.state.Cards)-1))
		m.renderPanes()
	case key.Matches(msg, keys.Details):
		return m.apply(playback.ToggleDetails{Target: playback.CardTarget(m.state, m.focusCard)})
	case key.Matches(msg, keys.CopyCard):
		return m.apply(playback.CopyRequested{Target: playback.CardTarget(m.state, m.focusCard)})
	case key.Matches(msg, keys.CopyIn):
		return m.apply(playback.CopyRequested{Target: playback.PreviewTarget(m.state)})
	}
	return nil
}

func (m *Model) beginQuitConfirm() {
	m.quitConfirm = true
	m.statusLine = "ARE YOU SURE YOU WANT TO QUIT?"
}

// State exposes the current playback state.
func (m Model) State() playback.State {
	return m.state
}

func (m *Model) appendLog(line string) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return
	}
	m.logs = append(m.logs, fmt.Sprintf("%s %s", time.Now().Format("15:04:05"), compactSingleLine(trimmed, 220)))
	if len(m.logs) > maxLogLines {
		m.logs = m.logs[len(m.logs)-maxLogLines:]
	}
}

func (m *Model) logError(err error) {
	if err == nil {
		return
	}
	m.appendLog("error: " + err.Error())
	m.statusLine = "error: " + compactSingleLine(err.Error(), 160)
}
