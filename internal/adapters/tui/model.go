// Package tui provides the terminal user interface implementation
// using the Bubbletea framework.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/devnotmax/studify/internal/domain"
	"github.com/devnotmax/studify/internal/ports"
)

// tickInterval is how often the screen re-reads the controller.
const tickInterval = 500 * time.Millisecond

// tickMsg is sent on every timer tick.
type tickMsg time.Time

// actionMsg reports the outcome of a controller call.
type actionMsg struct {
	action string
	err    error
}

// insightsMsg carries freshly fetched stats and streak.
type insightsMsg struct {
	stats  *domain.StatsView
	streak *domain.StreakView
}

// Model represents the TUI state.
type Model struct {
	ctx      context.Context
	control  ports.SessionControl
	insights ports.InsightsProvider
	theme    Theme

	snap   domain.Snapshot
	stats  *domain.StatsView
	streak *domain.StreakView
	width  int
	height int

	// results last seen, used to notice completions the engine drove
	seenResults *domain.SessionResults

	confirmCancel bool
	confirmForce  bool
	pending       string
	actionErr     error
	retry         tea.Cmd
}

// NewModel creates a new TUI model over a session controller. insights may be nil.
func NewModel(ctx context.Context, control ports.SessionControl, insights ports.InsightsProvider, theme Theme) Model {
	snap := control.Snapshot()
	return Model{
		ctx:         ctx,
		control:     control,
		insights:    insights,
		theme:       theme,
		snap:        snap,
		seenResults: snap.Results,
	}
}

// Init initializes the TUI.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), m.fetchInsights())
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		cmd := m.sync()
		return m, tea.Batch(tickCmd(), cmd)

	case actionMsg:
		return m.onAction(msg)

	case insightsMsg:
		if msg.stats != nil {
			m.stats = msg.stats
		}
		if msg.streak != nil {
			m.streak = msg.streak
		}
		return m, nil

	case tea.KeyMsg:
		return m.onKey(msg)
	}
	return m, nil
}

func (m Model) onKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" || key == "q" {
		return m, tea.Quit
	}

	if m.confirmCancel {
		m.confirmCancel = false
		if key == "y" {
			return m.dispatch("cancel", func(ctx context.Context) error {
				return m.control.Cancel(ctx, ports.Confirmed)
			})
		}
		return m, nil
	}
	if m.confirmForce {
		m.confirmForce = false
		if key == "f" {
			return m.dispatch("end", func(ctx context.Context) error {
				return m.control.Complete(ctx, true)
			})
		}
		m.actionErr = nil
		return m, nil
	}

	switch key {
	case "esc":
		m.actionErr = nil
		m.retry = nil
	case "s", "enter":
		if m.snap.State == domain.StateIdle {
			return m.start("")
		}
	case "1", "2", "3":
		if m.snap.State == domain.StateIdle {
			return m.start(domain.Modes[key[0]-'1'])
		}
	case "p", " ":
		switch m.snap.State {
		case domain.StateRunning:
			return m.dispatch("pause", m.control.Pause)
		case domain.StatePaused:
			return m.dispatch("resume", m.control.Resume)
		}
	case "e":
		if m.snap.State.HasSession() {
			return m.dispatch("end", func(ctx context.Context) error {
				return m.control.Complete(ctx, false)
			})
		}
	case "x":
		if m.snap.State.HasSession() {
			m.confirmCancel = true
		}
	case "d":
		if m.snap.ShowResults {
			m.control.DismissResults()
			m.snap = m.control.Snapshot()
			m.seenResults = m.snap.Results
		}
	case "r":
		if m.retry != nil && domain.Retryable(m.actionErr) {
			retry := m.retry
			m.actionErr = nil
			return m, retry
		}
		return m.dispatch("refresh", m.control.Refresh)
	}
	return m, nil
}

func (m Model) start(mode domain.Mode) (tea.Model, tea.Cmd) {
	if m.snap.ShowResults {
		m.control.DismissResults()
	}
	return m.dispatch("start", func(ctx context.Context) error {
		return m.control.Start(ctx, mode)
	})
}

// dispatch runs fn off the UI goroutine and reports back with an actionMsg.
func (m Model) dispatch(action string, fn func(ctx context.Context) error) (tea.Model, tea.Cmd) {
	ctx := m.ctx
	cmd := func() tea.Msg {
		return actionMsg{action: action, err: fn(ctx)}
	}
	m.pending = action
	m.actionErr = nil
	m.retry = cmd
	return m, cmd
}

func (m Model) onAction(msg actionMsg) (tea.Model, tea.Cmd) {
	m.pending = ""
	m.actionErr = msg.err
	if msg.err == nil {
		m.retry = nil
	}
	if errors.Is(msg.err, domain.ErrTimeRemaining) {
		m.confirmForce = true
	}
	if errors.Is(msg.err, domain.ErrCancelNotConfirmed) {
		m.actionErr = nil
	}

	cmd := m.sync()
	if msg.err == nil && (msg.action == "cancel" || msg.action == "refresh") && cmd == nil {
		cmd = m.fetchInsights()
	}
	return m, cmd
}

// sync re-reads the controller and fetches insights after a completion.
func (m *Model) sync() tea.Cmd {
	m.snap = m.control.Snapshot()
	if m.snap.Results != nil && m.snap.Results != m.seenResults {
		m.seenResults = m.snap.Results
		return m.fetchInsights()
	}
	return nil
}

func (m Model) fetchInsights() tea.Cmd {
	if m.insights == nil {
		return nil
	}
	ctx := m.ctx
	insights := m.insights
	return func() tea.Msg {
		var msg insightsMsg
		if stats, err := insights.Stats(ctx); err == nil {
			msg.stats = &stats
		}
		if streak, err := insights.Streak(ctx); err == nil {
			msg.streak = &streak
		}
		return msg
	}
}

// View renders the TUI.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var sections []string
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.ColorTitle)).MarginBottom(1)
	title := "📚 studify"
	if m.snap.Owner != "" {
		title += " · " + m.snap.Owner
	}
	sections = append(sections, titleStyle.Render(title))

	if m.snap.ShowResults && m.snap.Results != nil {
		sections = m.viewResults(sections)
	}

	if m.snap.Session != nil {
		sections = m.viewActiveSession(sections)
	} else {
		sections = m.viewIdle(sections)
	}

	sections = m.viewFooter(sections)

	content := lipgloss.JoinVertical(lipgloss.Center, sections...)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m Model) viewResults(sections []string) []string {
	results := m.snap.Results
	reward := m.theme.style(m.theme.ColorReward).Bold(true)
	help := m.theme.style(m.theme.ColorHelp)

	if s := results.Session; s != nil {
		if s.Kind == domain.KindFocus {
			sections = append(sections, reward.Render(fmt.Sprintf("🍅 Focus session complete! %s studied", domain.FormatClock(s.Completed))))
		} else {
			sections = append(sections, reward.Render("☕ Break over!"))
		}
	}
	if results.Streak != nil && results.Streak.Current > 0 {
		sections = append(sections, reward.Render(fmt.Sprintf("%s %d-day streak", domain.StreakEmoji(results.Streak.Current), results.Streak.Current)))
	}
	for _, a := range results.NewAchievements {
		line := "🏆 " + a.Name
		if a.Description != "" {
			line += " · " + a.Description
		}
		sections = append(sections, reward.Render(line))
	}
	sections = append(sections, help.Render("[d]ismiss"), "")
	return sections
}

func (m Model) viewActiveSession(sections []string) []string {
	session := m.snap.Session
	paused := m.snap.State == domain.StatePaused
	color := m.kindColor(session.Kind)
	if paused {
		color = m.theme.ColorPaused
	}
	statusStyle := m.theme.style(color)
	help := m.theme.style(m.theme.ColorHelp)

	sections = append(sections, statusStyle.Render(fmt.Sprintf("%s · %s", session.Kind.Label(), m.stateLabel())))
	sections = append(sections, "")
	sections = append(sections, bigClock(m.snap.Clock(), lipgloss.Color(color), m.width))

	if paused {
		badge := lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color(m.theme.ColorPaused)).
			Padding(0, 1).
			Render("⏸ PAUSED")
		sections = append(sections, "", badge)
	}

	gradient := m.theme.FocusGradient
	switch {
	case paused:
		gradient = m.theme.PausedGradient
	case session.Kind != domain.KindFocus:
		gradient = m.theme.BreakGradient
	}
	bar := progress.New(progress.WithGradient(gradient[0], gradient[1]))
	bar.Width = m.barWidth()
	sections = append(sections, "", bar.ViewAs(m.snap.Progress/100))

	sections = append(sections, "")
	switch {
	case m.confirmCancel:
		sections = append(sections, help.Render("Cancel this session? Progress will not be saved. [y]es  [any key] no"))
	case m.confirmForce:
		sections = append(sections, help.Render(fmt.Sprintf("%s left. [f]inish early  [any key] keep going", m.snap.Clock())))
	default:
		pause := "[p]ause"
		if paused {
			pause = "[p]resume"
		}
		sections = append(sections, help.Render(pause+"  [e]nd  [x] cancel  [r]efresh  [q]uit"))
	}
	return sections
}

func (m Model) viewIdle(sections []string) []string {
	idle := m.theme.style(m.theme.ColorPaused)
	help := m.theme.style(m.theme.ColorHelp)

	sections = append(sections, idle.Render("No active session"))
	if kind, err := m.snap.Mode.Kind(); err == nil {
		sections = append(sections, help.Render("Next: "+kind.Label()))
	}
	sections = append(sections, "")
	sections = append(sections, help.Render("[s]tart  [1] focus  [2] short break  [3] long break  [r]efresh  [q]uit"))
	return sections
}

func (m Model) viewFooter(sections []string) []string {
	help := m.theme.style(m.theme.ColorHelp)

	var stats []string
	if m.stats != nil {
		stats = append(stats, fmt.Sprintf("Today %d/%d (%.0f%%)", m.stats.Counts.Today, m.stats.Goal, m.stats.Progress))
	}
	if m.streak != nil && !m.streak.Empty {
		stats = append(stats, fmt.Sprintf("%s %d-day streak", m.streak.Emoji, m.streak.Current))
	}
	if len(stats) > 0 {
		sections = append(sections, "", help.Render(strings.Join(stats, "  ·  ")))
	}

	if busy := m.busyLabel(); busy != "" {
		sections = append(sections, "", help.Render(busy+"..."))
	}

	err := m.actionErr
	if err == nil {
		err = m.snap.LastError
	}
	if err != nil && !m.confirmForce {
		line := domain.UserMessage(err)
		if domain.Retryable(err) {
			line += "  [r]etry"
		}
		sections = append(sections, "", m.theme.style(m.theme.ColorError).Render(line))
	}
	return sections
}

func (m Model) busyLabel() string {
	if m.snap.Busy != "" {
		return m.snap.Busy
	}
	return m.pending
}

func (m Model) stateLabel() string {
	switch m.snap.State {
	case domain.StateEnding:
		return "ending"
	case domain.StateCancelling:
		return "cancelling"
	case domain.StatePaused:
		return "paused"
	}
	return "running"
}

func (m Model) kindColor(kind domain.SessionKind) string {
	if kind == domain.KindFocus {
		return m.theme.ColorFocus
	}
	return m.theme.ColorBreak
}

func (m Model) barWidth() int {
	w := m.width - 4
	if w > 60 {
		w = 60
	}
	if w < 10 {
		w = 10
	}
	return w
}

// tickCmd creates a command that sends a tick message.
func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
