package tui

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/term"
	"github.com/devnotmax/studify/internal/domain"
	"github.com/devnotmax/studify/internal/ports"
)

// Timer runs the interactive watch screen.
type Timer struct {
	control  ports.SessionControl
	insights ports.InsightsProvider
	theme    Theme

	mu      sync.Mutex
	program *tea.Program
}

// NewTimer creates a new TUI timer adapter.
func NewTimer(control ports.SessionControl, insights ports.InsightsProvider) *Timer {
	return &Timer{
		control:  control,
		insights: insights,
		theme:    DefaultTheme(),
	}
}

// Run starts the timer interface and blocks until the user quits or ctx ends.
func (t *Timer) Run(ctx context.Context) error {
	model := NewModel(ctx, t.control, t.insights, t.theme)

	t.mu.Lock()
	t.program = tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	program := t.program
	t.mu.Unlock()

	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// Stop gracefully stops the timer interface.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.program != nil {
		t.program.Quit()
	}
}

// IsInteractive reports whether stdout is a terminal the watch screen can use.
func IsInteractive() bool {
	return term.IsTerminal(os.Stdout.Fd())
}

// ShowStatus prints the current session without starting interactive mode.
func ShowStatus(w io.Writer, snap domain.Snapshot) {
	if snap.Session == nil {
		fmt.Fprintln(w, "No active study session.")
		if kind, err := snap.Mode.Kind(); err == nil {
			fmt.Fprintf(w, "   Next: %s\n", kind.Label())
		}
	} else {
		session := snap.Session
		fmt.Fprintf(w, "📚 Active %s Session\n", session.Kind.Label())
		fmt.Fprintf(w, "   Status: %s\n", session.StatusLabel())
		fmt.Fprintf(w, "   Remaining: %s\n", snap.Clock())
		fmt.Fprintf(w, "   Progress: %s %.0f%%\n", progressBar(snap.Progress, statusBarWidth()), snap.Progress)
		fmt.Fprintf(w, "   Started: %s\n", session.StartTime.Local().Format("15:04"))
	}

	if snap.ShowResults && snap.Results != nil && snap.Results.Session != nil {
		fmt.Fprintf(w, "\nLast session: %s, %s studied\n",
			snap.Results.Session.Kind.Label(), domain.FormatClock(snap.Results.Session.Completed))
	}
	if snap.LastError != nil {
		fmt.Fprintf(w, "\nLast error: %s\n", domain.UserMessage(snap.LastError))
	}
}

// statusBarWidth sizes the inline progress bar to the terminal.
func statusBarWidth() int {
	w, _, err := term.GetSize(os.Stdout.Fd())
	if err != nil || w <= 0 {
		return 20
	}
	w = w / 3
	if w > 40 {
		w = 40
	}
	if w < 10 {
		w = 10
	}
	return w
}

// progressBar renders percent (0..100) as a plain text bar.
func progressBar(percent float64, width int) string {
	filled := int(percent / 100 * float64(width))
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}
	bar := make([]rune, width)
	for i := range bar {
		if i < filled {
			bar[i] = '█'
		} else {
			bar[i] = '░'
		}
	}
	return string(bar)
}
