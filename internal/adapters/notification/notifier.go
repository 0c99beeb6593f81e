// Package notification provides desktop notification utilities.
package notification

import (
	"fmt"
	"strings"

	"github.com/devnotmax/studify/internal/config"
	"github.com/devnotmax/studify/internal/domain"
	"github.com/gen2brain/beeep"
)

// Notifier handles desktop notifications.
type Notifier struct {
	cfg    config.NotificationConfig
	notify func(title, message string) error
	beep   func() error
}

// New creates a new notifier with the given configuration.
func New(cfg config.NotificationConfig) *Notifier {
	return &Notifier{
		cfg:    cfg,
		notify: func(title, message string) error { return beeep.Notify(title, message, "") },
		beep:   func() error { return beeep.Beep(beeep.DefaultFreq, beeep.DefaultDuration) },
	}
}

// Notify displays a desktop notification if enabled.
func (n *Notifier) Notify(title, message string) error {
	if !n.cfg.Enabled {
		return nil
	}
	if err := n.notify(title, message); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	if n.cfg.Sound {
		if err := n.beep(); err != nil {
			return fmt.Errorf("failed to beep: %w", err)
		}
	}
	return nil
}

// NotifySessionComplete announces a finished session with its streak and
// any newly unlocked achievements.
func (n *Notifier) NotifySessionComplete(results *domain.SessionResults) error {
	if results == nil || results.Session == nil {
		return nil
	}
	title, message := completionText(results)
	return n.Notify(title, message)
}

// IsEnabled returns true if notifications are enabled.
func (n *Notifier) IsEnabled() bool {
	return n.cfg.Enabled
}

func completionText(results *domain.SessionResults) (string, string) {
	s := results.Session
	var b strings.Builder

	var title string
	if s.Kind == domain.KindFocus {
		title = "🍅 Focus session complete!"
		fmt.Fprintf(&b, "Great job! You studied for %s.", domain.FormatClock(s.Completed))
	} else {
		title = "☕ Break over!"
		fmt.Fprintf(&b, "Your %s is complete. Ready to focus?", strings.ToLower(s.Kind.Label()))
	}

	if results.Streak != nil && results.Streak.Current > 0 {
		fmt.Fprintf(&b, " %s %d day streak.", domain.StreakEmoji(results.Streak.Current), results.Streak.Current)
	}
	if len(results.NewAchievements) > 0 {
		names := make([]string, len(results.NewAchievements))
		for i, a := range results.NewAchievements {
			names[i] = a.Name
		}
		fmt.Fprintf(&b, " Unlocked: %s.", strings.Join(names, ", "))
	}
	return title, b.String()
}
