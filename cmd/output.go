package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/devnotmax/studify/internal/domain"
)

// sessionRecord is the exported form of a session.
type sessionRecord struct {
	ID        string     `json:"id" yaml:"id"`
	Type      string     `json:"type" yaml:"type"`
	Status    string     `json:"status" yaml:"status"`
	Duration  int        `json:"duration_seconds" yaml:"duration_seconds"`
	Completed int        `json:"completed_seconds" yaml:"completed_seconds"`
	StartedAt time.Time  `json:"started_at" yaml:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty" yaml:"ended_at,omitempty"`
}

func newSessionRecord(s *domain.Session) sessionRecord {
	return sessionRecord{
		ID:        s.ID,
		Type:      string(s.Kind),
		Status:    s.StatusLabel(),
		Duration:  s.Duration,
		Completed: s.Completed,
		StartedAt: s.StartTime,
		EndedAt:   s.EndTime,
	}
}

type statusRecord struct {
	State            string                 `json:"state"`
	Mode             string                 `json:"mode"`
	Owner            string                 `json:"owner,omitempty"`
	Session          *sessionRecord         `json:"active_session"`
	Remaining        string                 `json:"remaining,omitempty"`
	RemainingSeconds int                    `json:"remaining_seconds"`
	ElapsedSeconds   int                    `json:"elapsed_seconds"`
	Progress         float64                `json:"progress"`
	Results          *domain.SessionResults `json:"last_results,omitempty"`
	LastError        string                 `json:"last_error,omitempty"`
}

func snapshotData(snap domain.Snapshot) statusRecord {
	out := statusRecord{
		State: snap.State.String(),
		Mode:  string(snap.Mode),
		Owner: snap.Owner,
	}
	if snap.Session != nil {
		rec := newSessionRecord(snap.Session)
		out.Session = &rec
		out.Remaining = snap.Clock()
		out.RemainingSeconds = snap.Remaining
		out.ElapsedSeconds = snap.Elapsed
		out.Progress = snap.Progress
	}
	if snap.ShowResults {
		out.Results = snap.Results
	}
	if snap.LastError != nil {
		out.LastError = domain.UserMessage(snap.LastError)
	}
	return out
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// printResults prints the post-completion summary.
func printResults(w io.Writer, results *domain.SessionResults) {
	if results == nil || results.Session == nil {
		fmt.Fprintln(w, "✅ Session ended.")
		return
	}
	s := results.Session
	if s.Kind == domain.KindFocus {
		fmt.Fprintf(w, "🍅 Focus session complete! %s studied\n", domain.FormatClock(s.Completed))
	} else {
		fmt.Fprintf(w, "☕ %s over.\n", s.Kind.Label())
	}
	if results.Streak != nil && results.Streak.Current > 0 {
		fmt.Fprintf(w, "   %s Streak: %d days (longest %d)\n",
			domain.StreakEmoji(results.Streak.Current), results.Streak.Current, results.Streak.Longest)
	}
	for _, a := range results.NewAchievements {
		fmt.Fprintf(w, "   🏆 Unlocked: %s\n", a.Name)
	}
}

// userError returns the text shown for err. Local validation failures keep
// their own message since it names the offending input.
func userError(err error) string {
	var ge *domain.GatewayError
	plainValidation := errors.Is(err, domain.ErrValidation) &&
		!errors.As(err, &ge) &&
		!errors.Is(err, domain.ErrTimeRemaining) &&
		!errors.Is(err, domain.ErrCancelNotConfirmed) &&
		!errors.Is(err, domain.ErrInvalidTransition)
	if plainValidation {
		return err.Error()
	}

	msg := domain.UserMessage(err)
	if domain.Retryable(err) {
		msg += " Run the command again to retry."
	}
	return msg
}
