package domain

import (
	"encoding/json"
	"fmt"
)

// SettingsKey is the storage key for the persisted TimerSettings document.
const SettingsKey = "studify:timerSettings"

const (
	MinDurationMinutes = 1
	MaxDurationMinutes = 999
)

// TimerSettings holds per-user timer preferences. Durations are minutes.
type TimerSettings struct {
	Focus             int    `json:"focus"`
	ShortBreak        int    `json:"shortBreak"`
	LongBreak         int    `json:"longBreak"`
	AutoStart         bool   `json:"autoStart"`
	SelectedTechnique string `json:"selectedTechnique"`
}

// DefaultTimerSettings returns the fallback used when nothing valid is stored.
func DefaultTimerSettings() TimerSettings {
	return TimerSettings{
		Focus:             25,
		ShortBreak:        5,
		LongBreak:         15,
		AutoStart:         false,
		SelectedTechnique: "classic",
	}
}

// Validate checks every duration lies in [1, 999] minutes.
func (s TimerSettings) Validate() error {
	fields := []struct {
		name  string
		value int
	}{{"focus", s.Focus}, {"shortBreak", s.ShortBreak}, {"longBreak", s.LongBreak}}
	for _, f := range fields {
		if f.value < MinDurationMinutes || f.value > MaxDurationMinutes {
			return fmt.Errorf("%w: %s must be between %d and %d minutes, got %d",
				ErrValidation, f.name, MinDurationMinutes, MaxDurationMinutes, f.value)
		}
	}
	if s.SelectedTechnique == "" {
		return fmt.Errorf("%w: selectedTechnique is empty", ErrValidation)
	}
	return nil
}

// ClampMinutes bounds a duration to the accepted range.
func ClampMinutes(v int) int {
	if v < MinDurationMinutes {
		return MinDurationMinutes
	}
	if v > MaxDurationMinutes {
		return MaxDurationMinutes
	}
	return v
}

// Minutes returns the configured minutes for a mode.
func (s TimerSettings) Minutes(m Mode) (int, error) {
	switch m {
	case ModeFocus:
		return s.Focus, nil
	case ModeShortBreak:
		return s.ShortBreak, nil
	case ModeLongBreak:
		return s.LongBreak, nil
	}
	return 0, fmt.Errorf("%w: unknown mode %q", ErrValidation, string(m))
}

// DurationFor returns the configured duration for a mode in seconds.
func (s TimerSettings) DurationFor(m Mode) (int, error) {
	minutes, err := s.Minutes(m)
	if err != nil {
		return 0, err
	}
	return minutes * 60, nil
}

// ApplyTechnique overwrites the three durations with the technique defaults.
func (s TimerSettings) ApplyTechnique(t StudyTechnique) TimerSettings {
	s.Focus = t.Focus
	s.ShortBreak = t.ShortBreak
	s.LongBreak = t.LongBreak
	s.SelectedTechnique = t.ID
	return s
}

// DecodeTimerSettings parses a stored document. Absent or malformed input
// yields the defaults and ok=false.
func DecodeTimerSettings(raw []byte) (TimerSettings, bool) {
	if len(raw) == 0 {
		return DefaultTimerSettings(), false
	}
	var s TimerSettings
	if err := json.Unmarshal(raw, &s); err != nil {
		return DefaultTimerSettings(), false
	}
	if err := s.Validate(); err != nil {
		return DefaultTimerSettings(), false
	}
	return s, true
}

// StudyTechnique is a named template of durations and a cycle of modes.
type StudyTechnique struct {
	ID          string
	Name        string
	Description string
	Focus       int
	ShortBreak  int
	LongBreak   int
	Sequence    []Mode
}

// Next returns the mode following position i in the sequence, and its index.
func (t StudyTechnique) Next(i int) (Mode, int) {
	if len(t.Sequence) == 0 {
		return ModeFocus, 0
	}
	n := (i + 1) % len(t.Sequence)
	if n < 0 {
		n += len(t.Sequence)
	}
	return t.Sequence[n], n
}
