// Package domain contains the core business entities for studify.
// These entities describe study sessions, streaks and timer settings and are
// independent of any transport or storage.
package domain

import "fmt"

// SessionKind is the wire form of a session type.
type SessionKind string

const (
	KindFocus      SessionKind = "focus"
	KindShortBreak SessionKind = "short_break"
	KindLongBreak  SessionKind = "long_break"
)

// Mode is the user-facing form of a session type.
type Mode string

const (
	ModeFocus      Mode = "focus"
	ModeShortBreak Mode = "short-break"
	ModeLongBreak  Mode = "long-break"
)

// Modes lists every mode in display order.
var Modes = []Mode{ModeFocus, ModeShortBreak, ModeLongBreak}

// Valid reports whether k is a known session kind.
func (k SessionKind) Valid() bool {
	switch k {
	case KindFocus, KindShortBreak, KindLongBreak:
		return true
	}
	return false
}

// Mode maps a wire kind to its user-facing mode.
func (k SessionKind) Mode() (Mode, error) {
	switch k {
	case KindFocus:
		return ModeFocus, nil
	case KindShortBreak:
		return ModeShortBreak, nil
	case KindLongBreak:
		return ModeLongBreak, nil
	}
	return "", fmt.Errorf("%w: unknown session kind %q", ErrValidation, string(k))
}

// Label returns a human-readable label for the kind.
func (k SessionKind) Label() string {
	if d, ok := catalog[k]; ok {
		return d.Label
	}
	return "Unknown"
}

// Kind maps a user-facing mode to its wire kind.
func (m Mode) Kind() (SessionKind, error) {
	switch m {
	case ModeFocus:
		return KindFocus, nil
	case ModeShortBreak:
		return KindShortBreak, nil
	case ModeLongBreak:
		return KindLongBreak, nil
	}
	return "", fmt.Errorf("%w: unknown mode %q", ErrValidation, string(m))
}

// ParseMode accepts either the mode or the wire spelling.
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if _, err := m.Kind(); err == nil {
		return m, nil
	}
	if m, err := SessionKind(s).Mode(); err == nil {
		return m, nil
	}
	return "", fmt.Errorf("%w: unknown mode %q (want focus, short-break or long-break)", ErrValidation, s)
}

// KindDefaults describes a catalog entry.
type KindDefaults struct {
	Seconds int
	Label   string
}

var catalog = map[SessionKind]KindDefaults{
	KindFocus:      {Seconds: 25 * 60, Label: "Focus"},
	KindShortBreak: {Seconds: 5 * 60, Label: "Short Break"},
	KindLongBreak:  {Seconds: 15 * 60, Label: "Long Break"},
}

// Lookup returns the canonical duration and label for a kind.
// TimerSettings override the duration per session.
func Lookup(k SessionKind) (KindDefaults, error) {
	d, ok := catalog[k]
	if !ok {
		return KindDefaults{}, fmt.Errorf("%w: unknown session kind %q", ErrValidation, string(k))
	}
	return d, nil
}
