// Package methodology holds the catalog of study techniques. A technique
// supplies default durations and the cycle of modes the timer walks through.
package methodology

import (
	"fmt"
	"strings"

	"github.com/devnotmax/studify/internal/domain"
	"github.com/sahilm/fuzzy"
)

// DefaultID is the technique used when none is selected.
const DefaultID = "classic"

var (
	f = domain.ModeFocus
	s = domain.ModeShortBreak
	l = domain.ModeLongBreak
)

var techniques = []domain.StudyTechnique{
	{
		ID:          "classic",
		Name:        "Classic Pomodoro",
		Description: "25 minutes of focus, short breaks, a long break every fourth round",
		Focus:       25, ShortBreak: 5, LongBreak: 15,
		Sequence: []domain.Mode{f, s, f, s, f, s, f, l},
	},
	{
		ID:          "sprint",
		Name:        "Sprint",
		Description: "Quick 15 minute bursts for light review",
		Focus:       15, ShortBreak: 3, LongBreak: 10,
		Sequence: []domain.Mode{f, s, f, s, f, l},
	},
	{
		ID:          "52-17",
		Name:        "52/17",
		Description: "52 minutes of work followed by a 17 minute break",
		Focus:       52, ShortBreak: 17, LongBreak: 30,
		Sequence: []domain.Mode{f, s},
	},
	{
		ID:          "ultradian",
		Name:        "Ultradian Rhythm",
		Description: "90 minute deep blocks matching natural energy cycles",
		Focus:       90, ShortBreak: 20, LongBreak: 30,
		Sequence: []domain.Mode{f, l},
	},
}

// All returns every technique in display order.
func All() []domain.StudyTechnique {
	out := make([]domain.StudyTechnique, len(techniques))
	copy(out, techniques)
	return out
}

// ForID returns the technique with the given id.
func ForID(id string) (domain.StudyTechnique, error) {
	for _, t := range techniques {
		if t.ID == id {
			return t, nil
		}
	}
	return domain.StudyTechnique{}, fmt.Errorf("%w: unknown technique %q", domain.ErrValidation, id)
}

// ForIDOrDefault falls back to the classic technique.
func ForIDOrDefault(id string) domain.StudyTechnique {
	t, err := ForID(id)
	if err != nil {
		t, _ = ForID(DefaultID)
	}
	return t
}

// Find resolves user input to a technique: exact id first, then the best
// fuzzy match over ids and names.
func Find(query string) (domain.StudyTechnique, error) {
	q := strings.TrimSpace(strings.ToLower(query))
	if t, err := ForID(q); err == nil {
		return t, nil
	}

	targets := make([]string, len(techniques))
	for i, t := range techniques {
		targets[i] = t.ID + " " + strings.ToLower(t.Name)
	}

	matches := fuzzy.Find(q, targets)
	if q == "" || len(matches) == 0 {
		return domain.StudyTechnique{}, fmt.Errorf("%w: no technique matches %q", domain.ErrValidation, query)
	}
	return techniques[matches[0].Index], nil
}

// Cycle tracks the position within a technique's sequence.
type Cycle struct {
	technique domain.StudyTechnique
	index     int
}

// NewCycle starts at the first mode of t.
func NewCycle(t domain.StudyTechnique) *Cycle {
	return &Cycle{technique: t}
}

// Technique returns the technique being cycled.
func (c *Cycle) Technique() domain.StudyTechnique {
	return c.technique
}

// Current returns the mode at the current position.
func (c *Cycle) Current() domain.Mode {
	if len(c.technique.Sequence) == 0 {
		return domain.ModeFocus
	}
	return c.technique.Sequence[c.index]
}

// Advance moves past a finished mode and returns the next one. When finished
// differs from the current position's mode, the cycle resynchronises to the
// next occurrence of finished first.
func (c *Cycle) Advance(finished domain.Mode) domain.Mode {
	seq := c.technique.Sequence
	if len(seq) == 0 {
		return domain.ModeFocus
	}
	if seq[c.index] != finished {
		for i := 1; i <= len(seq); i++ {
			j := (c.index + i) % len(seq)
			if seq[j] == finished {
				c.index = j
				break
			}
		}
	}
	next, idx := c.technique.Next(c.index)
	c.index = idx
	return next
}

// Reset switches technique and rewinds to the start.
func (c *Cycle) Reset(t domain.StudyTechnique) {
	c.technique = t
	c.index = 0
}
