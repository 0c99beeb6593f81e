package methodology

import (
	"errors"
	"testing"

	"github.com/devnotmax/studify/internal/domain"
)

func TestForID(t *testing.T) {
	tests := []struct {
		id                 string
		focus, short, long int
		sequenceLen        int
	}{
		{"classic", 25, 5, 15, 8},
		{"sprint", 15, 3, 10, 6},
		{"52-17", 52, 17, 30, 2},
		{"ultradian", 90, 20, 30, 2},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			tech, err := ForID(tt.id)
			if err != nil {
				t.Fatalf("ForID() error = %v", err)
			}
			if tech.Focus != tt.focus || tech.ShortBreak != tt.short || tech.LongBreak != tt.long {
				t.Errorf("durations = %d/%d/%d, want %d/%d/%d", tech.Focus, tech.ShortBreak, tech.LongBreak, tt.focus, tt.short, tt.long)
			}
			if len(tech.Sequence) != tt.sequenceLen {
				t.Errorf("len(Sequence) = %d, want %d", len(tech.Sequence), tt.sequenceLen)
			}
			settings := domain.DefaultTimerSettings().ApplyTechnique(tech)
			if err := settings.Validate(); err != nil {
				t.Errorf("technique durations invalid: %v", err)
			}
		})
	}

	if _, err := ForID("nope"); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("ForID(nope) error = %v, want ErrValidation", err)
	}
	if ForIDOrDefault("nope").ID != DefaultID {
		t.Error("ForIDOrDefault() did not fall back to classic")
	}
}

func TestFind(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"classic", "classic"},
		{"Sprint", "sprint"},
		{"ultra", "ultradian"},
		{"5217", "52-17"},
	}

	for _, tt := range tests {
		got, err := Find(tt.query)
		if err != nil {
			t.Errorf("Find(%q) error = %v", tt.query, err)
			continue
		}
		if got.ID != tt.want {
			t.Errorf("Find(%q) = %s, want %s", tt.query, got.ID, tt.want)
		}
	}

	if _, err := Find("zzzz"); err == nil {
		t.Error("Find(zzzz) expected error")
	}
}

func TestCycleAdvance(t *testing.T) {
	c := NewCycle(ForIDOrDefault("classic"))
	want := []domain.Mode{
		domain.ModeShortBreak, domain.ModeFocus, domain.ModeShortBreak, domain.ModeFocus,
		domain.ModeShortBreak, domain.ModeFocus, domain.ModeLongBreak, domain.ModeFocus,
	}

	for i, w := range want {
		got := c.Advance(c.Current())
		if got != w {
			t.Fatalf("step %d: Advance() = %v, want %v", i, got, w)
		}
	}
}

func TestCycleResynchronises(t *testing.T) {
	c := NewCycle(ForIDOrDefault("ultradian"))
	// user ran a long break out of turn
	if got := c.Advance(domain.ModeLongBreak); got != domain.ModeFocus {
		t.Errorf("Advance(long-break) = %v, want focus", got)
	}

	c.Reset(ForIDOrDefault("52-17"))
	if c.Current() != domain.ModeFocus {
		t.Errorf("Current() after Reset = %v", c.Current())
	}
}
