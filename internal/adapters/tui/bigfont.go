package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const glyphRows = 5

// minBigClockWidth is the narrowest terminal that gets the block clock.
const minBigClockWidth = 40

// glyphs holds a five-row block rendering of every clock character.
var glyphs = map[rune][glyphRows]string{
	'0': {"████", "█  █", "█  █", "█  █", "████"},
	'1': {" █ ", "██ ", " █ ", " █ ", "███"},
	'2': {"████", "   █", "████", "█   ", "████"},
	'3': {"████", "   █", "████", "   █", "████"},
	'4': {"█  █", "█  █", "████", "   █", "   █"},
	'5': {"████", "█   ", "████", "   █", "████"},
	'6': {"████", "█   ", "████", "█  █", "████"},
	'7': {"████", "   █", "  █ ", " █  ", " █  "},
	'8': {"████", "█  █", "████", "█  █", "████"},
	'9': {"████", "█  █", "████", "   █", "████"},
	':': {" ", "█", " ", "█", " "},
}

// bigClock renders an MM:SS clock in block letters. Narrow terminals get a
// single bold line instead.
func bigClock(clock string, color lipgloss.Color, width int) string {
	style := lipgloss.NewStyle().Bold(true).Foreground(color)
	if width < minBigClockWidth {
		return style.Render(clock)
	}

	var rows [glyphRows][]string
	for _, ch := range clock {
		glyph, ok := glyphs[ch]
		if !ok {
			continue
		}
		for i := range rows {
			rows[i] = append(rows[i], glyph[i])
		}
	}

	out := make([]string, glyphRows)
	for i, row := range rows {
		out[i] = style.Render(strings.Join(row, " "))
	}
	return strings.Join(out, "\n")
}
