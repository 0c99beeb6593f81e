package tui

import "github.com/charmbracelet/lipgloss"

// Theme holds the colors used by the watch screen.
type Theme struct {
	ColorTitle  string
	ColorFocus  string
	ColorBreak  string
	ColorPaused string
	ColorHelp   string
	ColorError  string
	ColorReward string

	FocusGradient  [2]string
	BreakGradient  [2]string
	PausedGradient [2]string
}

// DefaultTheme returns the built-in palette.
func DefaultTheme() Theme {
	return Theme{
		ColorTitle:     "#F25D94",
		ColorFocus:     "#FF6B6B",
		ColorBreak:     "#4ECDC4",
		ColorPaused:    "#FFD93D",
		ColorHelp:      "#626262",
		ColorError:     "#FF5F87",
		ColorReward:    "#FFAF00",
		FocusGradient:  [2]string{"#FF6B6B", "#F25D94"},
		BreakGradient:  [2]string{"#4ECDC4", "#5A56E0"},
		PausedGradient: [2]string{"#FFD93D", "#FF9F1C"},
	}
}

func (t Theme) style(color string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}
