package cmd

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/devnotmax/studify/internal/domain"
	"github.com/spf13/cobra"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C6FE0"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	valueStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#A78BFA"))
	barStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#7C6FE0"))
)

const maxBarWidth = 30

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show completed focus sessions and daily goal progress",
	Long:  `Display focus sessions completed today, this week and in total, with progress towards your daily goal.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		view, err := app.insights.Stats(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get stats: %w", err)
		}

		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), map[string]interface{}{
				"today":         view.Counts.Today,
				"week":          view.Counts.Week,
				"total":         view.Counts.Total,
				"daily_goal":    view.Goal,
				"goal_progress": view.Progress,
				"goal_reached":  view.GoalReached(),
			})
		}

		renderStats(cmd.OutOrStdout(), view)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func renderStats(w io.Writer, view domain.StatsView) {
	fmt.Fprintf(w, "  %s\n", titleStyle.Render("📊 Study stats"))
	fmt.Fprintf(w, "  %s\n\n", dimStyle.Render(strings.Repeat("─", 40)))

	if view.Empty {
		fmt.Fprintf(w, "  %s\n\n", dimStyle.Render("No completed focus sessions yet. Run \"studify start\" to begin."))
		return
	}

	fmt.Fprintf(w, "  %s %s   %s %s   %s %s\n\n",
		dimStyle.Render("Today"), valueStyle.Render(fmt.Sprintf("%d", view.Counts.Today)),
		dimStyle.Render("This week"), valueStyle.Render(fmt.Sprintf("%d", view.Counts.Week)),
		dimStyle.Render("Total"), valueStyle.Render(fmt.Sprintf("%d", view.Counts.Total)),
	)

	fmt.Fprintf(w, "  %s\n", dimStyle.Render(fmt.Sprintf("Daily goal: %d sessions", view.Goal)))
	fmt.Fprintf(w, "  %s %s\n", barStyle.Render(buildBar(view.Progress, maxBarWidth)), valueStyle.Render(fmt.Sprintf("%.0f%%", view.Progress)))
	if view.GoalReached() {
		fmt.Fprintf(w, "  %s\n", valueStyle.Render("🎯 Goal reached. Great work today!"))
	}
	fmt.Fprintln(w)
}

// buildBar renders percent (0..100) of width with block characters.
func buildBar(percent float64, width int) string {
	filled := int(math.Round(percent / 100 * float64(width)))
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
