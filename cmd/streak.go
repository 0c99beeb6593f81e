package cmd

import (
	"fmt"
	"io"

	"github.com/devnotmax/studify/internal/domain"
	"github.com/spf13/cobra"
)

var streakCmd = &cobra.Command{
	Use:   "streak",
	Short: "Show your study streak",
	Long:  `Show how many consecutive days you have completed a focus session, your longest streak and the next milestone.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		view, err := app.insights.Streak(cmd.Context())
		if err != nil {
			// The empty view is still meaningful; show it with a warning.
			warnf("%s", userError(err))
		}

		if jsonOutput {
			out := map[string]interface{}{
				"has_streak": !view.Empty,
				"current":    view.Current,
				"longest":    view.Longest,
				"message":    view.Message,
				"tip":        view.Tip,
			}
			if view.LastActivity != nil {
				out["last_activity"] = view.LastActivity.Format(domain.DateLayout)
			}
			if view.Milestone != nil {
				out["next_milestone"] = view.Milestone.Next
				out["days_to_milestone"] = view.Milestone.DaysLeft
			}
			return writeJSON(cmd.OutOrStdout(), out)
		}

		renderStreak(cmd.OutOrStdout(), view)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(streakCmd)
}

func renderStreak(w io.Writer, view domain.StreakView) {
	fmt.Fprintf(w, "  %s\n\n", titleStyle.Render(fmt.Sprintf("%s %s", view.Emoji, view.Headline)))

	if view.Empty {
		fmt.Fprintf(w, "  %s\n", dimStyle.Render(view.Detail))
		fmt.Fprintf(w, "  %s\n\n", dimStyle.Render("💡 "+view.Tip))
		return
	}

	fmt.Fprintf(w, "  %s %s   %s %s\n",
		dimStyle.Render("Current"), valueStyle.Render(fmt.Sprintf("%d", view.Current)),
		dimStyle.Render("Longest"), valueStyle.Render(fmt.Sprintf("%d", view.Longest)),
	)
	if view.LastActivity != nil {
		fmt.Fprintf(w, "  %s\n", dimStyle.Render("Last study day: "+view.LastActivity.Format("Mon Jan 2")))
	}
	if m := view.Milestone; m != nil {
		fmt.Fprintf(w, "\n  %s\n", dimStyle.Render(fmt.Sprintf("Next milestone: %d days (%d to go)", m.Next, m.DaysLeft)))
		fmt.Fprintf(w, "  %s\n", barStyle.Render(buildBar(m.Percent, maxBarWidth)))
	}
	fmt.Fprintf(w, "\n  %s\n", valueStyle.Render(view.Message))
	fmt.Fprintf(w, "  %s\n\n", dimStyle.Render("💡 "+view.Tip))
}
