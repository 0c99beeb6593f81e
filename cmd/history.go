package cmd

import (
	"fmt"
	"io"

	"github.com/devnotmax/studify/internal/domain"
	"github.com/spf13/cobra"
)

var (
	historyPage  int
	historyLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List finished sessions",
	Long:  `List completed and cancelled sessions, most recent first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit := historyLimit
		if limit <= 0 {
			limit = app.config.History.PageSize
		}

		page, err := app.insights.History(cmd.Context(), historyPage, limit)
		if err != nil {
			return fmt.Errorf("failed to get history: %w", err)
		}

		if jsonOutput {
			records := make([]sessionRecord, 0, len(page.Sessions))
			for _, s := range page.Sessions {
				records = append(records, newSessionRecord(s))
			}
			return writeJSON(cmd.OutOrStdout(), map[string]interface{}{
				"sessions": records,
				"total":    page.Total,
				"page":     page.Page,
				"limit":    page.Limit,
				"pages":    page.Pages(),
			})
		}

		renderHistory(cmd.OutOrStdout(), page)
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyPage, "page", "p", 1, "Page number")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 0, "Sessions per page (default: history.page_size)")
	rootCmd.AddCommand(historyCmd)
}

func renderHistory(w io.Writer, page *domain.HistoryPage) {
	if len(page.Sessions) == 0 {
		fmt.Fprintln(w, "No sessions yet.")
		return
	}

	fmt.Fprintf(w, "%-16s  %-11s  %-9s  %s\n", "STARTED", "TYPE", "STATUS", "STUDIED")
	for _, s := range page.Sessions {
		fmt.Fprintf(w, "%-16s  %-11s  %-9s  %s / %s\n",
			s.StartTime.Local().Format("2006-01-02 15:04"),
			s.Kind.Label(),
			s.StatusLabel(),
			domain.FormatClock(s.Completed),
			domain.FormatClock(s.Duration),
		)
	}
	fmt.Fprintf(w, "\nPage %d of %d (%d sessions)\n", page.Page, page.Pages(), page.Total)
}
