package cmd

import (
	"github.com/devnotmax/studify/internal/adapters/tui"
	"github.com/spf13/cobra"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current status",
	Long:  `Display the active session, its remaining time and the last result.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		snap := app.controller.Snapshot()
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), snapshotData(snap))
		}

		tui.ShowStatus(cmd.OutOrStdout(), snap)
		return nil
	},
}
