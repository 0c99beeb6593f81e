package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// pauseCmd represents the pause command
var pauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Pause the current session",
	Long:  `Pause the running session. The backend freezes the time studied so far.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.controller.Pause(cmd.Context()); err != nil {
			return err
		}

		snap := app.controller.Snapshot()
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), snapshotData(snap))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "⏸️  Session paused. Remaining: %s\n", snap.Clock())
		return nil
	},
}
