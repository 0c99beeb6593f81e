package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// resumeCmd represents the resume command
var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume a paused session",
	Long:  `Resume the paused session from where it stopped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.controller.Resume(cmd.Context()); err != nil {
			return err
		}

		snap := app.controller.Snapshot()
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), snapshotData(snap))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "▶️  Session resumed. Remaining: %s\n", snap.Clock())
		return nil
	},
}
