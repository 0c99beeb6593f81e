package cmd

import (
	"errors"
	"fmt"

	"github.com/devnotmax/studify/internal/domain"
	"github.com/spf13/cobra"
)

var endForce bool

// endCmd represents the end command
var endCmd = &cobra.Command{
	Use:   "end",
	Short: "End the current session",
	Long: `End the current session and record it. While time remains the
backend refuses; use --force to finish early with the time studied so far.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		remaining := app.controller.Snapshot().Clock()
		err := app.controller.Complete(cmd.Context(), endForce)
		if errors.Is(err, domain.ErrTimeRemaining) {
			warnf("%s left. Run \"studify end --force\" to finish early.", remaining)
		}
		if err != nil {
			return err
		}

		snap := app.controller.Snapshot()
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), snapshotData(snap))
		}
		printResults(cmd.OutOrStdout(), snap.Results)
		if snap.Session != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "\n▶️  %s started automatically (%s)\n", snap.Session.Kind.Label(), snap.Clock())
		}
		return nil
	},
}

func init() {
	endCmd.Flags().BoolVarP(&endForce, "force", "f", false, "End now even if time remains")
}
