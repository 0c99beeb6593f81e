package cmd

import (
	"fmt"

	"github.com/devnotmax/studify/internal/domain"
	"github.com/spf13/cobra"
)

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start [mode]",
	Short: "Start a study session",
	Long: `Start a new session. Mode is focus, short-break or long-break.
Without a mode, the next step of your study technique is started.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{string(domain.ModeFocus), string(domain.ModeShortBreak), string(domain.ModeLongBreak)},
	RunE: func(cmd *cobra.Command, args []string) error {
		var mode domain.Mode
		if len(args) > 0 {
			m, err := domain.ParseMode(args[0])
			if err != nil {
				return err
			}
			mode = m
		}

		if err := app.controller.Start(cmd.Context(), mode); err != nil {
			return err
		}

		snap := app.controller.Snapshot()
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), snapshotData(snap))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "▶️  %s session started (%s)\n", snap.Session.Kind.Label(), snap.Clock())
		return nil
	},
}
