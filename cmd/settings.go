package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/devnotmax/studify/internal/domain"
	"github.com/devnotmax/studify/internal/methodology"
	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change timer settings",
	Long: `Show or change your timer settings. Durations are minutes between
1 and 999. Choosing a technique also applies its durations.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the timer settings in effect",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting",
	Long: `Change one setting. Keys:
  focus, short-break, long-break   minutes (clamped to 1..999)
  auto-start                       true or false`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := strings.ToLower(args[0]), args[1]
		ctx := cmd.Context()

		var (
			settings domain.TimerSettings
			err      error
		)
		switch key {
		case "auto-start", "autostart":
			on, perr := strconv.ParseBool(value)
			if perr != nil {
				return fmt.Errorf("%w: auto-start must be true or false, got %q", domain.ErrValidation, value)
			}
			settings, err = app.settings.SetAutoStart(ctx, on)
		default:
			mode, merr := domain.ParseMode(key)
			if merr != nil {
				return fmt.Errorf("%w: unknown setting %q", domain.ErrValidation, key)
			}
			minutes, perr := strconv.Atoi(value)
			if perr != nil {
				return fmt.Errorf("%w: %s must be a number of minutes, got %q", domain.ErrValidation, key, value)
			}
			settings, err = app.settings.SetMinutes(ctx, mode, minutes)
		}
		if err != nil {
			return err
		}
		return printSettings(cmd.OutOrStdout(), settings)
	},
}

var settingsTechniqueCmd = &cobra.Command{
	Use:   "technique [name]",
	Short: "Choose a study technique",
	Long:  `Choose a study technique by id or a fuzzy match on its name. Without a name, list the techniques.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return listTechniques(cmd.OutOrStdout())
		}

		settings, technique, err := app.settings.SelectTechnique(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !jsonOutput {
			fmt.Fprintf(cmd.OutOrStdout(), "📘 Technique set to %s\n\n", technique.Name)
		}
		return printSettings(cmd.OutOrStdout(), settings)
	},
}

var settingsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the default settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.settings.Reset(cmd.Context()); err != nil {
			return err
		}
		return runSettingsShow(cmd, args)
	},
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsTechniqueCmd)
	settingsCmd.AddCommand(settingsResetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, args []string) error {
	settings, err := app.settings.Current(cmd.Context())
	if err != nil {
		return err
	}
	return printSettings(cmd.OutOrStdout(), settings)
}

func printSettings(w io.Writer, s domain.TimerSettings) error {
	if jsonOutput {
		return writeJSON(w, s)
	}
	technique := methodology.ForIDOrDefault(s.SelectedTechnique)
	fmt.Fprintf(w, "Technique:    %s (%s)\n", technique.Name, technique.ID)
	fmt.Fprintf(w, "Focus:        %d min\n", s.Focus)
	fmt.Fprintf(w, "Short break:  %d min\n", s.ShortBreak)
	fmt.Fprintf(w, "Long break:   %d min\n", s.LongBreak)
	fmt.Fprintf(w, "Auto-start:   %t\n", s.AutoStart)
	return nil
}

func listTechniques(w io.Writer) error {
	all := methodology.All()
	if jsonOutput {
		return writeJSON(w, all)
	}
	for _, t := range all {
		fmt.Fprintf(w, "%-10s %-18s %d/%d/%d  %s\n", t.ID, t.Name, t.Focus, t.ShortBreak, t.LongBreak, t.Description)
	}
	return nil
}
