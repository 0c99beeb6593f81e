// Package cmd provides the CLI commands for studify.
package cmd

import (
	"fmt"
	"os"

	"github.com/devnotmax/studify/internal/adapters/tui"
	"github.com/devnotmax/studify/internal/metrics"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// Version info (set at build time via ldflags)
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"

	// Global flags
	configPath  string
	dbPath      string
	jsonOutput  bool
	verbose     bool
	backendFlag string
	serverFlag  string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "studify",
	Short: "studify - a study session timer with streaks and stats",
	Long: `studify is a Pomodoro-style study timer. Sessions live on a backend
(a local SQLite store by default, or a remote studify server) so your
streak and stats follow you.

Run "studify" with no arguments to open the live timer.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Annotations:   follows,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeServices(cmd)
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return cleanupServices()
	},
	RunE: runWatch,
}

var watchCmd = &cobra.Command{
	Use:         "watch",
	Short:       "Open the live timer",
	Long:        `Open the fullscreen timer. It follows the active session and lets you start, pause, end and cancel it.`,
	RunE:        runWatch,
	Annotations: follows,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		_ = cleanupServices()
		printError(err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the config file (default: ~/.studify/config.toml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to the database file (default: ~/.studify/studify.db)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output results in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log to stderr at debug level")
	rootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "Session backend: local or remote")
	rootCmd.PersistentFlags().StringVar(&serverFlag, "server", "", "Remote server URL (implies --backend remote)")

	// Set version - cobra handles --version automatically
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate(fmt.Sprintf("studify\nVersion: {{.Version}}\nBuilt: %s (%s)\n", BuildDate, GitCommit))

	// Add subcommands
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(pauseCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(endCmd)
	rootCmd.AddCommand(cancelCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := setupSignalHandler(cmd.Context())
	defer stop()

	if addr := app.config.Metrics.Addr; addr != "" {
		server := metrics.NewServer(addr, app.logger)
		if err := server.Start(); err != nil {
			warnf("metrics endpoint disabled: %v", err)
		} else {
			defer func() { _ = server.Stop() }()
		}
	}

	if !tui.IsInteractive() {
		tui.ShowStatus(cmd.OutOrStdout(), app.controller.Snapshot())
		return nil
	}

	timer := tui.NewTimer(app.controller, app.insights)
	return timer.Run(ctx)
}

// printError writes err in red with its user-facing message.
func printError(err error) {
	red := color.New(color.FgRed, color.Bold)
	_, _ = red.Fprint(os.Stderr, "Error: ")
	fmt.Fprintln(os.Stderr, userError(err))
}

// warnf prints a yellow warning to stderr.
func warnf(format string, args ...any) {
	_, _ = color.New(color.FgYellow).Fprintf(os.Stderr, "⚠️  "+format+"\n", args...)
}
