package cmd

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/devnotmax/studify/internal/domain"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// exportBatch is the page size used to walk the full history.
const exportBatch = 50

var exportFormat string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export session history",
	Long:  "Export every finished session as JSON, CSV or YAML.",
	RunE: func(cmd *cobra.Command, args []string) error {
		sessions, err := app.insights.AllHistory(cmd.Context(), exportBatch)
		if err != nil {
			return fmt.Errorf("failed to fetch sessions: %w", err)
		}
		return writeExport(cmd.OutOrStdout(), exportFormat, sessions)
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "Output format: json, csv or yaml")
}

func writeExport(w io.Writer, format string, sessions []*domain.Session) error {
	records := make([]sessionRecord, 0, len(sessions))
	for _, s := range sessions {
		records = append(records, newSessionRecord(s))
	}

	switch format {
	case "json":
		return writeJSON(w, records)
	case "csv":
		return exportCSV(w, records)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	}
	return fmt.Errorf("%w: unknown export format %q (want json, csv or yaml)", domain.ErrValidation, format)
}

func exportCSV(w io.Writer, records []sessionRecord) error {
	cw := csv.NewWriter(w)

	_ = cw.Write([]string{"id", "type", "status", "duration_seconds", "completed_seconds", "started_at", "ended_at"})
	for _, r := range records {
		ended := ""
		if r.EndedAt != nil {
			ended = r.EndedAt.Format(time.RFC3339)
		}
		_ = cw.Write([]string{
			r.ID,
			r.Type,
			r.Status,
			strconv.Itoa(r.Duration),
			strconv.Itoa(r.Completed),
			r.StartedAt.Format(time.RFC3339),
			ended,
		})
	}
	cw.Flush()
	return cw.Error()
}
