package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/timesheet/internal/model"
	"github.com/Tiliavir/timesheet/internal/timecalc"
)

var exportFormat string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all timesheets to stdout",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "Output format: csv, json, yaml")
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	c, err := apiClient(ctx)
	if err != nil {
		return err
	}
	entries, err := c.List(ctx)
	if err != nil {
		return explain(err)
	}

	if exportFormat == "csv" {
		printCSV(cmd.OutOrStdout(), entries)
		return nil
	}
	return writeFormatted(cmd.OutOrStdout(), exportFormat, entries)
}

func printCSV(w io.Writer, entries []model.Entry) {
	fmt.Fprintln(w, "id,week_number,date,status,hours,description,project,task_name")
	for _, e := range entries {
		hours := ""
		if e.Hours != nil {
			hours = timecalc.FormatHours(*e.Hours)
		}
		fmt.Fprintf(w, "%s,%s,%s,%s,%s,%s,%s,%s\n",
			csvEscape(e.ID),
			strconv.Itoa(e.WeekNumber),
			csvEscape(e.Date),
			csvEscape(string(e.Status)),
			hours,
			csvEscape(model.Deref(e.Description)),
			csvEscape(model.Deref(e.Project)),
			csvEscape(model.Deref(e.TaskName)),
		)
	}
}

// csvEscape wraps a field in quotes if it contains a comma, quote, or newline.
func csvEscape(s string) string {
	needsQuote := false
	for _, c := range s {
		if c == ',' || c == '"' || c == '\n' || c == '\r' {
			needsQuote = true
			break
		}
	}
	if !needsQuote {
		return s
	}
	// Escape internal double quotes by doubling them.
	escaped := ""
	for _, c := range s {
		if c == '"' {
			escaped += "\""
		}
		escaped += string(c)
	}
	return `"` + escaped + `"`
}
