package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Tiliavir/timesheet/internal/view"
)

var (
	listView   string
	listFormat string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List timesheets",
	Long: `List timesheets as a table (--view table, the default) or grouped by
the days of the current work week (--view days).`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVar(&listView, "view", "table", "View: table, days")
	listCmd.Flags().StringVar(&listFormat, "format", "text", "Output format: text, json, yaml")
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	c, err := apiClient(ctx)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	switch listView {
	case "days":
		week, err := c.Week(ctx)
		if err != nil {
			return explain(err)
		}
		if listFormat == "text" {
			return view.WriteWeek(out, week)
		}
		return writeFormatted(out, listFormat, week)
	case "table":
		entries, err := c.List(ctx)
		if err != nil {
			return explain(err)
		}
		if listFormat == "text" {
			return view.WriteTable(out, view.Table(entries))
		}
		return writeFormatted(out, listFormat, entries)
	default:
		return fmt.Errorf("unknown view %q (want table or days)", listView)
	}
}

// writeFormatted encodes v as json or yaml.
func writeFormatted(w io.Writer, format string, v interface{}) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (want text, json or yaml)", format)
	}
}
