package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/timesheet/internal/timecalc"
	"github.com/Tiliavir/timesheet/internal/view"
)

var reportFormat string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show the weekly hours summary",
	Args:  cobra.NoArgs,
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportFormat, "format", "text", "Output format: text, json, yaml")
}

// weekReport is the summary printed by report.
type weekReport struct {
	Week        string      `json:"week" yaml:"week"`
	Range       string      `json:"range" yaml:"range"`
	Days        []dayReport `json:"days" yaml:"days"`
	TotalHours  float64     `json:"totalHours" yaml:"totalHours"`
	TargetHours float64     `json:"targetHours" yaml:"targetHours"`
	Progress    int         `json:"progressPercentage" yaml:"progressPercentage"`
}

type dayReport struct {
	Date  string  `json:"date" yaml:"date"`
	Day   string  `json:"day" yaml:"day"`
	Tasks int     `json:"tasks" yaml:"tasks"`
	Hours float64 `json:"hours" yaml:"hours"`
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	c, err := apiClient(ctx)
	if err != nil {
		return err
	}
	week, err := c.Week(ctx)
	if err != nil {
		return explain(err)
	}

	r := summarize(week, time.Now())
	if reportFormat == "text" {
		printReport(cmd.OutOrStdout(), r)
		return nil
	}
	return writeFormatted(cmd.OutOrStdout(), reportFormat, r)
}

func summarize(week view.Week, now time.Time) weekReport {
	r := weekReport{
		Week:        timecalc.ISOWeekLabel(now),
		Range:       week.RangeLabel,
		TotalHours:  week.TotalHours,
		TargetHours: week.TargetHours,
		Progress:    view.RoundPercent(week.ProgressPercentage),
	}
	for _, d := range week.Days {
		day := dayReport{Date: d.Date, Day: d.Heading, Tasks: len(d.Items)}
		for _, it := range d.Items {
			day.Hours += it.Hours
		}
		r.Days = append(r.Days, day)
	}
	return r
}

func printReport(w io.Writer, r weekReport) {
	fmt.Fprintf(w, "Week %s\n", r.Week)
	if r.Range != "" {
		fmt.Fprintf(w, "Timesheets %s\n", r.Range)
	}
	fmt.Fprintln(w, "--------------------------------")
	for _, d := range r.Days {
		fmt.Fprintf(w, "%-20s%s hrs\n", d.Day, timecalc.FormatHours(d.Hours))
	}
	fmt.Fprintln(w, "--------------------------------")
	fmt.Fprintf(w, "%-20s%s/%s hrs (%d%%)\n", "Total",
		timecalc.FormatHours(r.TotalHours), timecalc.FormatHours(r.TargetHours), r.Progress)
}
