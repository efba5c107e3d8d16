package view

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/Tiliavir/timesheet/internal/timecalc"
)

// WriteTable prints rows as an aligned text table.
func WriteTable(w io.Writer, rows []Row) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No timesheets found.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tWEEK\tDATE\tSTATUS\tHOURS\tPROJECT\tDESCRIPTION")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.WeekNumber, r.DateLabel, r.StatusLabel,
			timecalc.FormatHours(r.Hours), r.Project, r.Description)
	}
	return tw.Flush()
}

// WriteWeek prints the day-grouped view.
func WriteWeek(w io.Writer, week Week) error {
	if week.RangeLabel != "" {
		fmt.Fprintln(w, week.RangeLabel)
	}
	fmt.Fprintf(w, "%s\n\n", ProgressLabel(week))
	for _, d := range week.Days {
		fmt.Fprintln(w, d.Heading)
		if len(d.Items) == 0 {
			fmt.Fprintln(w, "  (no tasks)")
			continue
		}
		for _, it := range d.Items {
			fmt.Fprintf(w, "  %-30s %-12s %s hrs\n", it.Title, "["+it.Badge+"]", timecalc.FormatHours(it.Hours))
		}
	}
	if week.Empty {
		_, err := fmt.Fprintln(w, "\nNo timesheets yet.")
		return err
	}
	return nil
}

// ProgressLabel formats progress like "115/40 hrs (100%)".
func ProgressLabel(week Week) string {
	return fmt.Sprintf("%s/%s hrs (%d%%)",
		timecalc.FormatHours(week.TotalHours),
		timecalc.FormatHours(week.TargetHours),
		RoundPercent(week.ProgressPercentage))
}
