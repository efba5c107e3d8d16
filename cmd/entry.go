package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/timesheet/internal/model"
	"github.com/Tiliavir/timesheet/internal/validation"
	"github.com/Tiliavir/timesheet/internal/workflow"
)

// entryFlags are the form fields shared by add and edit.
type entryFlags struct {
	week        string
	date        string
	status      string
	hours       string
	description string
	project     string
	task        string
}

func (f *entryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.week, "week", "", "Week number (1-52)")
	cmd.Flags().StringVar(&f.date, "date", "", "Date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.status, "status", "", "Status: draft, submitted, approved, rejected")
	cmd.Flags().StringVar(&f.hours, "hours", "", "Hours worked (0-168)")
	cmd.Flags().StringVar(&f.description, "description", "", "Description")
	cmd.Flags().StringVar(&f.project, "project", "", "Project")
	cmd.Flags().StringVar(&f.task, "task", "", "Task name")
}

// apply copies the flags the user set onto form.
func (f *entryFlags) apply(cmd *cobra.Command, form *workflow.Form) {
	set := func(name string, dst *string, v string) {
		if cmd.Flags().Changed(name) {
			*dst = v
		}
	}
	set("week", &form.WeekNumber, f.week)
	set("date", &form.Date, f.date)
	set("status", &form.Status, f.status)
	set("hours", &form.Hours, f.hours)
	set("description", &form.Description, f.description)
	set("project", &form.Project, f.project)
	set("task", &form.TaskName, f.task)
}

// keepAbsentHours stops an edit from turning absent hours into 0 when
// --hours was not given.
func keepAbsentHours(cmd *cobra.Command, original model.Entry, form *workflow.Form) {
	if original.Hours == nil && !cmd.Flags().Changed("hours") {
		form.Hours = ""
	}
}

// submit sends the open form and reports field errors on w.
func submit(ctx context.Context, o *workflow.Orchestrator, w io.Writer) (model.Entry, error) {
	saved, err := o.Submit(ctx)
	if err == nil {
		return saved, nil
	}
	var verr *validation.Error
	if errors.As(err, &verr) {
		fmt.Fprintln(w, "Invalid timesheet:")
		writeFieldErrors(w, verr.Fields)
		return model.Entry{}, errors.New("timesheet not saved")
	}
	return model.Entry{}, explain(err)
}

func writeFieldErrors(w io.Writer, fields map[string]string) {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %s: %s\n", name, fields[name])
	}
}

func describe(e model.Entry) string {
	return fmt.Sprintf("%s (week %d, %s, %s)", e.ID, e.WeekNumber, e.Date, e.Status.Label())
}
