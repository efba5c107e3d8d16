package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/timesheet/internal/workflow"
)

var editFlags entryFlags

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit a timesheet",
	Long:  `Edit a timesheet. Only the fields given as flags change; an entry without hours keeps none unless --hours is set.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runEdit,
}

func init() {
	editFlags.register(editCmd)
}

func runEdit(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	c, err := apiClient(ctx)
	if err != nil {
		return err
	}

	o := workflow.New(c)
	if err := o.Load(ctx); err != nil {
		return explain(err)
	}
	if err := o.OpenEdit(args[0]); err != nil {
		return fmt.Errorf("no timesheet with id %q", args[0])
	}
	form := o.Form()
	editFlags.apply(cmd, &form)
	for _, e := range o.Entries() {
		if e.ID == args[0] {
			keepAbsentHours(cmd, e, &form)
		}
	}
	if err := o.SetForm(form); err != nil {
		return err
	}

	saved, err := submit(ctx, o, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated timesheet %s\n", describe(saved))
	return nil
}
