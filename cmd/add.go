package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/timesheet/internal/workflow"
)

var addFlags entryFlags

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a timesheet",
	Long: `Add a timesheet. Unset fields take the form defaults: today's date,
week 1, status draft and 0 hours.`,
	Args: cobra.NoArgs,
	RunE: runAdd,
}

func init() {
	addFlags.register(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	c, err := apiClient(ctx)
	if err != nil {
		return err
	}

	o := workflow.New(c)
	o.OpenAdd(addFlags.date)
	form := o.Form()
	addFlags.apply(cmd, &form)
	if err := o.SetForm(form); err != nil {
		return err
	}

	saved, err := submit(ctx, o, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created timesheet %s\n", describe(saved))
	return nil
}
