package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/timesheet/internal/workflow"
)

var deleteYes bool

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a timesheet",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Delete without asking for confirmation")
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	c, err := apiClient(ctx)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	o := workflow.New(c)
	if err := o.Load(ctx); err != nil {
		return explain(err)
	}
	id := args[0]
	if err := o.RequestDelete(id); err != nil {
		return fmt.Errorf("no timesheet with id %q", id)
	}

	if !deleteYes {
		label := id
		for _, e := range o.Entries() {
			if e.ID == id {
				label = describe(e)
			}
		}
		if !confirm(cmd.InOrStdin(), out, fmt.Sprintf("Delete timesheet %s?", label)) {
			o.CancelDelete()
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}
	}

	if err := o.ConfirmDelete(ctx); err != nil {
		return explain(err)
	}
	fmt.Fprintf(out, "Deleted timesheet %s\n", id)
	return nil
}

// confirm asks a yes/no question; anything but y or yes is a no.
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", question)
	line, _ := bufio.NewReader(in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
