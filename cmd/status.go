package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/timesheet/internal/client"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server and sign-in status",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	out := cmd.OutOrStdout()

	h, err := client.New(ctx, serverURL, nil).Health(ctx)
	if err != nil {
		fmt.Fprintf(out, "Server: %s unreachable\n", serverURL)
		return err
	}
	fmt.Fprintf(out, "Server: %s (%s, %d timesheets)\n", serverURL, h.Status, h.Entries)

	c, err := apiClient(ctx)
	if errors.Is(err, errNotSignedIn) {
		fmt.Fprintln(out, "Not signed in.")
		return nil
	}
	if err != nil {
		return err
	}
	if _, err := c.List(ctx); err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			fmt.Fprintln(out, "Stored token was rejected, run `tsm login`.")
			return nil
		}
		return err
	}
	fmt.Fprintln(out, "Signed in.")
	return nil
}
