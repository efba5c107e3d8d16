package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/timesheet/internal/client"
)

var (
	serverURL  string
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "tsm",
	Short: "tsm – weekly timesheet manager",
	Long: `tsm runs the timesheet server (tsm serve) and talks to it from the
command line. Timesheets live in the server's memory for as long as it runs.`,
	SilenceUsage: true,
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	defaultServer := client.DefaultServer
	if v := os.Getenv("TSM_SERVER"); v != "" {
		defaultServer = v
	}
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", defaultServer, "Server base URL (env TSM_SERVER)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Server config file, YAML (env TSM_CONFIG)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(exportCmd)
}

var errNotSignedIn = errors.New("not signed in, run `tsm login` first")

// apiClient returns a client carrying the stored token.
func apiClient(ctx context.Context) (*client.Client, error) {
	path, err := client.TokenFilePath()
	if err != nil {
		return nil, err
	}
	tok, err := client.LoadToken(path)
	if err != nil {
		return nil, err
	}
	if tok == nil || !tok.Valid() {
		return nil, errNotSignedIn
	}
	return client.New(ctx, serverURL, tok), nil
}

// explain rewrites a rejected token into a hint.
func explain(err error) error {
	if errors.Is(err, client.ErrUnauthorized) {
		return fmt.Errorf("session expired or rejected: %w", errNotSignedIn)
	}
	return err
}
