package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/timesheet/internal/client"
)

var (
	loginEmail    string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store a session token",
	Long: `Sign in with the server's credentials. The token is stored in
~/.tsm/token.json and used by every other command until it expires.
The password is read from --password, TSM_PASSWORD or a prompt.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session token",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Account password")
}

func runLogin(cmd *cobra.Command, args []string) error {
	in := bufio.NewReader(cmd.InOrStdin())
	out := cmd.OutOrStdout()

	email := loginEmail
	if email == "" {
		email = prompt(in, out, "Email: ")
	}
	password := loginPassword
	if password == "" {
		password = os.Getenv("TSM_PASSWORD")
	}
	if password == "" {
		password = prompt(in, out, "Password: ")
	}

	ctx := context.Background()
	tok, err := client.New(ctx, serverURL, nil).Login(ctx, email, password)
	if err != nil {
		return err
	}

	path, err := client.TokenFilePath()
	if err != nil {
		return err
	}
	if err := client.SaveToken(path, tok); err != nil {
		return err
	}
	fmt.Fprintf(out, "Signed in to %s until %s\n", serverURL, tok.Expiry.Local().Format("Mon 15:04"))
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	path, err := client.TokenFilePath()
	if err != nil {
		return err
	}
	if err := client.DeleteToken(path); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
	return nil
}

// prompt prints label and reads one trimmed line.
func prompt(in *bufio.Reader, out io.Writer, label string) string {
	fmt.Fprint(out, label)
	line, _ := in.ReadString('\n')
	return strings.TrimSpace(line)
}
