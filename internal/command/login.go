package command

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// NewLoginCmd creates the login command.
func NewLoginCmd() *cobra.Command {
	var password string
	var sessionOnly bool

	cmd := &cobra.Command{
		Use:   "login <email>",
		Short: "Authenticate against the marketplace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer app.Close()

			if password == "" {
				password, err = promptPassword(cmd)
				if err != nil {
					return writeCommandError(cmd, err)
				}
			}

			result := app.Session.Login(cmd.Context(), args[0], password, !sessionOnly)
			if !result.Success {
				return writeCommandError(cmd, fmt.Errorf("%s", result.Message))
			}

			principal := app.Session.Principal()
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", principal.DisplayName, principal.Role)
			if sessionOnly {
				fmt.Fprintln(cmd.OutOrStdout(), "Session only: you will be logged out after reboot.")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted when omitted)")
	cmd.Flags().BoolVar(&sessionOnly, "session", false, "do not remember the login across reboots")
	return cmd
}

func promptPassword(cmd *cobra.Command) (string, error) {
	fmt.Fprint(cmd.OutOrStdout(), "Password: ")
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
