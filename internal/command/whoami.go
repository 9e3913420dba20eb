package command

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// NewWhoamiCmd creates the whoami command.
func NewWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer app.Close()

			principal := app.Session.Principal()
			if principal == nil {
				return writeCommandError(cmd, errNotLoggedIn)
			}
			if app.JSONMode {
				view := struct {
					ID           string `json:"id"`
					DisplayName  string `json:"display_name"`
					Role         string `json:"role"`
					CompanyAdmin bool   `json:"company_admin"`
				}{principal.ID, principal.DisplayName, string(principal.Role), principal.CompanyAdmin}
				return json.NewEncoder(cmd.OutOrStdout()).Encode(view)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", principal.DisplayName, principal.Role)
			return nil
		},
	}
}
