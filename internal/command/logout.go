package command

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/madokanomi/publimatch-cli/internal/cache"
)

// NewLogoutCmd creates the logout command.
func NewLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored login",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer app.Close()

			principal := app.Session.Principal()
			app.Session.Logout()

			if principal != nil {
				if store, err := cache.Open(app.Config.StateDir); err == nil {
					_ = store.Clear(principal.ID)
					_ = store.Close()
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}
