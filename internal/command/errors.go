package command

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/madokanomi/publimatch-cli/internal/api"
)

func writeCommandError(cmd *cobra.Command, err error) error {
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err.Error())

	var apiErr *api.APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
		fmt.Fprintln(cmd.ErrOrStderr(), "Hint: your session may have expired. Try: pm login")
	}

	return err
}

// errNotLoggedIn is returned by commands that require a principal.
var errNotLoggedIn = errors.New("not logged in. Try: pm login <email>")
