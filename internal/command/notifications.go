package command

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/madokanomi/publimatch-cli/internal/cache"
	"github.com/madokanomi/publimatch-cli/internal/types"
)

// NewNotificationsCmd creates the notifications command group.
func NewNotificationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"notifs"},
		Short:   "List and dismiss notifications",
		RunE:    runNotificationsList,
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List notifications, newest first",
			Args:  cobra.NoArgs,
			RunE:  runNotificationsList,
		},
		&cobra.Command{
			Use:     "dismiss <id>",
			Aliases: []string{"ack"},
			Short:   "Dismiss a notification",
			Args:    cobra.ExactArgs(1),
			RunE:    runNotificationsDismiss,
		},
	)
	return cmd
}

func runNotificationsList(cmd *cobra.Command, args []string) error {
	app, err := loadApp(cmd)
	if err != nil {
		return writeCommandError(cmd, err)
	}
	defer app.Close()

	principal := app.Session.Principal()
	if principal == nil {
		return writeCommandError(cmd, errNotLoggedIn)
	}

	fromCache := false
	items, err := app.API.Notifications(cmd.Context())
	if err != nil {
		// Offline fallback: show the last snapshot if one exists.
		cached, cacheErr := loadCachedNotifications(app.Config.StateDir, principal.ID)
		if cacheErr != nil || cached == nil {
			return writeCommandError(cmd, err)
		}
		app.Logger.Warn("serving cached notifications", zap.Error(err))
		items = cached
		fromCache = true
	} else {
		saveCachedNotifications(app, principal.ID, items)
	}

	if app.JSONMode {
		return json.NewEncoder(cmd.OutOrStdout()).Encode(items)
	}

	out := cmd.OutOrStdout()
	if fromCache {
		fmt.Fprintln(out, "(offline, showing cached snapshot)")
	}
	if len(items) == 0 {
		fmt.Fprintln(out, "No notifications")
		return nil
	}
	for _, item := range items {
		age := humanize.Time(time.UnixMilli(item.CreatedAt))
		fmt.Fprintf(out, "%-12s %-10s %s", item.ID, kindLabel(item.Kind), item.Title)
		if item.Subtitle != "" {
			fmt.Fprintf(out, " · %s", item.Subtitle)
		}
		fmt.Fprintf(out, " (%s)\n", age)
	}
	return nil
}

func runNotificationsDismiss(cmd *cobra.Command, args []string) error {
	app, err := loadApp(cmd)
	if err != nil {
		return writeCommandError(cmd, err)
	}
	defer app.Close()

	if app.Session.Principal() == nil {
		return writeCommandError(cmd, errNotLoggedIn)
	}
	if err := app.API.DeleteNotification(cmd.Context(), args[0]); err != nil {
		return writeCommandError(cmd, err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Dismissed.")
	return nil
}

func kindLabel(kind types.NotificationKind) string {
	switch kind {
	case types.NotificationCampaignInvite:
		return "invite"
	case types.NotificationFinalizeRequest:
		return "finalize"
	default:
		return "info"
	}
}

func loadCachedNotifications(stateDir, principalID string) ([]types.NotificationItem, error) {
	store, err := cache.Open(stateDir)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.LoadNotifications(principalID)
}

func saveCachedNotifications(app *App, principalID string, items []types.NotificationItem) {
	store, err := cache.Open(app.Config.StateDir)
	if err != nil {
		app.Logger.Debug("open cache", zap.Error(err))
		return
	}
	defer store.Close()
	if err := store.SaveNotifications(principalID, items); err != nil {
		app.Logger.Debug("cache notifications", zap.Error(err))
	}
}
