package command

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/madokanomi/publimatch-cli/internal/cache"
	"github.com/madokanomi/publimatch-cli/internal/dash"
	"github.com/madokanomi/publimatch-cli/internal/feed"
	"github.com/madokanomi/publimatch-cli/internal/realtime"
	"github.com/madokanomi/publimatch-cli/internal/types"
)

// NewDashCmd creates the dashboard command.
func NewDashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dash",
		Short: "Open the interactive dashboard",
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

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			channel := realtime.NewChannel(realtime.Options{
				URL:    app.Config.SocketURL,
				Logger: app.Logger,
				NewBackoff: func() *realtime.Backoff {
					r := app.Config.Reconnect
					return realtime.NewBackoff(r.BaseDelay, r.MaxDelay, r.Factor)
				},
			})
			defer channel.Close()

			notifications := feed.NewNotifications(app.API, app.Logger)
			conversations := feed.NewConversations(app.API, app.Logger)

			// Realtime deltas flow into both feeds; each ignores the
			// event kinds it does not own.
			cancelEvents := channel.Subscribe(func(ev realtime.Event) {
				notifications.Apply(ev)
				conversations.Apply(ev)
			})
			defer cancelEvents()

			// Session changes reconcile the connection and both feeds.
			cancelSession := app.Session.Subscribe(func(p *types.Principal) {
				channel.SetPrincipal(p)
				notifications.SetSession(ctx, p)
				conversations.SetSession(ctx, p)
			})
			defer cancelSession()

			notifications.SetSession(ctx, principal)
			conversations.SetSession(ctx, principal)
			channel.SetPrincipal(principal)

			// Pick up logins and logouts done by other processes.
			go func() {
				if err := app.Session.Watch(ctx); err != nil && ctx.Err() == nil {
					app.Logger.Warn("session watch", zap.Error(err))
				}
			}()

			store, err := cache.Open(app.Config.StateDir)
			if err != nil {
				app.Logger.Warn("open cache", zap.Error(err))
				store = nil
			} else {
				defer store.Close()
			}

			return dash.Run(ctx, dash.Options{
				Session:       app.Session,
				Channel:       channel,
				Notifications: notifications,
				Conversations: conversations,
				Backend:       app.API,
				Cache:         store,
				Logger:        app.Logger,
			})
		},
	}
}
