// Package dash implements the interactive dashboard. It renders the
// notification feed, conversation list and selected conversation side by
// side, with the notification modal as an overlay. All domain state lives
// in the feed, session and modal packages; the dashboard only subscribes
// and renders.
package dash

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/madokanomi/publimatch-cli/internal/cache"
	"github.com/madokanomi/publimatch-cli/internal/feed"
	"github.com/madokanomi/publimatch-cli/internal/modal"
	"github.com/madokanomi/publimatch-cli/internal/realtime"
	"github.com/madokanomi/publimatch-cli/internal/session"
	"github.com/madokanomi/publimatch-cli/internal/types"
)

// Options configure the dashboard.
type Options struct {
	Session       *session.Store
	Channel       *realtime.Channel
	Notifications *feed.Notifications
	Conversations *feed.Conversations
	Backend       modal.Backend
	Cache         *cache.Cache
	Logger        *zap.Logger
}

// Run starts the dashboard and blocks until the user quits.
func Run(ctx context.Context, opts Options) error {
	principal := opts.Session.Principal()
	if principal == nil {
		return fmt.Errorf("not logged in")
	}

	model := NewModel(ctx, opts, principal)

	fmt.Printf("\033]0;%s\007", "publimatch · "+principal.DisplayName)

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())

	// The presenter is built here, not in the command layer, because its
	// callbacks have to reach the running program.
	model.presenter = modal.NewPresenter(modal.Options{
		Backend:       opts.Backend,
		Notifications: opts.Notifications,
		Conversations: opts.Conversations,
		Logger:        opts.Logger,
		OnChange: func(s modal.State) {
			program.Send(modalChangedMsg{state: s})
		},
		OnNavigate: func(conversationID string) {
			program.Send(navigateMsg{conversationID: conversationID})
		},
		OnCampaignsChanged: func() {
			program.Send(campaignsChangedMsg{})
		},
	})

	cancelNotif := opts.Notifications.Subscribe(func() {
		program.Send(notificationsChangedMsg{})
	})
	defer cancelNotif()
	cancelConv := opts.Conversations.Subscribe(func() {
		program.Send(conversationsChangedMsg{})
	})
	defer cancelConv()
	cancelSession := opts.Session.Subscribe(func(p *types.Principal) {
		program.Send(sessionChangedMsg{principal: p})
	})
	defer cancelSession()
	cancelEvents := opts.Channel.Subscribe(func(ev realtime.Event) {
		model.maybeNotify(ev)
	})
	defer cancelEvents()

	_, err := program.Run()
	return err
}
