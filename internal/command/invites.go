package command

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/madokanomi/publimatch-cli/internal/feed"
	"github.com/madokanomi/publimatch-cli/internal/modal"
	"github.com/madokanomi/publimatch-cli/internal/types"
)

// NewInviteCmd creates the invite command group. Accept and decline run
// the same flow the dashboard modal runs, so the notification is removed
// and the intro message offer behaves identically.
func NewInviteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invite",
		Short: "Respond to campaign invitations",
	}

	var intro bool
	accept := &cobra.Command{
		Use:   "accept <notification-id>",
		Short: "Accept a campaign invitation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInvite(cmd, args[0], true, intro)
		},
	}
	accept.Flags().BoolVar(&intro, "intro", false, "send an intro message to the campaign creator")

	decline := &cobra.Command{
		Use:   "decline <notification-id>",
		Short: "Decline a campaign invitation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInvite(cmd, args[0], false, false)
		},
	}

	cmd.AddCommand(accept, decline)
	return cmd
}

func runInvite(cmd *cobra.Command, notificationID string, accept, intro bool) error {
	app, err := loadApp(cmd)
	if err != nil {
		return writeCommandError(cmd, err)
	}
	defer app.Close()

	principal := app.Session.Principal()
	if principal == nil {
		return writeCommandError(cmd, errNotLoggedIn)
	}

	ctx := cmd.Context()

	notifications := feed.NewNotifications(app.API, app.Logger)
	conversations := feed.NewConversations(app.API, app.Logger)
	notifications.SetSession(ctx, principal)
	conversations.SetSession(ctx, principal)
	if err := notifications.Refresh(ctx); err != nil {
		return writeCommandError(cmd, err)
	}

	var item *types.NotificationItem
	for _, candidate := range notifications.Items() {
		if candidate.ID == notificationID {
			item = &candidate
			break
		}
	}
	if item == nil {
		return writeCommandError(cmd, fmt.Errorf("notification %q not found", notificationID))
	}
	if item.Kind != types.NotificationCampaignInvite {
		return writeCommandError(cmd, fmt.Errorf("notification %q is not a campaign invitation", notificationID))
	}

	var navigatedTo string
	presenter := modal.NewPresenter(modal.Options{
		Backend:       app.API,
		Notifications: notifications,
		Conversations: conversations,
		Logger:        app.Logger,
		OnNavigate:    func(conversationID string) { navigatedTo = conversationID },
		// No auto-dismiss timers in one-shot mode.
		Schedule: func(time.Duration, func()) {},
	})

	presenter.Open(ctx, *item)
	if state := presenter.State(); state.Phase == modal.PhaseError {
		return writeCommandError(cmd, fmt.Errorf("%s", state.Message))
	}

	out := cmd.OutOrStdout()
	if !accept {
		presenter.Decline(ctx)
		state := presenter.State()
		if state.Phase == modal.PhaseError {
			return writeCommandError(cmd, fmt.Errorf("%s", state.Message))
		}
		fmt.Fprintln(out, state.Message)
		return nil
	}

	presenter.Accept(ctx)
	state := presenter.State()
	if state.Phase == modal.PhaseError {
		return writeCommandError(cmd, fmt.Errorf("%s", state.Message))
	}

	if intro {
		presenter.ConfirmIntro(ctx)
		state = presenter.State()
		if state.Phase == modal.PhaseError {
			return writeCommandError(cmd, fmt.Errorf("%s", state.Message))
		}
		fmt.Fprintln(out, "Invitation accepted, intro message sent.")
		if navigatedTo != "" {
			fmt.Fprintf(out, "Conversation: %s\n", navigatedTo)
		}
		return nil
	}

	presenter.DeclineIntro(ctx)
	fmt.Fprintln(out, "Invitation accepted.")
	return nil
}
