package modal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/madokanomi/publimatch-cli/internal/api"
	"github.com/madokanomi/publimatch-cli/internal/types"
)

const defaultDismissAfter = 3 * time.Second

// Backend is the slice of the API client the presenter needs.
type Backend interface {
	Campaign(ctx context.Context, id string) (types.Campaign, error)
	UpdateInviteStatus(ctx context.Context, inviteID string, status types.InviteStatus) error
	FinalizeCampaign(ctx context.Context, id string) error
	RejectFinalize(ctx context.Context, id string) error
}

// NotificationFeed is what the presenter needs from the notification feed.
type NotificationFeed interface {
	Acknowledge(ctx context.Context, id string) error
}

// ConversationFeed is what the presenter needs from the conversation feed.
type ConversationFeed interface {
	Ensure(ctx context.Context, targetUserID string) (types.ConversationSummary, error)
	Send(ctx context.Context, text, receiverID string) error
}

// Options configure a Presenter.
type Options struct {
	Backend       Backend
	Notifications NotificationFeed
	Conversations ConversationFeed
	Logger        *zap.Logger

	// OnCampaignsChanged is the generic "campaigns changed" broadcast
	// other views refresh from. Optional.
	OnCampaignsChanged func()
	// OnNavigate is called after an intro message is sent, with the
	// conversation to open. Optional.
	OnNavigate func(conversationID string)
	// OnChange observes every state change. Optional.
	OnChange func(State)

	DismissAfter time.Duration
	// Schedule defers fn by d. Defaults to time.AfterFunc. Tests inject
	// a manual scheduler.
	Schedule func(d time.Duration, fn func())
}

// Presenter owns the modal state and executes effects. All its methods
// run effects synchronously; callers that must not block (the TUI) wrap
// them in commands.
type Presenter struct {
	opts Options

	mu          sync.Mutex
	state       State
	hold        bool // a confirmation sub-dialog is showing
	heldDismiss bool // a dismiss fired while held
	dismissGen  int
}

// NewPresenter creates a presenter in PhaseIdle.
func NewPresenter(opts Options) *Presenter {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.DismissAfter <= 0 {
		opts.DismissAfter = defaultDismissAfter
	}
	if opts.Schedule == nil {
		opts.Schedule = func(d time.Duration, fn func()) { time.AfterFunc(d, fn) }
	}
	return &Presenter{opts: opts, state: State{Phase: PhaseIdle}}
}

// State returns the current state.
func (p *Presenter) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Open starts the flow for a notification. Generic notifications have no
// modal flow and leave the presenter idle.
func (p *Presenter) Open(ctx context.Context, n types.NotificationItem) {
	p.handle(ctx, Opened{Notification: n})
}

// Accept accepts the campaign invitation being shown.
func (p *Presenter) Accept(ctx context.Context) { p.handle(ctx, AcceptPressed{}) }

// Decline declines the campaign invitation being shown.
func (p *Presenter) Decline(ctx context.Context) { p.handle(ctx, DeclinePressed{}) }

// ConfirmFinalize confirms the finalize request being shown.
func (p *Presenter) ConfirmFinalize(ctx context.Context) { p.handle(ctx, ConfirmFinalizePressed{}) }

// RejectFinalize rejects the finalize request being shown.
func (p *Presenter) RejectFinalize(ctx context.Context) { p.handle(ctx, RejectFinalizePressed{}) }

// ConfirmIntro sends the auto-composed opening message to the campaign
// creator and navigates to that conversation.
func (p *Presenter) ConfirmIntro(ctx context.Context) { p.handle(ctx, IntroConfirmPressed{}) }

// DeclineIntro skips the opening message.
func (p *Presenter) DeclineIntro(ctx context.Context) { p.handle(ctx, IntroDeclinePressed{}) }

// Close dismisses the modal from any state.
func (p *Presenter) Close(ctx context.Context) { p.handle(ctx, ClosePressed{}) }

// SetHold marks a confirmation sub-dialog as showing. While held, the
// auto-dismiss is deferred; releasing the hold delivers a deferred
// dismiss if one fired meanwhile.
func (p *Presenter) SetHold(ctx context.Context, hold bool) {
	p.mu.Lock()
	p.hold = hold
	fire := !hold && p.heldDismiss
	p.heldDismiss = false
	p.mu.Unlock()
	if fire {
		p.handle(ctx, DismissElapsed{})
	}
}

func (p *Presenter) handle(ctx context.Context, ev Event) {
	queue := []Event{ev}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]

		p.mu.Lock()
		if _, isDismiss := next.(DismissElapsed); isDismiss && p.hold {
			p.heldDismiss = true
			p.mu.Unlock()
			continue
		}
		before := p.state
		after, effects := Transition(before, next)
		changed := after != before
		p.state = after
		if changed {
			p.dismissGen++ // invalidate older scheduled dismissals
		}
		gen := p.dismissGen
		p.mu.Unlock()

		if changed && p.opts.OnChange != nil {
			p.opts.OnChange(after)
		}
		for _, effect := range effects {
			if follow := p.run(ctx, effect, gen); follow != nil {
				queue = append(queue, follow)
			}
		}
	}
}

// run executes one effect and returns the follow-up event, if any.
func (p *Presenter) run(ctx context.Context, effect Effect, gen int) Event {
	log := p.opts.Logger
	switch effect := effect.(type) {
	case FetchCampaign:
		campaign, err := p.opts.Backend.Campaign(ctx, effect.CampaignID)
		if err != nil {
			return FetchFailed{Message: errorMessage(err)}
		}
		return CampaignFetched{Campaign: campaign}

	case SubmitAccept:
		if err := p.opts.Backend.UpdateInviteStatus(ctx, effect.InviteID, types.InviteAccepted); err != nil {
			return ActionFailed{Message: errorMessage(err)}
		}
		return InviteAccepted{}

	case SubmitDecline:
		if err := p.opts.Backend.UpdateInviteStatus(ctx, effect.InviteID, types.InviteDeclined); err != nil {
			log.Warn("decline status update failed", zap.Error(err))
		}
		return nil

	case SubmitFinalize:
		if err := p.opts.Backend.FinalizeCampaign(ctx, effect.CampaignID); err != nil {
			return ActionFailed{Message: errorMessage(err)}
		}
		return FinalizeDone{}

	case SubmitReject:
		if err := p.opts.Backend.RejectFinalize(ctx, effect.CampaignID); err != nil {
			log.Warn("reject finalize failed", zap.Error(err))
		}
		return nil

	case RemoveNotification:
		if err := p.opts.Notifications.Acknowledge(ctx, effect.ID); err != nil {
			// The feed keeps the removal and retries the delete itself.
			log.Warn("notification acknowledge failed", zap.Error(err))
		}
		return nil

	case BroadcastCampaignsChanged:
		if p.opts.OnCampaignsChanged != nil {
			p.opts.OnCampaignsChanged()
		}
		return nil

	case SendIntro:
		conv, err := p.opts.Conversations.Ensure(ctx, effect.CreatorID)
		if err != nil {
			return ActionFailed{Message: errorMessage(err)}
		}
		text := fmt.Sprintf("Hi! I just joined your campaign %q. Looking forward to working together!", effect.CampaignTitle)
		if err := p.opts.Conversations.Send(ctx, text, effect.CreatorID); err != nil {
			return ActionFailed{Message: errorMessage(err)}
		}
		return IntroSent{ConversationID: conv.ID}

	case NavigateToConversation:
		if p.opts.OnNavigate != nil {
			p.opts.OnNavigate(effect.ConversationID)
		}
		return nil

	case ScheduleDismiss:
		p.opts.Schedule(p.opts.DismissAfter, func() {
			p.mu.Lock()
			stale := gen != p.dismissGen
			p.mu.Unlock()
			if stale {
				return
			}
			p.handle(context.Background(), DismissElapsed{})
		})
		return nil
	}
	return nil
}

// errorMessage extracts the backend-supplied message when there is one.
func errorMessage(err error) string {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return "Something went wrong. Please try again."
}
