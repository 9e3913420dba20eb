// Package modal drives the notification modal as an explicit state
// machine: one pure transition function over a tagged union of states,
// with side effects described as values and executed by the Presenter.
package modal

import (
	"github.com/madokanomi/publimatch-cli/internal/types"
)

// Phase names the mutually-exclusive modal views.
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseLoading     Phase = "loading"
	PhaseSuccess     Phase = "success"
	PhaseError       Phase = "error"
	PhaseConfirmSend Phase = "confirm_send"
	PhaseInvitation  Phase = "invitation"
	PhaseFinalize    Phase = "finalize"
)

// State is the full presenter state. The modal is invisible in PhaseIdle.
// Message is set for Success and Error; Notification and Campaign carry
// the flow's subject where applicable.
type State struct {
	Phase        Phase
	Message      string
	Notification types.NotificationItem
	Campaign     types.Campaign
}

// Event is an input to the transition function.
type Event interface{ isEvent() }

// Opened starts a flow from a notification.
type Opened struct{ Notification types.NotificationItem }

// CampaignFetched and FetchFailed resolve the invitation detail fetch.
type CampaignFetched struct{ Campaign types.Campaign }
type FetchFailed struct{ Message string }

// User actions.
type AcceptPressed struct{}
type DeclinePressed struct{}
type ConfirmFinalizePressed struct{}
type RejectFinalizePressed struct{}
type IntroConfirmPressed struct{}
type IntroDeclinePressed struct{}
type ClosePressed struct{}

// Backend outcomes.
type InviteAccepted struct{}
type FinalizeDone struct{}
type IntroSent struct{ ConversationID string }
type ActionFailed struct{ Message string }

// DismissElapsed fires after the auto-dismiss delay.
type DismissElapsed struct{}

func (Opened) isEvent()                 {}
func (CampaignFetched) isEvent()        {}
func (FetchFailed) isEvent()            {}
func (AcceptPressed) isEvent()          {}
func (DeclinePressed) isEvent()         {}
func (ConfirmFinalizePressed) isEvent() {}
func (RejectFinalizePressed) isEvent()  {}
func (IntroConfirmPressed) isEvent()    {}
func (IntroDeclinePressed) isEvent()    {}
func (ClosePressed) isEvent()           {}
func (InviteAccepted) isEvent()         {}
func (FinalizeDone) isEvent()           {}
func (IntroSent) isEvent()              {}
func (ActionFailed) isEvent()           {}
func (DismissElapsed) isEvent()         {}

// Effect is a side effect requested by a transition. The Presenter runs
// them; transitions stay pure.
type Effect interface{ isEffect() }

type FetchCampaign struct{ CampaignID string }
type SubmitAccept struct{ InviteID string }
// SubmitDecline is best-effort: its failure never blocks the flow.
type SubmitDecline struct{ InviteID string }
type SubmitFinalize struct{ CampaignID string }
// SubmitReject is best-effort like SubmitDecline.
type SubmitReject struct{ CampaignID string }
type RemoveNotification struct{ ID string }
type BroadcastCampaignsChanged struct{}
type SendIntro struct {
	CreatorID     string
	CampaignTitle string
}
type NavigateToConversation struct{ ConversationID string }
type ScheduleDismiss struct{}

func (FetchCampaign) isEffect()             {}
func (SubmitAccept) isEffect()              {}
func (SubmitDecline) isEffect()             {}
func (SubmitFinalize) isEffect()            {}
func (SubmitReject) isEffect()              {}
func (RemoveNotification) isEffect()        {}
func (BroadcastCampaignsChanged) isEffect() {}
func (SendIntro) isEffect()                 {}
func (NavigateToConversation) isEffect()    {}
func (ScheduleDismiss) isEffect()           {}

const (
	msgInviteDeclined  = "Invitation declined."
	msgFinalizeDone    = "Campaign finalized."
	msgRejectDone      = "Finalize request rejected."
	msgInviteConfirmed = "You're in! The campaign has been added to your list."
)

// Transition is the single transition function. Unknown (state, event)
// pairs leave the state unchanged with no effects.
func Transition(s State, ev Event) (State, []Effect) {
	switch ev := ev.(type) {
	case Opened:
		if s.Phase != PhaseIdle {
			return s, nil
		}
		switch ev.Notification.Kind {
		case types.NotificationCampaignInvite:
			next := State{Phase: PhaseLoading, Notification: ev.Notification}
			return next, []Effect{FetchCampaign{CampaignID: ev.Notification.CampaignID}}
		case types.NotificationFinalizeRequest:
			return State{Phase: PhaseFinalize, Notification: ev.Notification}, nil
		default:
			return s, nil
		}

	case CampaignFetched:
		if s.Phase != PhaseLoading {
			return s, nil
		}
		next := s
		next.Phase = PhaseInvitation
		next.Campaign = ev.Campaign
		return next, nil

	case FetchFailed:
		if s.Phase != PhaseLoading {
			return s, nil
		}
		next := s
		next.Phase = PhaseError
		next.Message = ev.Message
		return next, []Effect{ScheduleDismiss{}}

	case AcceptPressed:
		if s.Phase != PhaseInvitation {
			return s, nil
		}
		next := s
		next.Phase = PhaseLoading
		return next, []Effect{SubmitAccept{InviteID: s.Notification.RelatedID}}

	case InviteAccepted:
		if s.Phase != PhaseLoading {
			return s, nil
		}
		next := s
		next.Phase = PhaseConfirmSend
		return next, []Effect{
			RemoveNotification{ID: s.Notification.ID},
			BroadcastCampaignsChanged{},
		}

	case DeclinePressed:
		if s.Phase != PhaseInvitation {
			return s, nil
		}
		next := s
		next.Phase = PhaseSuccess
		next.Message = msgInviteDeclined
		return next, []Effect{
			SubmitDecline{InviteID: s.Notification.RelatedID},
			RemoveNotification{ID: s.Notification.ID},
			ScheduleDismiss{},
		}

	case ConfirmFinalizePressed:
		if s.Phase != PhaseFinalize {
			return s, nil
		}
		next := s
		next.Phase = PhaseLoading
		return next, []Effect{SubmitFinalize{CampaignID: s.Notification.CampaignID}}

	case FinalizeDone:
		if s.Phase != PhaseLoading {
			return s, nil
		}
		next := s
		next.Phase = PhaseSuccess
		next.Message = msgFinalizeDone
		return next, []Effect{
			RemoveNotification{ID: s.Notification.ID},
			ScheduleDismiss{},
		}

	case RejectFinalizePressed:
		if s.Phase != PhaseFinalize {
			return s, nil
		}
		next := s
		next.Phase = PhaseSuccess
		next.Message = msgRejectDone
		return next, []Effect{
			SubmitReject{CampaignID: s.Notification.CampaignID},
			RemoveNotification{ID: s.Notification.ID},
			ScheduleDismiss{},
		}

	case IntroConfirmPressed:
		if s.Phase != PhaseConfirmSend {
			return s, nil
		}
		next := s
		next.Phase = PhaseLoading
		return next, []Effect{SendIntro{
			CreatorID:     s.Campaign.CreatorID,
			CampaignTitle: s.Campaign.Title,
		}}

	case IntroSent:
		if s.Phase != PhaseLoading {
			return s, nil
		}
		return State{Phase: PhaseIdle}, []Effect{
			NavigateToConversation{ConversationID: ev.ConversationID},
		}

	case IntroDeclinePressed:
		if s.Phase != PhaseConfirmSend {
			return s, nil
		}
		next := s
		next.Phase = PhaseSuccess
		next.Message = msgInviteConfirmed
		return next, []Effect{ScheduleDismiss{}}

	case ActionFailed:
		if s.Phase != PhaseLoading {
			return s, nil
		}
		next := s
		next.Phase = PhaseError
		next.Message = ev.Message
		return next, []Effect{ScheduleDismiss{}}

	case DismissElapsed:
		if s.Phase != PhaseSuccess && s.Phase != PhaseError {
			return s, nil
		}
		return State{Phase: PhaseIdle}, nil

	case ClosePressed:
		return State{Phase: PhaseIdle}, nil
	}
	return s, nil
}
