package modal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madokanomi/publimatch-cli/internal/api"
	"github.com/madokanomi/publimatch-cli/internal/types"
)

type fakeBackend struct {
	campaign    types.Campaign
	campaignErr error
	inviteErr   error
	finalizeErr error

	inviteCalls   []types.InviteStatus
	finalizeCalls []string
	rejectCalls   []string
}

func (b *fakeBackend) Campaign(ctx context.Context, id string) (types.Campaign, error) {
	if b.campaignErr != nil {
		return types.Campaign{}, b.campaignErr
	}
	return b.campaign, nil
}

func (b *fakeBackend) UpdateInviteStatus(ctx context.Context, inviteID string, status types.InviteStatus) error {
	b.inviteCalls = append(b.inviteCalls, status)
	return b.inviteErr
}

func (b *fakeBackend) FinalizeCampaign(ctx context.Context, id string) error {
	b.finalizeCalls = append(b.finalizeCalls, id)
	return b.finalizeErr
}

func (b *fakeBackend) RejectFinalize(ctx context.Context, id string) error {
	b.rejectCalls = append(b.rejectCalls, id)
	return nil
}

type fakeNotifications struct {
	acked []string
}

func (f *fakeNotifications) Acknowledge(ctx context.Context, id string) error {
	f.acked = append(f.acked, id)
	return nil
}

type fakeConversations struct {
	ensured []string
	sent    []string
}

func (f *fakeConversations) Ensure(ctx context.Context, targetUserID string) (types.ConversationSummary, error) {
	f.ensured = append(f.ensured, targetUserID)
	return types.ConversationSummary{ID: "conv-" + targetUserID}, nil
}

func (f *fakeConversations) Send(ctx context.Context, text, receiverID string) error {
	f.sent = append(f.sent, text)
	return nil
}

// manualClock collects scheduled dismissals and fires them on demand.
type manualClock struct {
	fns []func()
}

func (c *manualClock) schedule(d time.Duration, fn func()) { c.fns = append(c.fns, fn) }

func (c *manualClock) fire() {
	fns := c.fns
	c.fns = nil
	for _, fn := range fns {
		fn()
	}
}

type harness struct {
	presenter     *Presenter
	backend       *fakeBackend
	notifications *fakeNotifications
	conversations *fakeConversations
	clock         *manualClock
	broadcasts    int
	navigated     []string
}

func newHarness(t *testing.T, backend *fakeBackend) *harness {
	t.Helper()
	h := &harness{
		backend:       backend,
		notifications: &fakeNotifications{},
		conversations: &fakeConversations{},
		clock:         &manualClock{},
	}
	h.presenter = NewPresenter(Options{
		Backend:            backend,
		Notifications:      h.notifications,
		Conversations:      h.conversations,
		OnCampaignsChanged: func() { h.broadcasts++ },
		OnNavigate:         func(id string) { h.navigated = append(h.navigated, id) },
		Schedule:           h.clock.schedule,
	})
	return h
}

func inviteNotification() types.NotificationItem {
	return types.NotificationItem{
		ID:         "inv1",
		Title:      "Campaign invitation",
		Kind:       types.NotificationCampaignInvite,
		RelatedID:  "invite-9",
		CampaignID: "camp-1",
	}
}

func finalizeNotification() types.NotificationItem {
	return types.NotificationItem{
		ID:         "fin1",
		Title:      "Finalize request",
		Kind:       types.NotificationFinalizeRequest,
		CampaignID: "camp-1",
	}
}

func TestOpenInvitationFetchesCampaign(t *testing.T) {
	h := newHarness(t, &fakeBackend{campaign: types.Campaign{ID: "camp-1", Title: "Summer", CreatorID: "u-adv"}})

	h.presenter.Open(context.Background(), inviteNotification())

	state := h.presenter.State()
	assert.Equal(t, PhaseInvitation, state.Phase)
	assert.Equal(t, "Summer", state.Campaign.Title)
}

func TestOpenInvitationFetchFailureShowsBackendMessage(t *testing.T) {
	h := newHarness(t, &fakeBackend{campaignErr: &api.APIError{Status: 500, Message: "campaign unavailable"}})

	h.presenter.Open(context.Background(), inviteNotification())

	state := h.presenter.State()
	require.Equal(t, PhaseError, state.Phase)
	assert.Equal(t, "campaign unavailable", state.Message)

	// Auto-dismiss returns to Idle after the fixed delay.
	h.clock.fire()
	assert.Equal(t, PhaseIdle, h.presenter.State().Phase)
}

func TestAcceptInviteFlow(t *testing.T) {
	h := newHarness(t, &fakeBackend{campaign: types.Campaign{ID: "camp-1", Title: "Summer", CreatorID: "u-adv"}})
	h.presenter.Open(context.Background(), inviteNotification())

	h.presenter.Accept(context.Background())

	state := h.presenter.State()
	assert.Equal(t, PhaseConfirmSend, state.Phase, "accept lands on the send-message confirmation, not Success")
	assert.Equal(t, []types.InviteStatus{types.InviteAccepted}, h.backend.inviteCalls)
	assert.Equal(t, []string{"inv1"}, h.notifications.acked, "source notification removed from the feed")
	assert.Equal(t, 1, h.broadcasts, "campaigns-changed broadcast sent")
}

func TestAcceptFailureShowsError(t *testing.T) {
	h := newHarness(t, &fakeBackend{
		campaign:  types.Campaign{ID: "camp-1"},
		inviteErr: &api.APIError{Status: 409, Message: "invite already handled"},
	})
	h.presenter.Open(context.Background(), inviteNotification())

	h.presenter.Accept(context.Background())

	state := h.presenter.State()
	assert.Equal(t, PhaseError, state.Phase)
	assert.Equal(t, "invite already handled", state.Message)
	assert.Empty(t, h.notifications.acked)
}

func TestDeclineInvite(t *testing.T) {
	h := newHarness(t, &fakeBackend{campaign: types.Campaign{ID: "camp-1"}})
	h.presenter.Open(context.Background(), inviteNotification())

	h.presenter.Decline(context.Background())

	state := h.presenter.State()
	assert.Equal(t, PhaseSuccess, state.Phase)
	assert.Equal(t, []types.InviteStatus{types.InviteDeclined}, h.backend.inviteCalls)
	assert.Equal(t, []string{"inv1"}, h.notifications.acked)

	h.clock.fire()
	assert.Equal(t, PhaseIdle, h.presenter.State().Phase)
}

func TestIntroConfirmSendsAndNavigates(t *testing.T) {
	h := newHarness(t, &fakeBackend{campaign: types.Campaign{ID: "camp-1", Title: "Summer", CreatorID: "u-adv"}})
	h.presenter.Open(context.Background(), inviteNotification())
	h.presenter.Accept(context.Background())
	require.Equal(t, PhaseConfirmSend, h.presenter.State().Phase)

	h.presenter.ConfirmIntro(context.Background())

	assert.Equal(t, PhaseIdle, h.presenter.State().Phase, "modal closes after sending")
	assert.Equal(t, []string{"u-adv"}, h.conversations.ensured)
	require.Len(t, h.conversations.sent, 1)
	assert.Contains(t, h.conversations.sent[0], "Summer")
	assert.Equal(t, []string{"conv-u-adv"}, h.navigated)
}

func TestIntroDecline(t *testing.T) {
	h := newHarness(t, &fakeBackend{campaign: types.Campaign{ID: "camp-1", CreatorID: "u-adv"}})
	h.presenter.Open(context.Background(), inviteNotification())
	h.presenter.Accept(context.Background())

	h.presenter.DeclineIntro(context.Background())

	assert.Equal(t, PhaseSuccess, h.presenter.State().Phase)
	assert.Empty(t, h.conversations.sent)
}

func TestFinalizeFlow(t *testing.T) {
	h := newHarness(t, &fakeBackend{})
	h.presenter.Open(context.Background(), finalizeNotification())
	require.Equal(t, PhaseFinalize, h.presenter.State().Phase)

	h.presenter.ConfirmFinalize(context.Background())

	assert.Equal(t, PhaseSuccess, h.presenter.State().Phase)
	assert.Equal(t, []string{"camp-1"}, h.backend.finalizeCalls)
	assert.Equal(t, []string{"fin1"}, h.notifications.acked)
}

func TestRejectFinalize(t *testing.T) {
	h := newHarness(t, &fakeBackend{})
	h.presenter.Open(context.Background(), finalizeNotification())

	h.presenter.RejectFinalize(context.Background())

	assert.Equal(t, PhaseSuccess, h.presenter.State().Phase)
	assert.Equal(t, []string{"camp-1"}, h.backend.rejectCalls)
	assert.Equal(t, []string{"fin1"}, h.notifications.acked)
}

func TestGenericNotificationHasNoModalFlow(t *testing.T) {
	h := newHarness(t, &fakeBackend{})
	h.presenter.Open(context.Background(), types.NotificationItem{ID: "g1", Kind: types.NotificationGeneric})
	assert.Equal(t, PhaseIdle, h.presenter.State().Phase)
}

func TestHoldDefersDismiss(t *testing.T) {
	h := newHarness(t, &fakeBackend{})
	h.presenter.Open(context.Background(), finalizeNotification())
	h.presenter.RejectFinalize(context.Background())
	require.Equal(t, PhaseSuccess, h.presenter.State().Phase)

	h.presenter.SetHold(context.Background(), true)
	h.clock.fire()
	assert.Equal(t, PhaseSuccess, h.presenter.State().Phase, "dismiss deferred while a sub-dialog shows")

	h.presenter.SetHold(context.Background(), false)
	assert.Equal(t, PhaseIdle, h.presenter.State().Phase, "deferred dismiss delivered on release")
}

func TestTransitionIgnoresMismatchedEvents(t *testing.T) {
	tests := []struct {
		name  string
		state State
		event Event
	}{
		{"accept while idle", State{Phase: PhaseIdle}, AcceptPressed{}},
		{"fetched while invitation", State{Phase: PhaseInvitation}, CampaignFetched{}},
		{"dismiss while loading", State{Phase: PhaseLoading}, DismissElapsed{}},
		{"finalize confirm while invitation", State{Phase: PhaseInvitation}, ConfirmFinalizePressed{}},
		{"open while loading", State{Phase: PhaseLoading}, Opened{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, effects := Transition(tt.state, tt.event)
			assert.Equal(t, tt.state, next)
			assert.Empty(t, effects)
		})
	}
}
