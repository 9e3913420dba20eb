package feed

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/madokanomi/publimatch-cli/internal/realtime"
	"github.com/madokanomi/publimatch-cli/internal/types"
)

// ErrNoSelection is returned by Send when no conversation is selected or
// no principal exists.
var ErrNoSelection = errors.New("feed: no conversation selected")

// ConversationBackend is the slice of the API client the feed needs.
type ConversationBackend interface {
	Conversations(ctx context.Context) ([]types.ConversationSummary, error)
	Messages(ctx context.Context, conversationID string) ([]types.Message, error)
	SendMessage(ctx context.Context, conversationID, receiverID, text string) (types.Message, error)
	EnsureConversation(ctx context.Context, targetUserID string) (types.ConversationSummary, error)
}

// Conversations holds the conversation summaries (most recently active
// first), the selected conversation and its message list.
type Conversations struct {
	backend ConversationBackend
	logger  *zap.Logger

	mu         sync.Mutex
	principal  *types.Principal
	summaries  []types.ConversationSummary
	selectedID string
	messages   []types.Message
	appended   map[string]bool // message ids already in the selected list

	subMu   sync.Mutex
	subs    map[int]func()
	nextSub int
}

// NewConversations creates an empty feed.
func NewConversations(backend ConversationBackend, logger *zap.Logger) *Conversations {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Conversations{
		backend:  backend,
		logger:   logger,
		appended: map[string]bool{},
		subs:     map[int]func(){},
	}
}

// Subscribe registers a change callback. Returns a cancel func.
func (f *Conversations) Subscribe(fn func()) func() {
	f.subMu.Lock()
	id := f.nextSub
	f.nextSub++
	f.subs[id] = fn
	f.subMu.Unlock()
	return func() {
		f.subMu.Lock()
		delete(f.subs, id)
		f.subMu.Unlock()
	}
}

func (f *Conversations) changed() {
	f.subMu.Lock()
	fns := make([]func(), 0, len(f.subs))
	for _, fn := range f.subs {
		fns = append(fns, fn)
	}
	f.subMu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Summaries returns a copy of the collection, most recently active first.
func (f *Conversations) Summaries() []types.ConversationSummary {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]types.ConversationSummary, len(f.summaries))
	copy(out, f.summaries)
	return out
}

// SelectedID returns the selected conversation id, or empty.
func (f *Conversations) SelectedID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.selectedID
}

// Selected returns the selected summary, if any.
func (f *Conversations) Selected() (types.ConversationSummary, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.summaries {
		if s.ID == f.selectedID {
			return s, true
		}
	}
	return types.ConversationSummary{}, false
}

// Messages returns a copy of the selected conversation's message list.
func (f *Conversations) Messages() []types.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]types.Message, len(f.messages))
	copy(out, f.messages)
	return out
}

// SetSession resets the feed for a session change: nil clears everything,
// a principal triggers a refetch. A switch to a different principal drops
// the previous account's summaries, selection and messages before the
// refetch.
func (f *Conversations) SetSession(ctx context.Context, p *types.Principal) {
	f.mu.Lock()
	previous := f.principal
	f.principal = p
	if p == nil || previous == nil || previous.ID != p.ID {
		f.summaries = nil
		f.selectedID = ""
		f.messages = nil
		f.appended = map[string]bool{}
	}
	f.mu.Unlock()
	if p == nil {
		f.changed()
		return
	}
	if err := f.Refresh(ctx); err != nil {
		f.logger.Warn("conversation refresh failed", zap.Error(err))
	}
}

// Refresh fetches the summary snapshot, deduplicated by id, keeping the
// server's ordering.
func (f *Conversations) Refresh(ctx context.Context) error {
	snapshot, err := f.backend.Conversations(ctx)
	if err != nil {
		return err
	}

	f.mu.Lock()
	seen := map[string]bool{}
	merged := make([]types.ConversationSummary, 0, len(snapshot))
	for _, s := range snapshot {
		if seen[s.ID] {
			continue
		}
		merged = append(merged, s)
		seen[s.ID] = true
	}
	f.summaries = merged
	if f.selectedID != "" && !seen[f.selectedID] {
		f.selectedID = ""
		f.messages = nil
		f.appended = map[string]bool{}
	}
	f.mu.Unlock()

	f.changed()
	return nil
}

// Select fetches the conversation's messages and makes it current.
func (f *Conversations) Select(ctx context.Context, conversationID string) error {
	msgs, err := f.backend.Messages(ctx, conversationID)
	if err != nil {
		return err
	}

	f.mu.Lock()
	f.selectedID = conversationID
	f.messages = msgs
	f.appended = make(map[string]bool, len(msgs))
	for _, m := range msgs {
		f.appended[m.ID] = true
	}
	f.mu.Unlock()

	f.changed()
	return nil
}

// Apply folds a realtime event into the feed. A message for the selected
// conversation is appended (once); the matching summary is updated in
// place and moved to the front, all other summaries keep their relative
// order.
func (f *Conversations) Apply(ev realtime.Event) {
	if ev.Kind != realtime.EventNewMessage || ev.Message == nil {
		return
	}
	msg := *ev.Message

	f.mu.Lock()
	if msg.ConversationID == f.selectedID && f.selectedID != "" && !f.appended[msg.ID] {
		f.messages = append(f.messages, msg)
		f.appended[msg.ID] = true
	}
	f.touchSummaryLocked(msg)
	f.mu.Unlock()

	f.changed()
}

// touchSummaryLocked updates the summary for the message's conversation
// and moves it to index 0. An unknown conversation gets a stub summary so
// the push is not lost; the next refresh fills in the participants.
func (f *Conversations) touchSummaryLocked(msg types.Message) {
	last := types.LastMessage{Text: msg.Text, SenderID: msg.SenderID, CreatedAt: msg.CreatedAt}
	for i, s := range f.summaries {
		if s.ID != msg.ConversationID {
			continue
		}
		s.LastMessage = last
		f.summaries = append(f.summaries[:i], f.summaries[i+1:]...)
		f.summaries = append([]types.ConversationSummary{s}, f.summaries...)
		return
	}

	stub := types.ConversationSummary{ID: msg.ConversationID, LastMessage: last}
	stub.Participants[0] = types.UserRef{ID: msg.SenderID}
	if f.principal != nil {
		stub.Participants[1] = types.UserRef{ID: f.principal.ID, DisplayName: f.principal.DisplayName}
	}
	f.summaries = append([]types.ConversationSummary{stub}, f.summaries...)
}

// Send posts a message to the selected conversation and appends the
// server echo. The realtime echo of the same message id is a no-op, so
// the sender never sees a duplicate regardless of server-side event
// scoping.
func (f *Conversations) Send(ctx context.Context, text, receiverID string) error {
	f.mu.Lock()
	conversationID := f.selectedID
	principal := f.principal
	f.mu.Unlock()
	if conversationID == "" || principal == nil {
		return ErrNoSelection
	}

	echo, err := f.backend.SendMessage(ctx, conversationID, receiverID, text)
	if err != nil {
		return err
	}

	f.mu.Lock()
	if f.selectedID == conversationID && !f.appended[echo.ID] {
		f.messages = append(f.messages, echo)
		f.appended[echo.ID] = true
	}
	f.touchSummaryLocked(echo)
	f.mu.Unlock()

	f.changed()
	return nil
}

// Ensure gets or creates the conversation with the target user, inserts
// it into the collection only if absent, then selects it. Calling it
// twice yields the same conversation and no duplicate entry.
func (f *Conversations) Ensure(ctx context.Context, targetUserID string) (types.ConversationSummary, error) {
	summary, err := f.backend.EnsureConversation(ctx, targetUserID)
	if err != nil {
		return types.ConversationSummary{}, err
	}

	f.mu.Lock()
	present := false
	for _, s := range f.summaries {
		if s.ID == summary.ID {
			present = true
			break
		}
	}
	if !present {
		f.summaries = append([]types.ConversationSummary{summary}, f.summaries...)
	}
	f.mu.Unlock()

	if err := f.Select(ctx, summary.ID); err != nil {
		return summary, err
	}
	return summary, nil
}
