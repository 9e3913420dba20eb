package feed

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madokanomi/publimatch-cli/internal/realtime"
	"github.com/madokanomi/publimatch-cli/internal/types"
)

type fakeConversationBackend struct {
	summaries []types.ConversationSummary
	messages  map[string][]types.Message
	sendCount int
	ensured   []string
}

func (b *fakeConversationBackend) Conversations(ctx context.Context) ([]types.ConversationSummary, error) {
	out := make([]types.ConversationSummary, len(b.summaries))
	copy(out, b.summaries)
	return out, nil
}

func (b *fakeConversationBackend) Messages(ctx context.Context, conversationID string) ([]types.Message, error) {
	return b.messages[conversationID], nil
}

func (b *fakeConversationBackend) SendMessage(ctx context.Context, conversationID, receiverID, text string) (types.Message, error) {
	b.sendCount++
	return types.Message{
		ID:             fmt.Sprintf("echo-%d", b.sendCount),
		ConversationID: conversationID,
		SenderID:       "me",
		Text:           text,
	}, nil
}

func (b *fakeConversationBackend) EnsureConversation(ctx context.Context, targetUserID string) (types.ConversationSummary, error) {
	b.ensured = append(b.ensured, targetUserID)
	return conv("c-"+targetUserID, "me", targetUserID), nil
}

func conv(id, a, b string) types.ConversationSummary {
	s := types.ConversationSummary{ID: id}
	s.Participants[0] = types.UserRef{ID: a}
	s.Participants[1] = types.UserRef{ID: b}
	return s
}

func msgEvent(id, convID, sender, text string) realtime.Event {
	m := types.Message{ID: id, ConversationID: convID, SenderID: sender, Text: text}
	return realtime.Event{Kind: realtime.EventNewMessage, Message: &m}
}

func summaryIDs(summaries []types.ConversationSummary) []string {
	out := make([]string, len(summaries))
	for i, s := range summaries {
		out[i] = s.ID
	}
	return out
}

func newConversationsFeed(t *testing.T) (*Conversations, *fakeConversationBackend) {
	t.Helper()
	backend := &fakeConversationBackend{
		summaries: []types.ConversationSummary{
			conv("c1", "me", "u2"),
			conv("c2", "me", "u3"),
			conv("c3", "me", "u4"),
		},
		messages: map[string][]types.Message{
			"c1": {{ID: "m1", ConversationID: "c1", SenderID: "u2", Text: "hey"}},
		},
	}
	feed := NewConversations(backend, nil)
	feed.SetSession(context.Background(), &types.Principal{ID: "me", DisplayName: "Me"})
	return feed, backend
}

func TestMessageMovesSummaryToFront(t *testing.T) {
	feed, _ := newConversationsFeed(t)

	feed.Apply(msgEvent("m5", "c2", "u3", "ping"))

	got := summaryIDs(feed.Summaries())
	assert.Equal(t, []string{"c2", "c1", "c3"}, got, "c2 to front, others keep relative order")

	s := feed.Summaries()[0]
	assert.Equal(t, "ping", s.LastMessage.Text)
	assert.Equal(t, "u3", s.LastMessage.SenderID)
}

func TestMessageAppendsOnlyToSelectedConversation(t *testing.T) {
	feed, _ := newConversationsFeed(t)
	require.NoError(t, feed.Select(context.Background(), "c1"))

	feed.Apply(msgEvent("m5", "c2", "u3", "other thread"))
	assert.Len(t, feed.Messages(), 1, "message for unselected conversation not appended")

	feed.Apply(msgEvent("m6", "c1", "u2", "for you"))
	msgs := feed.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "for you", msgs[1].Text)
}

func TestMessageAppendDeduplicatesByID(t *testing.T) {
	feed, _ := newConversationsFeed(t)
	require.NoError(t, feed.Select(context.Background(), "c1"))

	feed.Apply(msgEvent("m6", "c1", "u2", "once"))
	feed.Apply(msgEvent("m6", "c1", "u2", "once"))

	assert.Len(t, feed.Messages(), 2)
}

func TestSendAppendsEchoAndIgnoresRealtimeEcho(t *testing.T) {
	feed, _ := newConversationsFeed(t)
	require.NoError(t, feed.Select(context.Background(), "c1"))

	require.NoError(t, feed.Send(context.Background(), "hello", "u2"))
	msgs := feed.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "echo-1", msgs[1].ID)

	// The server may still push the sender's own message back; it must
	// not duplicate.
	feed.Apply(msgEvent("echo-1", "c1", "me", "hello"))
	assert.Len(t, feed.Messages(), 2)

	// Sending also moves the summary to the front.
	assert.Equal(t, "c1", feed.Summaries()[0].ID)
}

func TestSendRequiresSelection(t *testing.T) {
	feed, _ := newConversationsFeed(t)
	err := feed.Send(context.Background(), "hello", "u2")
	assert.ErrorIs(t, err, ErrNoSelection)
}

func TestEnsureIsIdempotent(t *testing.T) {
	feed, backend := newConversationsFeed(t)

	first, err := feed.Ensure(context.Background(), "u9")
	require.NoError(t, err)
	second, err := feed.Ensure(context.Background(), "u9")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, []string{"u9", "u9"}, backend.ensured)

	count := 0
	for _, id := range summaryIDs(feed.Summaries()) {
		if id == first.ID {
			count++
		}
	}
	assert.Equal(t, 1, count, "no duplicate entry after double Ensure")
	assert.Equal(t, first.ID, feed.SelectedID())
}

func TestClearOnLogout(t *testing.T) {
	feed, _ := newConversationsFeed(t)
	require.NoError(t, feed.Select(context.Background(), "c1"))

	feed.SetSession(context.Background(), nil)

	assert.Empty(t, feed.Summaries())
	assert.Empty(t, feed.Messages())
	assert.Empty(t, feed.SelectedID())
}

func TestConversationsAccountSwitchResetsEverything(t *testing.T) {
	feed, backend := newConversationsFeed(t)
	require.NoError(t, feed.Select(context.Background(), "c1"))
	require.NotEmpty(t, feed.Messages())

	backend.summaries = []types.ConversationSummary{conv("d1", "other", "u9")}
	feed.SetSession(context.Background(), &types.Principal{ID: "other"})

	assert.Equal(t, []string{"d1"}, summaryIDs(feed.Summaries()),
		"the previous account's summaries must not survive the switch")
	assert.Empty(t, feed.SelectedID())
	assert.Empty(t, feed.Messages())
}

func TestConversationsSameAccountSetSessionKeepsSelection(t *testing.T) {
	feed, _ := newConversationsFeed(t)
	require.NoError(t, feed.Select(context.Background(), "c1"))

	feed.SetSession(context.Background(), &types.Principal{ID: "me"})

	assert.Equal(t, "c1", feed.SelectedID())
	assert.NotEmpty(t, feed.Messages())
}

func TestUnknownConversationGetsStubSummary(t *testing.T) {
	feed, _ := newConversationsFeed(t)

	feed.Apply(msgEvent("m9", "c-new", "u7", "first contact"))

	got := feed.Summaries()
	require.Equal(t, "c-new", got[0].ID)
	assert.Equal(t, "first contact", got[0].LastMessage.Text)
	assert.Len(t, got, 4)
}
