package dash

import (
	"context"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/madokanomi/publimatch-cli/internal/cache"
	"github.com/madokanomi/publimatch-cli/internal/feed"
	"github.com/madokanomi/publimatch-cli/internal/modal"
	"github.com/madokanomi/publimatch-cli/internal/session"
	"github.com/madokanomi/publimatch-cli/internal/types"
)

type focusArea int

const (
	focusNotifications focusArea = iota
	focusConversations
	focusInput
)

// Model implements the dashboard UI.
type Model struct {
	ctx           context.Context
	session       *session.Store
	notifications *feed.Notifications
	conversations *feed.Conversations
	presenter     *modal.Presenter
	store         *cache.Cache
	logger        *zap.Logger

	principal   *types.Principal
	zoneManager *zone.Manager

	width  int
	height int
	ready  bool

	focus       focusArea
	notifCursor int
	convCursor  int

	viewport   viewport.Model
	input      textarea.Model
	modalState modal.State
	status     string
}

// NewModel builds the dashboard model. The presenter is attached by Run
// once the program exists.
func NewModel(ctx context.Context, opts Options, principal *types.Principal) *Model {
	input := textarea.New()
	input.Placeholder = "Write a message..."
	input.Prompt = "┃ "
	input.SetHeight(3)
	input.ShowLineNumbers = false
	input.CharLimit = 2000

	return &Model{
		ctx:           ctx,
		session:       opts.Session,
		notifications: opts.Notifications,
		conversations: opts.Conversations,
		store:         opts.Cache,
		logger:        opts.Logger,
		principal:     principal,
		zoneManager:   zone.New(),
		viewport:      viewport.New(0, 0),
		input:         input,
		modalState:    modal.State{Phase: modal.PhaseIdle},
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.refreshCmd())
}

// refreshCmd fetches both feeds concurrently, then snapshots them to the
// offline cache. Cache errors never surface to the UI. The principal id
// is captured here because the command body runs off the update loop.
func (m *Model) refreshCmd() tea.Cmd {
	principalID := ""
	if m.principal != nil {
		principalID = m.principal.ID
	}
	return func() tea.Msg {
		group, ctx := errgroup.WithContext(m.ctx)
		group.Go(func() error { return m.notifications.Refresh(ctx) })
		group.Go(func() error { return m.conversations.Refresh(ctx) })
		if err := group.Wait(); err != nil {
			return refreshDoneMsg{err: err}
		}
		m.snapshotCache(principalID)
		return refreshDoneMsg{}
	}
}

func (m *Model) snapshotCache(principalID string) {
	if m.store == nil || principalID == "" {
		return
	}
	if err := m.store.SaveNotifications(principalID, m.notifications.Items()); err != nil {
		m.logger.Warn("cache notifications", zap.Error(err))
	}
	if err := m.store.SaveConversations(principalID, m.conversations.Summaries()); err != nil {
		m.logger.Warn("cache conversations", zap.Error(err))
	}
}

func (m *Model) resize() {
	sidebar := m.sidebarWidth()
	m.viewport.Width = m.width - sidebar - 3
	m.viewport.Height = m.height - m.input.Height() - 4
	m.input.SetWidth(m.width - sidebar - 3)
	m.renderMessages()
}

func (m *Model) sidebarWidth() int {
	w := m.width / 3
	if w > 44 {
		w = 44
	}
	if w < 24 {
		w = 24
	}
	return w
}

func (m *Model) clampCursors() {
	if n := len(m.notifications.Items()); m.notifCursor >= n {
		m.notifCursor = n - 1
	}
	if m.notifCursor < 0 {
		m.notifCursor = 0
	}
	if n := len(m.conversations.Summaries()); m.convCursor >= n {
		m.convCursor = n - 1
	}
	if m.convCursor < 0 {
		m.convCursor = 0
	}
}
