// Package feed keeps the in-memory notification and conversation
// collections consistent across REST snapshots and realtime deltas. The
// feeds exclusively own their collections; a session change is a full
// reset-and-refetch signal.
package feed

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/madokanomi/publimatch-cli/internal/realtime"
	"github.com/madokanomi/publimatch-cli/internal/types"
)

// NotificationBackend is the slice of the API client the feed needs.
type NotificationBackend interface {
	Notifications(ctx context.Context) ([]types.NotificationItem, error)
	DeleteNotification(ctx context.Context, id string) error
}

// Notifications holds the notification collection, newest first. No two
// items ever share an id.
type Notifications struct {
	backend NotificationBackend
	logger  *zap.Logger

	mu          sync.Mutex
	principalID string
	items       []types.NotificationItem
	pushed      map[string]bool // arrived via realtime since the last snapshot
	pending     map[string]bool // removed locally, backend delete unconfirmed

	subMu   sync.Mutex
	subs    map[int]func()
	nextSub int
}

// NewNotifications creates an empty feed.
func NewNotifications(backend NotificationBackend, logger *zap.Logger) *Notifications {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifications{
		backend: backend,
		logger:  logger,
		pushed:  map[string]bool{},
		pending: map[string]bool{},
		subs:    map[int]func(){},
	}
}

// Subscribe registers a change callback. Returns a cancel func.
func (f *Notifications) Subscribe(fn func()) func() {
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

func (f *Notifications) changed() {
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

// Items returns a copy of the collection, newest first.
func (f *Notifications) Items() []types.NotificationItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]types.NotificationItem, len(f.items))
	copy(out, f.items)
	return out
}

// Head returns the newest item, or nil when the feed is empty.
func (f *Notifications) Head() *types.NotificationItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.items) == 0 {
		return nil
	}
	head := f.items[0]
	return &head
}

// Pending returns the ids acknowledged locally whose backend delete has
// not been confirmed yet.
func (f *Notifications) Pending() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.pending))
	for id := range f.pending {
		out = append(out, id)
	}
	return out
}

// SetSession resets the feed for a session change: nil clears everything,
// a principal triggers a refetch. A switch to a different principal drops
// the previous account's items, pushes and pending deletes before the
// refetch, so nothing leaks across accounts.
func (f *Notifications) SetSession(ctx context.Context, p *types.Principal) {
	if p == nil {
		f.mu.Lock()
		f.principalID = ""
		f.items = nil
		f.pushed = map[string]bool{}
		f.pending = map[string]bool{}
		f.mu.Unlock()
		f.changed()
		return
	}
	f.mu.Lock()
	if p.ID != f.principalID {
		f.principalID = p.ID
		f.items = nil
		f.pushed = map[string]bool{}
		f.pending = map[string]bool{}
	}
	f.mu.Unlock()
	if err := f.Refresh(ctx); err != nil {
		f.logger.Warn("notification refresh failed", zap.Error(err))
	}
}

// Refresh fetches the snapshot and merges it with items that arrived via
// realtime while the fetch was in flight. Pending deletes are retried
// first; items still pending stay hidden.
func (f *Notifications) Refresh(ctx context.Context) error {
	f.retryPending(ctx)

	snapshot, err := f.backend.Notifications(ctx)
	if err != nil {
		return err
	}

	f.mu.Lock()
	inSnapshot := make(map[string]bool, len(snapshot))
	for _, item := range snapshot {
		inSnapshot[item.ID] = true
	}

	merged := make([]types.NotificationItem, 0, len(snapshot)+len(f.items))
	seen := map[string]bool{}
	// A realtime push observed mid-fetch may not be in the snapshot yet;
	// it keeps its place at the front.
	for _, item := range f.items {
		if f.pushed[item.ID] && !inSnapshot[item.ID] && !seen[item.ID] {
			merged = append(merged, item)
			seen[item.ID] = true
		}
	}
	for _, item := range snapshot {
		if seen[item.ID] || f.pending[item.ID] {
			continue
		}
		merged = append(merged, item)
		seen[item.ID] = true
	}
	f.items = merged

	pushed := map[string]bool{}
	for id := range f.pushed {
		if seen[id] {
			pushed[id] = true
		}
	}
	f.pushed = pushed
	f.mu.Unlock()

	f.changed()
	return nil
}

func (f *Notifications) retryPending(ctx context.Context) {
	f.mu.Lock()
	ids := make([]string, 0, len(f.pending))
	for id := range f.pending {
		ids = append(ids, id)
	}
	f.mu.Unlock()

	for _, id := range ids {
		if err := f.backend.DeleteNotification(ctx, id); err != nil {
			f.logger.Warn("pending acknowledge retry failed",
				zap.String("id", id), zap.Error(err))
			continue
		}
		f.mu.Lock()
		delete(f.pending, id)
		f.mu.Unlock()
	}
}

// Apply folds a realtime event into the feed. A new notification is
// prepended; an id already present is dropped.
func (f *Notifications) Apply(ev realtime.Event) {
	if ev.Kind != realtime.EventNewNotification || ev.Notification == nil {
		return
	}
	item := *ev.Notification

	f.mu.Lock()
	if f.pending[item.ID] || f.contains(item.ID) {
		f.mu.Unlock()
		return
	}
	f.items = append([]types.NotificationItem{item}, f.items...)
	f.pushed[item.ID] = true
	f.mu.Unlock()

	f.changed()
}

func (f *Notifications) contains(id string) bool {
	for _, item := range f.items {
		if item.ID == id {
			return true
		}
	}
	return false
}

// Acknowledge removes the item locally right away, then asks the backend
// to delete it. A failed delete lands in the pending ledger and is
// retried on the next refresh; the item never reappears meanwhile.
func (f *Notifications) Acknowledge(ctx context.Context, id string) error {
	f.mu.Lock()
	kept := f.items[:0]
	removed := false
	for _, item := range f.items {
		if item.ID == id {
			removed = true
			continue
		}
		kept = append(kept, item)
	}
	f.items = kept
	delete(f.pushed, id)
	f.mu.Unlock()

	if removed {
		f.changed()
	}

	if err := f.backend.DeleteNotification(ctx, id); err != nil {
		f.mu.Lock()
		f.pending[id] = true
		f.mu.Unlock()
		f.logger.Warn("acknowledge failed, queued for retry",
			zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}
