// Package realtime maintains the single push connection to the backend.
// The channel owns the connection lifecycle; it forwards events to
// subscribers without buffering them.
package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/madokanomi/publimatch-cli/internal/types"
)

// Options configure a Channel.
type Options struct {
	URL    string
	Logger *zap.Logger
	// NewBackoff builds the reconnect schedule for one connection
	// lifetime. Defaults to NewBackoff(0, 0, 0).
	NewBackoff func() *Backoff
}

// Channel keeps exactly one websocket open while a principal exists. The
// connection is keyed by the principal id: switching accounts tears the
// old connection down and dials a fresh one scoped to the new principal.
type Channel struct {
	url        string
	logger     *zap.Logger
	newBackoff func() *Backoff

	mu          sync.Mutex
	principalID string
	cancel      context.CancelFunc
	conn        *websocket.Conn
	wg          sync.WaitGroup

	subMu   sync.Mutex
	subs    map[int]func(Event)
	nextSub int
}

// NewChannel creates a channel. No connection is opened until a principal
// is set.
func NewChannel(opts Options) *Channel {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	newBackoff := opts.NewBackoff
	if newBackoff == nil {
		newBackoff = func() *Backoff { return NewBackoff(0, 0, 0) }
	}
	return &Channel{
		url:        opts.URL,
		logger:     logger,
		newBackoff: newBackoff,
		subs:       map[int]func(Event){},
	}
}

// SetPrincipal reconciles the connection with the session state: nil
// tears the connection down synchronously, a new id dials a fresh scoped
// connection, the same id is a no-op.
func (c *Channel) SetPrincipal(p *types.Principal) {
	c.mu.Lock()
	id := ""
	if p != nil {
		id = p.ID
	}
	if id == c.principalID {
		c.mu.Unlock()
		return
	}
	c.teardownLocked()
	c.principalID = id
	if id == "" {
		c.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.wg.Add(1)
	c.mu.Unlock()

	go c.run(ctx, id)
}

// Close tears down any open connection and stops reconnecting.
func (c *Channel) Close() {
	c.mu.Lock()
	c.teardownLocked()
	c.principalID = ""
	c.mu.Unlock()
	c.wg.Wait()
}

func (c *Channel) teardownLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}

// Subscribe registers an event callback. Returns a cancel func.
func (c *Channel) Subscribe(fn func(Event)) func() {
	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subMu.Unlock()
	return func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

func (c *Channel) dispatch(ev Event) {
	c.subMu.Lock()
	fns := make([]func(Event), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

func (c *Channel) run(ctx context.Context, principalID string) {
	defer c.wg.Done()
	backoff := c.newBackoff()

	for {
		if ctx.Err() != nil {
			return
		}
		conn, err := c.dial(ctx, principalID)
		if err != nil {
			c.logger.Warn("realtime dial failed", zap.Error(err))
			if !sleep(ctx, backoff.Next()) {
				return
			}
			continue
		}
		backoff.Reset()
		c.logger.Info("realtime connected", zap.String("user", principalID))

		c.readLoop(ctx, conn)

		c.mu.Lock()
		if c.conn == conn {
			c.conn = nil
		}
		c.mu.Unlock()
		_ = conn.Close()

		if ctx.Err() != nil {
			return
		}
		c.logger.Info("realtime connection lost, reconnecting")
		if !sleep(ctx, backoff.Next()) {
			return
		}
	}
}

func (c *Channel) dial(ctx context.Context, principalID string) (*websocket.Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return nil, err
	}

	// Join handshake: announce the principal so inbound events are
	// scoped to this account.
	join, err := encodeJoin(principalID)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := conn.WriteMessage(websocket.TextMessage, join); err != nil {
		_ = conn.Close()
		return nil, err
	}

	c.mu.Lock()
	if ctx.Err() != nil || c.principalID != principalID {
		c.mu.Unlock()
		_ = conn.Close()
		return nil, context.Canceled
	}
	c.conn = conn
	c.mu.Unlock()
	return conn, nil
}

func (c *Channel) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		ev, err := decodeEvent(data)
		if err != nil {
			c.logger.Warn("realtime event dropped", zap.Error(err))
			continue
		}
		if ctx.Err() != nil {
			return
		}
		c.dispatch(ev)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
