// Package session owns the authenticated principal. It is the single
// source of truth for "is a user logged in": the realtime channel and both
// feeds key off its change notifications.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/madokanomi/publimatch-cli/internal/api"
	"github.com/madokanomi/publimatch-cli/internal/types"
)

// Authenticator is the slice of the backend client the store needs.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (api.LoginResponse, error)
}

// LoginResult reports the outcome of a login attempt. Credential and
// network failures surface as Message, never as an error.
type LoginResult struct {
	Success bool
	Message string
}

// Options configure the store.
type Options struct {
	Dir         string // state directory holding the durable principal file
	SessionFile string // session-scoped location; defaults to a per-user temp file
	Auth        Authenticator
	Logger      *zap.Logger
	Now         func() time.Time // defaults to time.Now
}

// Store holds the in-memory principal and its persisted copy.
type Store struct {
	dir         string
	sessionFile string
	auth        Authenticator
	logger      *zap.Logger
	now         func() time.Time

	mu        sync.Mutex
	principal *types.Principal
	remember  bool

	subMu   sync.Mutex
	subs    map[int]func(*types.Principal)
	nextSub int
}

// NewStore creates a store and loads any persisted principal. A principal
// with an expired token is discarded and its files removed.
func NewStore(opts Options) (*Store, error) {
	if opts.Dir == "" {
		return nil, errors.New("session: state dir required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	sessionFile := opts.SessionFile
	if sessionFile == "" {
		sessionFile = sessionPath()
	}
	s := &Store{
		dir:         opts.Dir,
		sessionFile: sessionFile,
		auth:        opts.Auth,
		logger:      logger,
		now:         now,
		subs:        map[int]func(*types.Principal){},
	}
	if err := s.loadPersisted(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) loadPersisted() error {
	p, err := readPrincipal(durablePath(s.dir))
	if err != nil {
		return err
	}
	remember := true
	if p == nil {
		p, err = readPrincipal(s.sessionFile)
		if err != nil {
			return err
		}
		remember = false
	}
	if p == nil {
		return nil
	}
	if tokenExpired(p.Token, s.now()) {
		s.logger.Info("discarding expired session", zap.String("user", p.ID))
		_ = removeIfPresent(durablePath(s.dir))
		_ = removeIfPresent(s.sessionFile)
		return nil
	}
	s.principal = p
	s.remember = remember
	return nil
}

// Principal returns the current principal, or nil when logged out.
func (s *Store) Principal() *types.Principal {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.principal == nil {
		return nil
	}
	copied := *s.principal
	return &copied
}

// Login authenticates and persists the principal. With remember set the
// durable location is used, otherwise the session-scoped one; the other
// location is cleared so the two are never populated at once.
func (s *Store) Login(ctx context.Context, email, password string, remember bool) LoginResult {
	if s.auth == nil {
		return LoginResult{Success: false, Message: "no backend configured"}
	}
	resp, err := s.auth.Login(ctx, email, password)
	if err != nil {
		var apiErr *api.APIError
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			return LoginResult{Success: false, Message: apiErr.Message}
		}
		s.logger.Warn("login failed", zap.Error(err))
		return LoginResult{Success: false, Message: "could not reach the server"}
	}

	p := types.Principal{
		ID:           resp.ID,
		DisplayName:  resp.DisplayName,
		Role:         resp.Role,
		CompanyAdmin: resp.CompanyAdmin,
		Token:        resp.Token,
	}

	target, other := durablePath(s.dir), s.sessionFile
	if !remember {
		target, other = s.sessionFile, durablePath(s.dir)
	}
	if err := writePrincipal(target, p); err != nil {
		s.logger.Warn("persisting session failed", zap.Error(err))
		return LoginResult{Success: false, Message: "could not persist session"}
	}
	_ = removeIfPresent(other)

	s.mu.Lock()
	s.principal = &p
	s.remember = remember
	s.mu.Unlock()

	s.logger.Info("logged in", zap.String("user", p.ID), zap.String("role", string(p.Role)))
	s.notify()
	return LoginResult{Success: true}
}

// Logout clears both storage locations and the in-memory principal,
// unconditionally.
func (s *Store) Logout() {
	s.mu.Lock()
	had := s.principal != nil
	s.principal = nil
	s.mu.Unlock()

	_ = removeIfPresent(durablePath(s.dir))
	_ = removeIfPresent(s.sessionFile)

	if had {
		s.logger.Info("logged out")
	}
	s.notify()
}

// Subscribe registers a callback invoked with the new principal (nil on
// logout) after every session change. Returns a cancel func.
func (s *Store) Subscribe(fn func(*types.Principal)) func() {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()
	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify() {
	p := s.Principal()
	s.subMu.Lock()
	fns := make([]func(*types.Principal), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		fn(p)
	}
}
