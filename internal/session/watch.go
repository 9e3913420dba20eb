package session

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const watchDebounce = 200 * time.Millisecond

// Watch follows the durable principal file so a logout performed by
// another process tears this one down too. Blocks until ctx is done.
func (s *Store) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(s.dir); err != nil {
		return err
	}

	var timer *time.Timer
	fire := make(chan struct{}, 1)
	schedule := func() {
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(watchDebounce, func() {
			select {
			case fire <- struct{}{}:
			default:
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name == durablePath(s.dir) {
				schedule()
			}
		case <-fire:
			s.reloadFromDisk()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("session watcher error", zap.Error(err))
		}
	}
}

// reloadFromDisk re-reads the durable file and reconciles the in-memory
// principal with it. Session-scoped logins are left alone; they belong to
// this process.
func (s *Store) reloadFromDisk() {
	p, err := readPrincipal(durablePath(s.dir))
	if err != nil {
		s.logger.Warn("session reload failed", zap.Error(err))
		return
	}

	s.mu.Lock()
	if !s.remember && s.principal != nil {
		s.mu.Unlock()
		return
	}
	changed := false
	switch {
	case p == nil && s.principal != nil:
		s.principal = nil
		changed = true
	case p != nil && (s.principal == nil || s.principal.ID != p.ID || s.principal.Token != p.Token):
		if !tokenExpired(p.Token, s.now()) {
			s.principal = p
			s.remember = true
			changed = true
		}
	}
	s.mu.Unlock()

	if changed {
		s.notify()
	}
}
