package server

import (
	"context"
	"sync"
	"time"

	"resumetailor/internal/errors"
	"resumetailor/internal/observability"
	"resumetailor/internal/tailoring"

	"github.com/google/uuid"
)

// ControllerFactory opens a controller for a new session id
type ControllerFactory func(id string) (*tailoring.Controller, error)

type sessionEntry struct {
	controller *tailoring.Controller
	lastSeen   time.Time
}

// SessionStore keeps live tailoring sessions and closes the ones left idle
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*sessionEntry
	ttl      time.Duration
	factory  ControllerFactory
	om       *observability.ObservabilityManager
	logger   *errors.Logger
	now      func() time.Time
	done     chan struct{}
	closed   bool
}

// NewSessionStore creates a store. A positive ttl starts a janitor that closes
// sessions not touched for that long.
func NewSessionStore(ttl time.Duration, factory ControllerFactory, om *observability.ObservabilityManager, logger *errors.Logger) *SessionStore {
	st := &SessionStore{
		sessions: make(map[string]*sessionEntry),
		ttl:      ttl,
		factory:  factory,
		om:       om,
		logger:   logger,
		now:      time.Now,
		done:     make(chan struct{}),
	}
	if ttl > 0 {
		go st.janitor(cleanupInterval(ttl))
	}
	return st
}

func cleanupInterval(ttl time.Duration) time.Duration {
	interval := ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	return interval
}

// Create opens a new session with a fresh uuid
func (st *SessionStore) Create(ctx context.Context) (*tailoring.Controller, error) {
	id := uuid.NewString()
	controller, err := st.factory(id)
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	if st.closed {
		st.mu.Unlock()
		_ = controller.Close()
		return nil, errors.NewInternalError(errors.ErrCodeNoActiveSession, "Server is shutting down", nil)
	}
	st.sessions[id] = &sessionEntry{controller: controller, lastSeen: st.now()}
	st.mu.Unlock()

	st.om.SessionOpened(ctx)
	st.logger.Info("Session opened", "session_id", id)
	return controller, nil
}

// Get returns a live session and marks it as used
func (st *SessionStore) Get(id string) (*tailoring.Controller, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	entry, ok := st.sessions[id]
	if !ok {
		return nil, errors.NewValidationError(errors.ErrCodeSessionNotFound, "Session not found", nil).
			WithContext("session_id", id)
	}
	entry.lastSeen = st.now()
	return entry.controller, nil
}

// Delete closes and forgets a session
func (st *SessionStore) Delete(ctx context.Context, id string) error {
	st.mu.Lock()
	entry, ok := st.sessions[id]
	if ok {
		delete(st.sessions, id)
	}
	st.mu.Unlock()

	if !ok {
		return errors.NewValidationError(errors.ErrCodeSessionNotFound, "Session not found", nil).
			WithContext("session_id", id)
	}
	st.closeEntry(ctx, id, entry, "deleted")
	return nil
}

// Len returns the number of live sessions
func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// EvictExpired closes every session idle for longer than the ttl and returns how many
func (st *SessionStore) EvictExpired(ctx context.Context) int {
	if st.ttl <= 0 {
		return 0
	}

	st.mu.Lock()
	now := st.now()
	expired := make(map[string]*sessionEntry)
	for id, entry := range st.sessions {
		if now.Sub(entry.lastSeen) > st.ttl {
			expired[id] = entry
			delete(st.sessions, id)
		}
	}
	st.mu.Unlock()

	for id, entry := range expired {
		st.closeEntry(ctx, id, entry, "expired")
	}
	return len(expired)
}

// Close closes every session and stops the janitor
func (st *SessionStore) Close() {
	st.mu.Lock()
	if st.closed {
		st.mu.Unlock()
		return
	}
	st.closed = true
	close(st.done)
	remaining := st.sessions
	st.sessions = make(map[string]*sessionEntry)
	st.mu.Unlock()

	for id, entry := range remaining {
		st.closeEntry(context.Background(), id, entry, "shutdown")
	}
}

func (st *SessionStore) closeEntry(ctx context.Context, id string, entry *sessionEntry, reason string) {
	if err := entry.controller.Close(); err != nil {
		st.logger.LogError(err, "Failed to close session", "session_id", id)
	}
	st.om.SessionClosed(ctx)
	st.logger.Info("Session closed", "session_id", id, "reason", reason)
}

func (st *SessionStore) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := st.EvictExpired(context.Background()); n > 0 {
				st.logger.Debug("Session cleanup completed", "evicted", n, "remaining", st.Len())
			}
		case <-st.done:
			return
		}
	}
}
