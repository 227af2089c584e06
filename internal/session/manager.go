// Package session hosts one game engine per player session.
//
// The Manager is the only place engines are shared between goroutines: every
// call into an engine goes through Do, which holds that session's lock, so
// moves on one board are strictly ordered while different sessions proceed
// in parallel. Idle sessions are expired by a background sweep unless an open
// connection holds them.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/MRamiBalles/minesweeper/server/internal/engine"
	"github.com/MRamiBalles/minesweeper/server/internal/events"
	"github.com/MRamiBalles/minesweeper/server/internal/platform/logger"
	"github.com/MRamiBalles/minesweeper/server/internal/platform/metrics"
)

var (
	// ErrNotFound is returned for unknown or expired session IDs.
	ErrNotFound = errors.New("session not found")
	// ErrTooManySessions is returned when the registry is full.
	ErrTooManySessions = errors.New("too many sessions")
)

// Options configures a Manager.
type Options struct {
	Engine        engine.Settings
	MaxSessions   int           // 0 means unlimited
	TTL           time.Duration // idle time before a session is expired
	SweepInterval time.Duration
}

type entry struct {
	mu       sync.Mutex
	engine   *engine.Engine
	lastSeen atomic.Int64 // unix nanoseconds
	held     atomic.Bool  // owned by a live connection, never expired
}

// Manager is the registry of live sessions.
type Manager struct {
	opts     Options
	eventLog *events.EventLog
	logger   *logger.Logger
	metrics  *metrics.Collector
	now      func() time.Time

	mu       sync.RWMutex
	sessions map[string]*entry
}

// NewManager creates an empty registry.
func NewManager(opts Options, eventLog *events.EventLog, log *logger.Logger) *Manager {
	m := opts.Engine.Metrics
	if m == nil {
		m = metrics.Get()
	}
	return &Manager{
		opts:     opts,
		eventLog: eventLog,
		logger:   log,
		metrics:  m,
		now:      time.Now,
		sessions: make(map[string]*entry),
	}
}

// Create starts a new session with a fresh game and returns its ID.
func (m *Manager) Create() (string, error) {
	id := uuid.NewString()

	settings := m.opts.Engine
	settings.SessionID = id
	settings.Metrics = m.metrics

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.opts.MaxSessions > 0 && len(m.sessions) >= m.opts.MaxSessions {
		return "", ErrTooManySessions
	}

	eng, err := engine.NewEngine(settings, m.eventLog, m.logger)
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}

	e := &entry{engine: eng}
	e.lastSeen.Store(m.now().UnixNano())
	m.sessions[id] = e
	m.metrics.RecordSession(1)

	m.logger.Event("SESSION_CREATED", id, fmt.Sprintf("active sessions: %d", len(m.sessions)))
	return id, nil
}

// Do runs fn with exclusive access to the session's engine.
func (m *Manager) Do(id string, fn func(*engine.Engine) error) error {
	m.mu.RLock()
	e, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastSeen.Store(m.now().UnixNano())
	return fn(e.engine)
}

// Hold exempts a session from the idle sweep. The holder must Remove it when
// done. It reports whether the session exists.
func (m *Manager) Hold(id string) bool {
	m.mu.RLock()
	e, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		e.held.Store(true)
	}
	return ok
}

// Remove ends a session. It reports whether the session existed.
func (m *Manager) Remove(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	m.metrics.RecordSession(-1)
	return true
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Start runs the idle sweep until ctx is cancelled. Call in a goroutine.
func (m *Manager) Start(ctx context.Context) {
	interval := m.opts.SweepInterval
	if interval <= 0 {
		interval = time.Minute
	}
	m.logger.Infof("Session sweep started (ttl %s, every %s)", m.opts.TTL, interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("Session sweep stopped by context.")
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				m.logger.Infof("Expired %d idle sessions", n)
			}
		}
	}
}

// Sweep removes unheld sessions idle for longer than the TTL and returns how
// many were removed. A zero TTL disables expiry.
func (m *Manager) Sweep() int {
	if m.opts.TTL <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.opts.TTL).UnixNano()

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, e := range m.sessions {
		if !e.held.Load() && e.lastSeen.Load() < cutoff {
			delete(m.sessions, id)
			m.metrics.RecordSession(-1)
			m.metrics.RecordSessionExpired()
			removed++
		}
	}
	return removed
}
