package editor

import (
	"context"
	"sync"
	"time"

	"github.com/debemdeboas/spawnwrite/internal/autosave"
	"github.com/debemdeboas/spawnwrite/internal/model"
	drafts "github.com/debemdeboas/spawnwrite/internal/repository/editor"
)

const defaultIdleTimeout = 30 * time.Minute

// Manager owns one Session per user.
type Manager struct {
	posts    PostStore
	drafts   drafts.Repository
	notify   Notifier
	interval time.Duration

	writeTimeout time.Duration
	idleTimeout  time.Duration
	schedOpts    []autosave.Option

	mu       sync.Mutex
	sessions map[model.UserID]*Session
	now      func() time.Time
}

type ManagerOption func(*Manager)

func WithIdleTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d > 0 {
			m.idleTimeout = d
		}
	}
}

func WithSessionWriteTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) {
		m.writeTimeout = d
	}
}

// WithAutosaveOptions is applied to every session's scheduler.
func WithAutosaveOptions(opts ...autosave.Option) ManagerOption {
	return func(m *Manager) {
		m.schedOpts = append(m.schedOpts, opts...)
	}
}

func NewManager(posts PostStore, draftRepo drafts.Repository, notify Notifier, interval time.Duration, opts ...ManagerOption) *Manager {
	m := &Manager{
		posts:       posts,
		drafts:      draftRepo,
		notify:      notify,
		interval:    interval,
		idleTimeout: defaultIdleTimeout,
		sessions:    make(map[model.UserID]*Session),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Session returns the user's session, creating it on first use.
func (m *Manager) Session(user model.UserID) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[user]; ok {
		return s
	}

	opts := []SessionOption{WithWriteTimeout(m.writeTimeout)}
	if len(m.schedOpts) > 0 {
		opts = append(opts, WithSchedulerOptions(m.schedOpts...))
	}
	s := NewSession(user, m.posts, m.drafts, m.notify, m.interval, opts...)
	s.now = m.now
	m.sessions[user] = s
	editorLogger.Debug().Str("user", string(user)).Msg("Editor session started")
	return s
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep closes sessions idle for longer than the idle timeout and returns how many it closed.
// A closed session flushes its pending autosave first.
func (m *Manager) Sweep() int {
	cutoff := m.now().Add(-m.idleTimeout)

	m.mu.Lock()
	var idle []*Session
	for user, s := range m.sessions {
		if s.IdleSince().Before(cutoff) && !s.Pending() {
			idle = append(idle, s)
			delete(m.sessions, user)
		}
	}
	m.mu.Unlock()

	for _, s := range idle {
		s.Close()
		editorLogger.Debug().Str("user", string(s.Owner())).Msg("Editor session expired")
	}
	return len(idle)
}

// Run sweeps idle sessions until ctx is done, then closes every session.
func (m *Manager) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.idleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.Close()
			return nil
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				editorLogger.Info().Int("closed", n).Msg("Swept idle editor sessions")
			}
		}
	}
}

// Close flushes and closes every session.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[model.UserID]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
