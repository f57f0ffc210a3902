package storefront

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"julianmorley.ca/con-plar/storefront/pkg/gateway"
	"julianmorley.ca/con-plar/storefront/pkg/session"
)

type Settings struct {
	TokenTTL    time.Duration
	IdleTimeout time.Duration
	TaxRate     float64
}

// Registry creates sessions on first use and evicts the ones left idle. Tokens live in
// the backend, so an evicted session comes back signed in with freshly loaded state.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session

	base     *gateway.Client
	backend  session.Backend
	settings Settings
	now      func() time.Time
	logger   *zap.Logger
}

func NewRegistry(base *gateway.Client, backend session.Backend, settings Settings, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		sessions: make(map[string]*Session),
		base:     base,
		backend:  backend,
		settings: settings,
		now:      time.Now,
		logger:   logger,
	}
}

// Get returns the session for id, creating it when needed, and marks it active.
func (r *Registry) Get(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		tokens := session.Bind(r.backend, id, r.settings.TokenTTL)
		s = newSession(id, r.base.WithTokens(tokens), r.settings.TaxRate, r.logger)
		r.sessions[id] = s
		r.logger.Debug("session created", zap.String("session", id))
	}
	s.lastSeen = r.now()
	return s
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// SignOut forgets the token and drops the in-memory state of the session.
func (r *Registry) SignOut(ctx context.Context, id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if ok {
		s.close()
		return s.Gateway.Logout(ctx)
	}
	return session.Bind(r.backend, id, r.settings.TokenTTL).ClearToken(ctx)
}

// EvictIdle closes sessions unused for longer than the idle timeout.
func (r *Registry) EvictIdle() int {
	if r.settings.IdleTimeout <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.settings.IdleTimeout)

	r.mu.Lock()
	var idle []*Session
	for id, s := range r.sessions {
		if s.lastSeen.Before(cutoff) {
			idle = append(idle, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range idle {
		s.close()
	}
	if len(idle) > 0 {
		r.logger.Debug("evicted idle sessions", zap.Int("count", len(idle)))
	}
	return len(idle)
}

// Run evicts idle sessions every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.EvictIdle()
		}
	}
}

func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.close()
	}
}
