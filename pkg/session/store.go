// Package session stores the bearer token issued by the storefront API for each browser
// session and decodes its advisory claims.
package session

import (
	"context"
	"errors"
	"time"
)

// ErrNoToken is returned by backends when the session has no token stored.
var ErrNoToken = errors.New("session: no token")

// TokenStore is the storage port the gateway reads credentials from.
// GetToken returns "" with a nil error when nothing is stored.
type TokenStore interface {
	GetToken(ctx context.Context) (string, error)
	SetToken(ctx context.Context, token string) error
	ClearToken(ctx context.Context) error
}

// Backend persists tokens for many sessions keyed by session id.
type Backend interface {
	Get(ctx context.Context, sessionID string) (string, error)
	Set(ctx context.Context, sessionID, token string, ttl time.Duration) error
	Delete(ctx context.Context, sessionID string) error
	Close(ctx context.Context) error
}

// Pinger is implemented by backends with a remote connection to check.
type Pinger interface {
	Ping(ctx context.Context) error
}

type boundStore struct {
	backend   Backend
	sessionID string
	ttl       time.Duration
}

// Bind adapts a multi-session Backend to the TokenStore of one session.
func Bind(backend Backend, sessionID string, ttl time.Duration) TokenStore {
	return &boundStore{backend: backend, sessionID: sessionID, ttl: ttl}
}

func (s *boundStore) GetToken(ctx context.Context) (string, error) {
	token, err := s.backend.Get(ctx, s.sessionID)
	if errors.Is(err, ErrNoToken) {
		return "", nil
	}
	return token, err
}

func (s *boundStore) SetToken(ctx context.Context, token string) error {
	if token == "" {
		return s.ClearToken(ctx)
	}
	return s.backend.Set(ctx, s.sessionID, token, s.ttl)
}

func (s *boundStore) ClearToken(ctx context.Context) error {
	err := s.backend.Delete(ctx, s.sessionID)
	if errors.Is(err, ErrNoToken) {
		return nil
	}
	return err
}

// StaticToken is a fixed TokenStore, handy for scripts and tests.
type StaticToken struct {
	Token string
}

func (s *StaticToken) GetToken(context.Context) (string, error) { return s.Token, nil }

func (s *StaticToken) SetToken(_ context.Context, token string) error {
	s.Token = token
	return nil
}

func (s *StaticToken) ClearToken(context.Context) error {
	s.Token = ""
	return nil
}
