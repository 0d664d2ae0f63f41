// Package service contains the business logic of the villa admin console:
// the session gate, the per-operator booking snapshot, and the booking
// status workflow. No HTTP or SQL lives here; services depend on small
// interfaces implemented by bookingapi, notify and repo.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/pkordes/villa-admin/internal/domain"
	"github.com/pkordes/villa-admin/internal/repo"
)

// Authenticator exchanges operator credentials for a remote API token.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (string, error)
}

// SessionGate creates, restores and destroys operator sessions.
//
// States are LoggedOut and LoggedIn. Login moves to LoggedIn on success,
// Logout moves to LoggedOut, and Restore moves to LoggedIn whenever a known
// marker is presented, without asking the remote API whether the token is
// still accepted.
type SessionGate struct {
	auth     Authenticator
	sessions repo.SessionRepo
	log      *slog.Logger
	now      func() time.Time
}

// NewSessionGate constructs a SessionGate.
func NewSessionGate(auth Authenticator, sessions repo.SessionRepo, log *slog.Logger) *SessionGate {
	return &SessionGate{auth: auth, sessions: sessions, log: log, now: time.Now}
}

// WithClock overrides the time source. Intended for tests.
func (g *SessionGate) WithClock(now func() time.Time) *SessionGate {
	g.now = now
	return g
}

// Login authenticates against the remote API and persists a new session.
// Returns *domain.AuthError for rejected or missing credentials and
// *domain.ConnectivityError when the API cannot be reached.
func (g *SessionGate) Login(ctx context.Context, username, password string) (domain.Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return domain.Session{}, &domain.AuthError{Message: "username and password are required"}
	}

	token, err := g.auth.Login(ctx, username, password)
	if err != nil {
		return domain.Session{}, fmt.Errorf("service.SessionGate.Login: %w", err)
	}

	s := domain.Session{
		ID:            uuid.NewString(),
		Token:         token,
		Username:      username,
		CreatedAt:     g.now().UTC(),
		Authenticated: true,
	}
	if err := g.sessions.Create(ctx, s); err != nil {
		return domain.Session{}, fmt.Errorf("service.SessionGate.Login: %w", err)
	}

	g.log.InfoContext(ctx, "operator logged in", "username", username)
	return s, nil
}

// Logout destroys the session behind marker. It has no remote effect, and
// logging out an unknown or empty marker succeeds.
func (g *SessionGate) Logout(ctx context.Context, marker string) error {
	if marker == "" {
		return nil
	}
	if err := g.sessions.Delete(ctx, marker); err != nil {
		return fmt.Errorf("service.SessionGate.Logout: %w", err)
	}
	return nil
}

// Restore turns a persisted marker back into an authenticated session.
// Returns domain.ErrUnauthenticated when the marker is empty or unknown, or
// when the stored token is a JWT whose exp claim has passed. The token's
// signature is not checked and the remote API is not consulted.
func (g *SessionGate) Restore(ctx context.Context, marker string) (domain.Session, error) {
	if marker == "" {
		return domain.Session{}, domain.ErrUnauthenticated
	}

	s, err := g.sessions.Get(ctx, marker)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Session{}, domain.ErrUnauthenticated
		}
		return domain.Session{}, fmt.Errorf("service.SessionGate.Restore: %w", err)
	}

	if tokenExpired(s.Token, g.now()) {
		g.log.InfoContext(ctx, "session token expired, discarding session", "username", s.Username)
		_ = g.sessions.Delete(ctx, marker)
		return domain.Session{}, domain.ErrUnauthenticated
	}

	s.Authenticated = true
	return s, nil
}

// tokenExpired reports whether token is a JWT carrying an exp claim before
// now. Opaque (non-JWT) tokens never expire client-side.
func tokenExpired(token string, now time.Time) bool {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	return claims.ExpiresAt != nil && claims.ExpiresAt.Time.Before(now)
}
