package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pkordes/villa-admin/internal/domain"
)

// SessionRestorer turns a session marker back into a session.
// Implemented by *service.SessionGate.
type SessionRestorer interface {
	Restore(ctx context.Context, marker string) (domain.Session, error)
}

type sessionKey struct{}

// SessionFromContext returns the session attached by RequireSession.
func SessionFromContext(ctx context.Context) (domain.Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(domain.Session)
	return s, ok
}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s domain.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionMarker extracts the session marker from the adminToken cookie or,
// failing that, from an "Authorization: Bearer" header.
func SessionMarker(r *http.Request) string {
	if c, err := r.Cookie(domain.SessionCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	return ""
}

// SetSessionCookie stores marker in the browser.
func SetSessionCookie(w http.ResponseWriter, marker string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     domain.SessionCookieName,
		Value:    marker,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie removes the marker from the browser.
func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     domain.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// RequireSession restores the caller's session before the next handler runs.
// Requests without a valid marker are passed to deny instead; a stale
// cookie is cleared on the way out.
func RequireSession(gate SessionRestorer, log *slog.Logger, secure bool, deny http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			marker := SessionMarker(r)
			s, err := gate.Restore(r.Context(), marker)
			if err != nil {
				if !errors.Is(err, domain.ErrUnauthenticated) {
					log.ErrorContext(r.Context(), "session restore failed", "error", err)
				}
				if marker != "" {
					ClearSessionCookie(w, secure)
				}
				deny(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
		})
	}
}

// RedirectToLogin is a deny handler for HTML pages.
func RedirectToLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
