package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/csrf"
)

// CSRFFieldName is the hidden form field carrying the CSRF token.
const CSRFFieldName = "csrf_token"

// NewCSRF protects HTML form posts with gorilla/csrf. With secure=false the
// console is served over plain HTTP, so requests are marked plaintext to
// skip the HTTPS-only Referer check. A nil key disables protection.
func NewCSRF(key []byte, secure bool, log *slog.Logger) func(http.Handler) http.Handler {
	if key == nil {
		return func(next http.Handler) http.Handler { return next }
	}

	protect := csrf.Protect(key,
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.FieldName(CSRFFieldName),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.WarnContext(r.Context(), "csrf check failed", "path", r.URL.Path, "reason", csrf.FailureReason(r))
			http.Error(w, "Forbidden - invalid or missing CSRF token", http.StatusForbidden)
		})),
	)

	return func(next http.Handler) http.Handler {
		h := protect(next)
		if secure {
			return h
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
		})
	}
}
