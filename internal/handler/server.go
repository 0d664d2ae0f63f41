// Package handler implements the HTTP surface of the villa admin console:
// the server-rendered HTML console, the JSON API under /api, and the
// new-booking hook. All handlers are methods on Server and share its
// dependencies; routes are assembled in Routes.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/villa-admin/internal/domain"
	"github.com/pkordes/villa-admin/internal/middleware"
	"github.com/pkordes/villa-admin/internal/service"
)

// SessionGate defines the session operations the handlers depend on.
// Implemented by *service.SessionGate.
type SessionGate interface {
	Login(ctx context.Context, username, password string) (domain.Session, error)
	Logout(ctx context.Context, marker string) error
	Restore(ctx context.Context, marker string) (domain.Session, error)
}

// WorkspaceProvider hands out the per-session booking workspace.
// Implemented by *service.Workspaces.
type WorkspaceProvider interface {
	For(s domain.Session) *service.Workspace
	Drop(id string)
}

// AdminNotifier alerts the villa owner about a new reservation.
// Implemented by *notify.Notifier.
type AdminNotifier interface {
	NotifyAdminNewBooking(ctx context.Context, b domain.Booking) error
}

// Options carries the HTTP-level settings of the server.
type Options struct {
	// SecureCookies marks cookies Secure; enable when served over TLS.
	SecureCookies bool

	// CSRFKey protects HTML forms. Nil disables CSRF checks (tests only).
	CSRFKey []byte

	// CORSOrigins are the origins allowed to call /api.
	CORSOrigins []string

	// WebhookSecret signs POST /hooks/new-booking. Empty disables the hook.
	WebhookSecret string

	// MaxBodyBytes caps request bodies. Defaults to DefaultMaxBodyBytes.
	MaxBodyBytes int64
}

// DefaultMaxBodyBytes is the request body cap when Options leaves it unset.
const DefaultMaxBodyBytes = 1 << 20

// Server holds the dependencies of every handler.
type Server struct {
	gate       SessionGate
	workspaces WorkspaceProvider
	admin      AdminNotifier
	log        *slog.Logger
	opts       Options
	pages      *pages
}

// NewServer constructs the Server with all its dependencies.
func NewServer(gate SessionGate, workspaces WorkspaceProvider, admin AdminNotifier, log *slog.Logger, opts Options) *Server {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	return &Server{
		gate:       gate,
		workspaces: workspaces,
		admin:      admin,
		log:        log,
		opts:       opts,
		pages:      mustParsePages(),
	}
}

// Routes builds the router. Request-scoped middleware shared with the rest
// of the process (request ID, logging, recovery) is applied by the caller.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.NewMaxBodySizeHandler(s.opts.MaxBodyBytes))

	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)
	r.Post("/hooks/new-booking", s.NewBookingHook)

	// HTML console.
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewCSRF(s.opts.CSRFKey, s.opts.SecureCookies, s.log))

		r.Get("/login", s.LoginPage)
		r.Post("/login", s.LoginSubmit)
		r.Post("/logout", s.Logout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession(s.gate, s.log, s.opts.SecureCookies, middleware.RedirectToLogin))

			r.Get("/", s.Dashboard)
			r.Post("/reload", s.Reload)
			r.Post("/bookings/{id}/confirm", s.Confirm)
			r.Post("/bookings/{id}/reject", s.Reject)
			r.Get("/bookings/{id}/delete", s.DeletePage)
			r.Post("/bookings/{id}/delete", s.DeleteSubmit)
		})
	})

	// JSON API.
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.NewCORSHandler(s.opts.CORSOrigins))

		r.Post("/login", s.APILogin)
		r.Post("/logout", s.APILogout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession(s.gate, s.log, s.opts.SecureCookies, s.apiUnauthenticated))

			r.Get("/bookings", s.APIListBookings)
			r.Get("/bookings/export", s.APIExport)
			r.Get("/stats", s.APIGetStats)
			r.Post("/reload", s.APIReload)
			r.Post("/bookings/{id}/confirm", s.APIConfirm)
			r.Post("/bookings/{id}/reject", s.APIReject)
			r.Delete("/bookings/{id}", s.APIDelete)
		})
	})

	return r
}

// workspace returns the workspace of the session attached by RequireSession.
func (s *Server) workspace(r *http.Request) *service.Workspace {
	sess, _ := middleware.SessionFromContext(r.Context())
	return s.workspaces.For(sess)
}

// ensureLoaded performs the first reload of a fresh workspace.
func (s *Server) ensureLoaded(ctx context.Context, ws *service.Workspace) error {
	if ws.Store.Loaded() {
		return nil
	}
	return ws.Store.Reload(ctx)
}

func bookingID(r *http.Request) domain.BookingID {
	return domain.BookingID(chi.URLParam(r, "id"))
}
