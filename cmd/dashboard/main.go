// Package main is the entry point for the villa admin console.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/pkordes/villa-admin/internal/bookingapi"
	"github.com/pkordes/villa-admin/internal/config"
	"github.com/pkordes/villa-admin/internal/domain"
	"github.com/pkordes/villa-admin/internal/handler"
	"github.com/pkordes/villa-admin/internal/middleware"
	"github.com/pkordes/villa-admin/internal/notify"
	"github.com/pkordes/villa-admin/internal/repo"
	"github.com/pkordes/villa-admin/internal/service"
	"github.com/pkordes/villa-admin/migrations"
)

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		// Use plain stderr before the logger is configured.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()

	// --- Sessions ---------------------------------------------------------
	// Postgres keeps operators logged in across restarts; without it
	// sessions live in memory.
	var sessions repo.SessionRepo
	if cfg.DatabaseURL != "" {
		pool, err := openDatabase(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("database setup failed", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		sessions = repo.NewSessionRepo(pool)
		slog.Info("session store: postgres")
	} else {
		sessions = repo.NewMemorySessionRepo()
		slog.Info("session store: memory (DATABASE_URL not set)")
	}

	// --- Collaborators ----------------------------------------------------
	api := bookingapi.New(cfg.BookingAPIURL, &http.Client{Timeout: cfg.BookingAPITimeout})

	provider, err := newEmailProvider(ctx, cfg.Email, logger)
	if err != nil {
		slog.Error("email provider setup failed", "error", err)
		os.Exit(1)
	}
	notifier := notify.New(provider, notify.Templates{
		AdminNewBooking:    cfg.Email.TemplateAdmin,
		ClientConfirmation: cfg.Email.TemplateConfirm,
		ClientRejection:    cfg.Email.TemplateReject,
	}, cfg.Email.AdminEmail)
	if cfg.Email.TemplateReject == "" && cfg.Email.Provider != config.EmailProviderLog {
		slog.Warn("EMAIL_TEMPLATE_REJECT not set; rejection emails will fail")
	}

	gate := service.NewSessionGate(api, sessions, logger)
	workspaces := service.NewWorkspaces(func(s domain.Session) *service.Workspace {
		return service.NewWorkspace(s, api.WithToken(s.Token), notifier, logger)
	})

	csrfKey, err := loadCSRFKey(cfg.CSRFKey)
	if err != nil {
		slog.Error("csrf key setup failed", "error", err)
		os.Exit(1)
	}

	srv := handler.NewServer(gate, workspaces, notifier, logger, handler.Options{
		SecureCookies: cfg.SecureCookies,
		CSRFKey:       csrfKey,
		CORSOrigins:   cfg.CORSOrigins,
		WebhookSecret: cfg.WebhookSecret,
	})

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Logger → Recoverer.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Mount("/", srv.Routes())

	// --- HTTP Server ------------------------------------------------------
	// WriteTimeout leaves room for a reload that waits on the booking API.
	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.BookingAPITimeout*2 + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", httpSrv.Addr, "booking_api", cfg.BookingAPIURL, "email_provider", cfg.Email.Provider)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// openDatabase connects to Postgres and applies pending migrations.
func openDatabase(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect: %w", err)
	}

	// The *sql.DB borrows connections from pool and keeps none idle.
	db := stdlib.OpenDBFromPool(pool)

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}
	for _, res := range results {
		slog.Info("migration applied", "version", res.Source.Version, "duration", res.Duration)
	}
	return pool, nil
}

// newEmailProvider builds the configured email backend.
func newEmailProvider(ctx context.Context, cfg config.Email, logger *slog.Logger) (notify.Provider, error) {
	switch cfg.Provider {
	case config.EmailProviderEmailJS:
		return notify.EmailJS{
			HTTPClient: &http.Client{Timeout: 15 * time.Second},
			Endpoint:   notify.DefaultEmailJSEndpoint,
			ServiceID:  cfg.EmailJSServiceID,
			PublicKey:  cfg.EmailJSPublicKey,
			PrivateKey: cfg.EmailJSPrivateKey,
		}, nil
	case config.EmailProviderSES:
		return notify.NewSES(ctx, cfg.SESRegion, cfg.SESFrom)
	default:
		return notify.LogProvider{Log: logger}, nil
	}
}

// loadCSRFKey returns the configured key or a random one for this process.
func loadCSRFKey(configured string) ([]byte, error) {
	if configured != "" {
		return []byte(configured), nil
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	slog.Warn("CSRF_KEY not set; using a random key, open forms break on restart")
	return key, nil
}
