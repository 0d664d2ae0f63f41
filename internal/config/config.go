// Package config loads and validates application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Email provider names accepted by EMAIL_PROVIDER.
const (
	EmailProviderLog     = "log"
	EmailProviderEmailJS = "emailjs"
	EmailProviderSES     = "ses"
)

// Config holds all configuration values for the dashboard server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of origins allowed to call the JSON API.
	// Defaults to ["http://localhost:5173"]. Set CORS_ORIGINS to a
	// comma-separated list to override.
	CORSOrigins []string

	// BookingAPIURL is the base URL of the remote booking API, e.g.
	// "https://villa.example.com/api". Required.
	BookingAPIURL string

	// BookingAPITimeout bounds each call to the booking API. Defaults to 20s.
	BookingAPITimeout time.Duration

	// DatabaseURL is the Postgres connection string for session storage.
	// Optional: when empty, sessions are kept in memory.
	DatabaseURL string

	// SecureCookies marks the session and CSRF cookies Secure. Enable behind TLS.
	SecureCookies bool

	// CSRFKey is the 32-byte key for form CSRF tokens. When empty a random
	// key is generated at startup, which invalidates open forms on restart.
	CSRFKey string

	// WebhookSecret signs POST /hooks/new-booking. Empty disables the hook.
	WebhookSecret string

	Email Email
}

// Email configures outgoing guest and admin notifications.
type Email struct {
	// Provider is one of "log", "emailjs" or "ses". Defaults to "log".
	Provider string

	TemplateAdmin   string
	TemplateConfirm string
	// TemplateReject may be empty; rejection emails then fail at send time.
	TemplateReject string

	EmailJSServiceID  string
	EmailJSPublicKey  string
	EmailJSPrivateKey string

	SESRegion string
	SESFrom   string

	// AdminEmail receives new-booking notifications.
	AdminEmail string
}

// Load reads configuration from environment variables and returns a Config.
// A .env file in the working directory, if present, is loaded first; real
// environment variables take precedence over it.
// Returns an error listing any required variables that are not set.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config.Load: reading .env: %w", err)
	}

	cfg := Config{
		Port:          getEnv("PORT", "8080"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		CORSOrigins:   splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		BookingAPIURL: strings.TrimRight(os.Getenv("BOOKING_API_URL"), "/"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		CSRFKey:       os.Getenv("CSRF_KEY"),
		WebhookSecret: os.Getenv("WEBHOOK_SECRET"),
		Email: Email{
			Provider:          strings.ToLower(getEnv("EMAIL_PROVIDER", EmailProviderLog)),
			TemplateAdmin:     os.Getenv("EMAIL_TEMPLATE_ADMIN"),
			TemplateConfirm:   os.Getenv("EMAIL_TEMPLATE_CONFIRM"),
			TemplateReject:    os.Getenv("EMAIL_TEMPLATE_REJECT"),
			EmailJSServiceID:  os.Getenv("EMAILJS_SERVICE_ID"),
			EmailJSPublicKey:  os.Getenv("EMAILJS_PUBLIC_KEY"),
			EmailJSPrivateKey: os.Getenv("EMAILJS_PRIVATE_KEY"),
			SESRegion:         os.Getenv("SES_REGION"),
			SESFrom:           os.Getenv("SES_FROM"),
			AdminEmail:        os.Getenv("ADMIN_EMAIL"),
		},
	}

	var missing []string

	if cfg.BookingAPIURL == "" {
		missing = append(missing, "BOOKING_API_URL")
	}

	switch cfg.Email.Provider {
	case EmailProviderLog:
	case EmailProviderEmailJS:
		missing = appendIfEmpty(missing,
			"EMAILJS_SERVICE_ID", cfg.Email.EmailJSServiceID,
			"EMAILJS_PUBLIC_KEY", cfg.Email.EmailJSPublicKey,
			"EMAIL_TEMPLATE_ADMIN", cfg.Email.TemplateAdmin,
			"EMAIL_TEMPLATE_CONFIRM", cfg.Email.TemplateConfirm,
		)
	case EmailProviderSES:
		missing = appendIfEmpty(missing,
			"SES_REGION", cfg.Email.SESRegion,
			"SES_FROM", cfg.Email.SESFrom,
			"EMAIL_TEMPLATE_ADMIN", cfg.Email.TemplateAdmin,
			"EMAIL_TEMPLATE_CONFIRM", cfg.Email.TemplateConfirm,
		)
	default:
		return Config{}, fmt.Errorf("EMAIL_PROVIDER must be one of log, emailjs, ses (got %q)", cfg.Email.Provider)
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	timeout, err := time.ParseDuration(getEnv("BOOKING_API_TIMEOUT", "20s"))
	if err != nil || timeout <= 0 {
		return Config{}, fmt.Errorf("BOOKING_API_TIMEOUT must be a positive duration such as 20s (got %q)", os.Getenv("BOOKING_API_TIMEOUT"))
	}
	cfg.BookingAPITimeout = timeout

	if v := os.Getenv("SECURE_COOKIES"); v != "" {
		secure, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("SECURE_COOKIES must be a boolean (got %q)", v)
		}
		cfg.SecureCookies = secure
	}

	if cfg.CSRFKey != "" && len(cfg.CSRFKey) < 32 {
		return Config{}, errors.New("CSRF_KEY must be at least 32 characters")
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// appendIfEmpty takes name/value pairs and appends each name whose value is empty.
func appendIfEmpty(missing []string, pairs ...string) []string {
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			missing = append(missing, pairs[i])
		}
	}
	return missing
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
