package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/pkordes/villa-admin/internal/domain"
)

// SignatureHeader carries base64(HMAC-SHA256(body)) keyed by the webhook secret.
const SignatureHeader = "X-Signature"

// VerifySignature reports whether signature is the base64 HMAC-SHA256 of
// body under secret. An empty secret or signature never verifies.
func VerifySignature(body []byte, signature, secret string) bool {
	if signature == "" || secret == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// NewBookingHook handles POST /hooks/new-booking. The public reservation
// flow calls it after storing a pending booking; the villa owner is then
// emailed the details. The route does not exist unless a webhook secret is
// configured.
func (s *Server) NewBookingHook(w http.ResponseWriter, r *http.Request) {
	if s.opts.WebhookSecret == "" {
		http.NotFound(w, r)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: ErrorDetail{Code: "bad_request", Message: "invalid body"}})
		return
	}

	if !VerifySignature(body, strings.TrimSpace(r.Header.Get(SignatureHeader)), s.opts.WebhookSecret) {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: ErrorDetail{Code: "unauthorized", Message: "invalid webhook signature"}})
		return
	}

	var b domain.Booking
	if err := json.Unmarshal(body, &b); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: ErrorDetail{Code: "bad_request", Message: "body must be a booking record"}})
		return
	}
	if err := b.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.admin.NotifyAdminNewBooking(r.Context(), b); err != nil {
		var de *domain.DeliveryError
		if errors.As(err, &de) {
			s.log.WarnContext(r.Context(), "new booking alert not delivered", "booking_id", b.ID, "error", err)
			writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: ErrorDetail{Code: "delivery_failed", Message: "notification email could not be sent"}})
			return
		}
		s.writeError(w, r, err)
		return
	}

	s.log.InfoContext(r.Context(), "new booking alert sent", "booking_id", b.ID)
	w.WriteHeader(http.StatusAccepted)
}
