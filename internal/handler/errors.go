package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/pkordes/villa-admin/internal/domain"
)

// msgUnreachable is shown whenever the booking API cannot be reached.
const msgUnreachable = "Booking service unreachable. Check that the backend is running."

// msgDeleteFailed is the generic report of a deletion the API did not apply.
const msgDeleteFailed = "unable to delete booking"

// ErrorResponse is the JSON error envelope: {"error":{"code","message"}}.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a machine-readable code and a message for the operator.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// problem is the HTTP rendering of a domain error.
type problem struct {
	status  int
	code    string
	message string
}

// classify maps a domain error onto a status, code and operator message.
// Unknown errors become a 500 with a generic message so internals never leak.
func classify(err error) problem {
	var (
		authErr *domain.AuthError
		connErr *domain.ConnectivityError
		rej     *domain.ServerRejection
	)
	switch {
	case errors.As(err, &authErr):
		return problem{http.StatusUnauthorized, "auth_failed", authErr.Message}
	case errors.Is(err, domain.ErrUnauthenticated):
		return problem{http.StatusUnauthorized, "unauthenticated", "login required"}
	case errors.As(err, &connErr):
		return problem{http.StatusServiceUnavailable, "unreachable", msgUnreachable}
	case errors.As(err, &rej):
		return problem{http.StatusBadGateway, "rejected", rej.Message}
	case errors.Is(err, domain.ErrNotFound):
		return problem{http.StatusNotFound, "not_found", "booking not found"}
	case errors.Is(err, domain.ErrConfirmationRequired):
		return problem{http.StatusPreconditionRequired, "confirmation_required", "deletion must be confirmed"}
	case errors.Is(err, domain.ErrValidation):
		return problem{http.StatusUnprocessableEntity, "validation_error", unwrapMessage(err)}
	default:
		return problem{http.StatusInternalServerError, "internal", "internal server error"}
	}
}

// classifyDelete is classify for a failed deletion: a transport failure is
// reported as a failed deletion first, then as the unreachable backend.
func classifyDelete(err error) problem {
	p := classify(err)
	if p.code == "unreachable" {
		p.message = msgDeleteFailed + ". " + msgUnreachable
	}
	return p
}

// unwrapMessage extracts the human-readable part from a wrapped validation error.
// e.g. "service.Workflow.Transition: validation error: cannot transition to \"pending\""
// → "cannot transition to \"pending\""
func unwrapMessage(err error) string {
	msg := err.Error()
	if _, detail, ok := strings.Cut(msg, domain.ErrValidation.Error()+": "); ok {
		return detail
	}
	return msg
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders err as the JSON error envelope.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	p := classify(err)
	if p.status == http.StatusInternalServerError {
		s.log.ErrorContext(r.Context(), "internal error", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, p.status, ErrorResponse{Error: ErrorDetail{Code: p.code, Message: p.message}})
}
