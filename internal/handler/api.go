package handler

import (
	"net/http"
	"strconv"

	"github.com/pkordes/villa-admin/internal/domain"
	"github.com/pkordes/villa-admin/internal/service"
)

// BookingListResponse is returned by GET /api/bookings.
type BookingListResponse struct {
	Filter domain.Filter         `json:"filter"`
	Data   []domain.Booking      `json:"data"`
	Counts map[domain.Filter]int `json:"counts"`
}

// TransitionResponse is returned by the confirm and reject endpoints.
// Notified is false when the status change was stored but the guest email
// failed; ReloadError is set when the follow-up reload could not reach the
// booking API.
type TransitionResponse struct {
	BookingID   domain.BookingID `json:"booking_id"`
	Status      domain.Status    `json:"status"`
	Notified    bool             `json:"notified"`
	Message     string           `json:"message"`
	ReloadError string           `json:"reload_error,omitempty"`
}

// DeleteResponse is returned by DELETE /api/bookings/{id}.
type DeleteResponse struct {
	BookingID   domain.BookingID `json:"booking_id"`
	Message     string           `json:"message"`
	ReloadError string           `json:"reload_error,omitempty"`
}

// SnapshotResponse is returned by POST /api/reload.
type SnapshotResponse struct {
	Bookings []domain.Booking `json:"bookings"`
	Stats    *domain.Stats    `json:"stats"`
}

// APIListBookings handles GET /api/bookings?status=all|pending|confirmed|cancelled.
func (s *Server) APIListBookings(w http.ResponseWriter, r *http.Request) {
	filter, err := domain.ParseFilter(r.URL.Query().Get("status"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ws := s.workspace(r)
	if !s.loadForAPI(w, r, ws) {
		return
	}

	writeJSON(w, http.StatusOK, BookingListResponse{
		Filter: filter,
		Data:   ws.Store.Filter(filter),
		Counts: ws.Store.Counts(),
	})
}

// APIGetStats handles GET /api/stats.
func (s *Server) APIGetStats(w http.ResponseWriter, r *http.Request) {
	ws := s.workspace(r)
	if !s.loadForAPI(w, r, ws) {
		return
	}

	stats, _ := ws.Store.Stats()
	writeJSON(w, http.StatusOK, stats)
}

// APIReload handles POST /api/reload. A connectivity failure is reported as
// 503 even though the half that did load has been committed.
func (s *Server) APIReload(w http.ResponseWriter, r *http.Request) {
	ws := s.workspace(r)
	if err := ws.Store.Reload(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot(ws))
}

// APIConfirm handles POST /api/bookings/{id}/confirm.
func (s *Server) APIConfirm(w http.ResponseWriter, r *http.Request) {
	s.apiTransition(w, r, domain.StatusConfirmed)
}

// APIReject handles POST /api/bookings/{id}/reject.
func (s *Server) APIReject(w http.ResponseWriter, r *http.Request) {
	s.apiTransition(w, r, domain.StatusCancelled)
}

func (s *Server) apiTransition(w http.ResponseWriter, r *http.Request, target domain.Status) {
	ws := s.workspace(r)
	if !s.loadForAPI(w, r, ws) {
		return
	}

	res, err := ws.Workflow.Transition(r.Context(), bookingID(r), target)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, TransitionResponse{
		BookingID:   res.Booking.ID,
		Status:      res.Booking.Status,
		Notified:    res.Notified(),
		Message:     res.Message(),
		ReloadError: errText(res.ReloadErr),
	})
}

// APIDelete handles DELETE /api/bookings/{id}?confirm=true.
func (s *Server) APIDelete(w http.ResponseWriter, r *http.Request) {
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))

	res, err := s.workspace(r).Workflow.Remove(r.Context(), bookingID(r), confirmed)
	if err != nil {
		if p := classifyDelete(err); p.code == "unreachable" {
			writeJSON(w, p.status, ErrorResponse{Error: ErrorDetail{Code: p.code, Message: p.message}})
			return
		}
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, DeleteResponse{
		BookingID:   res.ID,
		Message:     res.Message(),
		ReloadError: errText(res.ReloadErr),
	})
}

// loadForAPI performs the first reload of a session. It writes an error and
// returns false only when nothing at all could be loaded.
func (s *Server) loadForAPI(w http.ResponseWriter, r *http.Request, ws *service.Workspace) bool {
	err := s.ensureLoaded(r.Context(), ws)
	if err == nil {
		return true
	}
	if _, hasStats := ws.Store.Stats(); ws.Store.Loaded() || hasStats {
		return true
	}
	s.writeError(w, r, err)
	return false
}

func snapshot(ws *service.Workspace) SnapshotResponse {
	out := SnapshotResponse{Bookings: ws.Store.Bookings()}
	if stats, ok := ws.Store.Stats(); ok {
		out.Stats = &stats
	}
	return out
}

// errText renders a follow-up failure for the operator, or "" for nil.
func errText(err error) string {
	if err == nil {
		return ""
	}
	return classify(err).message
}
