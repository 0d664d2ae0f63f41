package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/pkordes/villa-admin/internal/domain"
	"github.com/pkordes/villa-admin/internal/service"
)

// Flash levels.
const (
	flashSuccess = "success"
	flashWarning = "warning"
	flashError   = "error"
)

// Dashboard handles GET /. It shows the stats tiles, the filter tabs and the
// bookings selected by ?status=. The first view of a session loads the
// snapshot; later views render whatever the store holds.
func (s *Server) Dashboard(w http.ResponseWriter, r *http.Request) {
	ws := s.workspace(r)

	filter, err := domain.ParseFilter(r.URL.Query().Get("status"))
	if err != nil {
		ws.AddFlash(flashError, "Unknown filter, showing all bookings.")
		filter = domain.FilterAll
	}

	if err := s.ensureLoaded(r.Context(), ws); err != nil {
		s.flashError(ws, err)
	}

	data := newPageData(r, "Bookings")
	data.Flashes = ws.TakeFlashes()
	data.Stats, data.HasStats = ws.Store.Stats()
	data.Filter = filter
	data.Bookings = ws.Store.Filter(filter)
	counts := ws.Store.Counts()
	for _, f := range domain.Filters {
		data.Tabs = append(data.Tabs, filterTab{Filter: f, Label: tabLabel(f), Count: counts[f], Active: f == filter})
	}

	s.render(w, r, http.StatusOK, s.pages.dashboard, data)
}

// Reload handles POST /reload.
func (s *Server) Reload(w http.ResponseWriter, r *http.Request) {
	ws := s.workspace(r)
	if err := ws.Store.Reload(r.Context()); err != nil {
		s.flashError(ws, err)
	}
	s.backToDashboard(w, r)
}

// Confirm handles POST /bookings/{id}/confirm.
func (s *Server) Confirm(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, domain.StatusConfirmed)
}

// Reject handles POST /bookings/{id}/reject.
func (s *Server) Reject(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, domain.StatusCancelled)
}

func (s *Server) transition(w http.ResponseWriter, r *http.Request, target domain.Status) {
	ws := s.workspace(r)

	res, err := ws.Workflow.Transition(r.Context(), bookingID(r), target)
	switch {
	case err != nil:
		s.flashError(ws, err)
	case !res.Notified():
		ws.AddFlash(flashWarning, res.Message())
	default:
		ws.AddFlash(flashSuccess, res.Message())
	}
	if err == nil && res.ReloadErr != nil {
		s.flashError(ws, res.ReloadErr)
	}

	s.backToDashboard(w, r)
}

// DeletePage handles GET /bookings/{id}/delete: the operator's explicit
// confirmation step before anything is sent.
func (s *Server) DeletePage(w http.ResponseWriter, r *http.Request) {
	ws := s.workspace(r)

	b, ok := ws.Store.Find(bookingID(r))
	if !ok {
		ws.AddFlash(flashError, "Booking not found.")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	data := newPageData(r, "Delete booking")
	data.Flashes = ws.TakeFlashes()
	data.Booking = b
	s.render(w, r, http.StatusOK, s.pages.confirmDelete, data)
}

// DeleteSubmit handles POST /bookings/{id}/delete. Without confirm=yes in
// the form nothing is deleted.
func (s *Server) DeleteSubmit(w http.ResponseWriter, r *http.Request) {
	ws := s.workspace(r)

	confirmed := r.PostFormValue("confirm") == "yes"
	res, err := ws.Workflow.Remove(r.Context(), bookingID(r), confirmed)
	if err != nil {
		if errors.Is(err, domain.ErrConfirmationRequired) {
			http.Redirect(w, r, "/bookings/"+url.PathEscape(string(bookingID(r)))+"/delete", http.StatusSeeOther)
			return
		}
		if p := classifyDelete(err); p.code == "unreachable" {
			ws.AddFlash(flashError, "Error: "+p.message)
		} else {
			s.flashError(ws, err)
		}
	} else {
		ws.AddFlash(flashSuccess, res.Message())
		if res.ReloadErr != nil {
			s.flashError(ws, res.ReloadErr)
		}
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// flashError queues the operator-facing text for err.
func (s *Server) flashError(ws *service.Workspace, err error) {
	p := classify(err)
	msg := p.message
	switch p.code {
	case "not_found":
		msg = "Booking not found."
	case "rejected":
		msg = "Error: " + p.message
	case "internal":
		s.log.Error("dashboard action failed", "error", err)
	}
	ws.AddFlash(flashError, msg)
}

// backToDashboard redirects to / keeping the tab the operator was on.
func (s *Server) backToDashboard(w http.ResponseWriter, r *http.Request) {
	target := "/"
	if f, err := domain.ParseFilter(r.PostFormValue("status")); err == nil && f != domain.FilterAll {
		target = "/?status=" + url.QueryEscape(string(f))
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
