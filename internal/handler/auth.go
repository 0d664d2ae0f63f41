package handler

import (
	"encoding/json"
	"net/http"

	"github.com/pkordes/villa-admin/internal/domain"
	"github.com/pkordes/villa-admin/internal/middleware"
)

// LoginPage handles GET /login. An operator who already holds a valid
// session goes straight to the dashboard.
func (s *Server) LoginPage(w http.ResponseWriter, r *http.Request) {
	if _, err := s.gate.Restore(r.Context(), middleware.SessionMarker(r)); err == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.render(w, r, http.StatusOK, s.pages.login, newPageData(r, "Login"))
}

// LoginSubmit handles POST /login. On failure the form is shown again with
// the reason and the session state is left as it was.
func (s *Server) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	username := r.PostFormValue("username")
	sess, err := s.gate.Login(r.Context(), username, r.PostFormValue("password"))
	if err != nil {
		p := classify(err)
		if p.status == http.StatusInternalServerError {
			s.log.ErrorContext(r.Context(), "login failed", "error", err)
		}
		data := newPageData(r, "Login")
		data.Error = p.message
		data.LoginUsername = username
		s.render(w, r, p.status, s.pages.login, data)
		return
	}

	middleware.SetSessionCookie(w, sess.ID, s.opts.SecureCookies)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout handles POST /logout.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	s.endSession(w, r)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// endSession destroys the caller's session record, its workspace and cookie.
func (s *Server) endSession(w http.ResponseWriter, r *http.Request) {
	marker := middleware.SessionMarker(r)
	if err := s.gate.Logout(r.Context(), marker); err != nil {
		s.log.ErrorContext(r.Context(), "logout failed", "error", err)
	}
	if marker != "" {
		s.workspaces.Drop(marker)
	}
	middleware.ClearSessionCookie(w, s.opts.SecureCookies)
}

// LoginRequest is the body of POST /api/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned by POST /api/login. Session is the marker to
// send back as a cookie or as "Authorization: Bearer".
type LoginResponse struct {
	Session  string `json:"session"`
	Username string `json:"username"`
}

// APILogin handles POST /api/login.
func (s *Server) APILogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: ErrorDetail{Code: "bad_request", Message: "request body must be JSON with username and password"}})
		return
	}

	sess, err := s.gate.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	middleware.SetSessionCookie(w, sess.ID, s.opts.SecureCookies)
	writeJSON(w, http.StatusOK, LoginResponse{Session: sess.ID, Username: sess.Username})
}

// APILogout handles POST /api/logout. It always succeeds.
func (s *Server) APILogout(w http.ResponseWriter, r *http.Request) {
	s.endSession(w, r)
	w.WriteHeader(http.StatusNoContent)
}

// apiUnauthenticated is the deny handler of the /api session middleware.
func (s *Server) apiUnauthenticated(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, r, domain.ErrUnauthenticated)
}
