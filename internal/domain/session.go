package domain

import "time"

// SessionCookieName is the fixed key under which the session marker is kept
// in the operator's browser.
const SessionCookieName = "adminToken"

// Session is an operator's authenticated session.
// ID is the marker handed to the browser; Token is the opaque credential
// returned by the remote login endpoint and is never exposed to the browser.
type Session struct {
	ID            string
	Token         string
	Username      string
	CreatedAt     time.Time
	Authenticated bool
}
