package service

import (
	"log/slog"
	"sync"

	"github.com/pkordes/villa-admin/internal/domain"
)

// Flash is a one-shot report shown to the operator on the next page render.
type Flash struct {
	Level string // "success", "warning" or "error"
	Text  string
}

// Workspace is everything the console holds for one operator session: the
// session itself, its booking snapshot, the workflow bound to that snapshot,
// and pending flash reports.
type Workspace struct {
	Session  domain.Session
	Store    *BookingStore
	Workflow *Workflow

	mu      sync.Mutex
	flashes []Flash
}

// BookingAPI is the full remote surface a workspace needs.
type BookingAPI interface {
	BookingSource
	BookingWriter
}

// NewWorkspace wires an empty store and its workflow for session s.
func NewWorkspace(s domain.Session, api BookingAPI, n GuestNotifier, log *slog.Logger) *Workspace {
	log = log.With("username", s.Username)
	store := NewBookingStore(api, log)
	return &Workspace{
		Session:  s,
		Store:    store,
		Workflow: NewWorkflow(api, n, store, log),
	}
}

// AddFlash queues a report for the next render.
func (w *Workspace) AddFlash(level, text string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.flashes = append(w.flashes, Flash{Level: level, Text: text})
}

// TakeFlashes returns and clears the queued reports.
func (w *Workspace) TakeFlashes() []Flash {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := w.flashes
	w.flashes = nil
	return out
}

// WorkspaceFactory builds the workspace for a freshly restored session,
// binding its store and workflow to the session's remote token.
type WorkspaceFactory func(s domain.Session) *Workspace

// Workspaces keeps one Workspace per session marker. Entries are created on
// first use and dropped on logout; a server restart simply recreates them
// with an empty snapshot.
type Workspaces struct {
	build WorkspaceFactory

	mu   sync.Mutex
	byID map[string]*Workspace
}

// NewWorkspaces constructs an empty registry.
func NewWorkspaces(build WorkspaceFactory) *Workspaces {
	return &Workspaces{build: build, byID: map[string]*Workspace{}}
}

// For returns the workspace of s, creating it if needed.
func (r *Workspaces) For(s domain.Session) *Workspace {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ws, ok := r.byID[s.ID]; ok {
		return ws
	}
	ws := r.build(s)
	r.byID[s.ID] = ws
	return ws
}

// Drop forgets the workspace of session id.
func (r *Workspaces) Drop(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, id)
}
