package handler_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/villa-admin/internal/domain"
	"github.com/pkordes/villa-admin/internal/handler"
	"github.com/pkordes/villa-admin/internal/repo"
	"github.com/pkordes/villa-admin/internal/service"
)

// ---- fakes -----------------------------------------------------------------

// fakeAPI is an in-memory booking API. Set the err fields to make the
// matching call fail; calls are counted by name.
type fakeAPI struct {
	mu       sync.Mutex
	bookings []domain.Booking

	listErr   error
	statsErr  error
	updateErr error
	deleteErr error

	calls map[string]int
}

func (f *fakeAPI) count(name string) {
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[name]++
}

func (f *fakeAPI) Calls(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeAPI) ListBookings(context.Context) ([]domain.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count("list")
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]domain.Booking{}, f.bookings...), nil
}

func (f *fakeAPI) GetStats(context.Context) (domain.Stats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count("stats")
	if f.statsErr != nil {
		return domain.Stats{}, f.statsErr
	}
	s := domain.Stats{TotalBookings: len(f.bookings), TotalRevenue: decimal.Zero}
	for _, b := range f.bookings {
		switch b.Status {
		case domain.StatusConfirmed:
			s.Confirmed++
			s.TotalRevenue = s.TotalRevenue.Add(b.Price)
		case domain.StatusPending:
			s.Pending++
		}
	}
	return s, nil
}

func (f *fakeAPI) UpdateBooking(_ context.Context, b domain.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count("update")
	if f.updateErr != nil {
		return f.updateErr
	}
	for i := range f.bookings {
		if f.bookings[i].ID == b.ID {
			f.bookings[i] = b
		}
	}
	return nil
}

func (f *fakeAPI) DeleteBooking(_ context.Context, id domain.BookingID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count("delete")
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i := range f.bookings {
		if f.bookings[i].ID == id {
			f.bookings = append(f.bookings[:i], f.bookings[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeAPI) status(id domain.BookingID) domain.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.bookings {
		if b.ID == id {
			return b.Status
		}
	}
	return ""
}

var _ service.BookingAPI = (*fakeAPI)(nil)

// fakeNotifier records every email; err makes all of them fail.
type fakeNotifier struct {
	mu   sync.Mutex
	sent []string // "<kind>:<email>"
	err  error
}

func (n *fakeNotifier) record(kind string, b domain.Booking) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, kind+":"+b.Email)
	return nil
}

func (n *fakeNotifier) NotifyConfirmation(_ context.Context, b domain.Booking) error {
	return n.record("confirm", b)
}

func (n *fakeNotifier) NotifyRejection(_ context.Context, b domain.Booking) error {
	return n.record("reject", b)
}

func (n *fakeNotifier) NotifyAdminNewBooking(_ context.Context, b domain.Booking) error {
	return n.record("admin", b)
}

func (n *fakeNotifier) Sent() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.sent...)
}

var (
	_ service.GuestNotifier = (*fakeNotifier)(nil)
	_ handler.AdminNotifier = (*fakeNotifier)(nil)
)

type fakeAuth struct{}

func (fakeAuth) Login(_ context.Context, username, password string) (string, error) {
	if username == "admin" && password == "secret" {
		return "remote-token", nil
	}
	return "", &domain.AuthError{Message: "Invalid credentials"}
}

// ---- fixture ---------------------------------------------------------------

type fixture struct {
	api      *fakeAPI
	notifier *fakeNotifier
	gate     *service.SessionGate
	handler  http.Handler
}

func booking(id, name string, status domain.Status) domain.Booking {
	return domain.Booking{
		ID:        domain.BookingID(id),
		Name:      name,
		Email:     strings.ToLower(name) + "@example.com",
		Phone:     "+39 333 000000",
		Guests:    4,
		StartDate: domain.NewDate(2025, time.August, 1),
		EndDate:   domain.NewDate(2025, time.August, 8),
		Price:     decimal.RequireFromString("1200"),
		Status:    status,
	}
}

// newFixture wires the real services over fakes. opts may adjust the
// handler options; CSRF is off unless a test sets a key.
func newFixture(t *testing.T, opts ...func(*handler.Options)) *fixture {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	f := &fixture{
		api: &fakeAPI{bookings: []domain.Booking{
			booking("1", "Anna", domain.StatusPending),
			booking("2", "Marco", domain.StatusConfirmed),
			booking("3", "Lucia", domain.StatusCancelled),
		}},
		notifier: &fakeNotifier{},
	}
	f.gate = service.NewSessionGate(fakeAuth{}, repo.NewMemorySessionRepo(), log)
	workspaces := service.NewWorkspaces(func(s domain.Session) *service.Workspace {
		return service.NewWorkspace(s, f.api, f.notifier, log)
	})

	o := handler.Options{CORSOrigins: []string{"http://localhost:5173"}}
	for _, fn := range opts {
		fn(&o)
	}
	f.handler = handler.NewServer(f.gate, workspaces, f.notifier, log, o).Routes()
	return f
}

// login opens a session and returns its marker.
func (f *fixture) login(t *testing.T) string {
	t.Helper()
	s, err := f.gate.Login(context.Background(), "admin", "secret")
	require.NoError(t, err)
	return s.ID
}

// do sends req with the session cookie when marker is non-empty.
func (f *fixture) do(req *http.Request, marker string) *httptest.ResponseRecorder {
	if marker != "" {
		req.AddCookie(&http.Cookie{Name: domain.SessionCookieName, Value: marker})
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) get(path, marker string) *httptest.ResponseRecorder {
	return f.do(httptest.NewRequest(http.MethodGet, path, nil), marker)
}

func (f *fixture) postForm(path string, form url.Values, marker string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return f.do(req, marker)
}
