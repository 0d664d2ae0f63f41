package handler_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/villa-admin/internal/domain"
	"github.com/pkordes/villa-admin/internal/handler"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) handler.ErrorDetail {
	t.Helper()
	var resp handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp.Error
}

func TestAPIListBookings_filters(t *testing.T) {
	f := newFixture(t)

	rec := f.get("/api/bookings?status=confirmed", f.login(t))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp handler.BookingListResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, domain.Filter("confirmed"), resp.Filter)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, domain.BookingID("2"), resp.Data[0].ID)
	assert.Equal(t, 3, resp.Counts[domain.FilterAll])
}

func TestAPIListBookings_unknownFilter(t *testing.T) {
	f := newFixture(t)

	rec := f.get("/api/bookings?status=archived", f.login(t))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "validation_error", decodeError(t, rec).Code)
}

func TestAPIGetStats(t *testing.T) {
	f := newFixture(t)

	rec := f.get("/api/stats", f.login(t))

	require.Equal(t, http.StatusOK, rec.Code)
	var stats domain.Stats
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&stats))
	assert.Equal(t, 3, stats.TotalBookings)
	assert.Equal(t, 1, stats.Confirmed)
}

func TestAPIGetStats_unreachable(t *testing.T) {
	f := newFixture(t)
	f.api.listErr = &domain.ConnectivityError{Op: "GET /bookings", Err: errors.New("timeout")}
	f.api.statsErr = &domain.ConnectivityError{Op: "GET /stats", Err: errors.New("timeout")}

	rec := f.get("/api/stats", f.login(t))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unreachable", decodeError(t, rec).Code)
}

func TestAPIReload_returnsSnapshot(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodPost, "/api/reload", nil), f.login(t))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp handler.SnapshotResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp.Bookings, 3)
	require.NotNil(t, resp.Stats)
	assert.Equal(t, 1, resp.Stats.Pending)
}

func TestAPIConfirm(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodPost, "/api/bookings/1/confirm", nil), f.login(t))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp handler.TransitionResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, domain.BookingID("1"), resp.BookingID)
	assert.Equal(t, domain.StatusConfirmed, resp.Status)
	assert.True(t, resp.Notified)
	assert.Empty(t, resp.ReloadError)
	assert.Equal(t, []string{"confirm:anna@example.com"}, f.notifier.Sent())
}

func TestAPIReject_notificationFailure(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = &domain.DeliveryError{Template: "reject", Err: errors.New("quota exceeded")}

	rec := f.do(httptest.NewRequest(http.MethodPost, "/api/bookings/1/reject", nil), f.login(t))

	require.Equal(t, http.StatusOK, rec.Code, "the status change stands")
	var resp handler.TransitionResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.False(t, resp.Notified)
	assert.Equal(t, "Booking updated, but the notification email could not be sent.", resp.Message)
	assert.Equal(t, domain.StatusCancelled, f.api.status("1"))
}

func TestAPIConfirm_errors(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		updateErr  error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{
			name:       "unknown booking",
			path:       "/api/bookings/99/confirm",
			wantStatus: http.StatusNotFound,
			wantCode:   "not_found",
		},
		{
			name:       "server rejection with message",
			path:       "/api/bookings/1/confirm",
			updateErr:  &domain.ServerRejection{StatusCode: 400, Message: "end date must be after start date"},
			wantStatus: http.StatusBadGateway,
			wantCode:   "rejected",
			wantMsg:    "end date must be after start date",
		},
		{
			name:       "server rejection without message",
			path:       "/api/bookings/1/confirm",
			updateErr:  &domain.ServerRejection{StatusCode: 500},
			wantStatus: http.StatusBadGateway,
			wantCode:   "rejected",
			wantMsg:    "unable to update booking",
		},
		{
			name:       "backend unreachable",
			path:       "/api/bookings/1/confirm",
			updateErr:  &domain.ConnectivityError{Op: "PUT /bookings/1", Err: errors.New("refused")},
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "unreachable",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.api.updateErr = tc.updateErr

			rec := f.do(httptest.NewRequest(http.MethodPost, tc.path, nil), f.login(t))

			require.Equal(t, tc.wantStatus, rec.Code)
			detail := decodeError(t, rec)
			assert.Equal(t, tc.wantCode, detail.Code)
			if tc.wantMsg != "" {
				assert.Equal(t, tc.wantMsg, detail.Message)
			}
			assert.Empty(t, f.notifier.Sent())
		})
	}
}

func TestAPIDelete_requiresConfirmation(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodDelete, "/api/bookings/2", nil), f.login(t))

	require.Equal(t, http.StatusPreconditionRequired, rec.Code)
	assert.Equal(t, "confirmation_required", decodeError(t, rec).Code)
	assert.Zero(t, f.api.Calls("delete"))
}

func TestAPIDelete_confirmed(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodDelete, "/api/bookings/2?confirm=true", nil), f.login(t))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp handler.DeleteResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Booking deleted.", resp.Message)
	assert.Equal(t, domain.Status(""), f.api.status("2"))
}

func TestAPIDelete_unreachable(t *testing.T) {
	f := newFixture(t)
	f.api.deleteErr = &domain.ConnectivityError{Op: "DELETE /bookings/2", Err: errors.New("connection reset")}

	rec := f.do(httptest.NewRequest(http.MethodDelete, "/api/bookings/2?confirm=true", nil), f.login(t))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	detail := decodeError(t, rec)
	assert.Equal(t, "unreachable", detail.Code)
	assert.True(t, strings.HasPrefix(detail.Message, "unable to delete booking."))
}
