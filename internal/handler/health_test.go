package handler_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/villa-admin/internal/handler"
)

// TestGetHealth_returns200WithOKStatus verifies that GET /healthz returns
// HTTP 200 and a JSON body of {"status":"ok"} without a session.
func TestGetHealth_returns200WithOKStatus(t *testing.T) {
	f := newFixture(t)

	rec := f.get("/healthz", "")

	require.Equal(t, http.StatusOK, rec.Code)

	var body handler.HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, "ok", body.Status)
	assert.Zero(t, f.api.Calls("list"), "health must not touch the booking API")
}

func TestGetOpenAPI_servesEmbeddedDocument(t *testing.T) {
	f := newFixture(t)

	rec := f.get("/openapi.yaml", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "openapi: 3.0.3")
	assert.Contains(t, rec.Body.String(), "/api/bookings/{id}/confirm")
}
