package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gorilla/csrf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/villa-admin/internal/middleware"
)

var csrfKey = []byte("0123456789abcdef0123456789abcdef")

// tokenHandler writes the CSRF token for GET and 200 for accepted posts.
var tokenHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte(csrf.Token(r)))
})

func TestCSRF_postWithoutTokenIsForbidden(t *testing.T) {
	h := middleware.NewCSRF(csrfKey, false, discard)(tokenHandler)

	req := httptest.NewRequest(http.MethodPost, "/reload", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// TestCSRF_roundTrip fetches a token and cookie with GET, then posts the
// token back as a form field over plain HTTP.
func TestCSRF_roundTrip(t *testing.T) {
	h := middleware.NewCSRF(csrfKey, false, discard)(tokenHandler)

	getRec := httptest.NewRecorder()
	h.ServeHTTP(getRec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, getRec.Code)
	token := getRec.Body.String()
	require.NotEmpty(t, token)

	form := url.Values{middleware.CSRFFieldName: {token}}
	req := httptest.NewRequest(http.MethodPost, "/reload", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range getRec.Result().Cookies() {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCSRF_nilKeyDisablesProtection(t *testing.T) {
	h := middleware.NewCSRF(nil, false, discard)(trivialHandler)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/reload", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}
