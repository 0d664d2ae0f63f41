// Package bookingapi is the typed client for the remote villa booking API.
// The API owns persistence, validation, and price computation; this package
// only moves records across the wire and classifies failures into the
// domain error taxonomy.
package bookingapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/villa-admin/internal/domain"
)

// DefaultTimeout is applied when the caller does not supply an http.Client.
const DefaultTimeout = 20 * time.Second

// Client talks to the booking API rooted at BaseURL (for example
// "https://villa.example.com/api"). The zero value is not usable; build it
// with New.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// New returns a Client for baseURL. A nil httpClient gets DefaultTimeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// WithToken returns a copy of c that sends token as a bearer credential.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

// loginRequest is the body of POST /admin/login.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// updateRequest is the full replacement record expected by PUT /bookings/{id}.
// Field names follow the API's write schema, which differs from its read
// schema (startDate vs start_date).
type updateRequest struct {
	Name      string             `json:"name"`
	Email     string             `json:"email"`
	Phone     string             `json:"phone"`
	Guests    int                `json:"guests"`
	StartDate openapi_types.Date `json:"startDate"`
	EndDate   openapi_types.Date `json:"endDate"`
	Price     json.Number        `json:"price"`
	Status    domain.Status      `json:"status"`
	Notes     string             `json:"notes"`
}

// errorBody is the API's error envelope: {"error": "message"}.
type errorBody struct {
	Error string `json:"error"`
}

// Login exchanges credentials for a session token.
// Rejected credentials yield *domain.AuthError carrying the server message
// (or "invalid credentials"); transport failures yield *domain.ConnectivityError.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var resp loginResponse
	err := c.doJSON(ctx, http.MethodPost, "/admin/login", loginRequest{Username: username, Password: password}, &resp)
	if err != nil {
		var rej *domain.ServerRejection
		if errors.As(err, &rej) {
			msg := rej.Message
			if msg == "" {
				msg = "invalid credentials"
			}
			return "", &domain.AuthError{Message: msg}
		}
		return "", err
	}
	if resp.Token == "" {
		return "", &domain.AuthError{Message: "login response carried no token"}
	}
	return resp.Token, nil
}

// ListBookings returns every booking known to the API, in API order.
func (c *Client) ListBookings(ctx context.Context) ([]domain.Booking, error) {
	var out []domain.Booking
	if err := c.doJSON(ctx, http.MethodGet, "/bookings", nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Booking{}
	}
	return out, nil
}

// GetStats returns the API's aggregate statistics snapshot.
func (c *Client) GetStats(ctx context.Context) (domain.Stats, error) {
	var out domain.Stats
	if err := c.doJSON(ctx, http.MethodGet, "/stats", nil, &out); err != nil {
		return domain.Stats{}, err
	}
	return out, nil
}

// UpdateBooking sends b as a complete replacement of the stored record.
func (c *Client) UpdateBooking(ctx context.Context, b domain.Booking) error {
	body := updateRequest{
		Name:      b.Name,
		Email:     b.Email,
		Phone:     b.Phone,
		Guests:    b.Guests,
		StartDate: openapi_types.Date{Time: b.StartDate.Time},
		EndDate:   openapi_types.Date{Time: b.EndDate.Time},
		Price:     json.Number(b.Price.String()),
		Status:    b.Status,
		Notes:     b.Notes,
	}
	return c.doJSON(ctx, http.MethodPut, "/bookings/"+url.PathEscape(string(b.ID)), body, nil)
}

// DeleteBooking removes the booking with the given id.
func (c *Client) DeleteBooking(ctx context.Context, id domain.BookingID) error {
	return c.doJSON(ctx, http.MethodDelete, "/bookings/"+url.PathEscape(string(id)), nil, nil)
}

// doJSON performs one request. Transport failures, unreadable bodies and
// 2xx bodies that cannot be decoded become *domain.ConnectivityError;
// non-2xx statuses become *domain.ServerRejection with the API's error
// message when the body carries one.
func (c *Client) doJSON(ctx context.Context, method, path string, reqBody any, respBody any) error {
	op := method + " " + path

	var body io.Reader
	if reqBody != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(reqBody); err != nil {
			return fmt.Errorf("bookingapi: encode %s: %w", op, err)
		}
		body = &buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("bookingapi: build %s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.ConnectivityError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domain.ConnectivityError{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var eb errorBody
		_ = json.Unmarshal(b, &eb)
		return &domain.ServerRejection{StatusCode: resp.StatusCode, Message: strings.TrimSpace(eb.Error)}
	}

	if respBody != nil && len(b) > 0 {
		// A 2xx body that is not the API's JSON (a proxy error page) counts
		// as the API being unreachable.
		if err := json.Unmarshal(b, respBody); err != nil {
			return &domain.ConnectivityError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
		}
	}
	return nil
}
