// Package domain contains the core data types for the villa admin console.
// It is imported by every other internal package (bookingapi, notify, repo,
// service, handler) and performs no I/O.
package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a booking as stored by the remote API.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// ParseStatus returns the Status named by s.
// Returns ErrValidation for anything outside the three known states.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return Status(s), nil
	default:
		return "", fmt.Errorf("%w: unknown status %q", ErrValidation, s)
	}
}

// BookingID is the opaque identifier assigned by the remote API.
// The API may encode it as a JSON number or a JSON string; both decode to
// the same textual form so lookups never depend on the wire type.
type BookingID string

// UnmarshalJSON accepts both `17` and `"17"`.
func (id *BookingID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = BookingID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("booking id: %w", err)
	}
	*id = BookingID(n.String())
	return nil
}

// DateLayout is the calendar-date wire format used by the remote API.
const DateLayout = "2006-01-02"

// Date is a calendar date with no time-of-day component.
// It decodes both "2025-07-01" and RFC 3339 timestamps such as
// "2025-07-01T00:00:00.000Z", keeping only the date part.
type Date struct {
	time.Time
}

// NewDate builds a Date at midnight UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a date in either accepted wire form.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if len(s) >= len(DateLayout) {
		if t, err := time.Parse(DateLayout, s[:len(DateLayout)]); err == nil {
			return Date{Time: t}, nil
		}
	}
	return Date{}, fmt.Errorf("invalid date %q", s)
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(DateLayout)
}

// MarshalJSON encodes the date as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes a quoted date; null leaves the zero Date.
func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Booking is a single reservation as returned by GET /bookings.
// The console only ever holds read-only copies; the remote API owns the data.
type Booking struct {
	ID        BookingID       `json:"id"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Phone     string          `json:"phone"`
	Guests    int             `json:"guests"`
	StartDate Date            `json:"start_date"`
	EndDate   Date            `json:"end_date"`
	Price     decimal.Decimal `json:"price"`
	Status    Status          `json:"status"`
	Notes     string          `json:"notes,omitempty"`
}

// UnmarshalJSON tolerates a null notes field, which the API sends for
// bookings created without notes. It also accepts the write schema's
// startDate/endDate keys, used by the reservation form, when the read
// schema's start_date/end_date are absent.
func (b *Booking) UnmarshalJSON(data []byte) error {
	type plain Booking
	var aux struct {
		plain
		Notes         *string `json:"notes"`
		FormStartDate *Date   `json:"startDate"`
		FormEndDate   *Date   `json:"endDate"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*b = Booking(aux.plain)
	if aux.Notes != nil {
		b.Notes = *aux.Notes
	}
	if b.StartDate.IsZero() && aux.FormStartDate != nil {
		b.StartDate = *aux.FormStartDate
	}
	if b.EndDate.IsZero() && aux.FormEndDate != nil {
		b.EndDate = *aux.FormEndDate
	}
	return nil
}

// Nights is the length of the stay.
func (b Booking) Nights() int {
	return int(b.EndDate.Sub(b.StartDate.Time).Hours() / 24)
}

// WithStatus returns a copy of b carrying the new status.
// The remote API takes full replacement records, so transitions are built
// from the cached booking rather than from a partial patch.
func (b Booking) WithStatus(s Status) Booking {
	b.Status = s
	return b
}

// Validate enforces the invariants the console relies on when it sends a
// booking back to the remote API.
func (b Booking) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if b.Guests < 1 {
		return fmt.Errorf("%w: guests must be positive", ErrValidation)
	}
	if !b.EndDate.After(b.StartDate.Time) {
		return fmt.Errorf("%w: end date must be after start date", ErrValidation)
	}
	if b.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", ErrValidation)
	}
	return nil
}

// Stats is the aggregate snapshot returned by GET /stats.
// The revenue policy (which bookings count) is owned by the remote API.
type Stats struct {
	TotalBookings int             `json:"total_bookings"`
	Confirmed     int             `json:"confirmed"`
	Pending       int             `json:"pending"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
}
