package handler

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"strconv"
	"time"

	"github.com/pkordes/villa-admin/internal/domain"
)

// csvHeaders defines the column names written as the first row of any CSV export.
var csvHeaders = []string{
	"id", "name", "email", "phone", "guests",
	"start_date", "end_date", "nights", "price", "status", "notes",
}

// APIExport handles GET /api/bookings/export?status=...&format=csv|json.
// It exports the session's current snapshot, narrowed by the same filter as
// the list endpoint. JSON is the default.
func (s *Server) APIExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter, err := domain.ParseFilter(q.Get("status"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ws := s.workspace(r)
	if !s.loadForAPI(w, r, ws) {
		return
	}
	rows := ws.Store.Filter(filter)

	switch q.Get("format") {
	case "", "json":
		writeJSON(w, http.StatusOK, rows)
	case "csv":
		body := buildCSV(rows)
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="bookings-`+time.Now().UTC().Format("20060102")+`.csv"`)
		w.Header().Set("Content-Length", strconv.Itoa(body.Len()))
		w.WriteHeader(http.StatusOK)
		_, _ = body.WriteTo(w)
	default:
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: ErrorDetail{Code: "bad_request", Message: "format must be csv or json"}})
	}
}

// buildCSV encodes bookings as CSV, one row per booking in snapshot order.
func buildCSV(rows []domain.Booking) *bytes.Buffer {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	//nolint:errcheck // bytes.Buffer.Write never returns an error.
	w.Write(csvHeaders)
	for _, b := range rows {
		//nolint:errcheck
		w.Write(bookingToCSVRecord(b))
	}
	w.Flush()
	return &buf
}

// bookingToCSVRecord flattens a booking. Zero dates become empty cells.
func bookingToCSVRecord(b domain.Booking) []string {
	return []string{
		string(b.ID),
		b.Name,
		b.Email,
		b.Phone,
		strconv.Itoa(b.Guests),
		formatOptionalDate(b.StartDate),
		formatOptionalDate(b.EndDate),
		strconv.Itoa(b.Nights()),
		b.Price.StringFixed(2),
		string(b.Status),
		b.Notes,
	}
}

func formatOptionalDate(d domain.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}
