package domain

import "fmt"

// Filter selects which bookings the console lists: every booking, or only
// those with one status.
type Filter string

// FilterAll matches every booking.
const FilterAll Filter = "all"

// Filters lists the tabs shown by the console, in display order.
var Filters = []Filter{FilterAll, Filter(StatusPending), Filter(StatusConfirmed), Filter(StatusCancelled)}

// ParseFilter maps a query value onto a Filter. The empty string means all.
func ParseFilter(s string) (Filter, error) {
	if s == "" || Filter(s) == FilterAll {
		return FilterAll, nil
	}
	st, err := ParseStatus(s)
	if err != nil {
		return "", fmt.Errorf("%w: unknown filter %q", ErrValidation, s)
	}
	return Filter(st), nil
}

// Match reports whether b is selected by f.
func (f Filter) Match(b Booking) bool {
	return f == FilterAll || Status(f) == b.Status
}

// FilterBookings returns the bookings selected by f in their original order.
// The input slice is never modified; the result is never nil.
func FilterBookings(bookings []Booking, f Filter) []Booking {
	out := make([]Booking, 0, len(bookings))
	for _, b := range bookings {
		if f.Match(b) {
			out = append(out, b)
		}
	}
	return out
}
