package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pkordes/villa-admin/internal/domain"
)

// BookingSource reads the remote booking list and statistics.
type BookingSource interface {
	ListBookings(ctx context.Context) ([]domain.Booking, error)
	GetStats(ctx context.Context) (domain.Stats, error)
}

// BookingStore caches the operator's last snapshot of bookings and stats.
// The snapshot is only ever replaced wholesale by Reload; nothing patches it
// in place. Concurrent reloads are last-write-wins per collection.
type BookingStore struct {
	src BookingSource
	log *slog.Logger

	mu       sync.RWMutex
	bookings []domain.Booking
	stats    domain.Stats
	hasStats bool
	loaded   bool
}

// NewBookingStore returns an empty store reading from src.
func NewBookingStore(src BookingSource, log *slog.Logger) *BookingStore {
	return &BookingStore{src: src, log: log, bookings: []domain.Booking{}}
}

// Reload fetches bookings and stats concurrently. Each half commits on its
// own: a failure of one never discards the other.
//
// A non-success answer leaves that half at its previous value and is only
// logged. A transport failure does the same but is also returned, as a
// *domain.ConnectivityError, after the other half has been committed.
func (s *BookingStore) Reload(ctx context.Context) error {
	var (
		wg       sync.WaitGroup
		bookings []domain.Booking
		stats    domain.Stats
		bErr     error
		sErr     error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		bookings, bErr = s.src.ListBookings(ctx)
	}()
	go func() {
		defer wg.Done()
		stats, sErr = s.src.GetStats(ctx)
	}()
	wg.Wait()

	s.mu.Lock()
	if bErr == nil {
		s.bookings = bookings
		s.loaded = true
	}
	if sErr == nil {
		s.stats = stats
		s.hasStats = true
	}
	s.mu.Unlock()

	var connErr error
	for _, e := range []struct {
		what string
		err  error
	}{{"bookings", bErr}, {"stats", sErr}} {
		if e.err == nil {
			continue
		}
		var ce *domain.ConnectivityError
		if errors.As(e.err, &ce) {
			if connErr == nil {
				connErr = e.err
			}
			s.log.WarnContext(ctx, "reload: booking service unreachable", "collection", e.what, "error", e.err)
			continue
		}
		s.log.WarnContext(ctx, "reload: keeping previous snapshot", "collection", e.what, "error", e.err)
	}

	if connErr != nil {
		return fmt.Errorf("service.BookingStore.Reload: %w", connErr)
	}
	return nil
}

// Loaded reports whether a booking list has ever been committed.
func (s *BookingStore) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Bookings returns a copy of the cached list.
func (s *BookingStore) Bookings() []domain.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Booking{}, s.bookings...)
}

// Stats returns the cached statistics; ok is false until a stats fetch has
// succeeded.
func (s *BookingStore) Stats() (domain.Stats, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats, s.hasStats
}

// Find looks id up in the cached list.
func (s *BookingStore) Find(id domain.BookingID) (domain.Booking, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.bookings {
		if b.ID == id {
			return b, true
		}
	}
	return domain.Booking{}, false
}

// Filter returns the cached bookings selected by f, in cache order.
func (s *BookingStore) Filter(f domain.Filter) []domain.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.FilterBookings(s.bookings, f)
}

// Counts returns how many cached bookings each filter tab selects.
func (s *BookingStore) Counts() map[domain.Filter]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[domain.Filter]int, len(domain.Filters))
	for _, f := range domain.Filters {
		out[f] = 0
	}
	for _, b := range s.bookings {
		out[domain.FilterAll]++
		if _, known := out[domain.Filter(b.Status)]; known {
			out[domain.Filter(b.Status)]++
		}
	}
	return out
}
