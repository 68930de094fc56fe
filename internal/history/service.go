// Package history exposes a user's past bookings and the "active
// booking" the profile view pins: the most recent booking that is not
// cancelled. A Redis-backed cache keeps the last known answer so the
// profile still renders when the booking API is down.
package history

import (
	"context"
	"sort"
	"time"

	"github.com/lumine/darshan-bookings/internal/domain"
	"github.com/lumine/darshan-bookings/pkg/logger"
)

type BookingLister interface {
	UserBookings(ctx context.Context, userID int64, bearer string) ([]domain.BookingRecord, error)
}

type ActiveCache interface {
	GetActiveBooking(ctx context.Context, userID int64, out any) error
	SetActiveBooking(ctx context.Context, userID int64, booking any, ttl time.Duration) error
	ClearActiveBooking(ctx context.Context, userID int64) error
}

type Service struct {
	api      BookingLister
	cache    ActiveCache
	cacheTTL time.Duration
}

func NewService(api BookingLister, cache ActiveCache, cacheTTL time.Duration) *Service {
	return &Service{api: api, cache: cache, cacheTTL: cacheTTL}
}

// UserBookings fetches the full booking history for a user.
func (s *Service) UserBookings(ctx context.Context, userID int64, bearer string) ([]domain.BookingRecord, error) {
	return s.api.UserBookings(ctx, userID, bearer)
}

// ActiveBooking returns the most recent non-cancelled booking. A fresh
// fetch refreshes the cache; a failed fetch falls back to the cached
// answer when one exists. (nil, nil) means the user has no active
// booking.
func (s *Service) ActiveBooking(ctx context.Context, userID int64, bearer string) (*domain.BookingRecord, error) {
	bookings, err := s.api.UserBookings(ctx, userID, bearer)
	if err != nil {
		var cached domain.BookingRecord
		if cacheErr := s.cache.GetActiveBooking(ctx, userID, &cached); cacheErr == nil {
			logger.WarnContext(ctx, "Booking history unavailable, serving cached active booking", "error", err)
			return &cached, nil
		}
		return nil, err
	}

	active := pickActive(bookings)
	if active == nil {
		if err := s.cache.ClearActiveBooking(ctx, userID); err != nil {
			logger.WarnContext(ctx, "Failed to clear active booking cache", "error", err)
		}
		return nil, nil
	}

	if err := s.cache.SetActiveBooking(ctx, userID, active, s.cacheTTL); err != nil {
		logger.WarnContext(ctx, "Failed to refresh active booking cache", "error", err)
	}
	return active, nil
}

// RememberActive caches a just-created booking so the profile shows it
// immediately, before the history endpoint has caught up.
func (s *Service) RememberActive(ctx context.Context, userID int64, rec *domain.BookingRecord) {
	if err := s.cache.SetActiveBooking(ctx, userID, rec, s.cacheTTL); err != nil {
		logger.WarnContext(ctx, "Failed to cache new booking", "error", err, "booking_id", rec.ID)
	}
}

// pickActive chooses the newest booking by creation time, skipping
// cancelled ones.
func pickActive(bookings []domain.BookingRecord) *domain.BookingRecord {
	candidates := make([]domain.BookingRecord, 0, len(bookings))
	for _, b := range bookings {
		if b.Status == domain.BookingCancelled {
			continue
		}
		candidates = append(candidates, b)
	}
	if len(candidates) == 0 {
		return nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].CreatedAt.After(candidates[j].CreatedAt)
	})
	return &candidates[0]
}
