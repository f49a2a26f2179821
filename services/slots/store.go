package slots

import (
	"context"
	"fmt"
	"sync"

	"capturemoments/models"
	"capturemoments/services/errs"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BookingSource hydrates a provider calendar with its pending/confirmed bookings.
type BookingSource interface {
	ListActiveByProvider(ctx context.Context, providerID string) ([]models.Booking, error)
}

// WindowSource supplies a provider's availability windows.
type WindowSource interface {
	ListByProvider(ctx context.Context, providerID string) ([]models.AvailabilityWindow, error)
}

// ReservationToken identifies one hold on a provider calendar.
type ReservationToken struct {
	ID         string          `json:"id"`
	ProviderID string          `json:"providerId"`
	BookingID  string          `json:"bookingId"`
	Interval   models.Interval `json:"interval"`
}

// Store keeps every provider's calendar in its own exclusive section. The
// arena mutex only guards creation of sections; reservations on different
// providers never wait on each other.
type Store struct {
	mu       sync.Mutex
	arena    map[string]*calendar
	bookings BookingSource
	windows  WindowSource
	logger   *zap.Logger
}

func NewStore(bookings BookingSource, windows WindowSource, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		arena:    make(map[string]*calendar),
		bookings: bookings,
		windows:  windows,
		logger:   logger,
	}
}

func (s *Store) calendarFor(providerID string) *calendar {
	s.mu.Lock()
	defer s.mu.Unlock()
	cal, ok := s.arena[providerID]
	if !ok {
		cal = newCalendar()
		s.arena[providerID] = cal
	}
	return cal
}

// load hydrates a calendar on first touch. The fetch happens outside the
// section; installation happens inside it exactly once.
func (s *Store) load(ctx context.Context, providerID string) (*calendar, error) {
	cal := s.calendarFor(providerID)
	if cal.loaded.Load() {
		return cal, nil
	}
	existing, err := s.bookings.ListActiveByProvider(ctx, providerID)
	if err != nil {
		return nil, errs.Unavailable("booking store", err)
	}
	if err := cal.enter(ctx); err != nil {
		return nil, err
	}
	defer cal.leave()
	if cal.loaded.Load() {
		return cal, nil
	}
	for _, b := range existing {
		if !b.Status.Holds() {
			continue
		}
		tokenID := b.ReservationToken
		if _, gone := cal.released[tokenID]; gone && tokenID != "" {
			continue
		}
		if tokenID == "" {
			tokenID = uuid.New().String()
		}
		cal.holds[tokenID] = hold{
			token: ReservationToken{
				ID:         tokenID,
				ProviderID: providerID,
				BookingID:  b.ID,
				Interval:   b.Interval,
			},
			confirmed: b.Status == models.StatusConfirmed,
		}
	}
	clear(cal.released)
	cal.loaded.Store(true)
	s.logger.Debug("slot store: calendar hydrated",
		zap.String("providerID", providerID), zap.Int("holds", len(cal.holds)))
	return cal, nil
}

// Reserve places a hold for bookingID on iv. Two overlapping reservations on
// the same provider can never both succeed; the loser gets a conflict.
func (s *Store) Reserve(ctx context.Context, providerID string, iv models.Interval, bookingID string) (ReservationToken, error) {
	if !iv.Valid() {
		return ReservationToken{}, errs.InvalidInterval("interval must have positive duration")
	}
	cal, err := s.load(ctx, providerID)
	if err != nil {
		return ReservationToken{}, err
	}
	if err := cal.enter(ctx); err != nil {
		return ReservationToken{}, err
	}
	defer cal.leave()

	if h, ok := cal.firstOverlap(iv); ok {
		return ReservationToken{}, errs.Conflict(h.token.BookingID)
	}
	token := ReservationToken{
		ID:         uuid.New().String(),
		ProviderID: providerID,
		BookingID:  bookingID,
		Interval:   iv,
	}
	cal.holds[token.ID] = hold{token: token}
	return token, nil
}

// Release drops a hold. Releasing an unknown or already released token is a no-op.
func (s *Store) Release(ctx context.Context, token ReservationToken) error {
	if token.ID == "" {
		return nil
	}
	cal := s.calendarFor(token.ProviderID)
	if err := cal.enter(ctx); err != nil {
		return err
	}
	defer cal.leave()
	if !cal.loaded.Load() {
		cal.released[token.ID] = struct{}{}
	}
	delete(cal.holds, token.ID)
	return nil
}

// Confirm marks a hold as confirmed.
func (s *Store) Confirm(ctx context.Context, token ReservationToken) error {
	cal, err := s.load(ctx, token.ProviderID)
	if err != nil {
		return err
	}
	if err := cal.enter(ctx); err != nil {
		return err
	}
	defer cal.leave()
	h, ok := cal.holds[token.ID]
	if !ok {
		return errs.NotFound("reservation %s", token.ID)
	}
	h.confirmed = true
	cal.holds[token.ID] = h
	return nil
}

// Overlapping returns the booking holding an interval that overlaps iv, if any.
func (s *Store) Overlapping(ctx context.Context, providerID string, iv models.Interval) (string, bool, error) {
	cal, err := s.load(ctx, providerID)
	if err != nil {
		return "", false, err
	}
	if err := cal.enter(ctx); err != nil {
		return "", false, err
	}
	defer cal.leave()
	h, ok := cal.firstOverlap(iv)
	if !ok {
		return "", false, nil
	}
	return h.token.BookingID, true, nil
}

// Held returns a sorted copy of the provider's held intervals.
func (s *Store) Held(ctx context.Context, providerID string) ([]models.Interval, error) {
	cal, err := s.load(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if err := cal.enter(ctx); err != nil {
		return nil, err
	}
	defer cal.leave()
	return cal.intervals(), nil
}

// Windows returns the provider's availability windows.
func (s *Store) Windows(ctx context.Context, providerID string) ([]models.AvailabilityWindow, error) {
	windows, err := s.windows.ListByProvider(ctx, providerID)
	if err != nil {
		return nil, errs.Unavailable("availability store", fmt.Errorf("provider %s: %w", providerID, err))
	}
	return windows, nil
}

// Admits reports whether iv is inside some window of the provider and aligned
// to its slot granularity.
func (s *Store) Admits(ctx context.Context, providerID string, iv models.Interval) (bool, error) {
	windows, err := s.Windows(ctx, providerID)
	if err != nil {
		return false, err
	}
	for _, w := range windows {
		if w.Admits(iv) {
			return true, nil
		}
	}
	return false, nil
}
