// Package memory is an in-process implementation of every repository, used
// by tests and by STORAGE_DRIVER=memory.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"capturemoments/database"
	availabilityRepo "capturemoments/database/repository/availability"
	bookingRepo "capturemoments/database/repository/booking"
	demandRepo "capturemoments/database/repository/demand"
	feedbackRepo "capturemoments/database/repository/feedback"
	providerRepo "capturemoments/database/repository/provider"
	"capturemoments/models"

	"github.com/google/uuid"
)

// DB keeps all collections behind one mutex. Records are stored and returned
// by value so callers can never alias stored state.
type DB struct {
	mu           sync.RWMutex
	providers    map[string]models.Provider
	windows      map[string][]models.AvailabilityWindow
	bookings     map[string]models.Booking
	demand       []models.DemandSample
	feedback     []models.FeedbackRecord
	feedbackKeys map[string]struct{}
	now          func() time.Time
}

func New() *DB {
	return &DB{
		providers:    make(map[string]models.Provider),
		windows:      make(map[string][]models.AvailabilityWindow),
		bookings:     make(map[string]models.Booking),
		feedbackKeys: make(map[string]struct{}),
		now:          time.Now,
	}
}

func (db *DB) Providers() *Providers       { return &Providers{db} }
func (db *DB) Availability() *Availability { return &Availability{db} }
func (db *DB) Bookings() *Bookings         { return &Bookings{db} }
func (db *DB) Demand() *Demand             { return &Demand{db} }
func (db *DB) Feedback() *Feedback         { return &Feedback{db} }

var (
	_ providerRepo.ProviderRepository         = (*Providers)(nil)
	_ availabilityRepo.AvailabilityRepository = (*Availability)(nil)
	_ bookingRepo.BookingRepository           = (*Bookings)(nil)
	_ demandRepo.DemandLog                    = (*Demand)(nil)
	_ feedbackRepo.FeedbackLog                = (*Feedback)(nil)
)

type Providers struct{ db *DB }

func (r *Providers) GetByID(_ context.Context, id string) (*models.Provider, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	p, ok := r.db.providers[id]
	if !ok {
		return nil, fmt.Errorf("provider %s: %w", id, database.ErrNotFound)
	}
	p.Specializations = slices.Clone(p.Specializations)
	return &p, nil
}

func (r *Providers) ListActive(_ context.Context, tags []string) ([]models.Provider, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var out []models.Provider
	for _, p := range r.db.providers {
		if !p.Active {
			continue
		}
		if len(tags) > 0 && !sharesTag(p.Specializations, tags) {
			continue
		}
		p.Specializations = slices.Clone(p.Specializations)
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func sharesTag(specs, tags []string) bool {
	for _, t := range tags {
		for _, s := range specs {
			if strings.EqualFold(strings.TrimSpace(t), s) {
				return true
			}
		}
	}
	return false
}

func (r *Providers) Upsert(_ context.Context, p models.Provider) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	specs := make([]string, len(p.Specializations))
	for i, s := range p.Specializations {
		specs[i] = strings.ToLower(strings.TrimSpace(s))
	}
	p.Specializations = specs
	p.UpdatedAt = r.db.now().UTC()
	r.db.providers[p.ID] = p
	return nil
}

func (r *Providers) UpdateRating(_ context.Context, id string, rating float64, count int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.providers[id]
	if !ok {
		return fmt.Errorf("provider %s: %w", id, database.ErrNotFound)
	}
	p.Rating = rating
	p.RatingCount = count
	p.UpdatedAt = r.db.now().UTC()
	r.db.providers[id] = p
	return nil
}

type Availability struct{ db *DB }

func (r *Availability) ListByProvider(_ context.Context, providerID string) ([]models.AvailabilityWindow, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return slices.Clone(r.db.windows[providerID]), nil
}

func (r *Availability) ReplaceForProvider(_ context.Context, providerID string, windows []models.AvailabilityWindow) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	next := make([]models.AvailabilityWindow, len(windows))
	for i, w := range windows {
		if w.ID == "" {
			w.ID = uuid.New().String()
		}
		w.ProviderID = providerID
		w.Weekdays = slices.Clone(w.Weekdays)
		next[i] = w
	}
	r.db.windows[providerID] = next
	return nil
}

type Bookings struct{ db *DB }

func (r *Bookings) Create(_ context.Context, b models.Booking) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, exists := r.db.bookings[b.ID]; exists {
		return fmt.Errorf("booking %s: %w", b.ID, database.ErrDuplicate)
	}
	if b.Status.Holds() {
		for _, other := range r.db.bookings {
			if other.ProviderID == b.ProviderID && other.Status.Holds() && other.Interval.Overlaps(b.Interval) {
				return fmt.Errorf("booking %s overlaps %s: %w", b.ID, other.ID, database.ErrOverlap)
			}
		}
	}
	r.db.bookings[b.ID] = b
	return nil
}

func (r *Bookings) GetByID(_ context.Context, id string) (*models.Booking, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	b, ok := r.db.bookings[id]
	if !ok {
		return nil, fmt.Errorf("booking %s: %w", id, database.ErrNotFound)
	}
	return &b, nil
}

func (r *Bookings) ListActiveByProvider(_ context.Context, providerID string) ([]models.Booking, error) {
	return r.filter(func(b models.Booking) bool {
		return b.ProviderID == providerID && b.Status.Holds()
	}), nil
}

func (r *Bookings) ListByProvider(_ context.Context, providerID string, statuses ...models.BookingStatus) ([]models.Booking, error) {
	return r.filter(func(b models.Booking) bool {
		return b.ProviderID == providerID && (len(statuses) == 0 || slices.Contains(statuses, b.Status))
	}), nil
}

func (r *Bookings) ListByClient(_ context.Context, clientID string) ([]models.Booking, error) {
	return r.filter(func(b models.Booking) bool { return b.ClientID == clientID }), nil
}

func (r *Bookings) ListPendingBefore(_ context.Context, createdBefore time.Time) ([]models.Booking, error) {
	return r.filter(func(b models.Booking) bool {
		return b.Status == models.StatusPending && b.CreatedAt.Before(createdBefore)
	}), nil
}

func (r *Bookings) ListConfirmedEndedBefore(_ context.Context, endedBefore time.Time) ([]models.Booking, error) {
	return r.filter(func(b models.Booking) bool {
		return b.Status == models.StatusConfirmed && !b.Interval.End.After(endedBefore)
	}), nil
}

func (r *Bookings) filter(keep func(models.Booking) bool) []models.Booking {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var out []models.Booking
	for _, b := range r.db.bookings {
		if keep(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Interval.Start.Equal(out[j].Interval.Start) {
			return out[i].Interval.Start.Before(out[j].Interval.Start)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *Bookings) Transition(_ context.Context, id string, from, to models.BookingStatus, mutate func(*models.Booking)) (*models.Booking, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	b, ok := r.db.bookings[id]
	if !ok {
		return nil, fmt.Errorf("booking %s: %w", id, database.ErrNotFound)
	}
	if !bookingRepo.Apply(&b, from, to, r.db.now().UTC(), mutate) {
		return nil, fmt.Errorf("booking %s is %s, not %s: %w", id, b.Status, from, database.ErrStatusMismatch)
	}
	r.db.bookings[id] = b
	return &b, nil
}

func (r *Bookings) RecordRefund(_ context.Context, id, paymentRef, refundRef string) (*models.Booking, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	b, ok := r.db.bookings[id]
	if !ok {
		return nil, fmt.Errorf("booking %s: %w", id, database.ErrNotFound)
	}
	b.PaymentRef = paymentRef
	b.RefundRef = refundRef
	b.UpdatedAt = r.db.now().UTC()
	b.Version++
	r.db.bookings[id] = b
	return &b, nil
}

type Demand struct{ db *DB }

func (l *Demand) Append(_ context.Context, s models.DemandSample) error {
	l.db.mu.Lock()
	defer l.db.mu.Unlock()
	l.db.demand = append(l.db.demand, s)
	return nil
}

func (l *Demand) CountInBuckets(_ context.Context, providerID string, from, to time.Time) ([]demandRepo.BucketCount, error) {
	l.db.mu.RLock()
	defer l.db.mu.RUnlock()
	counts := make(map[int64]int)
	for _, s := range l.db.demand {
		if s.ProviderID != providerID || s.Bucket.Before(from) || !s.Bucket.Before(to) {
			continue
		}
		counts[s.Bucket.Unix()]++
	}
	out := make([]demandRepo.BucketCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, demandRepo.BucketCount{Bucket: time.Unix(k, 0).UTC(), Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Bucket.Before(out[j].Bucket) })
	return out, nil
}

type Feedback struct{ db *DB }

func (l *Feedback) Append(_ context.Context, rec models.FeedbackRecord) error {
	l.db.mu.Lock()
	defer l.db.mu.Unlock()
	if _, dup := l.db.feedbackKeys[rec.BookingID]; dup {
		return fmt.Errorf("feedback for booking %s: %w", rec.BookingID, database.ErrDuplicate)
	}
	rec.Topics = slices.Clone(rec.Topics)
	l.db.feedback = append(l.db.feedback, rec)
	l.db.feedbackKeys[rec.BookingID] = struct{}{}
	return nil
}

func (l *Feedback) ListByProvider(_ context.Context, providerID string) ([]models.FeedbackRecord, error) {
	l.db.mu.RLock()
	defer l.db.mu.RUnlock()
	var out []models.FeedbackRecord
	for _, rec := range l.db.feedback {
		if rec.ProviderID == providerID {
			rec.Topics = slices.Clone(rec.Topics)
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (l *Feedback) ExistsForBooking(_ context.Context, bookingID string) (bool, error) {
	l.db.mu.RLock()
	defer l.db.mu.RUnlock()
	_, ok := l.db.feedbackKeys[bookingID]
	return ok, nil
}
