package resolver

import (
	"context"
	"time"

	"capturemoments/models"
	"capturemoments/services/errs"
)

// Calendar is the read side of the slot store the resolver needs.
type Calendar interface {
	Overlapping(ctx context.Context, providerID string, iv models.Interval) (string, bool, error)
	Admits(ctx context.Context, providerID string, iv models.Interval) (bool, error)
}

// Resolver decides whether a requested interval may be reserved. It never
// retries and never writes; the slot store's reserve picks the winner of a race.
type Resolver struct {
	Calendar Calendar
	Now      func() time.Time
}

func New(cal Calendar) *Resolver {
	return &Resolver{Calendar: cal, Now: time.Now}
}

// Validate returns nil when iv overlaps no pending or confirmed booking of the
// provider, or a BookingConflict naming the overlapping booking.
func (r *Resolver) Validate(ctx context.Context, providerID string, iv models.Interval) error {
	bookingID, overlaps, err := r.Calendar.Overlapping(ctx, providerID, iv)
	if err != nil {
		return err
	}
	if overlaps {
		return errs.Conflict(bookingID)
	}
	return nil
}

// CheckInterval rejects malformed, past-dated and out-of-window requests.
func (r *Resolver) CheckInterval(ctx context.Context, providerID string, iv models.Interval) error {
	if iv.Start.IsZero() || iv.End.IsZero() {
		return errs.InvalidInterval("start and end are required")
	}
	if !iv.End.After(iv.Start) {
		return errs.InvalidInterval("interval must have positive duration")
	}
	if iv.Start.Before(r.Now()) {
		return errs.InvalidInterval("interval starts in the past")
	}
	ok, err := r.Calendar.Admits(ctx, providerID, iv)
	if err != nil {
		return err
	}
	if !ok {
		return errs.InvalidInterval("interval is outside every availability window or not aligned to its slots")
	}
	return nil
}
