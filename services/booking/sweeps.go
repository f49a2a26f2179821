package booking

import (
	"context"
	"errors"

	"capturemoments/database"
	"capturemoments/models"
	"capturemoments/services/errs"

	"go.uber.org/zap"
)

// ExpirePending cancels pending bookings older than PendingTTL and returns
// how many it cancelled.
func (o *Orchestrator) ExpirePending(ctx context.Context) (int, error) {
	cutoff := o.now().UTC().Add(-o.cfg.PendingTTL)
	stale, err := o.bookings.ListPendingBefore(ctx, cutoff)
	if err != nil {
		return 0, errs.Unavailable("booking store", err)
	}
	n := 0
	for _, b := range stale {
		updated, err := o.bookings.Transition(ctx, b.ID, models.StatusPending, models.StatusCancelled, func(b *models.Booking) {
			b.CancelReason = ReasonHoldExpired
		})
		if errors.Is(err, database.ErrStatusMismatch) {
			continue
		}
		if err != nil {
			return n, errs.Unavailable("booking store", err)
		}
		o.release(ctx, tokenOf(*updated))
		o.publish(ctx, *updated)
		n++
	}
	if n > 0 {
		o.logger.Info("booking: expired pending holds", zap.Int("count", n))
	}
	return n, nil
}

// CompleteElapsed completes confirmed bookings whose interval has ended and
// drops their holds from the slot store.
func (o *Orchestrator) CompleteElapsed(ctx context.Context) (int, error) {
	done, err := o.bookings.ListConfirmedEndedBefore(ctx, o.now().UTC())
	if err != nil {
		return 0, errs.Unavailable("booking store", err)
	}
	n := 0
	for _, b := range done {
		updated, err := o.bookings.Transition(ctx, b.ID, models.StatusConfirmed, models.StatusCompleted, nil)
		if errors.Is(err, database.ErrStatusMismatch) {
			continue
		}
		if err != nil {
			return n, errs.Unavailable("booking store", err)
		}
		o.release(ctx, tokenOf(*updated))
		o.publish(ctx, *updated)
		n++
	}
	if n > 0 {
		o.logger.Info("booking: completed elapsed bookings", zap.Int("count", n))
	}
	return n, nil
}
