package booking

import (
	"context"

	"capturemoments/models"
	"capturemoments/services/errs"

	"go.uber.org/zap"
)

// PayBooking charges the client for a pending booking and applies the
// outcome. A gateway failure leaves the booking pending.
func (o *Orchestrator) PayBooking(ctx context.Context, bookingID, clientID, paymentMethodID string) (*models.Booking, error) {
	b, err := o.GetBooking(ctx, bookingID, clientID)
	if err != nil {
		return nil, err
	}
	if b.Status != models.StatusPending {
		return nil, errs.InvalidState("booking %s is %s; only pending bookings can be paid", bookingID, b.Status)
	}
	if o.gateway == nil {
		return nil, errs.Unavailable("payment gateway", nil)
	}
	charge, err := o.gateway.Capture(ctx, *b, paymentMethodID)
	if err != nil {
		o.logger.Error("booking: payment capture failed",
			zap.String("bookingID", bookingID), zap.Error(err))
		return nil, errs.Unavailable("payment gateway", err)
	}
	updated, err := o.HandlePaymentResult(ctx, bookingID, charge.Ref, charge.Succeeded)
	if err != nil && charge.Succeeded && errs.Is(err, errs.KindInvalidState) {
		return nil, o.refund(context.WithoutCancel(ctx), *b, charge.Ref)
	}
	return updated, err
}

// refund returns a charge captured for a booking that stopped being pending
// while the gateway call was in flight, typically an expired hold.
func (o *Orchestrator) refund(ctx context.Context, b models.Booking, paymentRef string) error {
	log := o.logger.With(zap.String("bookingID", b.ID), zap.String("paymentRef", paymentRef))
	refundRef, err := o.gateway.Refund(ctx, b, paymentRef)
	if err != nil {
		log.Error("booking: refund of orphaned charge failed", zap.Error(err))
		if _, rerr := o.bookings.RecordRefund(ctx, b.ID, paymentRef, ""); rerr != nil {
			log.Error("booking: failed to record orphaned charge", zap.Error(rerr))
		}
		return errs.Unavailable("payment gateway", err)
	}
	if _, err := o.bookings.RecordRefund(ctx, b.ID, paymentRef, refundRef); err != nil {
		log.Error("booking: failed to record refund", zap.String("refundRef", refundRef), zap.Error(err))
	}
	log.Warn("booking: charge refunded, booking no longer pending", zap.String("refundRef", refundRef))
	return errs.InvalidState("booking %s expired before payment completed; charge %s refunded", b.ID, paymentRef)
}

// HandlePaymentResult confirms the booking on success and cancels it with
// reason payment_failed otherwise.
func (o *Orchestrator) HandlePaymentResult(ctx context.Context, bookingID, paymentRef string, success bool) (*models.Booking, error) {
	if !success {
		o.logger.Info("booking: payment declined", zap.String("bookingID", bookingID))
		return o.CancelBooking(ctx, bookingID, ReasonPaymentFailed)
	}
	return o.confirm(ctx, bookingID, func(b *models.Booking) {
		b.PaymentRef = paymentRef
	})
}
