package payment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"capturemoments/models"
	"capturemoments/services/booking"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"github.com/stripe/stripe-go/v76/refund"
	"go.uber.org/zap"
)

// ErrChargePending is returned when the intent is neither paid nor failed yet,
// e.g. processing or waiting on customer action.
var ErrChargePending = errors.New("payment not settled")

// StripeGateway captures booking payments with a confirmed PaymentIntent.
// It relies on stripe.Key being set at startup.
type StripeGateway struct {
	currency string
	create   func(*stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	refund   func(*stripe.RefundParams) (*stripe.Refund, error)
	logger   *zap.Logger
}

func NewStripeGateway(defaultCurrency string, logger *zap.Logger) *StripeGateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StripeGateway{
		currency: defaultCurrency,
		create:   paymentintent.New,
		refund:   refund.New,
		logger:   logger,
	}
}

// Capture charges the booking price. A card decline is a failed charge, not
// an error; errors mean the outcome is unknown.
func (g *StripeGateway) Capture(ctx context.Context, b models.Booking, paymentMethodID string) (booking.Charge, error) {
	currency := strings.ToLower(b.Currency)
	if currency == "" {
		currency = g.currency
	}
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(MinorUnits(b.Price)),
		Currency:      stripe.String(currency),
		PaymentMethod: stripe.String(paymentMethodID),
		Confirm:       stripe.Bool(true),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
	}
	params.Context = ctx
	params.SetIdempotencyKey("booking-" + b.ID + "-" + paymentMethodID)
	params.AddMetadata("booking_id", b.ID)
	params.AddMetadata("provider_id", b.ProviderID)
	params.AddMetadata("client_id", b.ClientID)

	pi, err := g.create(params)
	if err != nil {
		var serr *stripe.Error
		if errors.As(err, &serr) && serr.Type == stripe.ErrorTypeCard {
			g.logger.Info("payment: card declined",
				zap.String("bookingID", b.ID), zap.String("code", string(serr.Code)))
			return booking.Charge{Succeeded: false}, nil
		}
		return booking.Charge{}, err
	}
	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		return booking.Charge{Ref: pi.ID, Succeeded: true}, nil
	case stripe.PaymentIntentStatusRequiresPaymentMethod, stripe.PaymentIntentStatusCanceled:
		g.logger.Info("payment: intent failed",
			zap.String("bookingID", b.ID), zap.String("status", string(pi.Status)))
		return booking.Charge{Ref: pi.ID}, nil
	default:
		return booking.Charge{Ref: pi.ID}, fmt.Errorf("intent %s is %s: %w", pi.ID, pi.Status, ErrChargePending)
	}
}

// Refund returns a captured intent in full.
func (g *StripeGateway) Refund(ctx context.Context, b models.Booking, paymentRef string) (string, error) {
	params := &stripe.RefundParams{PaymentIntent: stripe.String(paymentRef)}
	params.Context = ctx
	params.SetIdempotencyKey("refund-" + paymentRef)
	params.AddMetadata("booking_id", b.ID)

	r, err := g.refund(params)
	if err != nil {
		return "", fmt.Errorf("refund of %s failed: %w", paymentRef, err)
	}
	g.logger.Info("payment: refunded",
		zap.String("bookingID", b.ID), zap.String("paymentRef", paymentRef), zap.String("refundRef", r.ID))
	return r.ID, nil
}

// MinorUnits converts a decimal price to the smallest currency unit.
func MinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
