package booking

import (
	"context"
	"iter"
	"time"

	"capturemoments/config"
	"capturemoments/models"
	"capturemoments/services/slots"
)

// SlotStore is the reservation authority.
type SlotStore interface {
	Reserve(ctx context.Context, providerID string, iv models.Interval, bookingID string) (slots.ReservationToken, error)
	Release(ctx context.Context, token slots.ReservationToken) error
	Confirm(ctx context.Context, token slots.ReservationToken) error
	OpenSlots(ctx context.Context, providerID string, r models.Interval) (iter.Seq[models.Interval], error)
	SuggestSlots(ctx context.Context, providerID string, r models.Interval, d time.Duration, p slots.Preferences) ([]models.SuggestedSlot, error)
}

// Validator is the conflict resolver.
type Validator interface {
	Validate(ctx context.Context, providerID string, iv models.Interval) error
	CheckInterval(ctx context.Context, providerID string, iv models.Interval) error
}

type Pricer interface {
	Quote(ctx context.Context, provider models.Provider, iv models.Interval, loc models.Location) (models.Quote, error)
	Redeem(ctx context.Context, quoteID, providerID string, iv models.Interval) (models.Quote, error)
	Sample(provider models.Provider, iv models.Interval, loc models.Location) models.DemandSample
}

type Ranker interface {
	Rank(ctx context.Context, q models.ClientQuery) ([]models.RankedProvider, error)
}

// Publisher delivers lifecycle events. Failures never fail a booking operation.
type Publisher interface {
	Publish(ctx context.Context, ev models.BookingEvent) error
	ScheduleReminder(ctx context.Context, b models.Booking, at time.Time) error
}

// Charge is the outcome of a payment attempt.
type Charge struct {
	Ref       string
	Succeeded bool
}

type PaymentGateway interface {
	Capture(ctx context.Context, b models.Booking, paymentMethodID string) (Charge, error)
	// Refund returns a captured charge in full and gives the refund reference.
	Refund(ctx context.Context, b models.Booking, paymentRef string) (string, error)
}

// Request is a client's ask for one provider interval. QuoteID, when set,
// pins the price to a quote shown earlier.
type Request struct {
	ClientID   string          `json:"clientId"`
	ProviderID string          `json:"providerId" binding:"required"`
	Interval   models.Interval `json:"interval"`
	Location   models.Location `json:"location"`
	QuoteID    string          `json:"quoteId,omitempty"`
}

const (
	ReasonClient        = "client_cancelled"
	ReasonProvider      = "provider_cancelled"
	ReasonHoldExpired   = "hold_expired"
	ReasonPaymentFailed = "payment_failed"
)

type Config struct {
	ReserveTimeout     time.Duration
	ReserveMaxAttempts int
	ReserveBackoff     time.Duration
	PendingTTL         time.Duration
	ReminderLead       time.Duration
	SlotPreferences    slots.Preferences
}

func ConfigFrom(c config.Config) Config {
	return Config{
		ReserveTimeout:     c.ReserveTimeout,
		ReserveMaxAttempts: c.ReserveMaxAttempts,
		ReserveBackoff:     c.ReserveBackoff,
		PendingTTL:         c.PendingTTL,
		ReminderLead:       c.ReminderLead,
		SlotPreferences:    slots.PreferencesFrom(c),
	}
}

func DefaultConfig() Config {
	return Config{
		ReserveTimeout:     300 * time.Millisecond,
		ReserveMaxAttempts: 3,
		ReserveBackoff:     25 * time.Millisecond,
		PendingTTL:         15 * time.Minute,
		ReminderLead:       24 * time.Hour,
		SlotPreferences:    slots.DefaultPreferences(),
	}
}
