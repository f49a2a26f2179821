package bookingRepo

import (
	"context"
	"time"

	"capturemoments/models"
)

// BookingRepository persists bookings. Status changes only go through
// Transition so that two callers can never both move the same booking, and
// Create refuses a holding booking that overlaps another active one of the
// provider (ErrOverlap), so the guard holds across processes.
type BookingRepository interface {
	Create(ctx context.Context, b models.Booking) error
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	// ListActiveByProvider returns the provider's pending and confirmed bookings.
	ListActiveByProvider(ctx context.Context, providerID string) ([]models.Booking, error)
	// ListByProvider returns the provider's bookings, limited to statuses when given.
	ListByProvider(ctx context.Context, providerID string, statuses ...models.BookingStatus) ([]models.Booking, error)
	ListByClient(ctx context.Context, clientID string) ([]models.Booking, error)
	// Transition moves booking id from one status to another if, and only if,
	// it is still in from. mutate may set extra fields on the stored copy.
	Transition(ctx context.Context, id string, from, to models.BookingStatus, mutate func(*models.Booking)) (*models.Booking, error)
	// RecordRefund stores the charge and its refund on a booking that could
	// not be confirmed after payment. It does not change the status.
	RecordRefund(ctx context.Context, id, paymentRef, refundRef string) (*models.Booking, error)
	ListPendingBefore(ctx context.Context, createdBefore time.Time) ([]models.Booking, error)
	ListConfirmedEndedBefore(ctx context.Context, endedBefore time.Time) ([]models.Booking, error)
}

// Apply is the shared transition step: it checks the precondition and the
// transition table, then stamps the new status and version.
func Apply(b *models.Booking, from, to models.BookingStatus, now time.Time, mutate func(*models.Booking)) bool {
	if b.Status != from || !models.CanTransition(from, to) {
		return false
	}
	if mutate != nil {
		mutate(b)
	}
	b.Status = to
	b.UpdatedAt = now
	b.Version++
	return true
}
