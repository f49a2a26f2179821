package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"capturemoments/database"
	availabilityRepo "capturemoments/database/repository/availability"
	bookingRepo "capturemoments/database/repository/booking"
	demandRepo "capturemoments/database/repository/demand"
	providerRepo "capturemoments/database/repository/provider"
	"capturemoments/models"
	"capturemoments/services/errs"
	"capturemoments/services/slots"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Orchestrator runs booking requests across the resolver, slot store,
// pricing model and booking repository.
type Orchestrator struct {
	cfg          Config
	providers    providerRepo.ProviderRepository
	availability availabilityRepo.AvailabilityRepository
	bookings     bookingRepo.BookingRepository
	demand       demandRepo.DemandLog
	slots        SlotStore
	resolver     Validator
	pricer       Pricer
	ranker       Ranker
	publisher    Publisher
	gateway      PaymentGateway
	logger       *zap.Logger
	now          func() time.Time
}

type Deps struct {
	Providers    providerRepo.ProviderRepository
	Availability availabilityRepo.AvailabilityRepository
	Bookings     bookingRepo.BookingRepository
	Demand       demandRepo.DemandLog
	Slots        SlotStore
	Resolver     Validator
	Pricer       Pricer
	Ranker       Ranker
	Publisher    Publisher
	Gateway      PaymentGateway
	Logger       *zap.Logger
}

func NewOrchestrator(cfg Config, d Deps) *Orchestrator {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if cfg.ReserveMaxAttempts < 1 {
		cfg.ReserveMaxAttempts = 1
	}
	return &Orchestrator{
		cfg:          cfg,
		providers:    d.Providers,
		availability: d.Availability,
		bookings:     d.Bookings,
		demand:       d.Demand,
		slots:        d.Slots,
		resolver:     d.Resolver,
		pricer:       d.Pricer,
		ranker:       d.Ranker,
		publisher:    d.Publisher,
		gateway:      d.Gateway,
		logger:       d.Logger,
		now:          time.Now,
	}
}

// activeProvider treats inactive providers as unknown.
func (o *Orchestrator) activeProvider(ctx context.Context, providerID string) (*models.Provider, error) {
	p, err := o.providers.GetByID(ctx, providerID)
	if errors.Is(err, database.ErrNotFound) || (err == nil && !p.Active) {
		return nil, errs.NotFound("provider %s", providerID)
	}
	if err != nil {
		return nil, errs.Unavailable("provider store", err)
	}
	return p, nil
}

// RequestBooking validates, reserves, prices and persists a pending booking.
// A conflict leaves no trace; any failure after the reservation releases it.
func (o *Orchestrator) RequestBooking(ctx context.Context, req Request) (*models.Booking, error) {
	provider, err := o.activeProvider(ctx, req.ProviderID)
	if err != nil {
		return nil, err
	}
	if err := o.resolver.CheckInterval(ctx, provider.ID, req.Interval); err != nil {
		return nil, err
	}
	if err := o.resolver.Validate(ctx, provider.ID, req.Interval); err != nil {
		return nil, err
	}

	bookingID := uuid.New().String()
	token, err := o.reserve(ctx, provider.ID, req.Interval, bookingID)
	if err != nil {
		return nil, err
	}

	quote, err := o.price(ctx, *provider, req)
	if err != nil {
		o.release(ctx, token)
		return nil, err
	}

	now := o.now().UTC()
	b := models.Booking{
		ID:               bookingID,
		ProviderID:       provider.ID,
		ClientID:         req.ClientID,
		Interval:         req.Interval,
		Status:           models.StatusPending,
		Price:            quote.Price,
		Currency:         quote.Currency,
		Location:         req.Location,
		QuoteID:          quote.ID,
		ReservationToken: token.ID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := o.bookings.Create(ctx, b); err != nil {
		o.release(ctx, token)
		if errors.Is(err, database.ErrOverlap) {
			// another instance booked the interval first
			return nil, errs.Conflict("")
		}
		return nil, errs.Unavailable("booking store", err)
	}

	if err := o.demand.Append(ctx, o.pricer.Sample(*provider, req.Interval, req.Location)); err != nil {
		o.logger.Warn("booking: failed to record demand sample",
			zap.String("bookingID", b.ID), zap.Error(err))
	}
	o.publish(ctx, b)
	o.logger.Info("booking requested",
		zap.String("bookingID", b.ID),
		zap.String("providerID", b.ProviderID),
		zap.Time("start", b.Interval.Start),
		zap.Float64("price", b.Price))
	return &b, nil
}

// reserve retries only while the provider's section is busy, backing off
// exponentially. Conflicts are returned at once.
func (o *Orchestrator) reserve(ctx context.Context, providerID string, iv models.Interval, bookingID string) (slots.ReservationToken, error) {
	var lastErr error
	for attempt := 0; attempt < o.cfg.ReserveMaxAttempts; attempt++ {
		if attempt > 0 {
			wait := o.cfg.ReserveBackoff << (attempt - 1)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return slots.ReservationToken{}, errs.Unavailable("slot store", ctx.Err())
			}
		}
		rctx, cancel := o.reserveContext(ctx)
		token, err := o.slots.Reserve(rctx, providerID, iv, bookingID)
		cancel()
		if err == nil {
			return token, nil
		}
		if !errors.Is(err, errs.ErrSlotStoreBusy) {
			return slots.ReservationToken{}, err
		}
		lastErr = err
		o.logger.Debug("booking: slot store busy, retrying",
			zap.String("providerID", providerID), zap.Int("attempt", attempt+1))
	}
	return slots.ReservationToken{}, lastErr
}

func (o *Orchestrator) reserveContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.cfg.ReserveTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, o.cfg.ReserveTimeout)
}

// release is the compensating step. It runs even if the caller has gone away.
func (o *Orchestrator) release(ctx context.Context, token slots.ReservationToken) {
	rctx, cancel := o.reserveContext(context.WithoutCancel(ctx))
	defer cancel()
	if err := o.slots.Release(rctx, token); err != nil {
		o.logger.Error("booking: failed to release reservation",
			zap.String("tokenID", token.ID),
			zap.String("providerID", token.ProviderID),
			zap.Error(err))
	}
}

func (o *Orchestrator) price(ctx context.Context, provider models.Provider, req Request) (models.Quote, error) {
	if req.QuoteID != "" {
		return o.pricer.Redeem(ctx, req.QuoteID, provider.ID, req.Interval)
	}
	return o.pricer.Quote(ctx, provider, req.Interval, req.Location)
}

func tokenOf(b models.Booking) slots.ReservationToken {
	return slots.ReservationToken{
		ID:         b.ReservationToken,
		ProviderID: b.ProviderID,
		BookingID:  b.ID,
		Interval:   b.Interval,
	}
}

func (o *Orchestrator) getBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	b, err := o.bookings.GetByID(ctx, bookingID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, errs.NotFound("booking %s", bookingID)
	}
	if err != nil {
		return nil, errs.Unavailable("booking store", err)
	}
	return b, nil
}

// ConfirmBooking moves a pending booking to confirmed. Confirming a confirmed
// booking returns it unchanged.
func (o *Orchestrator) ConfirmBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	return o.confirm(ctx, bookingID, nil)
}

func (o *Orchestrator) confirm(ctx context.Context, bookingID string, mutate func(*models.Booking)) (*models.Booking, error) {
	b, err := o.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	switch b.Status {
	case models.StatusConfirmed:
		return b, nil
	case models.StatusPending:
	default:
		return nil, errs.InvalidState("booking %s is %s and cannot be confirmed", bookingID, b.Status)
	}

	updated, err := o.bookings.Transition(ctx, bookingID, models.StatusPending, models.StatusConfirmed, mutate)
	if errors.Is(err, database.ErrStatusMismatch) {
		return nil, errs.InvalidState("booking %s changed while confirming", bookingID)
	}
	if err != nil {
		return nil, errs.Unavailable("booking store", err)
	}

	if err := o.slots.Confirm(ctx, tokenOf(*updated)); err != nil {
		o.logger.Warn("booking: slot store has no hold to confirm",
			zap.String("bookingID", bookingID), zap.Error(err))
	}
	o.publish(ctx, *updated)
	if o.publisher != nil {
		at := updated.Interval.Start.Add(-o.cfg.ReminderLead)
		if at.After(o.now()) {
			if err := o.publisher.ScheduleReminder(ctx, *updated, at); err != nil {
				o.logger.Warn("booking: failed to schedule reminder",
					zap.String("bookingID", bookingID), zap.Error(err))
			}
		}
	}
	o.logger.Info("booking confirmed", zap.String("bookingID", bookingID))
	return updated, nil
}

// CancelBooking cancels a pending or confirmed booking and releases its
// slots. Cancelling a cancelled booking is a no-op that releases again.
func (o *Orchestrator) CancelBooking(ctx context.Context, bookingID, reason string) (*models.Booking, error) {
	for attempt := 0; attempt < 3; attempt++ {
		b, err := o.getBooking(ctx, bookingID)
		if err != nil {
			return nil, err
		}
		switch b.Status {
		case models.StatusCancelled:
			o.release(ctx, tokenOf(*b))
			return b, nil
		case models.StatusCompleted:
			return nil, errs.InvalidState("booking %s is completed and cannot be cancelled", bookingID)
		}

		updated, err := o.bookings.Transition(ctx, bookingID, b.Status, models.StatusCancelled, func(b *models.Booking) {
			b.CancelReason = reason
		})
		if errors.Is(err, database.ErrStatusMismatch) {
			continue
		}
		if err != nil {
			return nil, errs.Unavailable("booking store", err)
		}
		o.release(ctx, tokenOf(*updated))
		o.publish(ctx, *updated)
		o.logger.Info("booking cancelled",
			zap.String("bookingID", bookingID), zap.String("reason", reason))
		return updated, nil
	}
	return nil, errs.InvalidState("booking %s kept changing while cancelling", bookingID)
}

func (o *Orchestrator) publish(ctx context.Context, b models.Booking) {
	if o.publisher == nil {
		return
	}
	if err := o.publisher.Publish(ctx, models.EventFor(b, o.now().UTC())); err != nil {
		o.logger.Warn("booking: failed to publish event",
			zap.String("bookingID", b.ID),
			zap.String("status", string(b.Status)),
			zap.Error(err))
	}
}

// GetBooking returns a booking visible to clientID; an empty clientID skips
// the ownership check.
func (o *Orchestrator) GetBooking(ctx context.Context, bookingID, clientID string) (*models.Booking, error) {
	b, err := o.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if clientID != "" && b.ClientID != clientID {
		return nil, errs.NotFound("booking %s", bookingID)
	}
	return b, nil
}

// ListProviderBookings returns the provider's bookings ordered by start,
// limited to the given statuses when any are passed.
func (o *Orchestrator) ListProviderBookings(ctx context.Context, providerID string, statuses ...models.BookingStatus) ([]models.Booking, error) {
	for _, st := range statuses {
		if _, known := models.ParseBookingStatus(string(st)); !known {
			return nil, errs.InvalidInput("unknown booking status %q", st)
		}
	}
	if _, err := o.providers.GetByID(ctx, providerID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, errs.NotFound("provider %s", providerID)
		}
		return nil, errs.Unavailable("provider store", err)
	}
	out, err := o.bookings.ListByProvider(ctx, providerID, statuses...)
	if err != nil {
		return nil, errs.Unavailable("booking store", fmt.Errorf("provider %s: %w", providerID, err))
	}
	return out, nil
}

func (o *Orchestrator) ListClientBookings(ctx context.Context, clientID string) ([]models.Booking, error) {
	out, err := o.bookings.ListByClient(ctx, clientID)
	if err != nil {
		return nil, errs.Unavailable("booking store", fmt.Errorf("client %s: %w", clientID, err))
	}
	return out, nil
}
