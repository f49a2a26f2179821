package booking

import (
	"context"
	"iter"
	"slices"
	"time"

	"capturemoments/models"
	"capturemoments/services/errs"

	"github.com/google/uuid"
)

// OpenSlots lazily yields the provider's open slots inside r.
func (o *Orchestrator) OpenSlots(ctx context.Context, providerID string, r models.Interval) (iter.Seq[models.Interval], error) {
	if !r.Valid() {
		return nil, errs.InvalidInterval("range must have positive duration")
	}
	if _, err := o.activeProvider(ctx, providerID); err != nil {
		return nil, err
	}
	return o.slots.OpenSlots(ctx, providerID, r)
}

func (o *Orchestrator) ListOpenSlots(ctx context.Context, providerID string, r models.Interval) ([]models.Interval, error) {
	seq, err := o.OpenSlots(ctx, providerID, r)
	if err != nil {
		return nil, err
	}
	return slices.Collect(seq), nil
}

// SuggestSlots ranks the provider's open runs of length d inside r by start
// time preference. The part of r already past is skipped.
func (o *Orchestrator) SuggestSlots(ctx context.Context, providerID string, r models.Interval, d time.Duration) ([]models.SuggestedSlot, error) {
	if !r.Valid() {
		return nil, errs.InvalidInterval("range must have positive duration")
	}
	if d <= 0 {
		return nil, errs.InvalidInterval("duration must be positive")
	}
	if _, err := o.activeProvider(ctx, providerID); err != nil {
		return nil, err
	}
	if now := o.now().UTC(); r.Start.Before(now) {
		r.Start = now
	}
	if !r.Valid() {
		return []models.SuggestedSlot{}, nil
	}
	return o.slots.SuggestSlots(ctx, providerID, r, d, o.cfg.SlotPreferences)
}

// Quote prices an interval the provider could accept, without reserving it.
func (o *Orchestrator) Quote(ctx context.Context, providerID string, iv models.Interval, loc models.Location) (*models.Quote, error) {
	provider, err := o.activeProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if err := o.resolver.CheckInterval(ctx, providerID, iv); err != nil {
		return nil, err
	}
	q, err := o.pricer.Quote(ctx, *provider, iv, loc)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (o *Orchestrator) Rank(ctx context.Context, q models.ClientQuery) ([]models.RankedProvider, error) {
	return o.ranker.Rank(ctx, q)
}

// SetAvailability replaces the provider's windows. Existing bookings keep
// their slots even if a new window no longer covers them.
func (o *Orchestrator) SetAvailability(ctx context.Context, providerID string, windows []models.AvailabilityWindow) ([]models.AvailabilityWindow, error) {
	if _, err := o.activeProvider(ctx, providerID); err != nil {
		return nil, err
	}
	for i := range windows {
		windows[i].ProviderID = providerID
		if windows[i].ID == "" {
			windows[i].ID = uuid.New().String()
		}
		if err := windows[i].Validate(); err != nil {
			return nil, errs.InvalidInput("window %d: %v", i, err)
		}
	}
	if err := o.availability.ReplaceForProvider(ctx, providerID, windows); err != nil {
		return nil, errs.Unavailable("availability store", err)
	}
	out, err := o.availability.ListByProvider(ctx, providerID)
	if err != nil {
		return nil, errs.Unavailable("availability store", err)
	}
	return out, nil
}
