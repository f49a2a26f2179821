package availabilityRepo

import (
	"context"

	"capturemoments/models"
)

type AvailabilityRepository interface {
	ListByProvider(ctx context.Context, providerID string) ([]models.AvailabilityWindow, error)
	// ReplaceForProvider swaps the provider's whole window set atomically.
	ReplaceForProvider(ctx context.Context, providerID string, windows []models.AvailabilityWindow) error
}
