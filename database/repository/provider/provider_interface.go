package providerRepo

import (
	"context"

	"capturemoments/models"
)

// ProviderRepository holds the booking-relevant projection of provider profiles.
type ProviderRepository interface {
	GetByID(ctx context.Context, id string) (*models.Provider, error)
	// ListActive returns active providers; a non-empty tag list keeps only
	// providers sharing at least one specialization.
	ListActive(ctx context.Context, tags []string) ([]models.Provider, error)
	Upsert(ctx context.Context, p models.Provider) error
	UpdateRating(ctx context.Context, id string, rating float64, count int) error
}
