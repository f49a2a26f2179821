package repository

import (
	"context"

	availabilityRepo "capturemoments/database/repository/availability"
	bookingRepo "capturemoments/database/repository/booking"
	demandRepo "capturemoments/database/repository/demand"
	feedbackRepo "capturemoments/database/repository/feedback"
	"capturemoments/database/repository/memory"
	providerRepo "capturemoments/database/repository/provider"

	"go.mongodb.org/mongo-driver/mongo"
)

type (
	ProviderRepository     = providerRepo.ProviderRepository
	AvailabilityRepository = availabilityRepo.AvailabilityRepository
	BookingRepository      = bookingRepo.BookingRepository
	DemandLog              = demandRepo.DemandLog
	FeedbackLog            = feedbackRepo.FeedbackLog
	BucketCount            = demandRepo.BucketCount
)

// Set bundles every repository the engine needs.
type Set struct {
	Providers    ProviderRepository
	Availability AvailabilityRepository
	Bookings     BookingRepository
	Demand       DemandLog
	Feedback     FeedbackLog
}

type indexer interface {
	EnsureIndexes(ctx context.Context) error
}

// NewMongoSet builds the Mongo repositories and creates their indexes.
func NewMongoSet(ctx context.Context, db *mongo.Database) (*Set, error) {
	providers := providerRepo.NewMongoProviderRepo(db)
	availability := availabilityRepo.NewMongoAvailabilityRepo(db)
	bookings := bookingRepo.NewMongoBookingRepo(db)
	demand := demandRepo.NewMongoDemandLog(db)
	feedback := feedbackRepo.NewMongoFeedbackLog(db)

	for _, ix := range []indexer{providers, availability, bookings, demand, feedback} {
		if err := ix.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
	}
	return &Set{
		Providers:    providers,
		Availability: availability,
		Bookings:     bookings,
		Demand:       demand,
		Feedback:     feedback,
	}, nil
}

// NewMemorySet builds a Set over a fresh in-memory database.
func NewMemorySet() *Set {
	db := memory.New()
	return &Set{
		Providers:    db.Providers(),
		Availability: db.Availability(),
		Bookings:     db.Bookings(),
		Demand:       db.Demand(),
		Feedback:     db.Feedback(),
	}
}
