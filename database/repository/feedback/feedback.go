package feedbackRepo

import (
	"context"
	"fmt"
	"time"

	"capturemoments/database"
	"capturemoments/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FeedbackLog is an append-only log of scored reviews, at most one per booking.
type FeedbackLog interface {
	// Append fails with database.ErrDuplicate when the booking already has feedback.
	Append(ctx context.Context, rec models.FeedbackRecord) error
	ListByProvider(ctx context.Context, providerID string) ([]models.FeedbackRecord, error)
	ExistsForBooking(ctx context.Context, bookingID string) (bool, error)
}

type MongoFeedbackLog struct {
	coll *mongo.Collection
}

func NewMongoFeedbackLog(db *mongo.Database) *MongoFeedbackLog {
	return &MongoFeedbackLog{coll: db.Collection("feedback")}
}

func (l *MongoFeedbackLog) Append(ctx context.Context, rec models.FeedbackRecord) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := l.coll.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("failed to append feedback: %w", database.Translate(err))
	}
	return nil
}

func (l *MongoFeedbackLog) ListByProvider(ctx context.Context, providerID string) ([]models.FeedbackRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cursor, err := l.coll.Find(ctx, bson.M{"providerId": providerID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("error fetching feedback: %w", err)
	}
	defer cursor.Close(ctx)

	var out []models.FeedbackRecord
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("error decoding feedback: %w", err)
	}
	return out, nil
}

func (l *MongoFeedbackLog) ExistsForBooking(ctx context.Context, bookingID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	n, err := l.coll.CountDocuments(ctx, bson.M{"bookingId": bookingID}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("error checking feedback for booking %s: %w", bookingID, err)
	}
	return n > 0, nil
}

func (l *MongoFeedbackLog) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "bookingId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_booking"),
		},
		{
			Keys:    bson.D{{Key: "providerId", Value: 1}, {Key: "createdAt", Value: 1}},
			Options: options.Index().SetName("provider_created_idx"),
		},
	}
	if _, err := l.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create feedback indexes: %w", err)
	}
	return nil
}
