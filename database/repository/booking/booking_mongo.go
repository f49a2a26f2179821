package bookingRepo

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

// MongoBookingRepo stores bookings plus one calendar document per provider.
// The calendar lists the provider's active holds and is claimed in the same
// transaction as the booking insert, so two app instances cannot both book
// overlapping intervals.
type MongoBookingRepo struct {
	coll      *mongo.Collection
	calendars *mongo.Collection
}

func NewMongoBookingRepo(db *mongo.Database) *MongoBookingRepo {
	return &MongoBookingRepo{
		coll:      db.Collection("bookings"),
		calendars: db.Collection("calendars"),
	}
}

var activeStatuses = bson.A{models.StatusPending, models.StatusConfirmed}

type calendarHold struct {
	BookingID string    `bson:"bookingId"`
	Start     time.Time `bson:"start"`
	End       time.Time `bson:"end"`
}

// claimFilter matches the provider's calendar only while no hold overlaps iv.
// When it does not match, the upsert collides with the unique providerId
// index and the claim fails with a duplicate key error.
func claimFilter(providerID string, iv models.Interval) bson.M {
	return bson.M{
		"providerId": providerID,
		"holds": bson.M{"$not": bson.M{"$elemMatch": bson.M{
			"start": bson.M{"$lt": iv.End},
			"end":   bson.M{"$gt": iv.Start},
		}}},
	}
}

func (r *MongoBookingRepo) inTransaction(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	sess, err := r.coll.Database().Client().StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func (r *MongoBookingRepo) Create(ctx context.Context, b models.Booking) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if !b.Status.Holds() {
		if _, err := r.coll.InsertOne(ctx, b); err != nil {
			return fmt.Errorf("insert booking failed: %w", database.Translate(err))
		}
		return nil
	}
	return r.inTransaction(ctx, func(sc mongo.SessionContext) error {
		if _, err := r.coll.InsertOne(sc, b); err != nil {
			return fmt.Errorf("insert booking failed: %w", database.Translate(err))
		}
		update := bson.M{
			"$push": bson.M{"holds": calendarHold{BookingID: b.ID, Start: b.Interval.Start, End: b.Interval.End}},
			"$inc":  bson.M{"version": 1},
		}
		_, err := r.calendars.UpdateOne(sc, claimFilter(b.ProviderID, b.Interval), update, options.Update().SetUpsert(true))
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("booking %s: %w", b.ID, database.ErrOverlap)
		}
		if err != nil {
			return fmt.Errorf("failed to claim provider calendar: %w", err)
		}
		return nil
	})
}

func (r *MongoBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var b models.Booking
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&b); err != nil {
		return nil, fmt.Errorf("error fetching booking %s: %w", id, database.Translate(err))
	}
	return &b, nil
}

func (r *MongoBookingRepo) ListActiveByProvider(ctx context.Context, providerID string) ([]models.Booking, error) {
	return r.find(ctx, bson.M{
		"providerId": providerID,
		"status":     bson.M{"$in": activeStatuses},
	})
}

func (r *MongoBookingRepo) ListByProvider(ctx context.Context, providerID string, statuses ...models.BookingStatus) ([]models.Booking, error) {
	filter := bson.M{"providerId": providerID}
	if len(statuses) > 0 {
		filter["status"] = bson.M{"$in": statuses}
	}
	return r.find(ctx, filter)
}

func (r *MongoBookingRepo) ListByClient(ctx context.Context, clientID string) ([]models.Booking, error) {
	return r.find(ctx, bson.M{"clientId": clientID})
}

func (r *MongoBookingRepo) ListPendingBefore(ctx context.Context, createdBefore time.Time) ([]models.Booking, error) {
	return r.find(ctx, bson.M{
		"status":    models.StatusPending,
		"createdAt": bson.M{"$lt": createdBefore},
	})
}

func (r *MongoBookingRepo) ListConfirmedEndedBefore(ctx context.Context, endedBefore time.Time) ([]models.Booking, error) {
	return r.find(ctx, bson.M{
		"status":       models.StatusConfirmed,
		"interval.end": bson.M{"$lte": endedBefore},
	})
}

func (r *MongoBookingRepo) find(ctx context.Context, filter bson.M) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "interval.start", Value: 1}, {Key: "id", Value: 1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error fetching bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var out []models.Booking
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("error decoding bookings: %w", err)
	}
	return out, nil
}

// Transition replaces the document only if both status and version are
// unchanged since it was read, so the update is a compare-and-swap.
func (r *MongoBookingRepo) Transition(ctx context.Context, id string, from, to models.BookingStatus, mutate func(*models.Booking)) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var b models.Booking
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&b); err != nil {
		return nil, fmt.Errorf("error fetching booking %s: %w", id, database.Translate(err))
	}
	readVersion := b.Version
	if !Apply(&b, from, to, time.Now().UTC(), mutate) {
		return nil, fmt.Errorf("booking %s is %s, not %s: %w", id, b.Status, from, database.ErrStatusMismatch)
	}

	filter := bson.M{"id": id, "status": from, "version": readVersion}
	replace := func(ctx context.Context) error {
		res, err := r.coll.ReplaceOne(ctx, filter, b)
		if err != nil {
			return fmt.Errorf("failed to transition booking %s: %w", id, err)
		}
		if res.MatchedCount == 0 {
			return fmt.Errorf("booking %s changed concurrently: %w", id, database.ErrStatusMismatch)
		}
		return nil
	}
	if !from.Holds() || to.Holds() {
		if err := replace(ctx); err != nil {
			return nil, err
		}
		return &b, nil
	}

	// leaving the active set frees the interval on the provider calendar
	err := r.inTransaction(ctx, func(sc mongo.SessionContext) error {
		if err := replace(sc); err != nil {
			return err
		}
		_, err := r.calendars.UpdateOne(sc,
			bson.M{"providerId": b.ProviderID},
			bson.M{"$pull": bson.M{"holds": bson.M{"bookingId": id}}, "$inc": bson.M{"version": 1}},
		)
		if err != nil {
			return fmt.Errorf("failed to release provider calendar: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *MongoBookingRepo) RecordRefund(ctx context.Context, id, paymentRef, refundRef string) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{
		"$set": bson.M{"paymentRef": paymentRef, "refundRef": refundRef, "updatedAt": time.Now().UTC()},
		"$inc": bson.M{"version": 1},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var b models.Booking
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"id": id}, update, opts).Decode(&b); err != nil {
		return nil, fmt.Errorf("failed to record refund on booking %s: %w", id, database.Translate(err))
	}
	return &b, nil
}

func (r *MongoBookingRepo) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		// calendar hydration
		{
			Keys:    bson.D{{Key: "providerId", Value: 1}, {Key: "status", Value: 1}, {Key: "interval.start", Value: 1}},
			Options: options.Index().SetName("provider_status_start_idx"),
		},
		{
			Keys:    bson.D{{Key: "clientId", Value: 1}, {Key: "interval.start", Value: 1}},
			Options: options.Index().SetName("client_start_idx"),
		},
		// sweeps
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: 1}},
			Options: options.Index().SetName("status_created_idx"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "interval.end", Value: 1}},
			Options: options.Index().SetName("status_end_idx"),
		},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create booking indexes: %w", err)
	}
	_, err := r.calendars.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "providerId", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("unique_provider"),
	})
	if err != nil {
		return fmt.Errorf("failed to create calendar indexes: %w", err)
	}
	return nil
}
