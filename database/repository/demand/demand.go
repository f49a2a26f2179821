package demandRepo

import (
	"context"
	"fmt"
	"time"

	"capturemoments/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// BucketCount is the number of samples recorded against one bucket.
type BucketCount struct {
	Bucket time.Time `bson:"_id" json:"bucket"`
	Count  int       `bson:"count" json:"count"`
}

// DemandLog is an append-only log of booking attempts.
type DemandLog interface {
	Append(ctx context.Context, s models.DemandSample) error
	// CountInBuckets aggregates the provider's samples whose bucket lies in
	// [from, to), ordered by bucket.
	CountInBuckets(ctx context.Context, providerID string, from, to time.Time) ([]BucketCount, error)
}

type MongoDemandLog struct {
	coll *mongo.Collection
}

func NewMongoDemandLog(db *mongo.Database) *MongoDemandLog {
	return &MongoDemandLog{coll: db.Collection("demand_samples")}
}

func (l *MongoDemandLog) Append(ctx context.Context, s models.DemandSample) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := l.coll.InsertOne(ctx, s); err != nil {
		return fmt.Errorf("failed to append demand sample: %w", err)
	}
	return nil
}

func (l *MongoDemandLog) CountInBuckets(ctx context.Context, providerID string, from, to time.Time) ([]BucketCount, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.D{
			{Key: "providerId", Value: providerID},
			{Key: "bucket", Value: bson.D{{Key: "$gte", Value: from}, {Key: "$lt", Value: to}}},
		}}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$bucket"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
	cursor, err := l.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("demand aggregation failed: %w", err)
	}
	defer cursor.Close(ctx)

	var out []BucketCount
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("error decoding demand buckets: %w", err)
	}
	for i := range out {
		out[i].Bucket = out[i].Bucket.UTC()
	}
	return out, nil
}

func (l *MongoDemandLog) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := l.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "providerId", Value: 1}, {Key: "bucket", Value: 1}},
		Options: options.Index().SetName("provider_bucket_idx"),
	})
	if err != nil {
		return fmt.Errorf("failed to create demand indexes: %w", err)
	}
	return nil
}
