package providerRepo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"capturemoments/database"
	"capturemoments/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoProviderRepo struct {
	coll *mongo.Collection
}

func NewMongoProviderRepo(db *mongo.Database) *MongoProviderRepo {
	return &MongoProviderRepo{coll: db.Collection("providers")}
}

func (r *MongoProviderRepo) GetByID(ctx context.Context, id string) (*models.Provider, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var p models.Provider
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&p); err != nil {
		return nil, fmt.Errorf("error fetching provider %s: %w", id, database.Translate(err))
	}
	return &p, nil
}

func (r *MongoProviderRepo) ListActive(ctx context.Context, tags []string) ([]models.Provider, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{"active": true}
	if len(tags) > 0 {
		filter["specializations"] = bson.M{"$in": lowerAll(tags)}
	}
	opts := options.Find().SetSort(bson.D{{Key: "id", Value: 1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing active providers: %w", err)
	}
	defer cursor.Close(ctx)

	var out []models.Provider
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("error decoding providers: %w", err)
	}
	return out, nil
}

func (r *MongoProviderRepo) Upsert(ctx context.Context, p models.Provider) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	p.Specializations = lowerAll(p.Specializations)
	p.UpdatedAt = time.Now().UTC()
	_, err := r.coll.ReplaceOne(ctx, bson.M{"id": p.ID}, p, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert provider %s: %w", p.ID, err)
	}
	return nil
}

func (r *MongoProviderRepo) UpdateRating(ctx context.Context, id string, rating float64, count int) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"rating":      rating,
		"ratingCount": count,
		"updatedAt":   time.Now().UTC(),
	}}
	res, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update rating for provider %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return database.ErrNotFound
	}
	return nil
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(strings.TrimSpace(s))
	}
	return out
}
