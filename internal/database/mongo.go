package database

import (
	"context"
	"fmt"
	"time"

	"github.com/cankoe/survey-runner/internal/store"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func NewMongoClient(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		log.Error().Err(err).Msg("Failed to connect to MongoDB")
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Ping the database to ensure connectivity
	if err := client.Ping(ctx, nil); err != nil {
		log.Error().Err(err).Msg("Failed to ping MongoDB")
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	log.Info().Msg("Successfully connected and pinged MongoDB")
	return client, nil
}

// EnsureIndexes creates the indexes the run registry queries rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := []struct {
		collection string
		keys       bson.D
	}{
		{store.RunEventCollection, bson.D{{Key: "run_id", Value: 1}, {Key: "ts", Value: 1}}},
		{store.RunCollection, bson.D{{Key: "tenant_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{store.AccountCollection, bson.D{{Key: "tenant_id", Value: 1}}},
	}

	for _, idx := range indexes {
		if _, err := db.Collection(idx.collection).Indexes().CreateOne(ctx, mongo.IndexModel{Keys: idx.keys}); err != nil {
			return fmt.Errorf("failed to create index on %s: %w", idx.collection, err)
		}
	}

	log.Info().Msg("Indexes ensured successfully")
	return nil
}
