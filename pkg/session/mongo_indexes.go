package session

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type IndexConfig struct {
	CollectionName string
	IndexModel     mongo.IndexModel
}

var requiredIndexes = []IndexConfig{
	// Sessions: expire documents as soon as expires_at passes
	{
		CollectionName: sessionsCollection,
		IndexModel: mongo.IndexModel{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("idx_session_ttl"),
		},
	},
	// Sessions: housekeeping queries by last activity
	{
		CollectionName: sessionsCollection,
		IndexModel: mongo.IndexModel{
			Keys:    bson.D{{Key: "updated_at", Value: -1}},
			Options: options.Index().SetName("idx_session_updated"),
		},
	},
}

func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	for _, idxConfig := range requiredIndexes {
		if _, err := db.Collection(idxConfig.CollectionName).Indexes().CreateOne(ctx, idxConfig.IndexModel); err != nil {
			return fmt.Errorf("error creating index on collection %s: %w", idxConfig.CollectionName, err)
		}
	}
	return nil
}
