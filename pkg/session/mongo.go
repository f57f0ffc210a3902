package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const sessionsCollection = "sessions"

type sessionDocument struct {
	ID        string    `bson:"_id"`
	Token     string    `bson:"token"`
	ExpiresAt time.Time `bson:"expires_at,omitempty"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// MongoBackend keeps one document per session; a TTL index on expires_at lets the server
// drop expired sessions.
type MongoBackend struct {
	client     *mongo.Client
	collection *mongo.Collection
	now        func() time.Time
}

func GetMongoClient(uri string) (*mongo.Client, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)

	clientOptions := options.Client().ApplyURI(uri).SetServerAPIOptions(serverAPI)
	client, err := mongo.Connect(clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to create MongoDB client: %w", err)
	}
	return client, nil
}

// NewMongoBackend pings the server and ensures the session indexes exist.
func NewMongoBackend(ctx context.Context, client *mongo.Client, database string) (*MongoBackend, error) {
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	b := &MongoBackend{
		client:     client,
		collection: client.Database(database).Collection(sessionsCollection),
		now:        time.Now,
	}
	if err := EnsureIndexes(ctx, client.Database(database)); err != nil {
		return nil, err
	}
	return b, nil
}

func (m *MongoBackend) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

func (m *MongoBackend) Get(ctx context.Context, sessionID string) (string, error) {
	var doc sessionDocument
	err := m.collection.FindOne(ctx, bson.D{{Key: "_id", Value: sessionID}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("failed to read session token: %w", err)
	}
	// the TTL monitor runs about once a minute, so expired documents can still be read
	if !doc.ExpiresAt.IsZero() && !m.now().Before(doc.ExpiresAt) {
		return "", ErrNoToken
	}
	return doc.Token, nil
}

func (m *MongoBackend) Set(ctx context.Context, sessionID, token string, ttl time.Duration) error {
	now := m.now()
	set := bson.D{
		{Key: "token", Value: token},
		{Key: "updated_at", Value: now},
	}
	if ttl > 0 {
		set = append(set, bson.E{Key: "expires_at", Value: now.Add(ttl)})
	}

	_, err := m.collection.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: sessionID}},
		bson.D{{Key: "$set", Value: set}},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to store session token: %w", err)
	}
	return nil
}

func (m *MongoBackend) Delete(ctx context.Context, sessionID string) error {
	if _, err := m.collection.DeleteOne(ctx, bson.D{{Key: "_id", Value: sessionID}}); err != nil {
		return fmt.Errorf("failed to delete session token: %w", err)
	}
	return nil
}

func (m *MongoBackend) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
