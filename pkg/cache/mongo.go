package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultMongoCollection is the collection entries are stored in.
const DefaultMongoCollection = "cache"

// MongoCache stores entries in a MongoDB collection. Expiry is delegated to
// a TTL index on expires_at; Get also checks it because the server only
// sweeps expired documents periodically.
type MongoCache struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type mongoEntry struct {
	Key       string     `bson:"_id"`
	Data      []byte     `bson:"data"`
	ExpiresAt *time.Time `bson:"expires_at,omitempty"`
}

// NewMongoCache connects to uri and prepares the collection in database.
func NewMongoCache(ctx context.Context, uri, database string) (*MongoCache, error) {
	if database == "" {
		return nil, fmt.Errorf("mongo: empty database name")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("%w: mongo: %v", ErrUnavailable, err)
	}
	err = RetryWithBackoff(ctx, func() error {
		return Retryable(client.Ping(ctx, nil))
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%w: mongo: %v", ErrUnavailable, err)
	}

	coll := client.Database(database).Collection(DefaultMongoCollection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: create ttl index: %w", err)
	}
	return &MongoCache{client: client, coll: coll}, nil
}

// Get returns the value for key.
func (c *MongoCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var entry mongoEntry
	err := c.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&entry)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if entry.ExpiresAt != nil && time.Now().After(*entry.ExpiresAt) {
		return nil, false, nil
	}
	return entry.Data, true, nil
}

// Set upserts the entry for key.
func (c *MongoCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	entry := mongoEntry{Key: key, Data: data}
	if ttl > 0 {
		at := time.Now().Add(ttl).UTC()
		entry.ExpiresAt = &at
	}
	_, err := c.coll.ReplaceOne(ctx, bson.M{"_id": key}, entry, options.Replace().SetUpsert(true))
	return err
}

// Delete removes the entry for key.
func (c *MongoCache) Delete(ctx context.Context, key string) error {
	_, err := c.coll.DeleteOne(ctx, bson.M{"_id": key})
	return err
}

// Close disconnects the client.
func (c *MongoCache) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.client.Disconnect(ctx)
}

var _ Cache = (*MongoCache)(nil)
