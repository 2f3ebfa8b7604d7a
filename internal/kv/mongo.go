package kv

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoConfig holds connection settings for MongoStore.
type MongoConfig struct {
	URI        string `yaml:"uri" env:"URI"`
	Database   string `yaml:"database" env:"DATABASE"`
	Collection string `yaml:"collection" env:"COLLECTION"`
}

type mongoEntry struct {
	ID        string    `bson:"_id"`
	Value     []byte    `bson:"value"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// MongoStore keeps one document per state entry, keyed by hex(key).
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to MongoDB and verifies the connection.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongo URI is required")
	}
	if cfg.Database == "" {
		cfg.Database = "statecache"
	}
	if cfg.Collection == "" {
		cfg.Collection = "state_entries"
	}

	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	s := &MongoStore{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
	}
	if err := s.Ping(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *MongoStore) Get(ctx context.Context, key []byte) ([]byte, error) {
	var doc mongoEntry
	err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: hex.EncodeToString(key)}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongo find: %w", err)
	}
	return doc.Value, nil
}

func (s *MongoStore) Put(ctx context.Context, key, value []byte) error {
	id := hex.EncodeToString(key)
	doc := mongoEntry{ID: id, Value: value, UpdatedAt: time.Now().UTC()}
	_, err := s.coll.ReplaceOne(ctx,
		bson.D{{Key: "_id", Value: id}},
		doc,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("mongo replace: %w", err)
	}
	return nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("mongo ping: %w", err)
	}
	return nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
