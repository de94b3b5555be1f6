package kvstore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoConfig represents the configuration for the Mongo-backed store.
type MongoConfig struct {
	ConnectionURL  string        `env:"MONGODB_URL,required"`                     // ConnectionURL is the URL of the database.
	Database       string        `env:"MONGODB_DATABASE" envDefault:"storekit"`   // Database holds the blob collection.
	Collection     string        `env:"MONGODB_COLLECTION" envDefault:"blobs"`    // Collection stores one document per key.
	ConnectTimeout time.Duration `env:"MONGODB_CONNECT_TIMEOUT" envDefault:"10s"` // ConnectTimeout is the timeout for connecting to the database.
	RetryAttempts  int           `env:"MONGODB_RETRY_ATTEMPTS" envDefault:"3"`    // RetryAttempts is the number of retry attempts to connect to the database.
	RetryInterval  time.Duration `env:"MONGODB_RETRY_INTERVAL" envDefault:"5s"`   // RetryInterval is the interval between retry attempts.
}

// ConnectMongo establishes a connection to a Mongo server and returns the
// collection the store operates on.
func ConnectMongo(ctx context.Context, cfg MongoConfig) (*mongo.Collection, error) {
	for range cfg.RetryAttempts {
		client, err := mongo.Connect(
			options.Client().
				ApplyURI(cfg.ConnectionURL).
				SetConnectTimeout(cfg.ConnectTimeout),
		)
		if err == nil {
			if err := client.Ping(ctx, nil); err == nil {
				return client.Database(cfg.Database).Collection(cfg.Collection), nil
			}
			_ = client.Disconnect(ctx)
		}

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrFailedToConnectToMongo, ctx.Err())
		case <-time.After(cfg.RetryInterval):
		}
	}

	return nil, ErrFailedToConnectToMongo
}

// MongoStore implements Store on top of a Mongo collection. Each key maps to
// a single document whose _id is the key.
type MongoStore struct {
	collection *mongo.Collection
}

type mongoBlob struct {
	Key   string `bson:"_id"`
	Value []byte `bson:"value"`
}

// NewMongoStore wraps an existing Mongo collection.
func NewMongoStore(collection *mongo.Collection) *MongoStore {
	return &MongoStore{collection: collection}
}

// Get returns the value stored under key, or ErrKeyNotFound.
func (s *MongoStore) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}

	var blob mongoBlob
	err := s.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&blob)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}
	return blob.Value, nil
}

// Set stores value under key, overwriting any previous value.
func (s *MongoStore) Set(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return ErrEmptyKey
	}

	_, err := s.collection.ReplaceOne(
		ctx,
		bson.M{"_id": key},
		mongoBlob{Key: key, Value: value},
		options.Replace().SetUpsert(true),
	)
	return err
}

// Delete removes key. Deleting an absent key is not an error.
func (s *MongoStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}

	_, err := s.collection.DeleteOne(ctx, bson.M{"_id": key})
	return err
}
