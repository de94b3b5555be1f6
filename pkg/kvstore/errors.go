package kvstore

import "errors"

var (
	// ErrKeyNotFound indicates no value is stored under the requested key.
	ErrKeyNotFound = errors.New("kvstore: key not found")

	// ErrEmptyKey indicates an empty key was passed to a store operation.
	ErrEmptyKey = errors.New("kvstore: empty key")

	// ErrFailedToParseRedisConnString indicates the Redis connection URL is invalid.
	ErrFailedToParseRedisConnString = errors.New("kvstore: failed to parse redis connection string")

	// ErrRedisNotReady indicates the Redis server did not become reachable
	// within the configured retry attempts.
	ErrRedisNotReady = errors.New("kvstore: redis not ready")

	// ErrFailedToConnectToMongo indicates the Mongo server did not become
	// reachable within the configured retry attempts.
	ErrFailedToConnectToMongo = errors.New("kvstore: failed to connect to mongo")
)
