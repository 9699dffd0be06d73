package cache

import "errors"

var (
	// ErrNotInitialized means InitRedis has not run yet.
	ErrNotInitialized = errors.New("redis client not initialized")

	// ErrRedisNotAvailable means the package is in mock mode and no live
	// client exists.
	ErrRedisNotAvailable = errors.New("redis not available")

	// ErrLockNotAcquired means the distributed lock is held elsewhere.
	ErrLockNotAcquired = errors.New("could not acquire distributed lock")
)
