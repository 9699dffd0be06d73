package cache

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	redisClient *redis.Client
	initOnce    sync.Once
	initialized bool
)

// InitRedis initializes the process-wide Redis connection. When Redis is
// unreachable, or REDIS_MOCK=true, the package switches to an in-process
// counter map so the service keeps working in degraded/test mode.
func InitRedis() error {
	var initErr error

	initOnce.Do(func() {
		if os.Getenv("REDIS_MOCK") == "true" {
			log.Println("redis mock mode forced via REDIS_MOCK")
			mockMode = true
			initialized = true
			return
		}

		redisAddr := os.Getenv("REDIS_ADDR")
		if redisAddr == "" {
			redisAddr = "localhost:6379"
		}
		redisPassword := os.Getenv("REDIS_PASSWORD")
		redisDB := 0
		if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
			if db, err := strconv.Atoi(dbStr); err == nil {
				redisDB = db
			}
		}

		log.Printf("connecting to redis at %s", redisAddr)

		client := redis.NewClient(&redis.Options{
			Addr:        redisAddr,
			Password:    redisPassword,
			DB:          redisDB,
			DialTimeout: 3 * time.Second,
			ReadTimeout: 3 * time.Second,
			PoolSize:    10,
		})

		if _, err := client.Ping(context.Background()).Result(); err != nil {
			log.Printf("redis connection failed: %v, falling back to mock mode", err)
			mockMode = true
			initialized = true
			return
		}

		redisClient = client
		initialized = true
		mockMode = false
		log.Println("redis connection established")
	})

	return initErr
}

// GetClient returns the live Redis client, or an error in mock mode.
func GetClient() (*redis.Client, error) {
	if !initialized {
		return nil, ErrNotInitialized
	}
	if mockMode {
		return nil, ErrRedisNotAvailable
	}
	return redisClient, nil
}

// CloseRedis shuts down the connection pool.
func CloseRedis() {
	if initialized && !mockMode && redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Printf("error closing redis connection: %v", err)
		}
		log.Println("redis connection closed")
	}
}

// voteKey builds the counter key for one (poll, option) pair.
func voteKey(pollID, option string) string {
	return fmt.Sprintf("poll:%s:votes:%s", pollID, option)
}

// CounterStore adapts the Redis counter space to the vote coordinator. All
// operations are single-key and atomic at the store level; no method holds a
// lock across calls.
type CounterStore struct{}

// NewCounterStore returns the counter adapter bound to the package client.
func NewCounterStore() *CounterStore {
	return &CounterStore{}
}

// Increment atomically adds 1 to the counter and returns the new value.
func (c *CounterStore) Increment(ctx context.Context, pollID, option string) (int64, error) {
	if !initialized {
		return 0, ErrNotInitialized
	}
	key := voteKey(pollID, option)

	if mockMode {
		mockMutex.Lock()
		defer mockMutex.Unlock()
		mockCounters[key]++
		return mockCounters[key], nil
	}

	count, err := redisClient.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment vote counter: %w", err)
	}
	return count, nil
}

// Set writes an absolute counter value; used to seed options to zero at
// activation.
func (c *CounterStore) Set(ctx context.Context, pollID, option string, value int64) error {
	if !initialized {
		return ErrNotInitialized
	}
	key := voteKey(pollID, option)

	if mockMode {
		mockMutex.Lock()
		defer mockMutex.Unlock()
		mockCounters[key] = value
		return nil
	}

	if err := redisClient.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set vote counter: %w", err)
	}
	return nil
}

// Get reads one counter. A missing key reads as 0, not as an error.
func (c *CounterStore) Get(ctx context.Context, pollID, option string) (int64, error) {
	if !initialized {
		return 0, ErrNotInitialized
	}
	key := voteKey(pollID, option)

	if mockMode {
		mockMutex.Lock()
		defer mockMutex.Unlock()
		return mockCounters[key], nil
	}

	val, err := redisClient.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read vote counter: %w", err)
	}
	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed counter value %q: %w", val, err)
	}
	return count, nil
}

// Delete removes one counter; used at deactivation and deletion cleanup.
func (c *CounterStore) Delete(ctx context.Context, pollID, option string) error {
	if !initialized {
		return ErrNotInitialized
	}
	key := voteKey(pollID, option)

	if mockMode {
		mockMutex.Lock()
		defer mockMutex.Unlock()
		delete(mockCounters, key)
		return nil
	}

	if err := redisClient.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete vote counter: %w", err)
	}
	return nil
}

// Counts reads the counters for every given option in one round trip.
// Missing keys read as 0, so a freshly activated poll yields a zero-filled
// tally.
func (c *CounterStore) Counts(ctx context.Context, pollID string, options []string) (map[string]int64, error) {
	if !initialized {
		return nil, ErrNotInitialized
	}

	counts := make(map[string]int64, len(options))

	if mockMode {
		mockMutex.Lock()
		defer mockMutex.Unlock()
		for _, option := range options {
			counts[option] = mockCounters[voteKey(pollID, option)]
		}
		return counts, nil
	}

	pipe := redisClient.Pipeline()
	cmds := make(map[string]*redis.StringCmd, len(options))
	for _, option := range options {
		cmds[option] = pipe.Get(ctx, voteKey(pollID, option))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to read vote counters: %w", err)
	}

	for option, cmd := range cmds {
		val, err := cmd.Result()
		if errors.Is(err, redis.Nil) {
			counts[option] = 0
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read vote counter: %w", err)
		}
		count, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed counter value %q: %w", val, err)
		}
		counts[option] = count
	}

	return counts, nil
}
