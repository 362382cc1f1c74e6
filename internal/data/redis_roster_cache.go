package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRosterCacheTTL bounds staleness of the record-to-lodge mapping.
// Transfers between lodges also invalidate explicitly, so the TTL is a
// backstop rather than the primary consistency mechanism.
const DefaultRosterCacheTTL = 15 * time.Minute

// RedisRosterCache implements core.RosterCache using Redis. It memoizes
// reverse roster lookups so legacy records without a direct lodge reference
// do not cost a table scan per authorization check.
type RedisRosterCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisRosterCache creates a new RedisRosterCache with the given Redis client.
func NewRedisRosterCache(client redis.UniversalClient, ttl time.Duration) *RedisRosterCache {
	if ttl <= 0 {
		ttl = DefaultRosterCacheTTL
	}
	return &RedisRosterCache{client: client, ttl: ttl}
}

func rosterKey(recordID string) string {
	return "roster:record:" + recordID
}

// GetLodgeForRecord returns the cached lodge id for a record, with a found
// flag that distinguishes a miss from an empty value.
func (r *RedisRosterCache) GetLodgeForRecord(ctx context.Context, recordID string) (string, bool, error) {
	if recordID == "" {
		return "", false, errors.New("record id cannot be empty")
	}

	result, err := r.client.Get(ctx, rosterKey(recordID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	return result, true, nil
}

// SetLodgeForRecord caches the record-to-lodge association.
func (r *RedisRosterCache) SetLodgeForRecord(ctx context.Context, recordID, lodgeID string) error {
	if recordID == "" {
		return errors.New("record id cannot be empty")
	}
	if lodgeID == "" {
		return errors.New("lodge id cannot be empty")
	}

	return r.client.Set(ctx, rosterKey(recordID), lodgeID, r.ttl).Err()
}

// Invalidate drops the cached association for a record.
func (r *RedisRosterCache) Invalidate(ctx context.Context, recordID string) error {
	if recordID == "" {
		return errors.New("record id cannot be empty")
	}

	if err := r.client.Del(ctx, rosterKey(recordID)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Health checks the health of the Redis connection.
func (r *RedisRosterCache) Health(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// RedisConfig holds configuration for Redis connection.
type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// DefaultRedisConfig returns a RedisConfig with sensible defaults.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:     "localhost:6379",
		Password: "",
		DB:       0,
	}
}

// NewRedisClient creates a new Redis client with the given configuration.
func NewRedisClient(cfg RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}
