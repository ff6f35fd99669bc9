package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/viralforge/mesh/services/trust-compliance/M37-moderation-service/internal/domain"
)

// Connect initializes a Redis client from either a redis:// URL or a bare
// host:port address.
func Connect(_ context.Context, redisURL string) (*redis.Client, error) {
	if strings.HasPrefix(redisURL, "redis://") {
		opt, parseErr := redis.ParseURL(redisURL)
		if parseErr != nil {
			return nil, fmt.Errorf("parse redis url: %w", parseErr)
		}
		return redis.NewClient(opt), nil
	}
	return redis.NewClient(&redis.Options{Addr: redisURL}), nil
}

// RedisRestrictionStore keeps active mute/timeout markers. The key TTL equals
// the action duration, so expiry needs no sweeper: an expired restriction
// simply stops existing.
type RedisRestrictionStore struct {
	client *redis.Client
}

// NewRedisRestrictionStore creates a restriction store backed by Redis.
func NewRedisRestrictionStore(client *redis.Client) *RedisRestrictionStore {
	return &RedisRestrictionStore{client: client}
}

func restrictionKey(userID string) string {
	return "moderation:restriction:" + userID
}

func (s *RedisRestrictionStore) Put(ctx context.Context, restriction domain.Restriction, ttl time.Duration) error {
	if ttl <= 0 {
		return errors.New("restriction ttl must be positive")
	}
	raw, err := json.Marshal(restriction)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, restrictionKey(restriction.UserID), raw, ttl).Err()
}

func (s *RedisRestrictionStore) Get(ctx context.Context, userID string) (*domain.Restriction, error) {
	raw, err := s.client.Get(ctx, restrictionKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var out domain.Restriction
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
