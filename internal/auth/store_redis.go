package auth

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const redisPermKeyFmt = "janus:permissions:%s:%s" // source_type, user_id

// RedisStore reads user permissions from a Redis set per (source type, user).
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) UserPermissions(ctx context.Context, userID, sourceType string) ([]string, error) {
	key := fmt.Sprintf(redisPermKeyFmt, sourceType, userID)

	// SMembers returns an empty slice for a missing key, so unknown users
	// need no special casing.
	perms, err := s.client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis permission lookup failed: %w", err)
	}
	if perms == nil {
		return []string{}, nil
	}
	return perms, nil
}

// GrantPermissions adds permissions for a user. Used by provisioning tooling
// and tests.
func (s *RedisStore) GrantPermissions(ctx context.Context, userID, sourceType string, perms []string) error {
	if len(perms) == 0 {
		return nil
	}
	key := fmt.Sprintf(redisPermKeyFmt, sourceType, userID)
	members := make([]interface{}, len(perms))
	for i, p := range perms {
		members[i] = p
	}
	return s.client.SAdd(ctx, key, members...).Err()
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
