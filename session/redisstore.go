package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps records in Redis under a key prefix. Several client
// processes pointed at the same prefix share one login, and a logout in any
// of them is seen by the others on their next read.
//
// Keys carry no TTL; expiry stays lazy and is decided by the [Manager].
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
}

// NewRedisStore creates a [RedisStore]. An empty prefix defaults to "exitpass".
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "exitpass"
	}
	return &RedisStore{
		redis:  client,
		prefix: prefix,
	}
}

func (s *RedisStore) key(key string) string {
	return s.prefix + ":" + key
}

// Get performs one GET.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.redis.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return data, nil
}

// Set performs one SET without expiration.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.redis.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Delete performs one DEL.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.redis.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// OpenRedis parses a redis:// URL and pings the server.
func OpenRedis(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return client, nil
}
