package settings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the hash holding the settings fields
const DefaultRedisKey = "textpilot:settings"

const (
	fieldAPIURL = "api_url_value"
	fieldAPIKey = "api_key_value"
)

// RedisStore keeps settings in one Redis hash, so several server instances
// share the same endpoint configuration.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore connects to url and verifies the connection
func NewRedisStore(url, key string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return newRedisStore(client, key), nil
}

func newRedisStore(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{client: client, key: key}
}

// Key returns the hash key in use
func (s *RedisStore) Key() string {
	return s.key
}

// Load reads the settings hash
func (s *RedisStore) Load(ctx context.Context) (Settings, error) {
	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return Settings{}, fmt.Errorf("failed to get settings from redis: %w", err)
	}
	out := Settings{
		APIURL: fields[fieldAPIURL],
		APIKey: fields[fieldAPIKey],
	}
	return out.withDefaults(), nil
}

// Save writes both fields of the settings hash
func (s *RedisStore) Save(ctx context.Context, settings Settings) error {
	err := s.client.HSet(ctx, s.key,
		fieldAPIURL, settings.APIURL,
		fieldAPIKey, settings.APIKey,
	).Err()
	if err != nil {
		return fmt.Errorf("failed to set settings in redis: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
