package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonathan/pitchprep/internal/types"
)

// DefaultContextKeyPrefix namespaces employer context keys.
const DefaultContextKeyPrefix = "employer_context:"

// DefaultRetention is how long Redis keeps an entry. Freshness is judged from
// FetchedAt by the researcher, so retention only bounds memory use.
const DefaultRetention = 7 * 24 * time.Hour

// RedisContextStore is an EmployerContextStore backed by Redis JSON strings.
type RedisContextStore struct {
	client    redis.UniversalClient
	prefix    string
	retention time.Duration
}

// NewRedisContextStore wraps a Redis client. A zero retention uses DefaultRetention.
func NewRedisContextStore(client redis.UniversalClient, retention time.Duration) *RedisContextStore {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &RedisContextStore{client: client, prefix: DefaultContextKeyPrefix, retention: retention}
}

// NewRedisClient parses a redis:// URL and verifies the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

func (s *RedisContextStore) key(name string) string {
	return s.prefix + types.NormalizeCompanyName(name)
}

// Get implements EmployerContextStore.
func (s *RedisContextStore) Get(ctx context.Context, normalizedName string) (*types.EmployerContext, error) {
	raw, err := s.client.Get(ctx, s.key(normalizedName)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read employer context: %w", err)
	}
	var c types.EmployerContext
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("failed to decode employer context: %w", err)
	}
	return &c, nil
}

// Put implements EmployerContextStore.
func (s *RedisContextStore) Put(ctx context.Context, c types.EmployerContext) error {
	if types.NormalizeCompanyName(c.CompanyName) == "" {
		return ErrEmptyKey
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode employer context: %w", err)
	}
	if err := s.client.Set(ctx, s.key(c.CompanyName), raw, s.retention).Err(); err != nil {
		return fmt.Errorf("failed to write employer context: %w", err)
	}
	return nil
}
