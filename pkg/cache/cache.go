package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// 캐시 TTL
const (
	TTLCategory = 10 * time.Minute // 카테고리는 거의 바뀌지 않음
	TTLSettings = time.Minute
)

const keyPrefix = "epaper:"

// ErrMiss is returned by Get when the key is absent or Redis is not configured
var ErrMiss = errors.New("cache miss")

// Service is a JSON value cache. A nil Redis client turns every call into a miss or no-op.
type Service interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	IsAvailable() bool
}

type jsonStore struct {
	rdb *redis.Client
}

// NewService wraps client; client may be nil
func NewService(client *redis.Client) Service {
	return &jsonStore{rdb: client}
}

// CategoryKey is the key for a positive category existence lookup
func CategoryKey(id int64) string {
	return keyPrefix + "category:" + strconv.FormatInt(id, 10)
}

// SettingsKey is the key for a resolved settings snapshot
func SettingsKey(name string) string {
	return keyPrefix + "settings:" + name
}

func (s *jsonStore) IsAvailable() bool { return s.rdb != nil }

func (s *jsonStore) Get(ctx context.Context, key string, dest interface{}) error {
	if s.rdb == nil {
		return ErrMiss
	}
	raw, err := s.rdb.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return ErrMiss
	case err != nil:
		return err
	}
	return json.Unmarshal(raw, dest)
}

func (s *jsonStore) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if s.rdb == nil {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key, raw, ttl).Err()
}

func (s *jsonStore) Delete(ctx context.Context, keys ...string) error {
	if s.rdb == nil || len(keys) == 0 {
		return nil
	}
	return s.rdb.Del(ctx, keys...).Err()
}
