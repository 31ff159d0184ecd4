package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"obata/internal/models"

	"github.com/redis/go-redis/v9"
)

// CacheService is a thin JSON cache over Redis. The ledger treats it as
// best-effort: a cache failure never fails an operation, it just forces the
// next read back to the store.
type CacheService struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCacheService(client *redis.Client, defaultTTL time.Duration) *CacheService {
	return &CacheService{
		client: client,
		ttl:    defaultTTL,
	}
}

func (s *CacheService) Set(ctx context.Context, key string, value interface{}) error {
	return s.SetWithTTL(ctx, key, value, s.ttl)
}

func (s *CacheService) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}

func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("failed to get cache value: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return true, nil
}

func (s *CacheService) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}

// GenerateKey joins parts into a namespaced cache key.
func (s *CacheService) GenerateKey(parts ...interface{}) string {
	strs := make([]string, len(parts))
	for i, p := range parts {
		strs[i] = fmt.Sprint(p)
	}
	return strings.Join(strs, ":")
}

// Account cache helpers

func (s *CacheService) GetAccount(ctx context.Context, userID string) (*models.Account, error) {
	var acct models.Account
	found, err := s.Get(ctx, s.GenerateKey("account", userID), &acct)
	if err != nil || !found {
		return nil, fmt.Errorf("account not cached")
	}
	return &acct, nil
}

func (s *CacheService) SetAccount(ctx context.Context, acct *models.Account) error {
	return s.Set(ctx, s.GenerateKey("account", acct.UserID), acct)
}

func (s *CacheService) InvalidateAccount(ctx context.Context, userID string) error {
	return s.Delete(ctx, s.GenerateKey("account", userID))
}

func (s *CacheService) HealthCheck(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	return nil
}

func (s *CacheService) Close() error {
	return s.client.Close()
}
