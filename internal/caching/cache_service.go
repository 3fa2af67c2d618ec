package caching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"userbase/internal/models"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned when the requested entry is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

const inactiveReportKey = "reports:inactive_users"

type CacheService interface {
	// Inactive users report caching
	GetInactiveReport(ctx context.Context) ([]*models.User, error)
	SetInactiveReport(ctx context.Context, users []*models.User, ttl time.Duration) error
	InvalidateInactiveReport(ctx context.Context) error

	Ping(ctx context.Context) error
}

type redisCacheService struct {
	client *redis.Client
}

func NewRedisCacheService(addr, password string, db int) CacheService {
	// Accept redis:// style addresses as well as bare host:port.
	parsedAddr := addr
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		if hostPort := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://"); hostPort != addr {
			parsedAddr = hostPort
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		log.Printf("WARN: Redis ping failed on initialization: %v (address: %s)", pingErr, parsedAddr)
	}

	return &redisCacheService{client: client}
}

func (s *redisCacheService) GetInactiveReport(ctx context.Context) ([]*models.User, error) {
	payload, err := s.client.Get(ctx, inactiveReportKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read inactive report from cache: %w", err)
	}

	var users []*models.User
	if err := json.Unmarshal([]byte(payload), &users); err != nil {
		// A corrupt entry is treated as a miss so callers recompute.
		log.Printf("WARN: dropping corrupt inactive report cache entry: %v", err)
		s.client.Del(ctx, inactiveReportKey)
		return nil, ErrCacheMiss
	}
	return users, nil
}

func (s *redisCacheService) SetInactiveReport(ctx context.Context, users []*models.User, ttl time.Duration) error {
	payload, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("failed to marshal inactive report: %w", err)
	}
	return s.client.Set(ctx, inactiveReportKey, payload, ttl).Err()
}

func (s *redisCacheService) InvalidateInactiveReport(ctx context.Context) error {
	return s.client.Del(ctx, inactiveReportKey).Err()
}

func (s *redisCacheService) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
