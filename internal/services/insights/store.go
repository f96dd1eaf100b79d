package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/promoter-admin-go/internal/config"
	"github.com/promoter-admin-go/internal/models"
	"github.com/sirupsen/logrus"
)

// Store holds the single cached insight slot. Expiry is checked lazily on
// access; an expired report stays retrievable through GetStale until the next
// successful Set replaces it.
type Store interface {
	// Get returns the cached report if it has not expired.
	Get(ctx context.Context) (*models.InsightReport, bool)
	// GetStale returns the cached report even when expired.
	GetStale(ctx context.Context) (*models.InsightReport, bool)
	// Set replaces the slot wholesale.
	Set(ctx context.Context, report *models.InsightReport, expiresAt time.Time) error
}

// NewStore selects the configured store backend.
func NewStore(cfg *config.InsightsConfig, now func() time.Time, logger *logrus.Logger) (Store, error) {
	switch cfg.Store {
	case "redis":
		return newRedisStore(&cfg.Redis, now, logger)
	case "memory":
		return newMemoryStore(now), nil
	default:
		return nil, fmt.Errorf("unsupported insights store: %s", cfg.Store)
	}
}

// memoryStore keeps the slot in process memory behind a mutex. Readers never
// observe a partially written report because Set swaps the pointer whole.
type memoryStore struct {
	mu        sync.RWMutex
	report    *models.InsightReport
	expiresAt time.Time
	now       func() time.Time
}

func newMemoryStore(now func() time.Time) *memoryStore {
	return &memoryStore{now: now}
}

func (s *memoryStore) Get(ctx context.Context) (*models.InsightReport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.report == nil || !s.now().Before(s.expiresAt) {
		return nil, false
	}
	return s.report, true
}

func (s *memoryStore) GetStale(ctx context.Context) (*models.InsightReport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.report == nil {
		return nil, false
	}
	return s.report, true
}

func (s *memoryStore) Set(ctx context.Context, report *models.InsightReport, expiresAt time.Time) error {
	s.mu.Lock()
	s.report = report
	s.expiresAt = expiresAt
	s.mu.Unlock()
	return nil
}

// redisStore shares the slot across replicas. The redis key is retained well
// past the logical expiry so a stale report survives failed regenerations;
// the ExpiresAt carried in the payload decides freshness.
type redisStore struct {
	client *redis.Client
	now    func() time.Time
	logger *logrus.Logger
}

const (
	redisKey       = "insights:latest"
	redisRetention = 24 * time.Hour
)

type redisEntry struct {
	Report    models.InsightReport `json:"report"`
	ExpiresAt time.Time            `json:"expires_at"`
}

func newRedisStore(cfg *config.RedisConfig, now func() time.Time, logger *logrus.Logger) (*redisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &redisStore{client: client, now: now, logger: logger}, nil
}

func (s *redisStore) load(ctx context.Context) (*redisEntry, bool) {
	data, err := s.client.Get(ctx, redisKey).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		s.logger.WithError(err).Warn("Failed to read insight cache from redis")
		return nil, false
	}

	var entry redisEntry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		s.logger.WithError(err).Warn("Corrupt insight cache entry in redis")
		return nil, false
	}
	return &entry, true
}

func (s *redisStore) Get(ctx context.Context) (*models.InsightReport, bool) {
	entry, ok := s.load(ctx)
	if !ok || !s.now().Before(entry.ExpiresAt) {
		return nil, false
	}
	return &entry.Report, true
}

func (s *redisStore) GetStale(ctx context.Context) (*models.InsightReport, bool) {
	entry, ok := s.load(ctx)
	if !ok {
		return nil, false
	}
	return &entry.Report, true
}

func (s *redisStore) Set(ctx context.Context, report *models.InsightReport, expiresAt time.Time) error {
	data, err := json.Marshal(&redisEntry{Report: *report, ExpiresAt: expiresAt})
	if err != nil {
		return err
	}
	return s.client.Set(ctx, redisKey, data, redisRetention).Err()
}
