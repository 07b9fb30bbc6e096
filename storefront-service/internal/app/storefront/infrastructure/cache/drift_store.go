package cache

import (
	"context"
	"fmt"
	"time"

	"promomarket/pkg/logger"
	"promomarket/pkg/metrics"
	"promomarket/storefront-service/internal/app/storefront/entity"

	"github.com/redis/go-redis/v9"
)

const (
	driftKey       = "reconcile:pending"
	metricsService = "storefront"
)

// RedisDriftStore - множество в Redis с тройками, ожидающими пересинхронизации.
// SADD делает повторную запись той же тройки идемпотентной.
type RedisDriftStore struct {
	client *redis.Client
}

func NewRedisDriftStore(client *redis.Client) *RedisDriftStore {
	return &RedisDriftStore{client: client}
}

// NewRedisClient подключается к Redis и проверяет соединение
func NewRedisClient(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}

func (s *RedisDriftStore) Record(ctx context.Context, entry entity.DriftEntry) error {
	timer := metrics.NewRedisTimer(metricsService, metrics.RedisOpSAdd)
	defer timer.ObserveDuration()

	if err := s.client.SAdd(ctx, driftKey, entry.Key()).Err(); err != nil {
		metrics.RecordRedisError(metricsService, metrics.RedisOpSAdd)
		return fmt.Errorf("failed to record drift entry: %w", err)
	}

	return nil
}

// Pending возвращает не более limit записей. Нераспознанные значения удаляются из множества.
func (s *RedisDriftStore) Pending(ctx context.Context, limit int64) ([]entity.DriftEntry, error) {
	timer := metrics.NewRedisTimer(metricsService, metrics.RedisOpSMembers)
	members, err := s.client.SMembers(ctx, driftKey).Result()
	timer.ObserveDuration()
	if err != nil {
		metrics.RecordRedisError(metricsService, metrics.RedisOpSMembers)
		return nil, fmt.Errorf("failed to read drift entries: %w", err)
	}

	entries := make([]entity.DriftEntry, 0, len(members))
	for _, raw := range members {
		if limit > 0 && int64(len(entries)) >= limit {
			break
		}

		entry, err := entity.ParseDriftEntry(raw)
		if err != nil {
			logger.Warn().Err(err).Msg("Dropping malformed drift entry")
			if remErr := s.client.SRem(ctx, driftKey, raw).Err(); remErr != nil {
				metrics.RecordRedisError(metricsService, metrics.RedisOpSRem)
			}
			continue
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func (s *RedisDriftStore) Resolve(ctx context.Context, entry entity.DriftEntry) error {
	timer := metrics.NewRedisTimer(metricsService, metrics.RedisOpSRem)
	defer timer.ObserveDuration()

	if err := s.client.SRem(ctx, driftKey, entry.Key()).Err(); err != nil {
		metrics.RecordRedisError(metricsService, metrics.RedisOpSRem)
		return fmt.Errorf("failed to resolve drift entry: %w", err)
	}

	return nil
}

// Size также обновляет gauge DriftPending
func (s *RedisDriftStore) Size(ctx context.Context) (int64, error) {
	timer := metrics.NewRedisTimer(metricsService, metrics.RedisOpSCard)
	defer timer.ObserveDuration()

	size, err := s.client.SCard(ctx, driftKey).Result()
	if err != nil {
		metrics.RecordRedisError(metricsService, metrics.RedisOpSCard)
		return 0, fmt.Errorf("failed to count drift entries: %w", err)
	}

	metrics.DriftPending.Set(float64(size))
	return size, nil
}
