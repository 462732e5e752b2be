package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/andresuchdata/pharma-inventory/backend-go/internal/config"
	"github.com/andresuchdata/pharma-inventory/backend-go/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	forecastAllKeyPrefix  = "forecast:all"
	forecastScanBatchSize = 100
)

// ForecastCache shields the batch forecast path from repeated recomputation.
// Only the forecast-all result is cached; single-drug forecasts are cheap
// enough to compute per request. Entries are invalidated wholesale on model
// reload.
type ForecastCache interface {
	GetAll(ctx context.Context, horizonDays int) ([]domain.DrugForecast, bool, error)
	SetAll(ctx context.Context, horizonDays int, forecasts []domain.DrugForecast) error
	InvalidateAll(ctx context.Context) error
}

type redisForecastCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopForecastCache struct{}

func NewForecastCache(cfg config.CacheConfig) (ForecastCache, error) {
	if !cfg.Enabled {
		return &noopForecastCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisForecastCache{
		client: client,
		ttl:    ttl,
	}, nil
}

func NewNoopForecastCache() ForecastCache {
	return &noopForecastCache{}
}

func (c *redisForecastCache) GetAll(ctx context.Context, horizonDays int) ([]domain.DrugForecast, bool, error) {
	key := buildForecastAllKey(horizonDays)

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var forecasts []domain.DrugForecast
	if err := json.Unmarshal(payload, &forecasts); err != nil {
		return nil, false, fmt.Errorf("decode forecast cache: %w", err)
	}

	return forecasts, true, nil
}

func (c *redisForecastCache) SetAll(ctx context.Context, horizonDays int, forecasts []domain.DrugForecast) error {
	key := buildForecastAllKey(horizonDays)
	payload, err := json.Marshal(forecasts)
	if err != nil {
		return fmt.Errorf("encode forecast cache: %w", err)
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisForecastCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, forecastAllKeyPrefix, forecastScanBatchSize)
}

func (n *noopForecastCache) GetAll(ctx context.Context, horizonDays int) ([]domain.DrugForecast, bool, error) {
	return nil, false, nil
}

func (n *noopForecastCache) SetAll(ctx context.Context, horizonDays int, forecasts []domain.DrugForecast) error {
	return nil
}

func (n *noopForecastCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildForecastAllKey(horizonDays int) string {
	return forecastAllKeyPrefix + ":h" + strconv.Itoa(horizonDays)
}
