package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/repricing/config"
	"github.com/Domenick1991/repricing/internal/domain"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client      *redis.Client
	airportsTTL time.Duration
}

func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
}

func NewRedisCache(client *redis.Client, airportsTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:      client,
		airportsTTL: airportsTTL,
	}
}

// GetAirports returns the cached airports among codes, keyed by upper-case IATA code.
// Misses are simply absent from the map.
func (c *RedisCache) GetAirports(ctx context.Context, codes []string) (map[string]domain.Airport, error) {
	if len(codes) == 0 {
		return map[string]domain.Airport{}, nil
	}
	keys := make([]string, len(codes))
	for i, code := range codes {
		keys[i] = airportKey(code)
	}

	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	found := make(map[string]domain.Airport, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var airport domain.Airport
		if err := json.Unmarshal([]byte(s), &airport); err != nil {
			return nil, fmt.Errorf("decode cached airport: %w", err)
		}
		found[strings.ToUpper(airport.IATACode)] = airport
	}
	return found, nil
}

func (c *RedisCache) SetAirports(ctx context.Context, airports []domain.Airport) error {
	if len(airports) == 0 {
		return nil
	}
	pipe := c.client.Pipeline()
	for _, airport := range airports {
		payload, err := json.Marshal(airport)
		if err != nil {
			return err
		}
		pipe.Set(ctx, airportKey(airport.IATACode), payload, c.airportsTTL)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func airportKey(code string) string {
	return "cache:airport:" + strings.ToUpper(strings.TrimSpace(code))
}
