package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jdelmundo/flightreserve/config"
	"github.com/jdelmundo/flightreserve/internal/domain"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client     *redis.Client
	flightsTTL time.Duration
	seatMapTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, flightsTTL, seatMapTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:     redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		flightsTTL: flightsTTL,
		seatMapTTL: seatMapTTL,
	}
}

func (c *RedisCache) GetFlights(ctx context.Context) ([]domain.Flight, error) {
	data, err := c.client.Get(ctx, flightsKey()).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var flights []domain.Flight
	if err := json.Unmarshal(data, &flights); err != nil {
		return nil, err
	}
	return flights, nil
}

func (c *RedisCache) SetFlights(ctx context.Context, flights []domain.Flight) error {
	payload, err := json.Marshal(flights)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, flightsKey(), payload, c.flightsTTL).Err()
}

// GetSeatMap returns the cached seat map for a flight/date, or nil on a
// cache miss. A miss is not an error, the caller falls through to the
// database.
func (c *RedisCache) GetSeatMap(ctx context.Context, flightID int64, date string) (map[string]bool, error) {
	data, err := c.client.Get(ctx, seatMapKey(flightID, date)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var seats map[string]bool
	if err := json.Unmarshal(data, &seats); err != nil {
		return nil, err
	}
	return seats, nil
}

func (c *RedisCache) SetSeatMap(ctx context.Context, flightID int64, date string, seats map[string]bool) error {
	payload, err := json.Marshal(seats)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, seatMapKey(flightID, date), payload, c.seatMapTTL).Err()
}

func (c *RedisCache) InvalidateSeatMap(ctx context.Context, flightID int64, date string) error {
	return c.client.Del(ctx, seatMapKey(flightID, date)).Err()
}

// AcquireSeatHold takes a short-lived advisory hold on a seat. It only
// thins out doomed inserts; the partial unique index in Postgres is the
// actual guarantee.
func (c *RedisCache) AcquireSeatHold(ctx context.Context, flightID int64, date, seat string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, seatHoldKey(flightID, date, seat), "held", ttl).Result()
}

func (c *RedisCache) ReleaseSeatHold(ctx context.Context, flightID int64, date, seat string) error {
	return c.client.Del(ctx, seatHoldKey(flightID, date, seat)).Err()
}

func flightsKey() string {
	return "cache:flights"
}

func seatMapKey(flightID int64, date string) string {
	return fmt.Sprintf("cache:seatmap:%d:%s", flightID, date)
}

func seatHoldKey(flightID int64, date, seat string) string {
	return fmt.Sprintf("hold:flight:%d:%s:seat:%s", flightID, date, seat)
}
