package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/cafebooking/config"
	"github.com/Domenick1991/cafebooking/internal/domain"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client          *redis.Client
	availabilityTTL time.Duration
}

func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
}

func NewRedisCache(client *redis.Client, availabilityTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:          client,
		availabilityTTL: availabilityTTL,
	}
}

func (c *RedisCache) GetAvailability(ctx context.Context, cafeID int64, date time.Time) ([]domain.SlotAvailability, error) {
	data, err := c.client.Get(ctx, availabilityKey(cafeID, date)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var slots []domain.SlotAvailability
	if err := json.Unmarshal(data, &slots); err != nil {
		return nil, err
	}
	return slots, nil
}

func (c *RedisCache) SetAvailability(ctx context.Context, cafeID int64, date time.Time, slots []domain.SlotAvailability) error {
	payload, err := json.Marshal(slots)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, availabilityKey(cafeID, date), payload, c.availabilityTTL).Err()
}

func (c *RedisCache) InvalidateAvailability(ctx context.Context, cafeID int64, date time.Time) error {
	return c.client.Del(ctx, availabilityKey(cafeID, date)).Err()
}

func availabilityKey(cafeID int64, date time.Time) string {
	return fmt.Sprintf("cache:availability:cafe:%d:%s", cafeID, domain.DateOf(date).Format(domain.DateLayout))
}
