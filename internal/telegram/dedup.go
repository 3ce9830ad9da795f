package telegram

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	dedupPrefix = "tg:update:"
	dedupTTL    = 24 * time.Hour
)

// Deduper remembers update ids so redelivered updates are handled once.
type Deduper interface {
	Seen(ctx context.Context, updateID int) (bool, error)
}

// NopDeduper treats every update as new.
type NopDeduper struct{}

func (NopDeduper) Seen(context.Context, int) (bool, error) { return false, nil }

// RedisDeduper records update ids with SET NX and a 24h expiry.
type RedisDeduper struct {
	client *redis.Client
}

func NewRedisDeduper(client *redis.Client) *RedisDeduper {
	return &RedisDeduper{client: client}
}

// Seen reports whether updateID was already recorded, recording it if not.
func (d *RedisDeduper) Seen(ctx context.Context, updateID int) (bool, error) {
	ok, err := d.client.SetNX(ctx, dedupPrefix+strconv.Itoa(updateID), 1, dedupTTL).Result()
	if err != nil {
		return false, err
	}
	return !ok, nil
}
