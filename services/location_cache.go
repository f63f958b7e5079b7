package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"trono-server/models"
)

// DefaultLocationCacheKey is the storage slot for the last known position.
const DefaultLocationCacheKey = "trono_user_location"

// LocationCache is a single durable slot holding the last known position.
// Get reports absence instead of failing; Set is best effort.
type LocationCache interface {
	Get(ctx context.Context) (models.Position, bool)
	Set(ctx context.Context, pos models.Position)
}

// RedisLocationCache stores the position as JSON under one key, without expiry.
type RedisLocationCache struct {
	client *redis.Client
	key    string
	logger *slog.Logger
}

func NewRedisLocationCache(client *redis.Client, key string, logger *slog.Logger) *RedisLocationCache {
	if key == "" {
		key = DefaultLocationCacheKey
	}
	return &RedisLocationCache{client: client, key: key, logger: logger}
}

// cachedPosition uses pointers so a missing coordinate can be told apart from zero.
// Accuracy and timestamp are optional; a value of the wrong type is dropped, not fatal.
type cachedPosition struct {
	Latitude  *float64        `json:"latitude"`
	Longitude *float64        `json:"longitude"`
	Accuracy  json.RawMessage `json:"accuracy"`
	Timestamp json.RawMessage `json:"timestamp"`
}

func (c cachedPosition) position() models.Position {
	pos := models.Position{Latitude: *c.Latitude, Longitude: *c.Longitude}
	if len(c.Accuracy) > 0 {
		var accuracy float64
		if json.Unmarshal(c.Accuracy, &accuracy) == nil {
			pos.Accuracy = accuracy
		}
	}
	if len(c.Timestamp) > 0 {
		var ts time.Time
		if json.Unmarshal(c.Timestamp, &ts) == nil {
			pos.Timestamp = ts
		}
	}
	return pos
}

// Get returns the persisted position. Missing, unreachable and malformed values all read as absent.
func (c *RedisLocationCache) Get(ctx context.Context) (models.Position, bool) {
	if c == nil || c.client == nil {
		return models.Position{}, false
	}

	raw, err := c.client.Get(ctx, c.key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.DebugContext(ctx, "location cache read failed", slog.String("key", c.key), slog.Any("error", err))
		}
		return models.Position{}, false
	}

	var stored cachedPosition
	if err := json.Unmarshal(raw, &stored); err != nil {
		c.logger.DebugContext(ctx, "discarding malformed cached location", slog.String("key", c.key), slog.Any("error", err))
		return models.Position{}, false
	}
	if stored.Latitude == nil || stored.Longitude == nil {
		return models.Position{}, false
	}

	return stored.position(), true
}

// Set overwrites the slot. Failures are logged and dropped.
func (c *RedisLocationCache) Set(ctx context.Context, pos models.Position) {
	if c == nil || c.client == nil {
		return
	}

	data, err := json.Marshal(pos)
	if err != nil {
		c.logger.DebugContext(ctx, "failed to encode location", slog.Any("error", err))
		return
	}
	if err := c.client.Set(ctx, c.key, data, 0).Err(); err != nil {
		c.logger.DebugContext(ctx, "location cache write failed", slog.String("key", c.key), slog.Any("error", err))
	}
}
