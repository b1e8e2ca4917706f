package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultVectorTTL = 7 * 24 * time.Hour

// Cache stores keyword-set embedding vectors in Redis so they survive restarts
// and are shared between service instances.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(ctx context.Context, addr string, ttl time.Duration) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if ttl <= 0 {
		ttl = DefaultVectorTTL
	}

	slog.Info("Connected to Redis", "addr", addr)

	return &Cache{
		client: client,
		ttl:    ttl,
	}, nil
}

// VectorKey generates a fixed-length cache key for a keyword-set key
func VectorKey(setKey string) string {
	hash := sha256.Sum256([]byte(setKey))
	return fmt.Sprintf("vec:%x", hash[:16])
}

func (c *Cache) GetVector(ctx context.Context, setKey string) ([]float32, bool, error) {
	key := VectorKey(setKey)

	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get key %s: %w", key, err)
	}

	var vector []float32
	if err := json.Unmarshal(data, &vector); err != nil {
		// Treat unreadable entries as a miss and drop them
		c.client.Del(ctx, key)
		return nil, false, nil
	}

	return vector, true, nil
}

func (c *Cache) SetVector(ctx context.Context, setKey string, vector []float32) error {
	key := VectorKey(setKey)

	data, err := json.Marshal(vector)
	if err != nil {
		return fmt.Errorf("failed to marshal vector for key %s: %w", key, err)
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}

	return nil
}

func (c *Cache) Close() error {
	return c.client.Close()
}

// Health returns cache health information
func (c *Cache) Health(ctx context.Context) map[string]interface{} {
	health := map[string]interface{}{
		"status": "healthy",
		"type":   "redis",
	}

	if err := c.client.Ping(ctx).Err(); err != nil {
		health["status"] = "unhealthy"
		health["error"] = err.Error()
		return health
	}

	if dbSize, err := c.client.DBSize(ctx).Result(); err == nil {
		health["key_count"] = dbSize
	}

	return health
}
