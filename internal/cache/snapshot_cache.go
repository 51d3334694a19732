// Package cache keeps the last reconciled snapshot in Redis so a restarted
// process can serve stale-but-consistent dossiers before its first pass.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stwalsh4118/dossier/api/internal/config"
	"github.com/stwalsh4118/dossier/api/internal/models"
)

const snapshotFormatVersion = 1

// kv is the subset of the Redis client the cache uses.
type kv interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// NewClient connects to Redis. Returns nil, nil if the URL is empty
// (cache not configured).
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}

type envelope struct {
	Version  int              `json:"version"`
	Snapshot *models.Snapshot `json:"snapshot"`
}

// SnapshotCache stores one snapshot under a fixed key.
type SnapshotCache struct {
	client kv
	key    string
	ttl    time.Duration
}

// NewSnapshotCache creates a cache over client. A zero ttl keeps the entry
// until it is overwritten.
func NewSnapshotCache(client kv, key string, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{client: client, key: key, ttl: ttl}
}

// Save overwrites the cached snapshot.
func (c *SnapshotCache) Save(ctx context.Context, snapshot *models.Snapshot) error {
	payload, err := json.Marshal(envelope{Version: snapshotFormatVersion, Snapshot: snapshot})
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	if err := c.client.Set(ctx, c.key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("store snapshot: %w", err)
	}
	return nil
}

// Load returns the cached snapshot. Returns nil, nil when nothing is cached
// or the entry was written by an incompatible format version.
func (c *SnapshotCache) Load(ctx context.Context) (*models.Snapshot, error) {
	payload, err := c.client.Get(ctx, c.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if env.Version != snapshotFormatVersion {
		return nil, nil
	}

	return env.Snapshot, nil
}
