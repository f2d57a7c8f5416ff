package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisCache mirrors device records into Redis as a fast read-through
// cache for tools that want current device state without opening the
// YAML store (e.g. a CLI running against a live host from another
// process). It is optional: the YAML store is always the source of
// truth, Redis is a best-effort shadow. Grounded on teacher
// pkg/device/appldb.go's Redis client wrapper.
type RedisCache struct {
	client *redis.Client
	ctx    context.Context
	prefix string
}

// NewRedisCache opens a Redis client against addr. The connection is
// lazy; Connect verifies reachability.
func NewRedisCache(addr, prefix string) *RedisCache {
	return &RedisCache{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		ctx:    context.Background(),
		prefix: prefix,
	}
}

// Connect verifies the Redis connection is reachable.
func (c *RedisCache) Connect() error {
	return c.client.Ping(c.ctx).Err()
}

// Close closes the underlying Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) key(deviceUID string) string {
	return fmt.Sprintf("%s:device:%s", c.prefix, deviceUID)
}

// MirrorDevice writes a device record's JSON encoding to Redis with a
// short TTL, refreshed on every write so a stopped host's shadow entries
// expire rather than go stale forever.
func (c *RedisCache) MirrorDevice(deviceUID string, r DeviceRecord) error {
	raw, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("rediscache: marshaling device %s: %w", deviceUID, err)
	}
	return c.client.Set(c.ctx, c.key(deviceUID), raw, 24*time.Hour).Err()
}

// Device reads a device record's cached mirror, returning ok=false on a
// cache miss (callers fall back to the YAML store).
func (c *RedisCache) Device(deviceUID string) (DeviceRecord, bool, error) {
	raw, err := c.client.Get(c.ctx, c.key(deviceUID)).Bytes()
	if err == redis.Nil {
		return DeviceRecord{}, false, nil
	}
	if err != nil {
		return DeviceRecord{}, false, fmt.Errorf("rediscache: reading device %s: %w", deviceUID, err)
	}
	var r DeviceRecord
	if err := json.Unmarshal(raw, &r); err != nil {
		return DeviceRecord{}, false, fmt.Errorf("rediscache: decoding device %s: %w", deviceUID, err)
	}
	return r, true, nil
}
