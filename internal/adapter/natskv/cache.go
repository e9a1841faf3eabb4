// Package natskv implements the cache port using NATS JetStream KV as L2 remote cache.
package natskv

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// Cache wraps a NATS JetStream KeyValue bucket shared by all seogov
// instances. Entry lifetime is the bucket TTL.
type Cache struct {
	kv     jetstream.KeyValue
	prefix string
}

// New creates a NATS KV-backed cache. Keys are stored under prefix.
func New(kv jetstream.KeyValue, prefix string) *Cache {
	return &Cache{kv: kv, prefix: prefix}
}

// storageKey maps an arbitrary cache key (typically a URL) onto the KV
// key alphabet.
func (c *Cache) storageKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	if c.prefix == "" {
		return hex.EncodeToString(sum[:])
	}
	return c.prefix + "." + hex.EncodeToString(sum[:])
}

func (c *Cache) Get(ctx context.Context, key string) (data []byte, ok bool, err error) {
	entry, err := c.kv.Get(ctx, c.storageKey(key))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return entry.Value(), true, nil
}

// Set stores a value. The per-entry ttl is ignored in favour of the bucket TTL.
func (c *Cache) Set(ctx context.Context, key string, value []byte, _ time.Duration) error {
	_, err := c.kv.Put(ctx, c.storageKey(key), value)
	return err
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	err := c.kv.Delete(ctx, c.storageKey(key))
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil
	}
	return err
}
