// Package cache stores rendered list responses so repeated catalog reads
// skip the database. Entries live in Redis when REDIS_URL is configured and
// in process memory otherwise. Every entry expires after the configured TTL
// (two hours by default) and the whole cache can be flushed on demand.
package cache

import (
	"context"
	"time"
)

// KeyPrefix namespaces every cached page in a shared Redis.
const KeyPrefix = "catalog:page:"

// Store is the backing storage for cached responses.
type Store interface {
	// Get returns the cached value for key. The bool is false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Flush removes every cached page and returns how many were removed.
	Flush(ctx context.Context) (int, error)

	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error
}
