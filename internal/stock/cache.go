package stock

import (
	"context"
	"sync"
	"time"

	"apparel-order-service/internal/models"
	"apparel-order-service/internal/util"
)

// SnapshotFetcher is the slice of Fetcher the cache depends on.
type SnapshotFetcher interface {
	Snapshot(ctx context.Context, styleCode string) (*models.StockSnapshot, error)
}

type cacheEntry struct {
	snapshot  *models.StockSnapshot
	err       error
	fetchedAt time.Time
}

// Cache is a process-wide, time-boxed memoization of stock snapshots keyed
// by style code. Failed fetches are cached too, error included, under the
// same TTL: a transient vendor outage is not retried on every request, a
// cached hit answers exactly like the fetch it memoized, and the entry
// expires like any other.
type Cache struct {
	fetcher SnapshotFetcher
	ttl     time.Duration
	clock   func() time.Time

	mu      sync.Mutex
	entries map[string]cacheEntry
}

// NewCache creates a snapshot cache. The clock is injected so expiry is
// testable; pass time.Now in production wiring.
func NewCache(fetcher SnapshotFetcher, ttl time.Duration, clock func() time.Time) *Cache {
	if clock == nil {
		clock = time.Now
	}
	return &Cache{
		fetcher: fetcher,
		ttl:     ttl,
		clock:   clock,
		entries: make(map[string]cacheEntry),
	}
}

// GetOrFetch returns the cached snapshot for a style if it is younger than
// the TTL, otherwise fetches fresh and replaces the entry wholesale. A nil
// snapshot with a nil error never occurs; nil snapshot always pairs with a
// StockUnavailableError.
func (c *Cache) GetOrFetch(ctx context.Context, styleCode string) (*models.StockSnapshot, error) {
	c.mu.Lock()
	entry, ok := c.entries[styleCode]
	if ok && c.clock().Sub(entry.fetchedAt) < c.ttl {
		c.mu.Unlock()
		util.StockCacheHitsTotal.Inc()
		return entry.snapshot, entry.err
	}
	c.mu.Unlock()

	snap, err := c.fetcher.Snapshot(ctx, styleCode)

	c.mu.Lock()
	c.entries[styleCode] = cacheEntry{snapshot: snap, err: err, fetchedAt: c.clock()}
	c.mu.Unlock()

	return snap, err
}
