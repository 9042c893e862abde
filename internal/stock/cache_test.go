package stock

import (
	"context"
	"testing"
	"time"

	"apparel-order-service/internal/models"
	"apparel-order-service/internal/vendor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingFetcher struct {
	snapshot *models.StockSnapshot
	err      error
	calls    int
}

func (c *countingFetcher) Snapshot(ctx context.Context, styleCode string) (*models.StockSnapshot, error) {
	c.calls++
	return c.snapshot, c.err
}

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

func TestCacheSingleFetchWithinTTL(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	fetcher := &countingFetcher{snapshot: &models.StockSnapshot{StyleCode: "3600"}}
	cache := NewCache(fetcher, 5*time.Minute, clock.Now)

	first, err := cache.GetOrFetch(context.Background(), "3600")
	require.NoError(t, err)

	clock.Advance(4 * time.Minute)
	second, err := cache.GetOrFetch(context.Background(), "3600")
	require.NoError(t, err)

	assert.Equal(t, 1, fetcher.calls, "second read within the TTL must not hit the vendor")
	assert.Same(t, first, second)
}

func TestCacheRefetchesAfterExpiry(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	fetcher := &countingFetcher{snapshot: &models.StockSnapshot{StyleCode: "3600"}}
	cache := NewCache(fetcher, 5*time.Minute, clock.Now)

	_, err := cache.GetOrFetch(context.Background(), "3600")
	require.NoError(t, err)

	clock.Advance(5*time.Minute + time.Second)
	_, err = cache.GetOrFetch(context.Background(), "3600")
	require.NoError(t, err)

	assert.Equal(t, 2, fetcher.calls)
}

func TestCacheNegativeEntriesExpire(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	fetcher := &countingFetcher{err: &models.StockUnavailableError{StyleCode: "3600"}}
	cache := NewCache(fetcher, 5*time.Minute, clock.Now)

	snap, err := cache.GetOrFetch(context.Background(), "3600")
	assert.Nil(t, snap)
	assert.Error(t, err)

	// Within the window the failure is served from cache, no retry storm.
	clock.Advance(time.Minute)
	snap, err = cache.GetOrFetch(context.Background(), "3600")
	assert.Nil(t, snap)
	var unavailable *models.StockUnavailableError
	assert.ErrorAs(t, err, &unavailable)
	assert.Equal(t, 1, fetcher.calls)

	// After expiry the vendor is retried, so an outage cannot poison the
	// rest of the session.
	fetcher.err = nil
	fetcher.snapshot = &models.StockSnapshot{StyleCode: "3600"}
	clock.Advance(5 * time.Minute)

	snap, err = cache.GetOrFetch(context.Background(), "3600")
	require.NoError(t, err)
	assert.NotNil(t, snap)
	assert.Equal(t, 2, fetcher.calls)
}

func TestCacheHitPreservesFetchError(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	fetcher := &countingFetcher{err: &models.StockUnavailableError{StyleCode: "9999", Cause: vendor.ErrStyleNotFound}}
	cache := NewCache(fetcher, 5*time.Minute, clock.Now)

	_, first := cache.GetOrFetch(context.Background(), "9999")
	require.ErrorIs(t, first, vendor.ErrStyleNotFound)

	// The cached hit must carry the same cause as the fetch it memoized,
	// so callers keep distinguishing not-found from a transport outage.
	clock.Advance(time.Minute)
	_, second := cache.GetOrFetch(context.Background(), "9999")
	require.ErrorIs(t, second, vendor.ErrStyleNotFound)
	assert.Equal(t, 1, fetcher.calls)
}

func TestCacheKeysByStyle(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	fetcher := &countingFetcher{snapshot: &models.StockSnapshot{}}
	cache := NewCache(fetcher, 5*time.Minute, clock.Now)

	_, _ = cache.GetOrFetch(context.Background(), "3600")
	_, _ = cache.GetOrFetch(context.Background(), "6240")
	_, _ = cache.GetOrFetch(context.Background(), "3600")

	assert.Equal(t, 2, fetcher.calls)
}
