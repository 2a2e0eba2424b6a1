package geocode

import (
	"context"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/leapstack-labs/leapmap/internal/metrics"
	"github.com/leapstack-labs/leapmap/pkg/core"
)

// DefaultCacheTTL is how long a resolved place is remembered.
const DefaultCacheTTL = 24 * time.Hour

// DefaultCacheSize caps the number of remembered places.
const DefaultCacheSize = 10000

// CachedOracle answers places it has already resolved locally and forwards
// only the misses to the next oracle, in one call. Unresolved places are
// never cached, so they are retried on the next action.
type CachedOracle struct {
	next    Oracle
	cache   *ttlcache.Cache[string, core.GeocodedLocation]
	metrics *metrics.Metrics
	stop    sync.Once
}

// NewCached wraps next with a TTL cache. Call Close to stop the expiry loop.
func NewCached(next Oracle, ttl time.Duration, size uint64, m *metrics.Metrics) *CachedOracle {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if size == 0 {
		size = DefaultCacheSize
	}
	cache := ttlcache.New[string, core.GeocodedLocation](
		ttlcache.WithTTL[string, core.GeocodedLocation](ttl),
		ttlcache.WithCapacity[string, core.GeocodedLocation](size),
	)
	go cache.Start()
	return &CachedOracle{next: next, cache: cache, metrics: m}
}

// Geocode implements Oracle.
func (c *CachedOracle) Geocode(ctx context.Context, places []string) ([]core.GeocodedLocation, error) {
	places = dedupe(places)

	var hits []core.GeocodedLocation
	var misses []string
	for _, p := range places {
		if item := c.cache.Get(p); item != nil {
			hits = append(hits, item.Value())
			continue
		}
		misses = append(misses, p)
	}
	c.metrics.CacheLookup(len(hits), len(misses))

	if len(misses) == 0 {
		return hits, nil
	}

	fresh, err := c.next.Geocode(ctx, misses)
	if err != nil {
		return nil, err
	}
	for _, loc := range fresh {
		c.cache.Set(loc.Location, loc, ttlcache.DefaultTTL)
	}
	return append(hits, fresh...), nil
}

// Len reports the number of cached places.
func (c *CachedOracle) Len() int {
	return c.cache.Len()
}

// Close stops the background expiry loop. Later calls do nothing.
func (c *CachedOracle) Close() {
	c.stop.Do(c.cache.Stop)
}
