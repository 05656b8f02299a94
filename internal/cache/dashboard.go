// dashboard.go provides a Valkey-backed cache of rendered dashboard pages.
// The dashboard joins tallies, catalog names, and two seasons of insight
// figures on every load; caching the rendered HTML per year skips all of
// that until the next data change.
package cache

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// dashboardKeyPrefix namespaces cached dashboard pages in Valkey.
	dashboardKeyPrefix = "dashboard:"

	// DefaultDashboardTTL caps staleness when an invalidation is missed.
	DefaultDashboardTTL = 5 * time.Minute
)

// DashboardCache manages rendered dashboard HTML in Valkey. A nil client
// disables caching entirely: every method becomes a no-op miss, so the
// application works unchanged without a Valkey instance.
type DashboardCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDashboardCache creates a dashboard cache backed by the given Valkey
// client, which may be nil.
func NewDashboardCache(client *redis.Client, ttl time.Duration) *DashboardCache {
	if ttl == 0 {
		ttl = DefaultDashboardTTL
	}
	return &DashboardCache{client: client, ttl: ttl}
}

// YearKey returns the cache key for a season's dashboard.
func YearKey(year int) string {
	return strconv.Itoa(year)
}

// Get retrieves cached HTML for a key. Returns false on miss.
func (dc *DashboardCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if dc.client == nil {
		return nil, false
	}
	val, err := dc.client.Get(ctx, dashboardKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("dashboard cache get error", "key", key, "error", err)
		return nil, false
	}
	slog.Debug("dashboard cache hit", "key", key)
	return val, true
}

// Set stores rendered HTML for a key with the configured TTL.
func (dc *DashboardCache) Set(ctx context.Context, key string, html []byte) {
	if dc.client == nil {
		return
	}
	if err := dc.client.Set(ctx, dashboardKeyPrefix+key, html, dc.ttl).Err(); err != nil {
		slog.Warn("dashboard cache set error", "key", key, "error", err)
	}
}

// InvalidateAll removes every cached dashboard page. Mutations call this
// after commit: a tally change alters the selected year's page, and a
// catalog rename or merge can change names on any year, so everything goes.
func (dc *DashboardCache) InvalidateAll(ctx context.Context) {
	if dc.client == nil {
		return
	}
	var cursor uint64
	var deleted int
	for {
		keys, nextCursor, err := dc.client.Scan(ctx, cursor, dashboardKeyPrefix+"*", 100).Result()
		if err != nil {
			slog.Warn("dashboard cache scan error", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := dc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("dashboard cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	if deleted > 0 {
		slog.Debug("dashboard cache cleared", "deleted", deleted)
	}
}
