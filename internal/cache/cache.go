// Package cache holds finished search results in memory so repeated
// queries skip upstream entirely. Entries expire on a fixed TTL; a
// periodic sweep keeps the map from accumulating dead entries between
// reads.
package cache

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/memescout/memescout/internal/extractor"
	"github.com/memescout/memescout/internal/metadata"
	"github.com/memescout/memescout/pkg/hashutil"
)

const DefaultTTL = 24 * time.Hour

const DefaultSweepInterval = time.Hour

type entry struct {
	records  []extractor.MemeRecord
	storedAt time.Time
}

type ResponseCache struct {
	mu           sync.RWMutex
	entries      map[string]entry
	ttl          time.Duration
	metadataSink metadata.Sink

	// now is swappable for expiry tests.
	now func() time.Time
}

func NewResponseCache(metadataSink metadata.Sink, ttl time.Duration) *ResponseCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ResponseCache{
		entries:      make(map[string]entry),
		ttl:          ttl,
		metadataSink: metadataSink,
		now:          time.Now,
	}
}

// SetNowFunc replaces the cache's clock, for expiry tests.
func (c *ResponseCache) SetNowFunc(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Key derives the cache key for a query and page. Queries differing
// only in case or surrounding whitespace share an entry.
func Key(query string, page int) string {
	return strings.ToLower(strings.TrimSpace(query)) + "_" + strconv.Itoa(page)
}

// Get returns the cached records for the key, expiring the entry in
// place when its TTL has lapsed.
func (c *ResponseCache) Get(key string) ([]extractor.MemeRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, exists := c.entries[key]
	if !exists {
		c.metadataSink.RecordCache(metadata.CacheMiss, fingerprint(key), len(c.entries))
		return nil, false
	}
	if c.expired(e) {
		delete(c.entries, key)
		c.metadataSink.RecordCache(metadata.CacheExpired, fingerprint(key), len(c.entries))
		return nil, false
	}

	c.metadataSink.RecordCache(metadata.CacheHit, fingerprint(key), len(c.entries))
	return e.records, true
}

// Put stores records under the key. Empty result sets are never
// cached, a transient upstream miss must not shadow later results for
// a full TTL.
func (c *ResponseCache) Put(key string, records []extractor.MemeRecord) {
	if len(records) == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{records: records, storedAt: c.now()}
	c.metadataSink.RecordCache(metadata.CacheStore, fingerprint(key), len(c.entries))
}

// Sweep drops every expired entry and returns how many were removed.
func (c *ResponseCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, e := range c.entries {
		if c.expired(e) {
			delete(c.entries, key)
			removed++
		}
	}
	if removed > 0 {
		c.metadataSink.RecordCache(metadata.CacheSweep, "", len(c.entries))
	}
	return removed
}

// StartSweeper runs periodic sweeps until the context is cancelled.
func (c *ResponseCache) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.Sweep()
			}
		}
	}()
}

// Stats reports a point-in-time snapshot without mutating the cache;
// expired entries still counted here disappear on their next Get or
// sweep.
func (c *ResponseCache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := Stats{TotalEntries: len(c.entries)}
	var oldest, newest time.Time
	for _, e := range c.entries {
		if c.expired(e) {
			stats.ExpiredEntries++
		} else {
			stats.ValidEntries++
		}
		if oldest.IsZero() || e.storedAt.Before(oldest) {
			oldest = e.storedAt
		}
		if e.storedAt.After(newest) {
			newest = e.storedAt
		}
	}
	if stats.TotalEntries > 0 {
		now := c.now()
		stats.OldestEntryAge = now.Sub(oldest)
		stats.NewestEntryAge = now.Sub(newest)
	}
	return stats
}

func (c *ResponseCache) expired(e entry) bool {
	return c.now().Sub(e.storedAt) > c.ttl
}

// fingerprint keeps raw queries out of the logs while still letting
// repeat traffic on one key be correlated.
func fingerprint(key string) string {
	digest, err := hashutil.HashString(key, hashutil.HashAlgoBLAKE3)
	if err != nil {
		return "unhashed"
	}
	return digest[:12]
}
