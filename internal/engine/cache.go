package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/KaramelBytes/tabula-cli/internal/dataset"
	"github.com/KaramelBytes/tabula-cli/internal/intent"
)

// Cache keeps resolved results for a while, keyed by dataset fingerprint and
// normalized query. Statistical fallbacks are never stored since they carry
// retry hints that go stale.
type Cache struct {
	store *ristretto.Cache[string, Result]
	ttl   time.Duration
}

// NewCache builds a cache holding up to maxEntries results for ttl each.
func NewCache(maxEntries int, ttl time.Duration) (*Cache, error) {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	store, err := ristretto.NewCache(&ristretto.Config[string, Result]{
		NumCounters: int64(maxEntries) * 10,
		MaxCost:     int64(maxEntries),
		BufferItems: 64,
		// Cost counts entries, not bytes.
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create result cache: %w", err)
	}
	return &Cache{store: store, ttl: ttl}, nil
}

// CacheKey identifies a question about a dataset. Case, spacing and trailing
// sentence punctuation are folded; operators and symbols inside the question
// are kept, so "revenue > cost" and "revenue < cost" stay distinct.
func CacheKey(ds *dataset.Dataset, query string) string {
	q := strings.TrimRight(intent.Lower(query), "?.! ")
	return ds.Fingerprint() + ":" + strings.Join(strings.Fields(q), " ")
}

// Get returns a cached result.
func (c *Cache) Get(key string) (Result, bool) {
	return c.store.Get(key)
}

// Set stores res unless it came from the statistical tier. The write is
// visible to Get once Set returns.
func (c *Cache) Set(key string, res Result) {
	if res.Tier == TierStatistical {
		return
	}
	c.store.SetWithTTL(key, res, 1, c.ttl)
	c.store.Wait()
}

// Close releases the cache's background goroutines.
func (c *Cache) Close() { c.store.Close() }
