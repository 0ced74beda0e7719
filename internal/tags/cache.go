package tags

import (
	"context"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Records returns the byte record of a name. The renderer resolves names
// through it so that every lookup goes through the same record format.
type Records interface {
	Record(ctx context.Context, ns Namespace, name string) ([]byte, error)
}

// CachedStore keeps the records of a Store in memory for the duration of a
// run. Misses are cached too. It is safe for concurrent use.
type CachedStore struct {
	Store
	records *gocache.Cache
	hits    atomic.Int64
	misses  atomic.Int64
}

// NewCachedStore wraps s. A ttl of zero keeps records for the life of the
// cache.
func NewCachedStore(s Store, ttl time.Duration) *CachedStore {
	expiration := gocache.NoExpiration
	cleanup := time.Duration(0)
	if ttl > 0 {
		expiration = ttl
		cleanup = 2 * ttl
	}
	return &CachedStore{
		Store:   s,
		records: gocache.New(expiration, cleanup),
	}
}

func cacheKey(ns Namespace, name string) string {
	return ns.String() + "\x00" + name
}

// Record returns the record of name in ns, querying the wrapped store on a
// miss. The returned slice must not be modified.
func (c *CachedStore) Record(ctx context.Context, ns Namespace, name string) ([]byte, error) {
	key := cacheKey(ns, name)
	if v, ok := c.records.Get(key); ok {
		c.hits.Add(1)
		return v.([]byte), nil
	}
	c.misses.Add(1)

	res, err := c.Store.Lookup(ctx, ns, name)
	if err != nil {
		return nil, err
	}
	rec := EncodeRecord(make([]byte, 0, 16), res)
	c.records.Set(key, rec, gocache.DefaultExpiration)
	return rec, nil
}

// Lookup answers from the cache. Single results carry no Path.
func (c *CachedStore) Lookup(ctx context.Context, ns Namespace, name string) (Resolution, error) {
	rec, err := c.Record(ctx, ns, name)
	if err != nil {
		return Resolution{}, err
	}
	return DecodeRecord(rec)
}

// Stats returns the hit and miss counters.
func (c *CachedStore) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Flush drops every cached record.
func (c *CachedStore) Flush() { c.records.Flush() }
