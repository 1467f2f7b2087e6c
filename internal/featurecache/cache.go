// Package featurecache memoizes feature extraction results by audio content.
//
// Entries never expire: identical audio always produces identical features,
// so the cache lives for the whole process. Concurrent misses on the same
// key are collapsed so extraction runs once.
package featurecache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"slices"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/tphakala/callguard/internal/errors"
	"github.com/tphakala/callguard/internal/features"
	"github.com/tphakala/callguard/internal/logger"
	"github.com/tphakala/callguard/internal/observability/metrics"
)

// robustSuffix separates noise-injected results from clean ones.
const robustSuffix = ":robust"

// Entry is the cached output of one extraction run.
type Entry struct {
	Extraction features.Extraction
	Chunks     []features.ChunkFeature
	Quality    float64 // quality factor of the clean input
}

// clone returns a copy that shares no slices with e.
func (e Entry) clone() Entry {
	e.Extraction.Degradations = slices.Clone(e.Extraction.Degradations)
	e.Chunks = slices.Clone(e.Chunks)
	return e
}

// ComputeFunc produces an entry on a cache miss.
type ComputeFunc func(ctx context.Context) (Entry, error)

// Recorder receives cache hit and miss counts.
type Recorder interface {
	RecordCacheOperation(result string)
	SetCacheEntries(n int)
}

// Cache is a content-addressed store of extraction results. It is safe for
// concurrent use.
type Cache struct {
	store    *cache.Cache
	group    singleflight.Group
	recorder Recorder
	log      logger.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithRecorder reports hits and misses to r.
func WithRecorder(r Recorder) Option {
	return func(c *Cache) {
		if r != nil {
			c.recorder = r
		}
	}
}

// WithLogger overrides the package logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.log = l
		}
	}
}

// New creates an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		// no expiration and no janitor goroutine
		store:    cache.New(cache.NoExpiration, 0),
		recorder: metrics.NoOpRecorder{},
		log:      logger.Global().Module("featurecache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key returns the cache key for raw audio bytes.
func Key(data []byte, robust bool) string {
	sum := sha256.Sum256(data)
	key := hex.EncodeToString(sum[:])
	if robust {
		key += robustSuffix
	}
	return key
}

// Get returns a copy of the entry stored under key.
func (c *Cache) Get(key string) (Entry, bool) {
	v, found := c.store.Get(key)
	if !found {
		return Entry{}, false
	}
	entry, ok := v.(Entry)
	if !ok {
		return Entry{}, false
	}
	return entry.clone(), true
}

// GetOrCompute returns the entry for key, running fn on a miss. hit reports
// whether the entry was already cached. Callers waiting on the same key share
// one fn invocation; each caller stops waiting when its own ctx is done.
// Failed computations are not cached.
func (c *Cache) GetOrCompute(ctx context.Context, key string, fn ComputeFunc) (entry Entry, hit bool, err error) {
	if entry, ok := c.Get(key); ok {
		c.recorder.RecordCacheOperation(metrics.CacheHit)
		c.log.Debug("feature cache hit", logger.String("key", shortKey(key)))
		return entry, true, nil
	}
	c.recorder.RecordCacheOperation(metrics.CacheMiss)

	// the shared computation must outlive any single caller
	computeCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		if entry, ok := c.Get(key); ok {
			return entry, nil
		}
		computed, err := fn(computeCtx)
		if err != nil {
			return nil, err
		}
		c.store.Set(key, computed.clone(), cache.NoExpiration)
		c.recorder.SetCacheEntries(c.store.ItemCount())
		c.log.Debug("feature cache stored", logger.String("key", shortKey(key)),
			logger.Int("entries", c.store.ItemCount()))
		return computed, nil
	})

	select {
	case <-ctx.Done():
		return Entry{}, false, errors.New(ctx.Err()).
			Component("featurecache").
			Category(errors.CategoryTimeout).
			Context("operation", "get_or_compute").
			Build()
	case res := <-ch:
		if res.Err != nil {
			return Entry{}, false, res.Err
		}
		entry, ok := res.Val.(Entry)
		if !ok {
			return Entry{}, false, errors.Newf("unexpected cache value type %T", res.Val).
				Component("featurecache").
				Category(errors.CategoryCache).
				Build()
		}
		return entry.clone(), false, nil
	}
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	return c.store.ItemCount()
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.store.Flush()
	c.recorder.SetCacheEntries(0)
}

func shortKey(key string) string {
	if len(key) > 12 {
		return key[:12]
	}
	return key
}
