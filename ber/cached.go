package ber

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/dgraph-io/ristretto"
	"github.com/signalsfoundry/wifi-interference/model"
)

// Model is the contract shared by every error-rate model in this package.
type Model interface {
	ChunkSuccessRate(mode model.Mode, snr float64, nbits uint64) float64
}

// CacheConfig sizes the memo cache of a CachedModel.
type CacheConfig struct {
	NumCounters int64
	MaxCost     int64
	BufferItems int64
}

// DefaultCacheConfig suits a single receiver evaluating a few thousand
// distinct chunks.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		NumCounters: 1e5,
		MaxCost:     1 << 14,
		BufferItems: 64,
	}
}

// CachedModel memoizes an inner model by (mode, snr, bits). Chunk
// success rates are pure functions of those inputs, and a receiver sees
// the same interference levels repeatedly while a busy neighbour keeps
// transmitting.
//
// Admission is asynchronous, so a Set is not guaranteed to be visible to
// the next Get.
type CachedModel struct {
	inner Model
	cache *ristretto.Cache

	hits     atomic.Uint64
	misses   atomic.Uint64
	recorder CacheRecorder
}

// CacheRecorder receives the outcome of every cache lookup.
type CacheRecorder interface {
	ObserveCacheLookup(hit bool, hits, misses uint64)
}

// CachedOption customises a CachedModel.
type CachedOption func(*CachedModel)

// WithCacheRecorder reports cache lookups to r.
func WithCacheRecorder(r CacheRecorder) CachedOption {
	return func(c *CachedModel) {
		c.recorder = r
	}
}

// NewCachedModel wraps inner with a ristretto cache sized by cfg.
func NewCachedModel(inner Model, cfg CacheConfig, opts ...CachedOption) (*CachedModel, error) {
	if inner == nil {
		return nil, fmt.Errorf("ber: nil inner model")
	}
	def := DefaultCacheConfig()
	if cfg.NumCounters <= 0 {
		cfg.NumCounters = def.NumCounters
	}
	if cfg.MaxCost <= 0 {
		cfg.MaxCost = def.MaxCost
	}
	if cfg.BufferItems <= 0 {
		cfg.BufferItems = def.BufferItems
	}

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
	})
	if err != nil {
		return nil, fmt.Errorf("ber: create cache: %w", err)
	}
	c := &CachedModel{inner: inner, cache: cache}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ChunkSuccessRate returns the memoized rate or computes and stores it.
func (c *CachedModel) ChunkSuccessRate(mode model.Mode, snr float64, nbits uint64) float64 {
	key := cacheKey(mode, snr, nbits)
	if v, ok := c.cache.Get(key); ok {
		if rate, ok := v.(float64); ok {
			c.observe(true)
			return rate
		}
	}
	c.observe(false)
	rate := c.inner.ChunkSuccessRate(mode, snr, nbits)
	c.cache.Set(key, rate, 1)
	return rate
}

// Stats returns the number of lookups served from and missing the cache.
func (c *CachedModel) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *CachedModel) observe(hit bool) {
	if hit {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	if c.recorder != nil {
		c.recorder.ObserveCacheLookup(hit, c.hits.Load(), c.misses.Load())
	}
}

// Close releases the cache's background goroutines.
func (c *CachedModel) Close() {
	if c == nil || c.cache == nil {
		return
	}
	c.cache.Close()
}

func cacheKey(mode model.Mode, snr float64, nbits uint64) string {
	return fmt.Sprintf("%s/%x/%d", mode.Name, math.Float64bits(snr), nbits)
}
