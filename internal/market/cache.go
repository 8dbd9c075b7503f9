package market

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// PricePoint is a single observation in a symbol's rolling price history.
type PricePoint struct {
	Price decimal.Decimal
	At    time.Time
}

type cacheEntry struct {
	price decimal.Decimal
	at    time.Time
}

// PriceCache fronts an upstream PriceSource with a short TTL cache and a
// bounded rolling history per (symbol, market). Upstream failures fall
// through as-is; entries past the TTL are purged on read.
type PriceCache struct {
	upstream PriceSource
	ttl      time.Duration
	history  time.Duration

	mu    sync.Mutex
	cache map[string]cacheEntry
	hist  map[string][]PricePoint
	now   func() time.Time
}

// NewPriceCache creates a PriceCache over upstream with the given entry TTL
// and history retention window.
func NewPriceCache(upstream PriceSource, ttl, history time.Duration) *PriceCache {
	return &PriceCache{
		upstream: upstream,
		ttl:      ttl,
		history:  history,
		cache:    make(map[string]cacheEntry),
		hist:     make(map[string][]PricePoint),
		now:      time.Now,
	}
}

// LastPrice returns a cached price when fresh, otherwise reads through to
// the upstream source and records the result.
func (c *PriceCache) LastPrice(symbol, market string) (decimal.Decimal, error) {
	k := key(symbol, market)
	now := c.now()

	c.mu.Lock()
	if entry, ok := c.cache[k]; ok {
		if now.Sub(entry.at) < c.ttl {
			c.mu.Unlock()
			return entry.price, nil
		}
		delete(c.cache, k)
	}
	c.mu.Unlock()

	price, err := c.upstream.LastPrice(symbol, market)
	if err != nil {
		return decimal.Zero, err
	}

	c.Record(symbol, market, price)
	return price, nil
}

// Record stores a price observation in both the short cache and the
// rolling history, trimming history older than the retention window.
func (c *PriceCache) Record(symbol, market string, price decimal.Decimal) {
	k := key(symbol, market)
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache[k] = cacheEntry{price: price, at: now}

	points := append(c.hist[k], PricePoint{Price: price, At: now})
	cutoff := now.Add(-c.history)
	trim := 0
	for trim < len(points) && points[trim].At.Before(cutoff) {
		trim++
	}
	c.hist[k] = points[trim:]
}

// History returns the retained price observations for a (symbol, market)
// pair in chronological order.
func (c *PriceCache) History(symbol, market string) []PricePoint {
	c.mu.Lock()
	defer c.mu.Unlock()

	points := c.hist[key(symbol, market)]
	out := make([]PricePoint, len(points))
	copy(out, points)
	return out
}
