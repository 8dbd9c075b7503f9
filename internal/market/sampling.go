package market

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Sample is a single entry in a symbol's sampling pool.
type Sample struct {
	Price decimal.Decimal
	At    time.Time
}

// PoolStatus summarizes one symbol's sampling pool for monitoring.
type PoolStatus struct {
	SampleCount        int
	LatestPrice        decimal.Decimal
	LatestAt           time.Time
	OldestAt           time.Time
	PriceChangePercent *decimal.Decimal // nil with fewer than two samples
}

// SamplingPool is a thread-safe bounded time-series store of price samples
// keyed by symbol, with an explicit capacity per key. Strategy triggers
// read from it; settlement never writes to it.
type SamplingPool struct {
	mu         sync.Mutex
	pools      map[string][]Sample
	lastSample map[string]time.Time
	maxSamples int
	now        func() time.Time
}

// NewSamplingPool creates a pool retaining at most maxSamples per symbol.
func NewSamplingPool(maxSamples int) *SamplingPool {
	if maxSamples <= 0 {
		maxSamples = 10
	}
	return &SamplingPool{
		pools:      make(map[string][]Sample),
		lastSample: make(map[string]time.Time),
		maxSamples: maxSamples,
	}
}

func (p *SamplingPool) clock() time.Time {
	if p.now != nil {
		return p.now()
	}
	return time.Now()
}

// Add appends a price sample for the symbol, evicting the oldest sample
// once the pool is at capacity.
func (p *SamplingPool) Add(symbol string, price decimal.Decimal) {
	now := p.clock()

	p.mu.Lock()
	defer p.mu.Unlock()

	pool := append(p.pools[symbol], Sample{Price: price, At: now})
	if len(pool) > p.maxSamples {
		pool = pool[len(pool)-p.maxSamples:]
	}
	p.pools[symbol] = pool
	p.lastSample[symbol] = now
}

// Samples returns all retained samples for the symbol, oldest first.
func (p *SamplingPool) Samples(symbol string) []Sample {
	p.mu.Lock()
	defer p.mu.Unlock()

	pool := p.pools[symbol]
	out := make([]Sample, len(pool))
	copy(out, pool)
	return out
}

// LatestPrice returns the most recent sampled price for the symbol.
func (p *SamplingPool) LatestPrice(symbol string) (decimal.Decimal, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pool := p.pools[symbol]
	if len(pool) == 0 {
		return decimal.Zero, false
	}
	return pool[len(pool)-1].Price, true
}

// ShouldSample reports whether at least interval has passed since the
// symbol's last sample. Symbols never sampled always return true.
func (p *SamplingPool) ShouldSample(symbol string, interval time.Duration) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	last, ok := p.lastSample[symbol]
	if !ok {
		return true
	}
	return p.clock().Sub(last) >= interval
}

// PriceChangePercent returns the percentage change from the oldest to the
// latest sample. It returns false with fewer than two samples or a zero
// oldest price.
func (p *SamplingPool) PriceChangePercent(symbol string) (decimal.Decimal, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pool := p.pools[symbol]
	if len(pool) < 2 {
		return decimal.Zero, false
	}
	oldest := pool[0].Price
	latest := pool[len(pool)-1].Price
	if oldest.IsZero() {
		return decimal.Zero, false
	}
	return latest.Sub(oldest).Div(oldest).Mul(decimal.NewFromInt(100)), true
}

// Status returns a per-symbol summary of every pool.
func (p *SamplingPool) Status() map[string]PoolStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	status := make(map[string]PoolStatus, len(p.pools))
	for symbol, pool := range p.pools {
		if len(pool) == 0 {
			status[symbol] = PoolStatus{}
			continue
		}
		st := PoolStatus{
			SampleCount: len(pool),
			LatestPrice: pool[len(pool)-1].Price,
			LatestAt:    pool[len(pool)-1].At,
			OldestAt:    pool[0].At,
		}
		if len(pool) >= 2 && !pool[0].Price.IsZero() {
			change := pool[len(pool)-1].Price.Sub(pool[0].Price).Div(pool[0].Price).Mul(decimal.NewFromInt(100))
			st.PriceChangePercent = &change
		}
		status[symbol] = st
	}
	return status
}
