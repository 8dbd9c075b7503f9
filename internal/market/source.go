package market

import (
	"errors"
	"sync"

	"github.com/shopspring/decimal"
)

// ErrPriceUnavailable indicates the market data source could not provide a
// price. Callers must treat it as "defer, do not execute", never as an
// order rejection.
var ErrPriceUnavailable = errors.New("price_unavailable")

// PriceSource provides the last traded price for a (symbol, market) pair.
type PriceSource interface {
	LastPrice(symbol, market string) (decimal.Decimal, error)
}

// Board is an in-memory price board fed by external tickers. It is the
// terminal PriceSource in the chain; symbols without a recorded tick
// report ErrPriceUnavailable.
type Board struct {
	mu     sync.RWMutex
	prices map[string]decimal.Decimal // symbol:market → last price
}

// NewBoard creates an empty price board.
func NewBoard() *Board {
	return &Board{
		prices: make(map[string]decimal.Decimal),
	}
}

// Set records the latest price for the given symbol and market.
func (b *Board) Set(symbol, market string, price decimal.Decimal) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.prices[key(symbol, market)] = price
}

// LastPrice returns the most recent price for the given symbol and market,
// or ErrPriceUnavailable if no tick has been recorded.
func (b *Board) LastPrice(symbol, market string) (decimal.Decimal, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	p, ok := b.prices[key(symbol, market)]
	if !ok {
		return decimal.Zero, ErrPriceUnavailable
	}
	return p, nil
}

func key(symbol, market string) string {
	return symbol + ":" + market
}
