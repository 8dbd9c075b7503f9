package store

import (
	"sync"

	"github.com/HammerGPT/Hyper-Alpha-Arena/internal/domain"
)

// TradeStore is a thread-safe in-memory store for trades, indexed by
// account ID and by symbol. Trades are append-only and chronological.
type TradeStore struct {
	mu        sync.RWMutex
	byAccount map[string][]*domain.Trade
	bySymbol  map[string][]*domain.Trade
}

// NewTradeStore creates an empty TradeStore.
func NewTradeStore() *TradeStore {
	return &TradeStore{
		byAccount: make(map[string][]*domain.Trade),
		bySymbol:  make(map[string][]*domain.Trade),
	}
}

// Append adds a trade to both indexes.
func (s *TradeStore) Append(t *domain.Trade) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byAccount[t.AccountID] = append(s.byAccount[t.AccountID], t)
	s.bySymbol[t.Symbol] = append(s.bySymbol[t.Symbol], t)
}

// GetByAccount returns all trades for an account in chronological order.
func (s *TradeStore) GetByAccount(accountID string) []*domain.Trade {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return copyTrades(s.byAccount[accountID])
}

// GetBySymbol returns all trades for a symbol in chronological order.
func (s *TradeStore) GetBySymbol(symbol string) []*domain.Trade {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return copyTrades(s.bySymbol[symbol])
}

// copyTrades returns a copy to avoid callers mutating the internal slice.
func copyTrades(trades []*domain.Trade) []*domain.Trade {
	if trades == nil {
		return []*domain.Trade{}
	}
	out := make([]*domain.Trade, len(trades))
	copy(out, trades)
	return out
}
