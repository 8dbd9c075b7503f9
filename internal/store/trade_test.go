package store

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/HammerGPT/Hyper-Alpha-Arena/internal/domain"
)

func newTrade(tradeID, accountID, symbol string) *domain.Trade {
	return &domain.Trade{
		TradeID:    tradeID,
		OrderNo:    "ord-" + tradeID,
		AccountID:  accountID,
		Symbol:     symbol,
		Market:     "CRYPTO",
		Side:       domain.OrderSideBuy,
		Price:      decimal.NewFromInt(50000),
		Quantity:   decimal.NewFromFloat(0.1),
		Commission: decimal.NewFromInt(5),
		ExecutedAt: time.Now(),
	}
}

func TestTradeStore_Indexes(t *testing.T) {
	s := NewTradeStore()

	s.Append(newTrade("t1", "acc-1", "BTC"))
	s.Append(newTrade("t2", "acc-1", "ETH"))
	s.Append(newTrade("t3", "acc-2", "BTC"))

	byAccount := s.GetByAccount("acc-1")
	if len(byAccount) != 2 {
		t.Fatalf("GetByAccount len = %d, want 2", len(byAccount))
	}
	if byAccount[0].TradeID != "t1" || byAccount[1].TradeID != "t2" {
		t.Errorf("GetByAccount order = [%s %s], want [t1 t2]", byAccount[0].TradeID, byAccount[1].TradeID)
	}

	bySymbol := s.GetBySymbol("BTC")
	if len(bySymbol) != 2 {
		t.Fatalf("GetBySymbol len = %d, want 2", len(bySymbol))
	}
	if bySymbol[0].TradeID != "t1" || bySymbol[1].TradeID != "t3" {
		t.Errorf("GetBySymbol order = [%s %s], want [t1 t3]", bySymbol[0].TradeID, bySymbol[1].TradeID)
	}
}

func TestTradeStore_EmptyResults(t *testing.T) {
	s := NewTradeStore()

	if got := s.GetByAccount("missing"); got == nil || len(got) != 0 {
		t.Errorf("GetByAccount(missing) = %v, want empty non-nil slice", got)
	}
	if got := s.GetBySymbol("missing"); got == nil || len(got) != 0 {
		t.Errorf("GetBySymbol(missing) = %v, want empty non-nil slice", got)
	}
}

func TestTradeStore_ReturnsCopies(t *testing.T) {
	s := NewTradeStore()
	s.Append(newTrade("t1", "acc-1", "BTC"))

	got := s.GetByAccount("acc-1")
	got[0] = nil

	fresh := s.GetByAccount("acc-1")
	if fresh[0] == nil {
		t.Error("mutating the returned slice leaked into the store")
	}
}
