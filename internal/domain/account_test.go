package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestPositionKey(t *testing.T) {
	if got := PositionKey("BTC", "CRYPTO"); got != "BTC:CRYPTO" {
		t.Errorf("PositionKey = %q, want %q", got, "BTC:CRYPTO")
	}
}

func TestAccount_SpendableCash(t *testing.T) {
	a := &Account{
		CurrentCash: decimal.NewFromInt(1000),
		FrozenCash:  decimal.NewFromInt(250),
	}
	if got := a.SpendableCash(); !got.Equal(decimal.NewFromInt(750)) {
		t.Errorf("SpendableCash = %s, want 750", got)
	}
}

func TestAccount_Position(t *testing.T) {
	a := &Account{
		Positions: map[string]*Position{
			"BTC:CRYPTO": {Symbol: "BTC", Market: "CRYPTO"},
		},
	}

	if p := a.Position("BTC", "CRYPTO"); p == nil || p.Symbol != "BTC" {
		t.Errorf("Position(BTC, CRYPTO) = %v, want BTC position", p)
	}
	if p := a.Position("ETH", "CRYPTO"); p != nil {
		t.Errorf("Position(ETH, CRYPTO) = %v, want nil", p)
	}
	if p := a.Position("BTC", "NASDAQ"); p != nil {
		t.Errorf("Position(BTC, NASDAQ) = %v, want nil", p)
	}
}
