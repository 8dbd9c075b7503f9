package market

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestBoard_LastPrice(t *testing.T) {
	b := NewBoard()

	if _, err := b.LastPrice("BTC", "CRYPTO"); !errors.Is(err, ErrPriceUnavailable) {
		t.Fatalf("LastPrice on empty board: err = %v, want ErrPriceUnavailable", err)
	}

	b.Set("BTC", "CRYPTO", decimal.NewFromInt(50000))
	got, err := b.LastPrice("BTC", "CRYPTO")
	if err != nil {
		t.Fatalf("LastPrice: %v", err)
	}
	if !got.Equal(decimal.NewFromInt(50000)) {
		t.Errorf("LastPrice = %s, want 50000", got)
	}

	// Same symbol under another market is a distinct key.
	if _, err := b.LastPrice("BTC", "NASDAQ"); !errors.Is(err, ErrPriceUnavailable) {
		t.Errorf("LastPrice(BTC, NASDAQ): err = %v, want ErrPriceUnavailable", err)
	}

	b.Set("BTC", "CRYPTO", decimal.NewFromInt(51000))
	got, err = b.LastPrice("BTC", "CRYPTO")
	if err != nil {
		t.Fatalf("LastPrice after update: %v", err)
	}
	if !got.Equal(decimal.NewFromInt(51000)) {
		t.Errorf("LastPrice after update = %s, want 51000", got)
	}
}
