package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/HammerGPT/Hyper-Alpha-Arena/internal/domain"
)

func newTestJournal(t *testing.T) *TradeJournal {
	t.Helper()

	j, err := NewTradeJournal(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("NewTradeJournal: %v", err)
	}
	t.Cleanup(func() {
		if err := j.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return j
}

func TestTradeJournal_RecordTrade(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	if err := j.RecordTrade(ctx, newTrade("t1", "acc-1", "BTC")); err != nil {
		t.Fatalf("RecordTrade: %v", err)
	}
	if err := j.RecordTrade(ctx, newTrade("t2", "acc-1", "ETH")); err != nil {
		t.Fatalf("RecordTrade: %v", err)
	}
	if err := j.RecordTrade(ctx, newTrade("t3", "acc-2", "BTC")); err != nil {
		t.Fatalf("RecordTrade: %v", err)
	}

	n, err := j.TradeCount(ctx, "acc-1")
	if err != nil {
		t.Fatalf("TradeCount: %v", err)
	}
	if n != 2 {
		t.Errorf("TradeCount(acc-1) = %d, want 2", n)
	}

	n, err = j.TradeCount(ctx, "missing")
	if err != nil {
		t.Fatalf("TradeCount: %v", err)
	}
	if n != 0 {
		t.Errorf("TradeCount(missing) = %d, want 0", n)
	}
}

func TestTradeJournal_DuplicateTradeID(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	if err := j.RecordTrade(ctx, newTrade("t1", "acc-1", "BTC")); err != nil {
		t.Fatalf("RecordTrade: %v", err)
	}
	if err := j.RecordTrade(ctx, newTrade("t1", "acc-1", "BTC")); err == nil {
		t.Error("RecordTrade with duplicate trade_id: err = nil, want primary key violation")
	}
}

func TestTradeJournal_RecordOrderEvent(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	now := time.Now().UnixMicro()
	if err := j.RecordOrderEvent(ctx, "ord-1", domain.OrderStatusFilled, "", now); err != nil {
		t.Fatalf("RecordOrderEvent: %v", err)
	}
	if err := j.RecordOrderEvent(ctx, "ord-2", domain.OrderStatusRejected, "order value exceeds maximum", now); err != nil {
		t.Fatalf("RecordOrderEvent: %v", err)
	}
}

func TestTradeJournal_Reopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "journal.db")
	ctx := context.Background()

	j, err := NewTradeJournal(path)
	if err != nil {
		t.Fatalf("NewTradeJournal: %v", err)
	}

	trade := newTrade("t1", "acc-1", "BTC")
	trade.Price = decimal.RequireFromString("50123.456789")
	if err := j.RecordTrade(ctx, trade); err != nil {
		t.Fatalf("RecordTrade: %v", err)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Schema creation is idempotent and journaled rows survive reopen.
	j, err = NewTradeJournal(path)
	if err != nil {
		t.Fatalf("NewTradeJournal reopen: %v", err)
	}
	defer j.Close()

	n, err := j.TradeCount(ctx, "acc-1")
	if err != nil {
		t.Fatalf("TradeCount: %v", err)
	}
	if n != 1 {
		t.Errorf("TradeCount after reopen = %d, want 1", n)
	}
}
