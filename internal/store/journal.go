package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/glebarez/go-sqlite"

	"github.com/HammerGPT/Hyper-Alpha-Arena/internal/domain"
)

// TradeJournal persists settled trades and terminal order transitions to
// SQLite. It is an append-only durability layer behind the in-memory
// stores: journal failures are logged by callers and never abort a
// settlement.
type TradeJournal struct {
	db *sql.DB
}

// NewTradeJournal opens (or creates) the journal database at dbPath with
// WAL mode enabled and ensures the schema exists.
func NewTradeJournal(dbPath string) (*TradeJournal, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS trades (
			trade_id   TEXT PRIMARY KEY,
			order_no   TEXT NOT NULL,
			account_id TEXT NOT NULL,
			symbol     TEXT NOT NULL,
			market     TEXT NOT NULL,
			side       TEXT NOT NULL,
			price      TEXT NOT NULL,
			quantity   TEXT NOT NULL,
			commission TEXT NOT NULL,
			executed_at INTEGER NOT NULL
		);
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create trades table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS order_events (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			order_no TEXT NOT NULL,
			status   TEXT NOT NULL,
			reason   TEXT NOT NULL DEFAULT '',
			ts       INTEGER NOT NULL
		);
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create order_events table: %w", err)
	}

	return &TradeJournal{db: db}, nil
}

// RecordTrade appends a settled trade to the journal. Monetary values are
// stored as decimal strings to avoid binary rounding.
func (j *TradeJournal) RecordTrade(ctx context.Context, t *domain.Trade) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO trades (trade_id, order_no, account_id, symbol, market, side, price, quantity, commission, executed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TradeID, t.OrderNo, t.AccountID, t.Symbol, t.Market, string(t.Side),
		t.Price.String(), t.Quantity.String(), t.Commission.String(), t.ExecutedAt.UnixMicro(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert trade: %w", err)
	}
	return nil
}

// RecordOrderEvent appends a terminal order status transition.
func (j *TradeJournal) RecordOrderEvent(ctx context.Context, orderNo string, status domain.OrderStatus, reason string, ts int64) error {
	_, err := j.db.ExecContext(ctx,
		"INSERT INTO order_events (order_no, status, reason, ts) VALUES (?, ?, ?, ?)",
		orderNo, string(status), reason, ts,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order event: %w", err)
	}
	return nil
}

// TradeCount returns the number of journaled trades for an account.
func (j *TradeJournal) TradeCount(ctx context.Context, accountID string) (int, error) {
	var n int
	err := j.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM trades WHERE account_id = ?", accountID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count trades: %w", err)
	}
	return n, nil
}

// Close releases the underlying database handle.
func (j *TradeJournal) Close() error {
	return j.db.Close()
}
