package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade is an immutable execution record created by settlement for every
// fill, full or partial. Trades are append-only and never mutated.
type Trade struct {
	TradeID    string
	OrderNo    string
	AccountID  string
	Symbol     string
	Name       string
	Market     string
	Side       OrderSide
	Price      decimal.Decimal
	Quantity   decimal.Decimal
	Commission decimal.Decimal
	ExecutedAt time.Time
}

// Notional returns price × quantity for the trade.
func (t *Trade) Notional() decimal.Decimal {
	return t.Price.Mul(t.Quantity)
}
