package domain

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Position is a holding of a single instrument inside an account.
// AvailableQuantity is the part of Quantity not tied up by pending sell
// orders; today the two only diverge transiently during settlement.
type Position struct {
	Symbol            string
	Name              string
	Market            string
	Quantity          decimal.Decimal
	AvailableQuantity decimal.Decimal
	AvgCost           decimal.Decimal
}

// Account is a simulated trading account. CurrentCash is the total cash
// balance; FrozenCash is the slice of it reserved by pending limit buy
// orders. Mu guards cash, frozen cash and the positions map. Callers
// that read or mutate those fields must hold Mu.
type Account struct {
	ID          string
	Name        string
	CurrentCash decimal.Decimal
	FrozenCash  decimal.Decimal
	Positions   map[string]*Position
	CreatedAt   time.Time

	Mu sync.Mutex
}

// PositionKey returns the map key for a symbol within a market.
func PositionKey(symbol, market string) string {
	return symbol + ":" + market
}

// SpendableCash returns the cash available for new orders. Callers must
// hold Mu.
func (a *Account) SpendableCash() decimal.Decimal {
	return a.CurrentCash.Sub(a.FrozenCash)
}

// Position returns the account's position for the given symbol and
// market, or nil if the account holds none. Callers must hold Mu.
func (a *Account) Position(symbol, market string) *Position {
	return a.Positions[PositionKey(symbol, market)]
}
