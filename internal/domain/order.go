package domain

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// OrderType distinguishes limit orders from market orders.
type OrderType string

const (
	OrderTypeMarket OrderType = "MARKET"
	OrderTypeLimit  OrderType = "LIMIT"
)

// OrderSide indicates whether an order buys or sells the base asset.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// OrderStatus represents the lifecycle state of an order.
//
// Orders are created PENDING and leave it exactly once, via settlement
// (FILLED or PARTIALLY_FILLED), simulator rejection (REJECTED), or
// cancellation (CANCELLED). PARTIALLY_FILLED is terminal: the remainder
// of a partially filled order is never re-evaluated.
type OrderStatus string

const (
	OrderStatusPending         OrderStatus = "PENDING"
	OrderStatusFilled          OrderStatus = "FILLED"
	OrderStatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	OrderStatusRejected        OrderStatus = "REJECTED"
	OrderStatusCancelled       OrderStatus = "CANCELLED"
)

// Order represents a request to trade submitted against an account.
//
// Fields up to Quantity are immutable after creation. FilledQuantity,
// FrozenCash, Status, Slippage, and RejectionReason change over the
// order's lifecycle and are guarded by Mu; settlement paths acquire Mu
// after the owning account's mutex, never before.
type Order struct {
	OrderNo         string
	AccountID       string
	Symbol          string
	Name            string
	Market          string
	Side            OrderSide
	Type            OrderType
	Price           *decimal.Decimal // required for limit orders, nil for market
	Quantity        decimal.Decimal
	CreatedAt       time.Time
	FilledQuantity  decimal.Decimal
	FrozenCash      decimal.Decimal // cash reserved at creation, limit buys only
	Status          OrderStatus
	Slippage        *decimal.Decimal // realized slippage fraction, set on fill
	RejectionReason string

	Mu sync.Mutex
}

// CurrentStatus returns the order's status under Mu.
func (o *Order) CurrentStatus() OrderStatus {
	o.Mu.Lock()
	defer o.Mu.Unlock()
	return o.Status
}

// Terminal reports whether the order has left the PENDING state.
func (o *Order) Terminal() bool {
	return o.CurrentStatus() != OrderStatusPending
}

// Snapshot returns a copy of the order's state, safe to read while
// settlement may be mutating the original.
func (o *Order) Snapshot() *Order {
	o.Mu.Lock()
	defer o.Mu.Unlock()
	return &Order{
		OrderNo:         o.OrderNo,
		AccountID:       o.AccountID,
		Symbol:          o.Symbol,
		Name:            o.Name,
		Market:          o.Market,
		Side:            o.Side,
		Type:            o.Type,
		Price:           o.Price,
		Quantity:        o.Quantity,
		CreatedAt:       o.CreatedAt,
		FilledQuantity:  o.FilledQuantity,
		FrozenCash:      o.FrozenCash,
		Status:          o.Status,
		Slippage:        o.Slippage,
		RejectionReason: o.RejectionReason,
	}
}
