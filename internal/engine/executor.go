package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/HammerGPT/Hyper-Alpha-Arena/internal/domain"
	"github.com/HammerGPT/Hyper-Alpha-Arena/internal/market"
	"github.com/HammerGPT/Hyper-Alpha-Arena/internal/store"
)

// TradeDispatcher publishes settlement results to subscribed clients from
// the engine layer without depending on the transport directly.
type TradeDispatcher interface {
	DispatchTradeExecuted(account *domain.Account, order *domain.Order, trade *domain.Trade)
	DispatchPositionUpdate(account *domain.Account)
}

// Journal persists trades and terminal order transitions. Journal errors
// are logged and never abort a settlement.
type Journal interface {
	RecordTrade(ctx context.Context, t *domain.Trade) error
	RecordOrderEvent(ctx context.Context, orderNo string, status domain.OrderStatus, reason string, ts int64) error
}

// Executor evaluates pending orders against market conditions, runs the
// execution simulator, and settles fills into account and position state.
//
// All cash and position mutations happen under the owning account's
// mutex, and every path out of PENDING re-checks the status under that
// same mutex, so for any order exactly one of settle/reject/cancel wins.
// Order field writes additionally hold the order's own mutex (acquired
// after the account's) so concurrent readers see consistent state.
type Executor struct {
	sim        *Simulator
	prices     market.PriceSource
	accounts   *store.AccountStore
	orders     *store.OrderStore
	trades     *store.TradeStore
	fees       domain.FeeSchedule
	journal    Journal         // optional
	dispatcher TradeDispatcher // optional
}

// NewExecutor creates an Executor. journal and dispatcher may be nil.
func NewExecutor(
	sim *Simulator,
	prices market.PriceSource,
	accounts *store.AccountStore,
	orders *store.OrderStore,
	trades *store.TradeStore,
	fees domain.FeeSchedule,
	journal Journal,
	dispatcher TradeDispatcher,
) *Executor {
	return &Executor{
		sim:        sim,
		prices:     prices,
		accounts:   accounts,
		orders:     orders,
		trades:     trades,
		fees:       fees,
		journal:    journal,
		dispatcher: dispatcher,
	}
}

// TryExecute checks whether market conditions satisfy the order's
// execution condition and, if so, runs the simulator and settles the
// result. It returns true only when a fill was settled.
//
// A missing price defers evaluation: the order stays PENDING and no state
// changes. A simulator rejection is terminal: the order moves to REJECTED
// and is never retried.
func (e *Executor) TryExecute(ctx context.Context, order *domain.Order) bool {
	if order.CurrentStatus() != domain.OrderStatusPending {
		return false
	}

	currentPrice, err := e.prices.LastPrice(order.Symbol, order.Market)
	if err != nil {
		slog.Warn("price unavailable, deferring order",
			slog.String("order_no", order.OrderNo),
			slog.String("symbol", order.Symbol),
			slog.String("error", err.Error()))
		return false
	}

	shouldExecute := false
	switch order.Type {
	case domain.OrderTypeMarket:
		shouldExecute = true
	case domain.OrderTypeLimit:
		// Buy executes when the trader's ceiling is at or above market;
		// sell when the floor is at or below. Both execute at the market
		// price, never at the limit.
		if order.Price == nil {
			return false
		}
		if order.Side == domain.OrderSideBuy {
			shouldExecute = order.Price.GreaterThanOrEqual(currentPrice)
		} else {
			shouldExecute = order.Price.LessThanOrEqual(currentPrice)
		}
	}
	if !shouldExecute {
		return false
	}

	result := e.sim.Simulate(ctx, order.Symbol, order.Side, order.Type,
		order.Quantity, currentPrice, order.Price)

	if result.Status == domain.OrderStatusRejected {
		e.reject(ctx, order, result.RejectionReason)
		return false
	}

	return e.Settle(ctx, order, result.ExecutionPrice, result.FilledQuantity, &result.Slippage)
}

// reject transitions a pending order to REJECTED and releases any cash
// still reserved for it.
func (e *Executor) reject(ctx context.Context, order *domain.Order, reason string) {
	account, err := e.accounts.Get(order.AccountID)
	if err != nil {
		slog.Error("account not found for order",
			slog.String("order_no", order.OrderNo),
			slog.String("account_id", order.AccountID))
		return
	}

	account.Mu.Lock()
	order.Mu.Lock()
	if order.Status != domain.OrderStatusPending {
		order.Mu.Unlock()
		account.Mu.Unlock()
		return
	}
	order.Status = domain.OrderStatusRejected
	order.RejectionReason = reason
	e.releaseReservationLocked(account, order)
	order.Mu.Unlock()
	account.Mu.Unlock()

	e.orders.RemovePending(order.OrderNo)
	e.recordOrderEvent(ctx, order, reason)

	slog.Info("order rejected",
		slog.String("order_no", order.OrderNo),
		slog.String("reason", reason))
}

// Settle applies a fill atomically to account cash, reserved cash, and
// position state, creates the trade record, and moves the order to
// FILLED or PARTIALLY_FILLED.
//
// Funds and position are re-verified under the account mutex; on any
// precondition failure nothing is mutated, the order stays PENDING, and
// Settle returns false so a later tick may retry.
func (e *Executor) Settle(
	ctx context.Context,
	order *domain.Order,
	executionPrice decimal.Decimal,
	filledQuantity decimal.Decimal,
	slippage *decimal.Decimal,
) bool {
	account, err := e.accounts.Get(order.AccountID)
	if err != nil {
		slog.Error("account not found for order",
			slog.String("order_no", order.OrderNo),
			slog.String("account_id", order.AccountID))
		return false
	}

	notional := executionPrice.Mul(filledQuantity)
	commission := e.fees.Commission(notional)

	account.Mu.Lock()
	order.Mu.Lock()

	// Only one path may move the order off PENDING.
	if order.Status != domain.OrderStatusPending {
		order.Mu.Unlock()
		account.Mu.Unlock()
		return false
	}

	if order.Side == domain.OrderSideBuy {
		cost := notional.Add(commission)

		// Re-verify: the factory's pre-check may be stale by now. The
		// order may spend unreserved cash plus its own reservation, but
		// never cash frozen for other pending orders.
		available := account.SpendableCash().Add(order.FrozenCash)
		if available.LessThan(cost) {
			order.Mu.Unlock()
			account.Mu.Unlock()
			slog.Warn("insufficient cash at settlement",
				slog.String("order_no", order.OrderNo),
				slog.String("needed", cost.StringFixed(2)),
				slog.String("available", available.StringFixed(2)))
			return false
		}

		account.CurrentCash = account.CurrentCash.Sub(cost)

		key := domain.PositionKey(order.Symbol, order.Market)
		position := account.Positions[key]
		if position == nil {
			position = &domain.Position{
				Symbol: order.Symbol,
				Name:   order.Name,
				Market: order.Market,
			}
			account.Positions[key] = position
		}

		oldQty := position.Quantity
		newQty := oldQty.Add(filledQuantity)
		if oldQty.IsZero() {
			position.AvgCost = executionPrice
		} else {
			position.AvgCost = position.AvgCost.Mul(oldQty).Add(notional).Div(newQty)
		}
		position.Quantity = newQty
		position.AvailableQuantity = position.AvailableQuantity.Add(filledQuantity)
	} else {
		position := account.Position(order.Symbol, order.Market)

		// Re-verify the position still covers the fill.
		if position == nil || position.AvailableQuantity.LessThan(filledQuantity) {
			order.Mu.Unlock()
			account.Mu.Unlock()
			slog.Warn("insufficient position at settlement",
				slog.String("order_no", order.OrderNo),
				slog.String("symbol", order.Symbol))
			return false
		}

		position.Quantity = position.Quantity.Sub(filledQuantity)
		position.AvailableQuantity = position.AvailableQuantity.Sub(filledQuantity)
		account.CurrentCash = account.CurrentCash.Add(notional.Sub(commission))
	}

	trade := &domain.Trade{
		TradeID:    uuid.New().String(),
		OrderNo:    order.OrderNo,
		AccountID:  account.ID,
		Symbol:     order.Symbol,
		Name:       order.Name,
		Market:     order.Market,
		Side:       order.Side,
		Price:      executionPrice,
		Quantity:   filledQuantity,
		Commission: commission,
		ExecutedAt: time.Now(),
	}

	order.FilledQuantity = order.FilledQuantity.Add(filledQuantity)
	if order.FilledQuantity.GreaterThanOrEqual(order.Quantity) {
		order.Status = domain.OrderStatusFilled
	} else {
		order.Status = domain.OrderStatusPartiallyFilled
	}
	if slippage != nil {
		order.Slippage = slippage
	}

	// Partially filled orders are terminal, so any remaining reservation
	// is released in full, floored at zero.
	e.releaseReservationLocked(account, order)

	order.Mu.Unlock()
	account.Mu.Unlock()

	e.trades.Append(trade)
	e.orders.RemovePending(order.OrderNo)

	if e.journal != nil {
		if err := e.journal.RecordTrade(ctx, trade); err != nil {
			slog.Warn("trade journal write failed",
				slog.String("trade_id", trade.TradeID),
				slog.String("error", err.Error()))
		}
	}
	e.recordOrderEvent(ctx, order, "")

	slog.Info("order executed",
		slog.String("order_no", order.OrderNo),
		slog.String("side", string(order.Side)),
		slog.String("symbol", order.Symbol),
		slog.String("price", executionPrice.String()),
		slog.String("quantity", filledQuantity.String()),
		slog.String("status", string(order.Status)))

	if e.dispatcher != nil {
		e.dispatcher.DispatchTradeExecuted(account, order, trade)
		e.dispatcher.DispatchPositionUpdate(account)
	}

	return true
}

// Cancel transitions a pending order to CANCELLED and releases any cash
// reserved for it, floored at zero. Orders in any other status return
// false with no further effect, so repeated cancels are idempotent.
func (e *Executor) Cancel(ctx context.Context, order *domain.Order, reason string) bool {
	if order.CurrentStatus() != domain.OrderStatusPending {
		return false
	}

	account, err := e.accounts.Get(order.AccountID)
	if err != nil {
		slog.Error("account not found for order",
			slog.String("order_no", order.OrderNo),
			slog.String("account_id", order.AccountID))
		return false
	}

	account.Mu.Lock()
	order.Mu.Lock()
	if order.Status != domain.OrderStatusPending {
		order.Mu.Unlock()
		account.Mu.Unlock()
		return false
	}
	order.Status = domain.OrderStatusCancelled
	e.releaseReservationLocked(account, order)
	order.Mu.Unlock()
	account.Mu.Unlock()

	e.orders.RemovePending(order.OrderNo)
	e.recordOrderEvent(ctx, order, reason)

	slog.Info("order cancelled",
		slog.String("order_no", order.OrderNo),
		slog.String("reason", reason))
	return true
}

// releaseReservationLocked returns the order's remaining reserved cash to
// the spendable pool. Never releases more than the account has frozen.
// Caller must hold the account mutex.
func (e *Executor) releaseReservationLocked(account *domain.Account, order *domain.Order) {
	if order.FrozenCash.IsZero() {
		return
	}
	release := order.FrozenCash
	if account.FrozenCash.LessThan(release) {
		release = account.FrozenCash
	}
	account.FrozenCash = account.FrozenCash.Sub(release)
	order.FrozenCash = decimal.Zero
}

func (e *Executor) recordOrderEvent(ctx context.Context, order *domain.Order, reason string) {
	if e.journal == nil {
		return
	}
	if reason == "" {
		reason = order.RejectionReason
	}
	if err := e.journal.RecordOrderEvent(ctx, order.OrderNo, order.Status, reason, time.Now().UnixMicro()); err != nil {
		slog.Warn("order event journal write failed",
			slog.String("order_no", order.OrderNo),
			slog.String("error", err.Error()))
	}
}
