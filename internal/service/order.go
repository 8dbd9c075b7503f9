package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/HammerGPT/Hyper-Alpha-Arena/internal/domain"
	"github.com/HammerGPT/Hyper-Alpha-Arena/internal/engine"
	"github.com/HammerGPT/Hyper-Alpha-Arena/internal/market"
	"github.com/HammerGPT/Hyper-Alpha-Arena/internal/store"
)

var (
	orderSymbolRegex = regexp.MustCompile(`^[A-Z0-9]{1,10}$`)
	marketRegex      = regexp.MustCompile(`^[A-Z]{1,16}$`)
)

// DefaultMarket is used when a request omits the market.
const DefaultMarket = "CRYPTO"

// ValidOrderStatuses lists all valid order status values for validation.
var ValidOrderStatuses = map[domain.OrderStatus]bool{
	domain.OrderStatusPending:         true,
	domain.OrderStatusFilled:          true,
	domain.OrderStatusPartiallyFilled: true,
	domain.OrderStatusRejected:        true,
	domain.OrderStatusCancelled:       true,
}

// SubmitOrderRequest represents the input for order submission. All
// externally supplied orders, whether user- or strategy-originated, go
// through the same validation path.
type SubmitOrderRequest struct {
	AccountID string
	Symbol    string
	Name      string
	Market    string
	Side      domain.OrderSide
	Type      domain.OrderType
	Price     *float64 // required for limit, optional reference for market
	Quantity  float64
}

// OrderService validates and creates orders, drives their synchronous
// execution attempt, and exposes retrieval, listing, and cancellation.
type OrderService struct {
	exec         *engine.Executor
	accountStore *store.AccountStore
	orderStore   *store.OrderStore
	tradeStore   *store.TradeStore
	prices       market.PriceSource
	fees         domain.FeeSchedule
}

// NewOrderService creates a new OrderService with the given dependencies.
func NewOrderService(
	exec *engine.Executor,
	accountStore *store.AccountStore,
	orderStore *store.OrderStore,
	tradeStore *store.TradeStore,
	prices market.PriceSource,
	fees domain.FeeSchedule,
) *OrderService {
	return &OrderService{
		exec:         exec,
		accountStore: accountStore,
		orderStore:   orderStore,
		tradeStore:   tradeStore,
		prices:       prices,
		fees:         fees,
	}
}

// SubmitOrder validates the request, creates a pending order, and
// immediately attempts execution. The returned order may therefore
// already be FILLED, PARTIALLY_FILLED, or REJECTED.
func (s *OrderService) SubmitOrder(ctx context.Context, req SubmitOrderRequest) (*domain.Order, error) {
	order, err := s.CreateOrder(ctx, req)
	if err != nil {
		return nil, err
	}

	s.exec.TryExecute(ctx, order)
	return order, nil
}

// CreateOrder validates the request against account funds and positions
// and persists a PENDING order. Limit buys reserve their estimated cost
// (notional at the limit price plus commission) as frozen cash; market
// buys are re-validated at settlement instead.
func (s *OrderService) CreateOrder(ctx context.Context, req SubmitOrderRequest) (*domain.Order, error) {
	if req.Type != domain.OrderTypeMarket && req.Type != domain.OrderTypeLimit {
		return nil, &domain.ValidationError{
			Message: fmt.Sprintf("Unknown order type: %s. Must be one of: MARKET, LIMIT", req.Type),
		}
	}
	if req.Side != domain.OrderSideBuy && req.Side != domain.OrderSideSell {
		return nil, &domain.ValidationError{
			Message: "side must be 'BUY' or 'SELL'",
		}
	}
	if !orderSymbolRegex.MatchString(req.Symbol) {
		return nil, &domain.ValidationError{
			Message: "symbol must match ^[A-Z0-9]{1,10}$",
		}
	}
	marketName := req.Market
	if marketName == "" {
		marketName = DefaultMarket
	}
	if !marketRegex.MatchString(marketName) {
		return nil, &domain.ValidationError{
			Message: "market must match ^[A-Z]{1,16}$",
		}
	}
	if req.Quantity <= 0 {
		return nil, &domain.ValidationError{
			Message: "quantity must be greater than 0",
		}
	}
	if req.Type == domain.OrderTypeLimit && (req.Price == nil || *req.Price <= 0) {
		return nil, &domain.ValidationError{
			Message: "limit orders must specify a positive price",
		}
	}

	account, err := s.accountStore.Get(req.AccountID)
	if err != nil {
		return nil, err
	}

	quantity := decimal.NewFromFloat(req.Quantity)

	var limitPrice *decimal.Decimal
	if req.Price != nil {
		p := decimal.NewFromFloat(*req.Price)
		limitPrice = &p
	}

	// Reference price for the funds check: live market price for market
	// orders, the stated limit price for limit orders.
	var checkPrice decimal.Decimal
	if req.Type == domain.OrderTypeMarket {
		checkPrice, err = s.prices.LastPrice(req.Symbol, marketName)
		if err != nil {
			return nil, &domain.ValidationError{
				Message: fmt.Sprintf("unable to get market price for market order: %v", err),
			}
		}
	} else {
		checkPrice = *limitPrice
	}

	order := &domain.Order{
		OrderNo:   newOrderNo(),
		AccountID: account.ID,
		Symbol:    req.Symbol,
		Name:      req.Name,
		Market:    marketName,
		Side:      req.Side,
		Type:      req.Type,
		Price:     limitPrice,
		Quantity:  quantity,
		Status:    domain.OrderStatusPending,
		CreatedAt: time.Now(),
	}

	account.Mu.Lock()
	if req.Side == domain.OrderSideBuy {
		notional := checkPrice.Mul(quantity)
		required := notional.Add(s.fees.Commission(notional))

		if account.SpendableCash().LessThan(required) {
			account.Mu.Unlock()
			return nil, fmt.Errorf("%w: need $%s, spendable $%s",
				domain.ErrInsufficientCash,
				required.StringFixed(2), account.SpendableCash().StringFixed(2))
		}

		if req.Type == domain.OrderTypeLimit {
			account.FrozenCash = account.FrozenCash.Add(required)
			order.FrozenCash = required
		}
	} else {
		position := account.Position(req.Symbol, marketName)
		if position == nil || position.AvailableQuantity.LessThan(quantity) {
			available := decimal.Zero
			if position != nil {
				available = position.AvailableQuantity
			}
			account.Mu.Unlock()
			return nil, fmt.Errorf("%w: need %s %s, available %s",
				domain.ErrInsufficientPosition,
				quantity.String(), req.Symbol, available.String())
		}
	}
	account.Mu.Unlock()

	s.orderStore.Create(order)

	slog.Info("order created",
		slog.String("order_no", order.OrderNo),
		slog.String("account_id", account.ID),
		slog.String("side", string(order.Side)),
		slog.String("type", string(order.Type)),
		slog.String("symbol", order.Symbol),
		slog.String("quantity", quantity.String()))

	return order, nil
}

// GetOrder retrieves an order by order number.
func (s *OrderService) GetOrder(orderNo string) (*domain.Order, error) {
	return s.orderStore.Get(orderNo)
}

// CancelOrder cancels a pending order and releases its cash reservation.
// Orders already in a terminal state return domain.ErrOrderNotCancellable.
func (s *OrderService) CancelOrder(ctx context.Context, orderNo, reason string) (*domain.Order, error) {
	order, err := s.orderStore.Get(orderNo)
	if err != nil {
		return nil, err
	}
	if reason == "" {
		reason = "user cancelled"
	}
	if !s.exec.Cancel(ctx, order, reason) {
		return nil, domain.ErrOrderNotCancellable
	}
	return order, nil
}

// ListOrders returns a paginated list of orders for an account with
// optional status filtering, newest first.
func (s *OrderService) ListOrders(accountID string, status *domain.OrderStatus, page, limit int) ([]*domain.Order, int, error) {
	if !s.accountStore.Exists(accountID) {
		return nil, 0, domain.ErrAccountNotFound
	}

	if status != nil {
		if !ValidOrderStatuses[*status] {
			return nil, 0, &domain.ValidationError{
				Message: fmt.Sprintf("Invalid status filter: '%s'. Must be one of: PENDING, FILLED, PARTIALLY_FILLED, REJECTED, CANCELLED", *status),
			}
		}
	}

	if page < 1 {
		return nil, 0, &domain.ValidationError{
			Message: "page must be >= 1",
		}
	}
	if limit < 1 || limit > 100 {
		return nil, 0, &domain.ValidationError{
			Message: "limit must be between 1 and 100",
		}
	}

	orders, total := s.orderStore.ListByAccount(accountID, status, page, limit)
	return orders, total, nil
}

// ListTrades returns all trades for an account in chronological order.
func (s *OrderService) ListTrades(accountID string) ([]*domain.Trade, error) {
	if !s.accountStore.Exists(accountID) {
		return nil, domain.ErrAccountNotFound
	}
	return s.tradeStore.GetByAccount(accountID), nil
}

// newOrderNo generates a 16-character order number.
func newOrderNo() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:16]
}
