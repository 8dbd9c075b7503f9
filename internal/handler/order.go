package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/HammerGPT/Hyper-Alpha-Arena/internal/domain"
	"github.com/HammerGPT/Hyper-Alpha-Arena/internal/service"
)

// OrderHandler handles HTTP requests for order endpoints.
type OrderHandler struct {
	orderSvc *service.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orderSvc *service.OrderService) *OrderHandler {
	return &OrderHandler{orderSvc: orderSvc}
}

// submitOrderRequest is the JSON request body for POST /orders.
type submitOrderRequest struct {
	AccountID string   `json:"account_id"`
	Symbol    string   `json:"symbol"`
	Name      string   `json:"name"`
	Market    string   `json:"market"`
	Side      string   `json:"side"`
	Type      string   `json:"type"`
	Price     *float64 `json:"price"`
	Quantity  float64  `json:"quantity"`
}

// orderResponse is the JSON representation of an order.
// Nullable fields use pointers and are always present.
type orderResponse struct {
	OrderNo         string   `json:"order_no"`
	AccountID       string   `json:"account_id"`
	Symbol          string   `json:"symbol"`
	Name            string   `json:"name"`
	Market          string   `json:"market"`
	Side            string   `json:"side"`
	Type            string   `json:"type"`
	Price           *float64 `json:"price"`
	Quantity        float64  `json:"quantity"`
	FilledQuantity  float64  `json:"filled_quantity"`
	Status          string   `json:"status"`
	Slippage        *float64 `json:"slippage"`
	RejectionReason *string  `json:"rejection_reason"`
	CreatedAt       string   `json:"created_at"`
}

func toOrderResponse(o *domain.Order) orderResponse {
	// A background sweep may be settling this order right now.
	o = o.Snapshot()
	resp := orderResponse{
		OrderNo:        o.OrderNo,
		AccountID:      o.AccountID,
		Symbol:         o.Symbol,
		Name:           o.Name,
		Market:         o.Market,
		Side:           string(o.Side),
		Type:           string(o.Type),
		Quantity:       o.Quantity.InexactFloat64(),
		FilledQuantity: o.FilledQuantity.InexactFloat64(),
		Status:         string(o.Status),
		CreatedAt:      o.CreatedAt.UTC().Format(time.RFC3339),
	}
	if o.Price != nil {
		p := o.Price.InexactFloat64()
		resp.Price = &p
	}
	if o.Slippage != nil {
		s := o.Slippage.InexactFloat64()
		resp.Slippage = &s
	}
	if o.RejectionReason != "" {
		r := o.RejectionReason
		resp.RejectionReason = &r
	}
	return resp
}

// tradeResponse is the JSON representation of a trade.
type tradeResponse struct {
	TradeID    string  `json:"trade_id"`
	OrderNo    string  `json:"order_no"`
	AccountID  string  `json:"account_id"`
	Symbol     string  `json:"symbol"`
	Market     string  `json:"market"`
	Side       string  `json:"side"`
	Price      float64 `json:"price"`
	Quantity   float64 `json:"quantity"`
	Commission float64 `json:"commission"`
	ExecutedAt string  `json:"executed_at"`
}

func toTradeResponse(t *domain.Trade) tradeResponse {
	return tradeResponse{
		TradeID:    t.TradeID,
		OrderNo:    t.OrderNo,
		AccountID:  t.AccountID,
		Symbol:     t.Symbol,
		Market:     t.Market,
		Side:       string(t.Side),
		Price:      t.Price.InexactFloat64(),
		Quantity:   t.Quantity.InexactFloat64(),
		Commission: t.Commission.InexactFloat64(),
		ExecutedAt: t.ExecutedAt.UTC().Format(time.RFC3339),
	}
}

// SubmitOrder handles POST /orders.
func (h *OrderHandler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req submitOrderRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	order, err := h.orderSvc.SubmitOrder(r.Context(), service.SubmitOrderRequest{
		AccountID: req.AccountID,
		Symbol:    req.Symbol,
		Name:      req.Name,
		Market:    req.Market,
		Side:      domain.OrderSide(req.Side),
		Type:      domain.OrderType(req.Type),
		Price:     req.Price,
		Quantity:  req.Quantity,
	})
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, toOrderResponse(order))
}

// GetOrder handles GET /orders/{order_no}.
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderNo := chi.URLParam(r, "order_no")

	order, err := h.orderSvc.GetOrder(orderNo)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toOrderResponse(order))
}

// CancelOrder handles DELETE /orders/{order_no}.
func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	orderNo := chi.URLParam(r, "order_no")
	reason := r.URL.Query().Get("reason")

	order, err := h.orderSvc.CancelOrder(r.Context(), orderNo, reason)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toOrderResponse(order))
}

// ListOrders handles GET /accounts/{account_id}/orders with optional
// status, page, and limit query parameters.
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "account_id")

	var status *domain.OrderStatus
	if s := r.URL.Query().Get("status"); s != "" {
		st := domain.OrderStatus(s)
		status = &st
	}

	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		parsed, err := strconv.Atoi(p)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "validation_error", "page must be an integer")
			return
		}
		page = parsed
	}

	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "validation_error", "limit must be an integer")
			return
		}
		limit = parsed
	}

	orders, total, err := h.orderSvc.ListOrders(accountID, status, page, limit)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o))
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"orders": out,
		"total":  total,
		"page":   page,
		"limit":  limit,
	})
}

// ListTrades handles GET /accounts/{account_id}/trades.
func (h *OrderHandler) ListTrades(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "account_id")

	trades, err := h.orderSvc.ListTrades(accountID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	out := make([]tradeResponse, 0, len(trades))
	for _, t := range trades {
		out = append(out, toTradeResponse(t))
	}
	WriteJSON(w, http.StatusOK, map[string]any{"trades": out})
}
