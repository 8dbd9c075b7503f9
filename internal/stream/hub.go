// Package stream broadcasts trade and position updates to connected
// websocket clients. Settlement results flow in through the engine's
// dispatcher interface; broadcast failures never affect accounting.
package stream

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/HammerGPT/Hyper-Alpha-Arena/internal/domain"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// envelope is the wire format for every broadcast message.
type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Hub fans out JSON messages to all connected clients. Slow or failed
// connections are dropped; a full broadcast queue drops the message
// rather than blocking the producer.
type Hub struct {
	mu        sync.Mutex
	clients   map[*websocket.Conn]bool
	broadcast chan []byte
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan []byte, 256),
	}
}

// Run pumps broadcast messages to clients until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
					client.Close()
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Handle upgrades an HTTP request to a websocket connection and registers
// it for broadcasts.
func (h *Hub) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast queues a typed message for delivery to all clients. It never
// blocks: when the queue is full the message is dropped.
func (h *Hub) Broadcast(msgType string, data any) {
	payload, err := json.Marshal(envelope{Type: msgType, Data: data})
	if err != nil {
		slog.Warn("broadcast marshal failed", slog.String("type", msgType), slog.String("error", err.Error()))
		return
	}
	select {
	case h.broadcast <- payload:
	default:
		slog.Debug("broadcast queue full, dropping message", slog.String("type", msgType))
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		client.Close()
	}
	h.clients = make(map[*websocket.Conn]bool)
}

// tradeUpdate is the payload published after every settled fill.
type tradeUpdate struct {
	TradeID    string  `json:"trade_id"`
	OrderNo    string  `json:"order_no"`
	AccountID  string  `json:"account_id"`
	Symbol     string  `json:"symbol"`
	Market     string  `json:"market"`
	Side       string  `json:"side"`
	Price      string  `json:"price"`
	Quantity   string  `json:"quantity"`
	Commission string  `json:"commission"`
	Notional   string  `json:"notional"`
	Status     string  `json:"status"`
	Slippage   *string `json:"slippage"`
	TradeTime  string  `json:"trade_time"`
}

// positionUpdate is the payload published after positions change.
type positionUpdate struct {
	AccountID string             `json:"account_id"`
	Positions []positionSnapshot `json:"positions"`
}

type positionSnapshot struct {
	Symbol            string `json:"symbol"`
	Market            string `json:"market"`
	Quantity          string `json:"quantity"`
	AvailableQuantity string `json:"available_quantity"`
	AvgCost           string `json:"avg_cost"`
}

// DispatchTradeExecuted publishes a trade_update message.
func (h *Hub) DispatchTradeExecuted(account *domain.Account, order *domain.Order, trade *domain.Trade) {
	update := tradeUpdate{
		TradeID:    trade.TradeID,
		OrderNo:    trade.OrderNo,
		AccountID:  trade.AccountID,
		Symbol:     trade.Symbol,
		Market:     trade.Market,
		Side:       string(trade.Side),
		Price:      trade.Price.String(),
		Quantity:   trade.Quantity.String(),
		Commission: trade.Commission.String(),
		Notional:   trade.Notional().String(),
		Status:     string(order.Status),
		TradeTime:  trade.ExecutedAt.UTC().Format(time.RFC3339Nano),
	}
	if order.Slippage != nil {
		s := order.Slippage.String()
		update.Slippage = &s
	}
	h.Broadcast("trade_update", update)
}

// DispatchPositionUpdate publishes a position_update message with the
// account's full position list.
func (h *Hub) DispatchPositionUpdate(account *domain.Account) {
	account.Mu.Lock()
	positions := make([]positionSnapshot, 0, len(account.Positions))
	for _, p := range account.Positions {
		positions = append(positions, positionSnapshot{
			Symbol:            p.Symbol,
			Market:            p.Market,
			Quantity:          p.Quantity.String(),
			AvailableQuantity: p.AvailableQuantity.String(),
			AvgCost:           p.AvgCost.String(),
		})
	}
	accountID := account.ID
	account.Mu.Unlock()

	h.Broadcast("position_update", positionUpdate{
		AccountID: accountID,
		Positions: positions,
	})
}
