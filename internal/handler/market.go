package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/HammerGPT/Hyper-Alpha-Arena/internal/market"
)

// MarketHandler handles HTTP requests for market data endpoints: price
// tick ingestion, last-price queries, and sampling pool reads.
type MarketHandler struct {
	board    *market.Board
	cache    *market.PriceCache
	sampling *market.SamplingPool
}

// NewMarketHandler creates a new MarketHandler.
func NewMarketHandler(board *market.Board, cache *market.PriceCache, sampling *market.SamplingPool) *MarketHandler {
	return &MarketHandler{
		board:    board,
		cache:    cache,
		sampling: sampling,
	}
}

// priceTickRequest is the JSON request body for POST /symbols/{symbol}/price.
type priceTickRequest struct {
	Market string  `json:"market"`
	Price  float64 `json:"price"`
}

// RecordTick handles POST /symbols/{symbol}/price: records an external
// price observation into the board, cache, and sampling pool.
func (h *MarketHandler) RecordTick(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	var req priceTickRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if req.Price <= 0 {
		WriteError(w, http.StatusBadRequest, "validation_error", "price must be greater than 0")
		return
	}
	marketName := req.Market
	if marketName == "" {
		marketName = "CRYPTO"
	}

	price := decimal.NewFromFloat(req.Price)
	h.board.Set(symbol, marketName, price)
	h.cache.Record(symbol, marketName, price)
	h.sampling.Add(symbol, price)

	WriteJSON(w, http.StatusOK, map[string]any{
		"symbol": symbol,
		"market": marketName,
		"price":  req.Price,
	})
}

// GetPrice handles GET /symbols/{symbol}/price.
func (h *MarketHandler) GetPrice(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	marketName := r.URL.Query().Get("market")
	if marketName == "" {
		marketName = "CRYPTO"
	}

	price, err := h.cache.LastPrice(symbol, marketName)
	if err != nil {
		if errors.Is(err, market.ErrPriceUnavailable) {
			WriteError(w, http.StatusNotFound, "price_unavailable", "no price recorded for symbol")
			return
		}
		WriteError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"symbol": symbol,
		"market": marketName,
		"price":  price.InexactFloat64(),
	})
}

// sampleResponse is a single sampling pool entry.
type sampleResponse struct {
	Price float64 `json:"price"`
	At    string  `json:"at"`
}

// GetSamples handles GET /symbols/{symbol}/samples.
func (h *MarketHandler) GetSamples(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	samples := h.sampling.Samples(symbol)
	out := make([]sampleResponse, 0, len(samples))
	for _, s := range samples {
		out = append(out, sampleResponse{
			Price: s.Price.InexactFloat64(),
			At:    s.At.UTC().Format(time.RFC3339),
		})
	}

	resp := map[string]any{
		"symbol":  symbol,
		"samples": out,
	}
	if change, ok := h.sampling.PriceChangePercent(symbol); ok {
		resp["price_change_percent"] = change.InexactFloat64()
	}
	WriteJSON(w, http.StatusOK, resp)
}
