package handler

import (
	"bufio"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/HammerGPT/Hyper-Alpha-Arena/internal/engine"
	"github.com/HammerGPT/Hyper-Alpha-Arena/internal/market"
	"github.com/HammerGPT/Hyper-Alpha-Arena/internal/service"
	"github.com/HammerGPT/Hyper-Alpha-Arena/internal/stream"
)

// NewRouter creates a chi router with all routes registered, request
// logging, and Content-Type validation middleware.
func NewRouter(
	accountSvc *service.AccountService,
	orderSvc *service.OrderService,
	runner *engine.Runner,
	board *market.Board,
	cache *market.PriceCache,
	sampling *market.SamplingPool,
	hub *stream.Hub,
	logger *slog.Logger,
) chi.Router {
	r := chi.NewRouter()

	// Global middleware.
	r.Use(requestLogging(logger))
	r.Use(contentTypeJSON)

	// Create handlers.
	accountH := NewAccountHandler(accountSvc)
	orderH := NewOrderHandler(orderSvc)
	marketH := NewMarketHandler(board, cache, sampling)
	sweepH := NewSweepHandler(runner)

	// Health check.
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Account routes.
	r.Post("/accounts", accountH.Create)
	r.Get("/accounts", accountH.List)
	r.Get("/accounts/{account_id}", accountH.Get)
	r.Get("/accounts/{account_id}/positions", accountH.GetPositions)
	r.Get("/accounts/{account_id}/orders", orderH.ListOrders)
	r.Get("/accounts/{account_id}/trades", orderH.ListTrades)

	// Order routes.
	r.Post("/orders", orderH.SubmitOrder)
	r.Get("/orders/{order_no}", orderH.GetOrder)
	r.Delete("/orders/{order_no}", orderH.CancelOrder)
	r.Post("/orders/sweep", sweepH.Sweep)

	// Market data routes.
	r.Post("/symbols/{symbol}/price", marketH.RecordTick)
	r.Get("/symbols/{symbol}/price", marketH.GetPrice)
	r.Get("/symbols/{symbol}/samples", marketH.GetSamples)

	// Streaming.
	r.Get("/ws", hub.Handle)

	return r
}

// SweepHandler triggers a pending-order sweep on demand.
type SweepHandler struct {
	runner *engine.Runner
}

// NewSweepHandler creates a new SweepHandler.
func NewSweepHandler(runner *engine.Runner) *SweepHandler {
	return &SweepHandler{runner: runner}
}

// Sweep handles POST /orders/sweep with an optional account_id query
// parameter.
func (h *SweepHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	var accountID *string
	if id := r.URL.Query().Get("account_id"); id != "" {
		accountID = &id
	}

	executed, checked := h.runner.ProcessAllPending(r.Context(), accountID)
	WriteJSON(w, http.StatusOK, map[string]int{
		"executed": executed,
		"checked":  checked,
	})
}

// requestLogging returns middleware that logs each request's method, path,
// status code, and duration using slog.
func requestLogging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

// Hijack delegates to the underlying ResponseWriter so the websocket
// upgrade works through the logging middleware.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, http.ErrNotSupported
	}
	return h.Hijack()
}

// contentTypeJSON is middleware that validates Content-Type for POST, PUT,
// and PATCH requests. If the Content-Type header doesn't start with
// "application/json", it returns 400 Bad Request before the handler runs.
func contentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct == "" || !strings.HasPrefix(ct, "application/json") {
				WriteError(w, http.StatusBadRequest, "invalid_request",
					"Content-Type must be application/json")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
