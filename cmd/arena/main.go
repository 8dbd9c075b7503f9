package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"

	"github.com/HammerGPT/Hyper-Alpha-Arena/internal/config"
	"github.com/HammerGPT/Hyper-Alpha-Arena/internal/domain"
	"github.com/HammerGPT/Hyper-Alpha-Arena/internal/engine"
	"github.com/HammerGPT/Hyper-Alpha-Arena/internal/handler"
	"github.com/HammerGPT/Hyper-Alpha-Arena/internal/market"
	"github.com/HammerGPT/Hyper-Alpha-Arena/internal/service"
	"github.com/HammerGPT/Hyper-Alpha-Arena/internal/store"
	"github.com/HammerGPT/Hyper-Alpha-Arena/internal/stream"
)

func main() {
	healthcheck := flag.Bool("healthcheck", false, "Run health check against running server")
	flag.Parse()

	// Handle -healthcheck flag: HTTP GET to localhost:PORT/healthz, exit 0/1.
	if *healthcheck {
		port := os.Getenv("PORT")
		if port == "" {
			port = "8080"
		}
		resp, err := http.Get(fmt.Sprintf("http://localhost:%s/healthz", port))
		if err != nil || resp.StatusCode != http.StatusOK {
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up slog logger with configured level.
	var logLevel slog.Level
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Stores.
	accountStore := store.NewAccountStore()
	orderStore := store.NewOrderStore()
	tradeStore := store.NewTradeStore()

	// Trade journal (optional).
	var journal engine.Journal
	if cfg.JournalPath != "" {
		tj, err := store.NewTradeJournal(cfg.JournalPath)
		if err != nil {
			logger.Error("failed to open trade journal", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer tj.Close()
		journal = tj
	}

	// Market data.
	board := market.NewBoard()
	cache := market.NewPriceCache(board, cfg.PriceTTL, cfg.PriceHistory)
	sampling := market.NewSamplingPool(cfg.SamplingDepth)

	// Fees.
	fees := domain.FeeSchedule{
		Rate: decimal.NewFromFloat(cfg.CommissionRate),
		Min:  decimal.NewFromFloat(cfg.MinCommission),
	}

	// Streaming hub.
	hub := stream.NewHub()

	// Engine.
	simCfg := engine.DefaultSimulatorConfig()
	simCfg.MaxOrderValue = decimal.NewFromFloat(cfg.MaxOrderValue)
	simCfg.MinSlippageBps = cfg.MinSlippageBps
	simCfg.MaxSlippageBps = cfg.MaxSlippageBps
	simCfg.MinLatency = cfg.MinLatency
	simCfg.MaxLatency = cfg.MaxLatency
	simCfg.RejectionProbability = cfg.RejectionProbability
	simCfg.PartialFillProbability = cfg.PartialFillProbability
	sim := engine.NewSimulator(simCfg, nil)
	exec := engine.NewExecutor(sim, cache, accountStore, orderStore, tradeStore, fees, journal, hub)
	runner := engine.NewRunner(exec, orderStore, cfg.SweepInterval)

	// Services.
	accountSvc := service.NewAccountService(accountStore)
	orderSvc := service.NewOrderService(exec, accountStore, orderStore, tradeStore, cache, fees)

	// Router.
	router := handler.NewRouter(accountSvc, orderSvc, runner, board, cache, sampling, hub, logger)

	// Start background loops with a cancellable context.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)
	runner.Start(ctx)

	// Configure HTTP server.
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	// Start HTTP server in a goroutine.
	go func() {
		logger.Info("server starting", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Wait for SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutdown signal received", slog.String("signal", sig.String()))

	// Graceful shutdown: stop HTTP server, cancel context (stops sweep loop).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}
	cancel()

	logger.Info("server stopped")
}
