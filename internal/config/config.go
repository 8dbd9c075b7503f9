package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration for the trading arena.
type Config struct {
	Port     int
	LogLevel string

	CommissionRate float64
	MinCommission  float64
	MaxOrderValue  float64

	MinSlippageBps         float64
	MaxSlippageBps         float64
	MinLatency             time.Duration
	MaxLatency             time.Duration
	RejectionProbability   float64
	PartialFillProbability float64

	SweepInterval time.Duration
	PriceTTL      time.Duration
	PriceHistory  time.Duration
	SamplingDepth int

	JournalPath string // empty disables the trade journal

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applies defaults,
// and validates values. It returns an error for any invalid value.
func Load() (*Config, error) {
	port, err := getInt("PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	logLevel := getStr("LOG_LEVEL", "info")
	if !isValidLogLevel(logLevel) {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %q, must be one of: debug, info, warn, error", logLevel)
	}

	commissionRate, err := getFloat("COMMISSION_RATE", 0.001)
	if err != nil {
		return nil, fmt.Errorf("invalid COMMISSION_RATE: %w", err)
	}
	if commissionRate < 0 || commissionRate >= 1 {
		return nil, fmt.Errorf("invalid COMMISSION_RATE: %v, must be in [0, 1)", commissionRate)
	}

	minCommission, err := getFloat("MIN_COMMISSION", 1.0)
	if err != nil {
		return nil, fmt.Errorf("invalid MIN_COMMISSION: %w", err)
	}
	if minCommission < 0 {
		return nil, fmt.Errorf("invalid MIN_COMMISSION: %v, must be >= 0", minCommission)
	}

	maxOrderValue, err := getFloat("MAX_ORDER_VALUE", 100000)
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_ORDER_VALUE: %w", err)
	}
	if maxOrderValue <= 0 {
		return nil, fmt.Errorf("invalid MAX_ORDER_VALUE: %v, must be > 0", maxOrderValue)
	}

	minSlippageBps, err := getFloat("MIN_SLIPPAGE_BPS", 1)
	if err != nil {
		return nil, fmt.Errorf("invalid MIN_SLIPPAGE_BPS: %w", err)
	}
	if minSlippageBps < 0 {
		return nil, fmt.Errorf("invalid MIN_SLIPPAGE_BPS: %v, must be >= 0", minSlippageBps)
	}

	maxSlippageBps, err := getFloat("MAX_SLIPPAGE_BPS", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_SLIPPAGE_BPS: %w", err)
	}
	if maxSlippageBps < minSlippageBps {
		return nil, fmt.Errorf("invalid MAX_SLIPPAGE_BPS: %v, must be >= MIN_SLIPPAGE_BPS (%v)", maxSlippageBps, minSlippageBps)
	}

	minLatency, err := getDuration("MIN_LATENCY", 50*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("invalid MIN_LATENCY: %w", err)
	}
	if minLatency < 0 {
		return nil, fmt.Errorf("invalid MIN_LATENCY: %v, must be >= 0", minLatency)
	}

	maxLatency, err := getDuration("MAX_LATENCY", 200*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_LATENCY: %w", err)
	}
	if maxLatency < minLatency {
		return nil, fmt.Errorf("invalid MAX_LATENCY: %v, must be >= MIN_LATENCY (%v)", maxLatency, minLatency)
	}

	rejectionProbability, err := getFloat("REJECTION_PROBABILITY", 0.02)
	if err != nil {
		return nil, fmt.Errorf("invalid REJECTION_PROBABILITY: %w", err)
	}
	if rejectionProbability < 0 || rejectionProbability > 1 {
		return nil, fmt.Errorf("invalid REJECTION_PROBABILITY: %v, must be in [0, 1]", rejectionProbability)
	}

	partialFillProbability, err := getFloat("PARTIAL_FILL_PROBABILITY", 0.1)
	if err != nil {
		return nil, fmt.Errorf("invalid PARTIAL_FILL_PROBABILITY: %w", err)
	}
	if partialFillProbability < 0 || partialFillProbability > 1 {
		return nil, fmt.Errorf("invalid PARTIAL_FILL_PROBABILITY: %v, must be in [0, 1]", partialFillProbability)
	}

	sweepInterval, err := getDuration("SWEEP_INTERVAL", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid SWEEP_INTERVAL: %w", err)
	}

	priceTTL, err := getDuration("PRICE_TTL", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid PRICE_TTL: %w", err)
	}

	priceHistory, err := getDuration("PRICE_HISTORY", time.Hour)
	if err != nil {
		return nil, fmt.Errorf("invalid PRICE_HISTORY: %w", err)
	}

	samplingDepth, err := getInt("SAMPLING_DEPTH", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid SAMPLING_DEPTH: %w", err)
	}
	if samplingDepth < 1 {
		return nil, fmt.Errorf("invalid SAMPLING_DEPTH: %d, must be >= 1", samplingDepth)
	}

	// Unlike the other string vars, an explicitly empty JOURNAL_PATH is
	// meaningful: it disables the journal.
	journalPath := "arena.db"
	if v, ok := os.LookupEnv("JOURNAL_PATH"); ok {
		journalPath = v
	}

	readTimeout, err := getDuration("READ_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid READ_TIMEOUT: %w", err)
	}

	writeTimeout, err := getDuration("WRITE_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid WRITE_TIMEOUT: %w", err)
	}

	idleTimeout, err := getDuration("IDLE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid IDLE_TIMEOUT: %w", err)
	}

	shutdownTimeout, err := getDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
	}

	return &Config{
		Port:                   port,
		LogLevel:               logLevel,
		CommissionRate:         commissionRate,
		MinCommission:          minCommission,
		MaxOrderValue:          maxOrderValue,
		MinSlippageBps:         minSlippageBps,
		MaxSlippageBps:         maxSlippageBps,
		MinLatency:             minLatency,
		MaxLatency:             maxLatency,
		RejectionProbability:   rejectionProbability,
		PartialFillProbability: partialFillProbability,
		SweepInterval:          sweepInterval,
		PriceTTL:               priceTTL,
		PriceHistory:           priceHistory,
		SamplingDepth:          samplingDepth,
		JournalPath:            journalPath,
		ReadTimeout:            readTimeout,
		WriteTimeout:           writeTimeout,
		IdleTimeout:            idleTimeout,
		ShutdownTimeout:        shutdownTimeout,
	}, nil
}

func getStr(key, defaultVal string) string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v
}

func getInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(v)
}

func getFloat(key string, defaultVal float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.ParseFloat(v, 64)
}

func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return time.ParseDuration(v)
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}
