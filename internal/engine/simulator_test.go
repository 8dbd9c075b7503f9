package engine

import (
	"context"
	"math/rand"
	"slices"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/HammerGPT/Hyper-Alpha-Arena/internal/domain"
)

// noiselessConfig disables every random effect: no latency, no slippage,
// no transient rejections, no partial fills. Only the liquidity cap
// remains active.
func noiselessConfig() SimulatorConfig {
	cfg := DefaultSimulatorConfig()
	cfg.MinSlippageBps = 0
	cfg.MaxSlippageBps = 0
	cfg.MinLatency = 0
	cfg.MaxLatency = 0
	cfg.RejectionProbability = 0
	cfg.PartialFillProbability = 0
	return cfg
}

func seededRNG(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

func TestSimulator_LiquidityCap(t *testing.T) {
	sim := NewSimulator(noiselessConfig(), seededRNG(1))
	ctx := context.Background()
	price := decimal.NewFromInt(50000)

	t.Run("exactly at cap passes", func(t *testing.T) {
		// 2 × 50000 = 100000, not strictly greater than the cap.
		result := sim.Simulate(ctx, "BTC", domain.OrderSideBuy, domain.OrderTypeMarket,
			decimal.NewFromInt(2), price, nil)
		if result.Status != domain.OrderStatusFilled {
			t.Errorf("Status = %s, want FILLED", result.Status)
		}
	})

	t.Run("strictly greater is rejected", func(t *testing.T) {
		result := sim.Simulate(ctx, "BTC", domain.OrderSideBuy, domain.OrderTypeMarket,
			decimal.RequireFromString("2.00001"), price, nil)
		if result.Status != domain.OrderStatusRejected {
			t.Fatalf("Status = %s, want REJECTED", result.Status)
		}
		if result.RejectionReason == "" {
			t.Error("RejectionReason is empty")
		}
	})
}

func TestSimulator_TransientRejection(t *testing.T) {
	cfg := noiselessConfig()
	cfg.RejectionProbability = 1
	sim := NewSimulator(cfg, seededRNG(1))

	slept := false
	sim.sleep = func(ctx context.Context, d time.Duration) { slept = true }

	result := sim.Simulate(context.Background(), "BTC", domain.OrderSideBuy,
		domain.OrderTypeMarket, decimal.NewFromInt(1), decimal.NewFromInt(100), nil)

	if result.Status != domain.OrderStatusRejected {
		t.Fatalf("Status = %s, want REJECTED", result.Status)
	}
	if !slices.Contains(transientRejections, result.RejectionReason) {
		t.Errorf("RejectionReason = %q, not in the transient rejection pool", result.RejectionReason)
	}
	// Rejection is decided before the latency step.
	if slept {
		t.Error("latency sleep ran before the rejection draw")
	}
}

func TestSimulator_NoRejectionAtZeroProbability(t *testing.T) {
	sim := NewSimulator(noiselessConfig(), seededRNG(1))
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		result := sim.Simulate(ctx, "BTC", domain.OrderSideBuy, domain.OrderTypeMarket,
			decimal.NewFromInt(1), decimal.NewFromInt(100), nil)
		if result.Status == domain.OrderStatusRejected {
			t.Fatalf("iteration %d: rejected with zero rejection probability", i)
		}
	}
}

func TestSimulator_LatencyWithinRange(t *testing.T) {
	cfg := noiselessConfig()
	cfg.MinLatency = 50 * time.Millisecond
	cfg.MaxLatency = 200 * time.Millisecond
	sim := NewSimulator(cfg, seededRNG(1))

	var slept []time.Duration
	sim.sleep = func(ctx context.Context, d time.Duration) { slept = append(slept, d) }

	ctx := context.Background()
	for i := 0; i < 50; i++ {
		sim.Simulate(ctx, "BTC", domain.OrderSideBuy, domain.OrderTypeMarket,
			decimal.NewFromInt(1), decimal.NewFromInt(100), nil)
	}

	if len(slept) != 50 {
		t.Fatalf("sleep invoked %d times, want 50", len(slept))
	}
	for _, d := range slept {
		if d < cfg.MinLatency || d > cfg.MaxLatency {
			t.Errorf("latency %s outside [%s, %s]", d, cfg.MinLatency, cfg.MaxLatency)
		}
	}
}

func TestSimulator_SlippageIsAdverse(t *testing.T) {
	// Min == Max pins the widened band so a large order draws exactly
	// MinSlippageBps.
	cfg := noiselessConfig()
	cfg.MinSlippageBps = 10
	cfg.MaxSlippageBps = 10
	cfg.SlippageSizeThreshold = decimal.NewFromInt(10000)
	sim := NewSimulator(cfg, seededRNG(1))
	ctx := context.Background()

	price := decimal.NewFromInt(50000)
	quantity := decimal.NewFromFloat(0.5) // $25k, above the size threshold

	t.Run("buy pays more", func(t *testing.T) {
		result := sim.Simulate(ctx, "BTC", domain.OrderSideBuy, domain.OrderTypeMarket,
			quantity, price, nil)
		want := decimal.RequireFromString("50050") // 50000 × 1.001
		if !result.ExecutionPrice.Equal(want) {
			t.Errorf("ExecutionPrice = %s, want %s", result.ExecutionPrice, want)
		}
		if !result.Slippage.Equal(decimal.RequireFromString("0.001")) {
			t.Errorf("Slippage = %s, want 0.001", result.Slippage)
		}
	})

	t.Run("sell receives less", func(t *testing.T) {
		result := sim.Simulate(ctx, "BTC", domain.OrderSideSell, domain.OrderTypeMarket,
			quantity, price, nil)
		if !result.ExecutionPrice.LessThan(price) {
			t.Errorf("ExecutionPrice = %s, want < %s", result.ExecutionPrice, price)
		}
		if !result.Slippage.IsPositive() {
			t.Errorf("Slippage = %s, want > 0", result.Slippage)
		}
	})
}

func TestSimulator_SmallOrderSlippageBand(t *testing.T) {
	// Below the size threshold slippage draws from [min, 2×min] bps
	// regardless of MaxSlippageBps.
	cfg := noiselessConfig()
	cfg.MinSlippageBps = 1
	cfg.MaxSlippageBps = 10
	sim := NewSimulator(cfg, seededRNG(1))
	ctx := context.Background()

	price := decimal.NewFromInt(100)
	low := decimal.RequireFromString("0.0001")  // 1 bps
	high := decimal.RequireFromString("0.0002") // 2 bps

	for i := 0; i < 100; i++ {
		result := sim.Simulate(ctx, "BTC", domain.OrderSideBuy, domain.OrderTypeMarket,
			decimal.NewFromInt(1), price, nil)
		if result.Slippage.LessThan(low) || result.Slippage.GreaterThan(high) {
			t.Fatalf("iteration %d: Slippage = %s, want within [%s, %s]",
				i, result.Slippage, low, high)
		}
	}
}

func TestSimulator_PartialFill(t *testing.T) {
	ctx := context.Background()
	price := decimal.NewFromInt(50000)

	t.Run("exactly at threshold never partial", func(t *testing.T) {
		cfg := noiselessConfig()
		cfg.PartialFillProbability = 1
		sim := NewSimulator(cfg, seededRNG(1))

		// 0.2 × 50000 = 10000, not strictly greater than the threshold.
		result := sim.Simulate(ctx, "BTC", domain.OrderSideBuy, domain.OrderTypeMarket,
			decimal.NewFromFloat(0.2), price, nil)
		if result.Status != domain.OrderStatusFilled {
			t.Errorf("Status = %s, want FILLED", result.Status)
		}
		if !result.FilledQuantity.Equal(decimal.NewFromFloat(0.2)) {
			t.Errorf("FilledQuantity = %s, want 0.2", result.FilledQuantity)
		}
	})

	t.Run("above threshold fills a fraction", func(t *testing.T) {
		cfg := noiselessConfig()
		cfg.PartialFillProbability = 1
		sim := NewSimulator(cfg, seededRNG(1))

		quantity := decimal.NewFromFloat(0.3) // $15k
		result := sim.Simulate(ctx, "BTC", domain.OrderSideBuy, domain.OrderTypeMarket,
			quantity, price, nil)
		if result.Status != domain.OrderStatusPartiallyFilled {
			t.Fatalf("Status = %s, want PARTIALLY_FILLED", result.Status)
		}
		low := quantity.Mul(decimal.NewFromFloat(0.5))
		high := quantity.Mul(decimal.NewFromFloat(0.9))
		if result.FilledQuantity.LessThan(low) || result.FilledQuantity.GreaterThan(high) {
			t.Errorf("FilledQuantity = %s, want within [%s, %s]",
				result.FilledQuantity, low, high)
		}
	})

	t.Run("zero probability always fills fully", func(t *testing.T) {
		sim := NewSimulator(noiselessConfig(), seededRNG(1))

		for i := 0; i < 100; i++ {
			result := sim.Simulate(ctx, "BTC", domain.OrderSideBuy, domain.OrderTypeMarket,
				decimal.NewFromFloat(0.3), price, nil)
			if result.Status != domain.OrderStatusFilled {
				t.Fatalf("iteration %d: Status = %s, want FILLED", i, result.Status)
			}
		}
	})
}

func TestSimulator_DeterministicWithSeed(t *testing.T) {
	cfg := DefaultSimulatorConfig()
	cfg.MinLatency = 0
	cfg.MaxLatency = 0

	a := NewSimulator(cfg, seededRNG(42))
	b := NewSimulator(cfg, seededRNG(42))
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		ra := a.Simulate(ctx, "BTC", domain.OrderSideBuy, domain.OrderTypeMarket,
			decimal.NewFromFloat(0.5), decimal.NewFromInt(50000), nil)
		rb := b.Simulate(ctx, "BTC", domain.OrderSideBuy, domain.OrderTypeMarket,
			decimal.NewFromFloat(0.5), decimal.NewFromInt(50000), nil)

		if ra.Status != rb.Status ||
			!ra.ExecutionPrice.Equal(rb.ExecutionPrice) ||
			!ra.FilledQuantity.Equal(rb.FilledQuantity) ||
			ra.RejectionReason != rb.RejectionReason {
			t.Fatalf("iteration %d: same seed diverged: %+v vs %+v", i, ra, rb)
		}
	}
}

func TestCtxSleep_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	ctxSleep(ctx, time.Minute)
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("ctxSleep with cancelled context blocked for %s", elapsed)
	}
}
