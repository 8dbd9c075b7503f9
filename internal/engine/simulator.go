package engine

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/HammerGPT/Hyper-Alpha-Arena/internal/domain"
)

// SimulationResult is the outcome of one simulated execution attempt.
type SimulationResult struct {
	Status          domain.OrderStatus // FILLED, PARTIALLY_FILLED, or REJECTED
	ExecutionPrice  decimal.Decimal
	FilledQuantity  decimal.Decimal
	Slippage        decimal.Decimal // |execution − reference| / reference
	RejectionReason string
}

// SimulatorConfig holds the tunable market-microstructure parameters.
// All thresholds compare against order value (reference price × quantity).
type SimulatorConfig struct {
	// Slippage in basis points. Orders below SlippageSizeThreshold draw
	// from [MinSlippageBps, 2×MinSlippageBps]; larger orders widen the
	// upper bound linearly toward MaxSlippageBps as order value
	// approaches MaxOrderValue.
	MinSlippageBps        float64
	MaxSlippageBps        float64
	SlippageSizeThreshold decimal.Decimal

	// Simulated exchange latency range.
	MinLatency time.Duration
	MaxLatency time.Duration

	// Liquidity ceiling. Order values strictly greater are rejected.
	MaxOrderValue decimal.Decimal

	// Partial fills apply only above the threshold, with the given
	// probability, filling a random fraction in [MinPartialFillPct,
	// MaxPartialFillPct].
	PartialFillThreshold   decimal.Decimal
	PartialFillProbability float64
	MinPartialFillPct      float64
	MaxPartialFillPct      float64

	// Base probability of a transient exchange-side rejection.
	RejectionProbability float64
}

// DefaultSimulatorConfig returns the standard paper trading parameters:
// 1–10 bps slippage, 50–200 ms latency, $100k liquidity cap, partial
// fills above $10k, and a 2% transient rejection rate.
func DefaultSimulatorConfig() SimulatorConfig {
	return SimulatorConfig{
		MinSlippageBps:         1,
		MaxSlippageBps:         10,
		SlippageSizeThreshold:  decimal.NewFromInt(10000),
		MinLatency:             50 * time.Millisecond,
		MaxLatency:             200 * time.Millisecond,
		MaxOrderValue:          decimal.NewFromInt(100000),
		PartialFillThreshold:   decimal.NewFromInt(10000),
		PartialFillProbability: 0.1,
		MinPartialFillPct:      0.5,
		MaxPartialFillPct:      0.9,
		RejectionProbability:   0.02,
	}
}

// transientRejections is the fixed pool of exchange-side failure reasons.
var transientRejections = []string{
	"simulated exchange error (503 Service Unavailable)",
	"simulated rate limit exceeded",
	"simulated symbol temporarily suspended",
	"simulated insufficient exchange liquidity",
}

// Simulator is a stateless, pseudo-randomized model of market
// microstructure for paper trading. The random source is injectable so
// tests can force each branch deterministically; with a nil source it
// seeds from the clock.
type Simulator struct {
	cfg   SimulatorConfig
	mu    sync.Mutex // guards rng, which is not safe for concurrent use
	rng   *rand.Rand
	sleep func(ctx context.Context, d time.Duration)
}

// NewSimulator creates a Simulator with the given configuration. rng may
// be nil for a time-seeded source.
func NewSimulator(cfg SimulatorConfig, rng *rand.Rand) *Simulator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Simulator{
		cfg:   cfg,
		rng:   rng,
		sleep: ctxSleep,
	}
}

// Simulate runs one execution attempt for an eligible order. Steps run in
// a fixed sequence, each assuming the previous ones passed: liquidity cap,
// transient rejection, latency, slippage, partial fill. currentPrice is
// the reference market price; limitPrice is informational for limit
// orders and does not affect the outcome.
func (s *Simulator) Simulate(
	ctx context.Context,
	symbol string,
	side domain.OrderSide,
	orderType domain.OrderType,
	quantity decimal.Decimal,
	currentPrice decimal.Decimal,
	limitPrice *decimal.Decimal,
) SimulationResult {
	orderValue := currentPrice.Mul(quantity)

	// Step 1: liquidity ceiling. Strictly-greater comparison: an order
	// valued exactly at the cap still passes.
	if orderValue.GreaterThan(s.cfg.MaxOrderValue) {
		return SimulationResult{
			Status: domain.OrderStatusRejected,
			RejectionReason: fmt.Sprintf("order size $%s exceeds maximum $%s",
				orderValue.StringFixed(2), s.cfg.MaxOrderValue.StringFixed(2)),
		}
	}

	// Step 2: transient exchange-side rejection.
	if reason, rejected := s.drawRejection(); rejected {
		return SimulationResult{
			Status:          domain.OrderStatusRejected,
			RejectionReason: reason,
		}
	}

	// Step 3: execution latency.
	s.sleep(ctx, s.drawLatency())

	// Step 4: adverse slippage.
	bps := s.drawSlippageBps(orderValue)
	multiplier := decimal.NewFromFloat(1 + bps/10000)

	var executionPrice decimal.Decimal
	if side == domain.OrderSideBuy {
		executionPrice = currentPrice.Mul(multiplier)
	} else {
		executionPrice = currentPrice.Div(multiplier)
	}

	// Step 5: partial fill for large orders.
	filledQuantity := quantity
	status := domain.OrderStatusFilled

	if orderValue.GreaterThan(s.cfg.PartialFillThreshold) {
		if pct, partial := s.drawPartialFill(); partial {
			filledQuantity = quantity.Mul(decimal.NewFromFloat(pct))
			status = domain.OrderStatusPartiallyFilled
		}
	}

	slippage := executionPrice.Sub(currentPrice).Abs().Div(currentPrice)

	return SimulationResult{
		Status:         status,
		ExecutionPrice: executionPrice,
		FilledQuantity: filledQuantity,
		Slippage:       slippage,
	}
}

func (s *Simulator) drawRejection() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg.RejectionProbability <= 0 {
		return "", false
	}
	if s.rng.Float64() >= s.cfg.RejectionProbability {
		return "", false
	}
	return transientRejections[s.rng.Intn(len(transientRejections))], true
}

func (s *Simulator) drawLatency() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	span := s.cfg.MaxLatency - s.cfg.MinLatency
	if span <= 0 {
		return s.cfg.MinLatency
	}
	return s.cfg.MinLatency + time.Duration(s.rng.Float64()*float64(span))
}

// drawSlippageBps picks a slippage amount in basis points. Small orders
// draw from a narrow band; larger orders widen the band linearly with
// order value relative to the liquidity cap.
func (s *Simulator) drawSlippageBps(orderValue decimal.Decimal) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if orderValue.LessThan(s.cfg.SlippageSizeThreshold) {
		return s.uniform(s.cfg.MinSlippageBps, s.cfg.MinSlippageBps*2)
	}

	sizeFactor := 1.0
	if s.cfg.MaxOrderValue.IsPositive() {
		f, _ := orderValue.Div(s.cfg.MaxOrderValue).Float64()
		if f < sizeFactor {
			sizeFactor = f
		}
	}
	upper := s.cfg.MinSlippageBps + (s.cfg.MaxSlippageBps-s.cfg.MinSlippageBps)*sizeFactor
	return s.uniform(s.cfg.MinSlippageBps, upper)
}

func (s *Simulator) drawPartialFill() (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg.PartialFillProbability <= 0 {
		return 0, false
	}
	if s.rng.Float64() >= s.cfg.PartialFillProbability {
		return 0, false
	}
	return s.uniform(s.cfg.MinPartialFillPct, s.cfg.MaxPartialFillPct), true
}

// uniform draws from [a, b). Caller must hold mu.
func (s *Simulator) uniform(a, b float64) float64 {
	if b <= a {
		return a
	}
	return a + s.rng.Float64()*(b-a)
}

// ctxSleep blocks for d or until ctx is cancelled, whichever comes first.
func ctxSleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
