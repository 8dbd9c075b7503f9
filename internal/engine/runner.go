package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/HammerGPT/Hyper-Alpha-Arena/internal/store"
)

// Runner sweeps pending orders through the executor. It is invoked
// directly after price ticks and also runs as a periodic background loop.
// Processing is strictly sequential within one sweep; parallel safety is
// a property of the executor's per-account locking, not the runner.
type Runner struct {
	exec     *Executor
	orders   *store.OrderStore
	interval time.Duration
}

// NewRunner creates a Runner sweeping at the given interval.
func NewRunner(exec *Executor, orders *store.OrderStore, interval time.Duration) *Runner {
	return &Runner{
		exec:     exec,
		orders:   orders,
		interval: interval,
	}
}

// ProcessAllPending evaluates every pending order in submission order,
// optionally filtered to one account, and returns how many executed
// along with how many were checked.
func (r *Runner) ProcessAllPending(ctx context.Context, accountID *string) (executed, checked int) {
	pending := r.orders.PendingOrders(accountID)

	for _, order := range pending {
		if r.exec.TryExecute(ctx, order) {
			executed++
		}
	}

	slog.Info("processed pending orders",
		slog.Int("checked", len(pending)),
		slog.Int("executed", executed))
	return executed, len(pending)
}

// Start launches a background goroutine that ticks at the configured
// interval and sweeps all pending orders. It stops when ctx is cancelled.
func (r *Runner) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.ProcessAllPending(ctx, nil)
			}
		}
	}()
}
