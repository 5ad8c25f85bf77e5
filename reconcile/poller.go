package reconcile

import (
	"context"
	"log/slog"
	"time"
)

// Poller drives the engine on a fixed schedule: an immediate first-load
// cycle, then a background refresh per tick. There is no per-cycle retry;
// the next tick is the retry mechanism.
type Poller struct {
	engine   *Engine
	interval time.Duration
	logger   *slog.Logger
}

// NewPoller returns a poller that refreshes every interval.
func NewPoller(engine *Engine, interval time.Duration, logger *slog.Logger) *Poller {
	return &Poller{
		engine:   engine,
		interval: interval,
		logger:   logger,
	}
}

// Start runs the polling loop. It blocks until ctx is cancelled. In-progress
// cycles are not cancelled mid-flight; cancellation takes effect at the next
// tick.
func (p *Poller) Start(ctx context.Context) {
	p.logger.Info("poller started", "interval", p.interval)

	p.engine.Refresh(ctx, true)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("poller stopped")
			return
		case <-ticker.C:
			p.engine.Refresh(ctx, false)
		}
	}
}
