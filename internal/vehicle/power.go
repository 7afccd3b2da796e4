package vehicle

import (
	"context"
	"log/slog"
	"time"

	"github.com/eytandecker/quadlink/internal/flight"
)

// Battery drains the pack linearly, independent of mode or load.
type Battery struct {
	store    *flight.Store
	interval time.Duration
	drain    float64
	depleted bool
	logger   *slog.Logger
}

// NewBattery creates a power model removing drain percent per interval.
func NewBattery(store *flight.Store, interval time.Duration, drain float64, opts ...Option) *Battery {
	o := applyOptions(opts)
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &Battery{store: store, interval: interval, drain: drain, logger: o.logger}
}

// Tick applies one interval of drain.
func (b *Battery) Tick() {
	level := b.store.Drain(b.drain)
	if level == 0 && !b.depleted {
		b.depleted = true
		b.logger.Warn("battery: depleted")
	}
}

// Run drains until ctx is done.
func (b *Battery) Run(ctx context.Context) error {
	return tick(ctx, b.interval, b.Tick)
}
