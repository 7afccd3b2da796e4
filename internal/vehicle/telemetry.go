package vehicle

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/eytandecker/quadlink/internal/flight"
	"github.com/eytandecker/quadlink/pkg/types"
)

// Telemetry broadcasts one state frame per interval. Frames are not buffered
// or retried.
type Telemetry struct {
	tx       JSONSender
	pose     PoseSource
	store    *flight.Store
	interval time.Duration
	logger   *slog.Logger
}

// NewTelemetry creates a Telemetry task.
func NewTelemetry(tx JSONSender, pose PoseSource, store *flight.Store, interval time.Duration, opts ...Option) *Telemetry {
	o := applyOptions(opts)
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	return &Telemetry{tx: tx, pose: pose, store: store, interval: interval, logger: o.logger}
}

// Frame builds a frame from the current pose and one store snapshot.
func (t *Telemetry) Frame() types.Telemetry {
	snap := t.store.Snapshot()
	return types.Telemetry{
		Position:      t.pose.Position(),
		Orientation:   t.pose.Orientation(),
		Battery:       math.Round(snap.Battery*100) / 100,
		Mode:          snap.Mode.String(),
		WaypointIndex: snap.WaypointIndex,
	}
}

// Send emits one frame. Failures are logged.
func (t *Telemetry) Send() {
	if err := t.tx.SendJSON(t.Frame()); err != nil {
		t.logger.Warn("telemetry: send failed", "err", err)
	}
}

// Run broadcasts until ctx is done.
func (t *Telemetry) Run(ctx context.Context) error {
	t.logger.Info("telemetry: broadcasting", "interval", t.interval)
	return tick(ctx, t.interval, t.Send)
}
