package vehicle

import (
	"context"
	"log/slog"
	"time"

	"github.com/eytandecker/quadlink/internal/flight"
	"github.com/eytandecker/quadlink/pkg/types"
)

// EngineConfig holds the mode/waypoint engine constants.
type EngineConfig struct {
	Interval        time.Duration
	TakeoffAltitude float64
	Tolerance       float64
}

// Engine turns the flight mode and mission into a control target each tick.
// It never changes the mode; it only advances the waypoint index on arrival.
type Engine struct {
	pose   PoseSource
	target TargetSetter
	store  *flight.Store
	cfg    EngineConfig
	logger *slog.Logger
}

// NewEngine creates an Engine.
func NewEngine(pose PoseSource, target TargetSetter, store *flight.Store, cfg EngineConfig, opts ...Option) *Engine {
	o := applyOptions(opts)
	if cfg.Interval <= 0 {
		cfg.Interval = 50 * time.Millisecond
	}
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = 0.1
	}
	if cfg.TakeoffAltitude <= 0 {
		cfg.TakeoffAltitude = 2.0
	}
	return &Engine{pose: pose, target: target, store: store, cfg: cfg, logger: o.logger}
}

// Tick computes and pushes one control target.
func (e *Engine) Tick() {
	snap := e.store.Snapshot()
	pos := e.pose.Position()

	switch snap.Mode {
	case flight.ModeTakeoff:
		e.target.SetTarget(types.Point{pos.X(), pos.Y(), e.cfg.TakeoffAltitude})
	case flight.ModeLand:
		e.target.SetTarget(types.Point{pos.X(), pos.Y(), 0})
	case flight.ModeRTL:
		e.target.SetTarget(types.Point{})
	case flight.ModeGuided:
		wp, ok := snap.Target()
		if !ok {
			// mission complete: the control law keeps the last target
			return
		}
		e.target.SetTarget(wp)
		if !pos.Within(wp, e.cfg.Tolerance) {
			return
		}
		if next, advanced := e.store.AdvanceWaypoint(snap.Generation, snap.WaypointIndex); advanced {
			e.logger.Info("engine: reached waypoint", "index", next, "total", len(snap.Waypoints))
		}
	}
}

// Run ticks until ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	return tick(ctx, e.cfg.Interval, e.Tick)
}
