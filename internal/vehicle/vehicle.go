// Package vehicle runs the flight-control coordination tasks: command
// ingress, telemetry egress, the mode/waypoint engine, the power model and
// the reboot coordinator. The tasks share one flight.Store and nothing else.
package vehicle

import (
	"context"
	"log/slog"
	"time"

	"github.com/eytandecker/quadlink/internal/link"
	"github.com/eytandecker/quadlink/pkg/types"
)

// PoseSource is the dynamics integrator's pose accessor.
type PoseSource interface {
	Position() types.Point
	Orientation() types.Point
}

// TargetSetter is the control law's "set target pose" operation.
type TargetSetter interface {
	SetTarget(target types.Point)
}

// Poller is a non-blocking datagram source; link.Endpoint implements it.
type Poller interface {
	Poll() (link.Datagram, bool, error)
}

// JSONSender sends one JSON datagram to the ground station.
type JSONSender interface {
	SendJSON(v any) error
}

// Option configures a vehicle task.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the task's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func applyOptions(opts []Option) options {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// tick runs fn every interval until ctx is done.
func tick(ctx context.Context, interval time.Duration, fn func()) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			fn()
		}
	}
}

// sleep pauses for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
