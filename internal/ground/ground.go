// Package ground is the operator side of the link: it receives telemetry
// into a cache and sends commands to the vehicle.
package ground

import (
	"log/slog"

	"github.com/eytandecker/quadlink/internal/link"
)

// Poller is a non-blocking datagram source; link.Endpoint implements it.
type Poller interface {
	Poll() (link.Datagram, bool, error)
}

// Sender sends one datagram to the vehicle; link.Endpoint implements it.
type Sender interface {
	Send(payload []byte) error
}

// Option configures a Receiver or Commander.
type Option func(*options)

type options struct {
	logger *slog.Logger
	rec    FrameRecorder
	relay  Broadcaster
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRecorder appends every received frame to rec.
func WithRecorder(rec FrameRecorder) Option {
	return func(o *options) {
		o.rec = rec
	}
}

// WithRelay forwards every received frame and status to b.
func WithRelay(b Broadcaster) Option {
	return func(o *options) {
		o.relay = b
	}
}

func applyOptions(opts []Option) options {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
