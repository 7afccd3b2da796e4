package ground

import (
	"context"
	"errors"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/eytandecker/quadlink/internal/link"
	"github.com/eytandecker/quadlink/internal/state"
	"github.com/eytandecker/quadlink/pkg/types"
)

// FrameRecorder persists received frames; flightlog.Recorder implements it.
type FrameRecorder interface {
	Record(ctx context.Context, at time.Time, frame types.Telemetry) error
}

// Broadcaster fans frames out to live viewers; relay.Hub implements it.
type Broadcaster interface {
	SendJSON(v any)
}

const (
	receiveErrorPause = 100 * time.Millisecond
	progressEvery     = 1000
)

// Receiver decodes datagrams from the vehicle into the cache.
type Receiver struct {
	rx     Poller
	cache  *state.Manager
	opts   options
	failed uint64
}

// NewReceiver creates a Receiver reading from rx into cache.
func NewReceiver(rx Poller, cache *state.Manager, opts ...Option) *Receiver {
	return &Receiver{rx: rx, cache: cache, opts: applyOptions(opts)}
}

// Run receives until ctx is done or the endpoint is closed.
func (r *Receiver) Run(ctx context.Context) error {
	r.opts.logger.Info("receiver: listening for telemetry")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		dg, ok, err := r.rx.Poll()
		switch {
		case errors.Is(err, link.ErrClosed):
			return err
		case err != nil:
			r.opts.logger.Warn("receiver: receive failed", "err", err)
			select {
			case <-ctx.Done():
			case <-time.After(receiveErrorPause):
			}
			continue
		case !ok:
			continue
		}
		r.Handle(ctx, dg.Data)
	}
}

// Handle applies one datagram. Undecodable datagrams are logged and dropped.
func (r *Receiver) Handle(ctx context.Context, data []byte) {
	in, err := link.DecodeInbound(data)
	if err != nil {
		r.failed++
		r.opts.logger.Debug("receiver: dropped datagram", "err", err)
		return
	}

	if in.Status != nil {
		r.cache.UpdateStatus(*in.Status)
		r.opts.logger.Info("receiver: vehicle status", "status", in.Status.Status)
		if r.opts.relay != nil {
			r.opts.relay.SendJSON(in.Status)
		}
		return
	}

	frame := *in.Telemetry
	now := time.Now()
	r.cache.Update(frame)

	if r.opts.rec != nil {
		if err := r.opts.rec.Record(ctx, now, frame); err != nil {
			r.opts.logger.Warn("receiver: flight log write failed", "err", err)
		}
	}
	if r.opts.relay != nil {
		r.opts.relay.SendJSON(frame)
	}

	if n := r.cache.Frames(); n%progressEvery == 0 {
		r.opts.logger.Info("receiver: progress",
			"frames", humanize.Comma(int64(n)),
			"dropped", humanize.Comma(int64(r.failed)),
			"battery", frame.Battery,
			"mode", frame.Mode,
		)
	}
}
