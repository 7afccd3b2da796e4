package vehicle

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/eytandecker/quadlink/internal/flight"
	"github.com/eytandecker/quadlink/internal/link"
	"github.com/eytandecker/quadlink/pkg/types"
)

// receiveErrorPause keeps a persistently failing socket from spinning the loop.
const receiveErrorPause = 100 * time.Millisecond

// Ingress receives command datagrams and applies them to the flight state.
type Ingress struct {
	rx     Poller
	store  *flight.Store
	reboot *Rebooter
	logger *slog.Logger
}

// NewIngress creates an Ingress reading from rx.
func NewIngress(rx Poller, store *flight.Store, reboot *Rebooter, opts ...Option) *Ingress {
	o := applyOptions(opts)
	return &Ingress{rx: rx, store: store, reboot: reboot, logger: o.logger}
}

// Run polls for commands until ctx is done, the endpoint is closed, or a
// reboot is requested. Bad datagrams are logged and dropped.
func (in *Ingress) Run(ctx context.Context) error {
	in.logger.Info("ingress: listening for commands")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		dg, ok, err := in.rx.Poll()
		if err != nil {
			if errors.Is(err, link.ErrClosed) {
				return err
			}
			in.logger.Warn("ingress: receive failed", "err", err)
			sleep(ctx, receiveErrorPause)
			continue
		}
		if !ok {
			continue
		}

		if err := in.Handle(dg.Data); err != nil {
			return err
		}
	}
}

// Handle decodes and applies one datagram. It only returns an error for a
// reboot request.
func (in *Ingress) Handle(data []byte) error {
	cmd, err := link.DecodeCommand(data)
	if err != nil {
		in.logger.Warn("ingress: discarding datagram", "err", err)
		return nil
	}
	if cmd.Empty() {
		in.logger.Debug("ingress: datagram carried no command", "size", len(data))
		return nil
	}
	return in.Apply(cmd)
}

// Apply applies the present fields in the order pid, mode, waypoints,
// reboot. Unknown modes are ignored.
func (in *Ingress) Apply(cmd types.Command) error {
	if cmd.PID != nil {
		skipped := in.store.MergeParams(cmd.PID)
		in.logger.Info("ingress: updated controller parameters", "groups", len(cmd.PID))
		if len(skipped) > 0 {
			in.logger.Warn("ingress: parameter entries not applied", "keys", skipped)
		}
	}

	if cmd.Mode != nil {
		m, err := in.store.SetMode(*cmd.Mode)
		if err != nil {
			in.logger.Debug("ingress: ignoring mode", "mode", *cmd.Mode)
		} else {
			in.logger.Info("ingress: switched mode", "mode", m)
		}
	}

	if cmd.Waypoints != nil {
		in.store.SetWaypoints(*cmd.Waypoints)
		in.logger.Info("ingress: received waypoints", "count", len(*cmd.Waypoints))
	}

	if cmd.Reboot {
		in.logger.Warn("ingress: reboot command received")
		return in.reboot.Reboot()
	}
	return nil
}
