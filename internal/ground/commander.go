package ground

import (
	"errors"
	"fmt"

	"github.com/eytandecker/quadlink/internal/flight"
	"github.com/eytandecker/quadlink/internal/link"
	"github.com/eytandecker/quadlink/pkg/types"
)

// ErrEmptyPID is returned when a PID update names nothing.
var ErrEmptyPID = errors.New("ground: empty pid update")

// Commander sends commands to the vehicle. Commands are fire-and-forget: the
// vehicle never acknowledges them, so they are checked here before sending.
type Commander struct {
	tx   Sender
	opts options
}

// NewCommander creates a Commander sending through tx.
func NewCommander(tx Sender, opts ...Option) *Commander {
	return &Commander{tx: tx, opts: applyOptions(opts)}
}

// Send encodes and sends one command.
func (c *Commander) Send(cmd types.Command) error {
	data, err := link.EncodeCommand(cmd)
	if err != nil {
		return fmt.Errorf("encode command: %w", err)
	}
	if err := c.tx.Send(data); err != nil {
		return fmt.Errorf("send command: %w", err)
	}
	c.opts.logger.Debug("commander: sent", "bytes", len(data))
	return nil
}

// SetMode switches the flight mode. Mode names are case-insensitive.
func (c *Commander) SetMode(name string) (flight.Mode, error) {
	mode, err := flight.ParseMode(name)
	if err != nil {
		return "", err
	}
	if err := c.Send(types.ModeCommand(mode.String())); err != nil {
		return "", err
	}
	c.opts.logger.Info("commander: mode", "mode", mode)
	return mode, nil
}

// UploadMission replaces the mission and then switches to GUIDED so the
// vehicle starts flying it.
func (c *Commander) UploadMission(wps []types.Point) error {
	if err := c.Send(types.WaypointsCommand(wps)); err != nil {
		return err
	}
	if err := c.Send(types.ModeCommand(flight.ModeGuided.String())); err != nil {
		return err
	}
	c.opts.logger.Info("commander: mission uploaded", "waypoints", len(wps))
	return nil
}

// SetPID sends a partial controller parameter update.
func (c *Commander) SetPID(update map[string]any) error {
	if len(update) == 0 {
		return ErrEmptyPID
	}
	if err := c.Send(types.Command{PID: update}); err != nil {
		return err
	}
	c.opts.logger.Info("commander: pid update", "groups", len(update))
	return nil
}

// Reboot asks the vehicle to restart.
func (c *Commander) Reboot() error {
	if err := c.Send(types.Command{Reboot: true}); err != nil {
		return err
	}
	c.opts.logger.Info("commander: reboot requested")
	return nil
}
