package vehicle

import (
	"log/slog"
	"sync"

	"github.com/eytandecker/quadlink/pkg/types"
)

// Rebooter announces a reboot to the ground station and signals the process
// owner. The announcement is sent at most once per process.
type Rebooter struct {
	tx        JSONSender
	once      sync.Once
	requested chan struct{}
	logger    *slog.Logger
}

// NewRebooter creates a Rebooter that announces through tx.
func NewRebooter(tx JSONSender, opts ...Option) *Rebooter {
	o := applyOptions(opts)
	return &Rebooter{tx: tx, requested: make(chan struct{}), logger: o.logger}
}

// Reboot sends the "rebooting" status frame, best-effort, then marks the
// reboot as requested. It always returns ErrRebootRequested.
func (r *Rebooter) Reboot() error {
	r.once.Do(func() {
		if err := r.tx.SendJSON(types.Status{Status: types.StatusRebooting}); err != nil {
			r.logger.Warn("reboot: announcement failed", "err", err)
		}
		close(r.requested)
	})
	return ErrRebootRequested
}

// Requested is closed once a reboot has been announced.
func (r *Rebooter) Requested() <-chan struct{} {
	return r.requested
}
