package vehicle

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// Runner owns the vehicle tasks for one process lifetime.
type Runner struct {
	Ingress   *Ingress
	Telemetry *Telemetry
	Engine    *Engine
	Battery   *Battery
	Rebooter  *Rebooter

	logger *slog.Logger
}

// NewRunner groups the tasks.
func NewRunner(in *Ingress, tm *Telemetry, eng *Engine, bat *Battery, rb *Rebooter, opts ...Option) *Runner {
	o := applyOptions(opts)
	return &Runner{Ingress: in, Telemetry: tm, Engine: eng, Battery: bat, Rebooter: rb, logger: o.logger}
}

// Run starts every task and blocks. On ctx cancellation or a task failure it
// stops and joins the others. On a reboot request it returns
// ErrRebootRequested at once and leaves the other tasks running.
func (r *Runner) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	tasks := []struct {
		name string
		run  func(context.Context) error
	}{
		{"ingress", r.Ingress.Run},
		{"telemetry", r.Telemetry.Run},
		{"engine", r.Engine.Run},
		{"battery", r.Battery.Run},
	}

	errCh := make(chan error, len(tasks))
	var wg sync.WaitGroup
	for _, task := range tasks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := task.run(ctx)
			if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, ErrRebootRequested) {
				r.logger.Error("vehicle: task stopped", "task", task.name, "err", err)
			}
			errCh <- err
		}()
	}
	r.logger.Info("vehicle: started", "tasks", len(tasks))

	var err error
	select {
	case <-r.Rebooter.Requested():
		return ErrRebootRequested
	case <-ctx.Done():
		err = ctx.Err()
	case err = <-errCh:
	}
	if errors.Is(err, ErrRebootRequested) {
		return err
	}

	cancel()
	wg.Wait()
	return err
}
