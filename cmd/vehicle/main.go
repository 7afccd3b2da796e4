package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/eytandecker/quadlink/internal/config"
	"github.com/eytandecker/quadlink/internal/flight"
	"github.com/eytandecker/quadlink/internal/link"
	"github.com/eytandecker/quadlink/internal/sim"
	"github.com/eytandecker/quadlink/internal/vehicle"
)

func main() {
	err := run()
	if errors.Is(err, vehicle.ErrRebootRequested) {
		err = restart()
	}
	if err != nil {
		slog.Error("vehicle exited", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	level := new(slog.LevelVar)
	level.Set(cfg.LogLevel)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	profile, err := config.LoadProfile(cfg.Flight.ProfilePath)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	plant := sim.NewPlant(sim.Config{Interval: cfg.Sim.Interval, TimeScale: cfg.Sim.TimeScale}, profile.Params())
	store := flight.NewStore(flight.Defaults{
		Waypoints: profile.Waypoints,
		Params:    profile.Params(),
	}, plant)

	ep, err := link.Listen(link.Config{
		Bind:         cfg.Vehicle.CommandAddr(),
		Peer:         cfg.Ground.TelemetryAddr(),
		PollInterval: cfg.Link.PollInterval,
	})
	if err != nil {
		return fmt.Errorf("bind command port: %w", err)
	}
	defer ep.Close()
	logger.Info("vehicle: listening for commands", "addr", ep.LocalAddr(), "telemetry_to", cfg.Ground.TelemetryAddr())

	opt := vehicle.WithLogger(logger)
	rb := vehicle.NewRebooter(ep, opt)
	runner := vehicle.NewRunner(
		vehicle.NewIngress(ep, store, rb, opt),
		vehicle.NewTelemetry(ep, plant, store, cfg.Flight.TelemetryInterval, opt),
		vehicle.NewEngine(plant, plant, store, vehicle.EngineConfig{
			Interval:        cfg.Flight.EngineInterval,
			TakeoffAltitude: cfg.Flight.TakeoffAltitude,
			Tolerance:       cfg.Flight.ArrivalTolerance,
		}, opt),
		vehicle.NewBattery(store, cfg.Flight.BatteryInterval, cfg.Flight.BatteryDrain, opt),
		rb,
		opt,
	)

	go func() { _ = plant.Run(ctx) }()

	err = runner.Run(ctx)
	if errors.Is(err, context.Canceled) {
		logger.Info("vehicle: shutting down")
		return nil
	}
	return err
}

// restart replaces the process image with a fresh copy of itself, keeping
// the arguments and environment.
func restart() error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate executable: %w", err)
	}
	slog.Info("vehicle: restarting", "exe", exe)
	return syscall.Exec(exe, os.Args, os.Environ())
}
