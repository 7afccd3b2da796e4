package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/eytandecker/quadlink/internal/config"
	"github.com/eytandecker/quadlink/internal/flightlog"
	"github.com/eytandecker/quadlink/internal/ground"
	"github.com/eytandecker/quadlink/internal/link"
	internalmcp "github.com/eytandecker/quadlink/internal/mcp"
	"github.com/eytandecker/quadlink/internal/relay"
	"github.com/eytandecker/quadlink/internal/state"
)

const flightLogFile = "flightlog.db"

func main() {
	if err := run(); err != nil {
		slog.Error("ground station exited", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	level := new(slog.LevelVar)
	level.Set(cfg.LogLevel)
	// stdout carries the MCP protocol
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	// both sockets are bound before any task starts; a taken port is fatal
	rx, err := listenTelemetry(cfg)
	if err != nil {
		return fmt.Errorf("bind telemetry port: %w", err)
	}
	defer rx.Close()

	tx, err := link.Listen(link.Config{
		Bind: net.JoinHostPort(cfg.Ground.Host, "0"),
		Peer: cfg.Vehicle.CommandAddr(),
	})
	if err != nil {
		return fmt.Errorf("command socket: %w", err)
	}
	defer tx.Close()
	logger.Info("receiver: bound", "addr", rx.LocalAddr(), "commands_to", cfg.Vehicle.CommandAddr())

	mgr := state.NewManager(cfg.Ground.StaleThreshold)
	opts := []ground.Option{ground.WithLogger(logger)}
	var mcpOpts []internalmcp.Option

	if cfg.Ground.FlightLogDir != "" {
		store := flightlog.New(filepath.Join(cfg.Ground.FlightLogDir, flightLogFile))
		defer store.Close()
		if err := store.Open(); err != nil {
			return fmt.Errorf("flight log: %w", err)
		}
		rec, err := flightlog.NewRecorder(ctx, store, cfg.Vehicle.CommandAddr())
		if err != nil {
			return fmt.Errorf("flight log: %w", err)
		}
		logger.Info("flightlog: recording", "dir", cfg.Ground.FlightLogDir, "session", rec.SessionID())
		opts = append(opts, ground.WithRecorder(rec))
		mcpOpts = append(mcpOpts, internalmcp.WithFlightLog(store))
	}

	if cfg.Ground.RelayAddr != "" {
		hub := relay.NewHub(relay.WithLogger(logger))
		go func() {
			if err := hub.Serve(ctx, cfg.Ground.RelayAddr); err != nil {
				logger.Error("relay: stopped", "err", err)
			}
		}()
		opts = append(opts, ground.WithRelay(hub))
	}

	commander := ground.NewCommander(tx, opts...)
	mcpServer := internalmcp.NewServer(mgr, commander, mcpOpts...)

	go runReceiverLoop(ctx, cfg, mgr, rx, opts)

	if err := mcpServer.Run(ctx); !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// runReceiverLoop receives on rx, which run has already bound. If the socket
// fails later it is rebound with exponential backoff (1s → 30s cap).
func runReceiverLoop(ctx context.Context, cfg config.Config, mgr *state.Manager, rx *link.Endpoint, opts []ground.Option) {
	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		if err := ctx.Err(); err != nil {
			return
		}

		if err := runReceiver(ctx, cfg, mgr, rx, opts); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			slog.Warn("receiver: stopped", "err", err, "retry_in", backoff)
		}
		rx = nil

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// runReceiver receives until the socket fails or ctx is done. A nil rx is
// rebound first.
func runReceiver(ctx context.Context, cfg config.Config, mgr *state.Manager, rx *link.Endpoint, opts []ground.Option) error {
	if rx == nil {
		var err error
		if rx, err = listenTelemetry(cfg); err != nil {
			return err
		}
	}
	defer rx.Close()

	return ground.NewReceiver(rx, mgr, opts...).Run(ctx)
}

func listenTelemetry(cfg config.Config) (*link.Endpoint, error) {
	return link.Listen(link.Config{
		Bind:         cfg.Ground.TelemetryAddr(),
		PollInterval: cfg.Link.PollInterval,
	})
}
