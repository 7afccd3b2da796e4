package state

import "errors"

var (
	// ErrNoTelemetry is returned before the first telemetry frame arrives.
	ErrNoTelemetry = errors.New("state: no telemetry received")
	// ErrStale is returned alongside the last frame when it is older than the
	// stale threshold.
	ErrStale = errors.New("state: telemetry is stale")
)
