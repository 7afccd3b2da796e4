// Package state caches what the ground station last heard from the vehicle.
package state

import (
	"sync"
	"time"

	"github.com/eytandecker/quadlink/pkg/types"
)

// HistorySize is the number of altitude samples kept for the operator.
const HistorySize = 50

// Reading is the cached view of the vehicle.
type Reading struct {
	Frame    types.Telemetry
	Received time.Time
	// Status is the last status frame seen since Frame, if any.
	Status string
}

// Age is how long ago the frame was received.
func (r Reading) Age() time.Duration {
	return time.Since(r.Received)
}

// Manager holds a concurrent-safe cache of the last telemetry frame. Each
// frame replaces the previous one wholesale.
type Manager struct {
	mu             sync.RWMutex
	reading        Reading
	history        []float64
	frames         uint64
	staleThreshold time.Duration
}

// NewManager creates a Manager with the given stale threshold.
// A zero threshold disables staleness checking.
func NewManager(staleThreshold time.Duration) *Manager {
	return &Manager{
		staleThreshold: staleThreshold,
		history:        make([]float64, 0, HistorySize),
	}
}

// Update stores a new frame and records the current time.
func (m *Manager) Update(frame types.Telemetry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reading = Reading{Frame: frame, Received: time.Now()}
	m.frames++

	if len(m.history) == HistorySize {
		copy(m.history, m.history[1:])
		m.history = m.history[:HistorySize-1]
	}
	m.history = append(m.history, frame.Position.Z())
}

// UpdateStatus records a status frame. It is cleared by the next Update.
func (m *Manager) UpdateStatus(st types.Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reading.Status = st.Status
}

// Latest returns the cached reading. Before any frame it returns
// ErrNoTelemetry. When the frame is older than the stale threshold it
// returns the reading together with ErrStale.
func (m *Manager) Latest() (Reading, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.reading.Received.IsZero() {
		return Reading{Status: m.reading.Status}, ErrNoTelemetry
	}
	if m.staleThreshold > 0 && time.Since(m.reading.Received) > m.staleThreshold {
		return m.reading, ErrStale
	}
	return m.reading, nil
}

// AltitudeHistory returns up to HistorySize altitudes, oldest first.
func (m *Manager) AltitudeHistory() []float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]float64(nil), m.history...)
}

// Frames is the number of frames received so far.
func (m *Manager) Frames() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.frames
}

// LastUpdated returns the time of the most recent Update, or zero if never updated.
func (m *Manager) LastUpdated() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.reading.Received
}
