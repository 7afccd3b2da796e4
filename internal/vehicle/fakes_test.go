package vehicle

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/eytandecker/quadlink/internal/flight"
	"github.com/eytandecker/quadlink/internal/link"
	"github.com/eytandecker/quadlink/pkg/types"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakePoller hands out queued datagrams, then reports idle polls.
type fakePoller struct {
	ch     chan []byte
	errs   chan error
	closed chan struct{}
}

func newFakePoller() *fakePoller {
	return &fakePoller{ch: make(chan []byte, 16), errs: make(chan error, 4), closed: make(chan struct{})}
}

func (f *fakePoller) Poll() (link.Datagram, bool, error) {
	select {
	case <-f.closed:
		return link.Datagram{}, false, link.ErrClosed
	default:
	}
	select {
	case err := <-f.errs:
		return link.Datagram{}, false, err
	case d := <-f.ch:
		return link.Datagram{Data: d}, true, nil
	case <-time.After(time.Millisecond):
		return link.Datagram{}, false, nil
	}
}

func (f *fakePoller) push(s string) { f.ch <- []byte(s) }

// fakeSender records every JSON payload it is asked to send.
type fakeSender struct {
	mu   sync.Mutex
	sent [][]byte
	fail bool
}

func (f *fakeSender) SendJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("network unreachable")
	}
	f.sent = append(f.sent, data)
	return nil
}

func (f *fakeSender) payloads() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sent))
	for i, p := range f.sent {
		out[i] = string(p)
	}
	return out
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

// fakePose is a settable pose source.
type fakePose struct {
	mu  sync.Mutex
	pos types.Point
	ori types.Point
}

func (f *fakePose) Position() types.Point {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pos
}

func (f *fakePose) Orientation() types.Point {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ori
}

func (f *fakePose) set(p types.Point) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pos = p
}

// fakeTarget records every target pushed by the engine.
type fakeTarget struct {
	mu      sync.Mutex
	targets []types.Point
}

func (f *fakeTarget) SetTarget(t types.Point) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.targets = append(f.targets, t)
}

func (f *fakeTarget) last() (types.Point, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.targets) == 0 {
		return types.Point{}, false
	}
	return f.targets[len(f.targets)-1], true
}

func (f *fakeTarget) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.targets)
}

func testStore() *flight.Store {
	return flight.NewStore(flight.Defaults{
		Waypoints: []types.Point{{1, 1, 2}, {0, 0, 0}, {-1, -1, 2}, {-1, 1, 4}},
		Params: flight.Params{
			"Yaw_Rate_Scaler": 0.18,
			"Linear_PID": map[string]any{
				"P": []any{300.0, 300.0, 7000.0},
				"I": []any{0.04, 0.04, 4.5},
				"D": []any{450.0, 450.0, 5000.0},
			},
			"Angular_PID": map[string]any{
				"P": []any{22000.0, 22000.0, 1500.0},
				"I": []any{0.0, 0.0, 1.2},
				"D": []any{12000.0, 12000.0, 0.0},
			},
		},
	}, nil)
}
