package ground

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/eytandecker/quadlink/internal/link"
	"github.com/eytandecker/quadlink/pkg/types"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakePoller struct {
	ch     chan []byte
	closed chan struct{}
}

func newFakePoller() *fakePoller {
	return &fakePoller{ch: make(chan []byte, 16), closed: make(chan struct{})}
}

func (f *fakePoller) Poll() (link.Datagram, bool, error) {
	select {
	case <-f.closed:
		return link.Datagram{}, false, link.ErrClosed
	case d := <-f.ch:
		return link.Datagram{Data: d}, true, nil
	case <-time.After(time.Millisecond):
		return link.Datagram{}, false, nil
	}
}

type fakeSender struct {
	mu   sync.Mutex
	sent []string
	fail bool
}

func (f *fakeSender) Send(payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("network unreachable")
	}
	f.sent = append(f.sent, string(payload))
	return nil
}

func (f *fakeSender) payloads() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

type fakeRecorder struct {
	mu     sync.Mutex
	frames []types.Telemetry
	err    error
}

func (f *fakeRecorder) Record(_ context.Context, _ time.Time, frame types.Telemetry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, frame)
	return f.err
}

func (f *fakeRecorder) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

type fakeBroadcaster struct {
	mu  sync.Mutex
	got []any
}

func (f *fakeBroadcaster) SendJSON(v any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, v)
}
