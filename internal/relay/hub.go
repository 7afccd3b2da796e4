// Package relay re-broadcasts received telemetry to websocket subscribers.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/sasha-s/go-deadlock"
	"golang.org/x/net/websocket"
)

const (
	// Path is where subscribers connect.
	Path = "/telemetry"

	writeTimeout = time.Second
	queueSize    = 1024
)

// Hub fans messages out to every connected socket. Sockets that fail a write
// are dropped.
type Hub struct {
	mu      deadlock.Mutex
	sockets []*websocket.Conn

	messages chan []byte
	logger   *slog.Logger
}

// Option configures a Hub.
type Option func(*Hub)

// WithLogger sets the Hub's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Hub) {
		h.logger = logger
	}
}

// NewHub creates a Hub. Call Run to start delivering.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		messages: make(chan []byte, queueSize),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Send queues msg for every socket. When the queue is full the message is
// dropped.
func (h *Hub) Send(msg []byte) {
	select {
	case h.messages <- msg:
	default:
		h.logger.Debug("relay: queue full, dropping message")
	}
}

// SendJSON marshals v and queues it.
func (h *Hub) SendJSON(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		h.logger.Warn("relay: marshal failed", "err", err)
		return
	}
	h.Send(data)
}

// Clients is the number of connected sockets.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sockets)
}

func (h *Hub) add(ws *websocket.Conn) {
	h.mu.Lock()
	h.sockets = append(h.sockets, ws)
	n := len(h.sockets)
	h.mu.Unlock()
	h.logger.Info("relay: subscriber connected", "remote", ws.Request().RemoteAddr, "clients", n)
}

// broadcast writes msg to a copy of the socket list so that slow sockets
// never hold the lock; failed sockets are removed afterwards.
func (h *Hub) broadcast(msg []byte) {
	h.mu.Lock()
	sockets := slices.Clone(h.sockets)
	h.mu.Unlock()

	var dead []*websocket.Conn
	for _, ws := range sockets {
		err := ws.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err == nil {
			_, err = ws.Write(msg)
		}
		if err != nil {
			_ = ws.Close()
			dead = append(dead, ws)
		}
	}
	if len(dead) > 0 {
		h.remove(dead)
	}
}

func (h *Hub) remove(dead []*websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sockets = slices.DeleteFunc(h.sockets, func(ws *websocket.Conn) bool {
		return slices.Contains(dead, ws)
	})
}

// Handler serves the websocket endpoint. The connection is held open until
// the peer goes away; anything the peer sends is ignored.
func (h *Hub) Handler() http.Handler {
	return websocket.Server{Handler: func(ws *websocket.Conn) {
		h.add(ws)
		buf := make([]byte, 512)
		for {
			if _, err := ws.Read(buf); err != nil {
				return
			}
		}
	}}
}

// Mux returns a ServeMux with the Hub mounted at Path.
func (h *Hub) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle(Path, h.Handler())
	return mux
}

// Run delivers queued messages until ctx is done, then closes every socket.
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return ctx.Err()
		case msg := <-h.messages:
			h.broadcast(msg)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ws := range h.sockets {
		_ = ws.Close()
	}
	h.sockets = nil
}

// Serve runs the Hub and an HTTP server on addr until ctx is done.
func (h *Hub) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: h.Mux(), ReadHeaderTimeout: 5 * time.Second}

	go func() { _ = h.Run(ctx) }()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	h.logger.Info("relay: listening", "addr", addr, "path", Path)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("relay serve %s: %w", addr, err)
	}
	return nil
}
