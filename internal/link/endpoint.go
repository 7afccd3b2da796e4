package link

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// DefaultPollInterval bounds how long one Poll waits for a datagram.
	DefaultPollInterval = 10 * time.Millisecond
	// MaxDatagram is the receive buffer size. Larger datagrams are truncated
	// by the kernel and then fail to decode.
	MaxDatagram = 8192
)

// Config describes one UDP endpoint: the local address it binds and the
// fixed peer it sends to.
type Config struct {
	Bind         string
	Peer         string
	PollInterval time.Duration
}

// Datagram is one received packet.
type Datagram struct {
	Data []byte
	From *net.UDPAddr
}

// Endpoint is a bound UDP socket with a fixed send peer. Receives are
// short-deadline polls so the caller's loop stays responsive to shutdown.
type Endpoint struct {
	conn   *net.UDPConn
	peer   *net.UDPAddr
	poll   time.Duration
	buf    []byte
	closed atomic.Bool
	mu     sync.Mutex
}

// Listen binds cfg.Bind. A bind failure is returned as is and callers
// treat it as fatal.
func Listen(cfg Config) (*Endpoint, error) {
	laddr, err := net.ResolveUDPAddr("udp", cfg.Bind)
	if err != nil {
		return nil, fmt.Errorf("link resolve %s: %w", cfg.Bind, err)
	}
	var peer *net.UDPAddr
	if cfg.Peer != "" {
		if peer, err = net.ResolveUDPAddr("udp", cfg.Peer); err != nil {
			return nil, fmt.Errorf("link resolve peer %s: %w", cfg.Peer, err)
		}
	}
	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return nil, fmt.Errorf("link listen %s: %w", cfg.Bind, err)
	}

	poll := cfg.PollInterval
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	return &Endpoint{
		conn: conn,
		peer: peer,
		poll: poll,
		buf:  make([]byte, MaxDatagram),
	}, nil
}

// LocalAddr returns the bound address.
func (e *Endpoint) LocalAddr() *net.UDPAddr {
	return e.conn.LocalAddr().(*net.UDPAddr)
}

// Poll waits at most the poll interval for one datagram. ok is false when
// nothing arrived. Poll must only be called from one goroutine.
func (e *Endpoint) Poll() (dg Datagram, ok bool, err error) {
	if e.closed.Load() {
		return Datagram{}, false, ErrClosed
	}
	if err := e.conn.SetReadDeadline(time.Now().Add(e.poll)); err != nil {
		return Datagram{}, false, e.mapErr(err)
	}
	n, from, err := e.conn.ReadFromUDP(e.buf)
	if err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return Datagram{}, false, nil
		}
		return Datagram{}, false, e.mapErr(err)
	}
	data := make([]byte, n)
	copy(data, e.buf[:n])
	return Datagram{Data: data, From: from}, true, nil
}

// Send writes payload to the configured peer.
func (e *Endpoint) Send(payload []byte) error {
	if e.peer == nil {
		return ErrNoPeer
	}
	return e.SendTo(payload, e.peer)
}

// SendTo writes payload to addr.
func (e *Endpoint) SendTo(payload []byte, addr *net.UDPAddr) error {
	if len(payload) > MaxDatagram {
		return ErrTooLong
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := e.conn.WriteToUDP(payload, addr); err != nil {
		return fmt.Errorf("link send %s: %w", addr, e.mapErr(err))
	}
	return nil
}

// SendJSON marshals v and writes it to the configured peer.
func (e *Endpoint) SendJSON(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("link encode: %w", err)
	}
	return e.Send(payload)
}

// Close releases the socket. It is safe to call more than once.
func (e *Endpoint) Close() error {
	if e.closed.Swap(true) {
		return nil
	}
	return e.conn.Close()
}

func (e *Endpoint) mapErr(err error) error {
	if errors.Is(err, net.ErrClosed) {
		return ErrClosed
	}
	return err
}
