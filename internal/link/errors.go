package link

import "errors"

var (
	ErrClosed  = errors.New("link: endpoint closed")
	ErrNoPeer  = errors.New("link: no peer address")
	ErrTooLong = errors.New("link: datagram exceeds maximum size")
)
