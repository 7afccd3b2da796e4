package types

import "fmt"

// MalformedError wraps a datagram that could not be decoded into one of the
// wire types.
type MalformedError struct {
	Err  error
	Size int
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed datagram (%d bytes): %v", e.Size, e.Err)
}

func (e *MalformedError) Unwrap() error {
	return e.Err
}
