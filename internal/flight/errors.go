package flight

import "errors"

// ErrUnknownMode is returned when a mode name is not one of the four flight modes.
var ErrUnknownMode = errors.New("flight: unknown mode")
