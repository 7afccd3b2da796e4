package vehicle

import "errors"

// ErrRebootRequested is returned by the command loop and the Runner once the
// reboot announcement has been sent. The process owner is expected to
// restart the program.
var ErrRebootRequested = errors.New("vehicle: reboot requested")
