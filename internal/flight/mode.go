package flight

import (
	"fmt"
	"strings"
)

// Mode is the vehicle flight mode. It governs how the engine picks a target.
type Mode string

const (
	ModeGuided  Mode = "GUIDED"
	ModeTakeoff Mode = "TAKEOFF"
	ModeLand    Mode = "LAND"
	ModeRTL     Mode = "RTL"
)

// Modes lists every valid mode, default first.
var Modes = []Mode{ModeGuided, ModeTakeoff, ModeLand, ModeRTL}

// ParseMode upper-cases s and matches it against the known modes.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Modes {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

func (m Mode) String() string { return string(m) }
