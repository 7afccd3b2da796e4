package types

// Command is one ground-to-vehicle datagram. Every field is optional and all
// present fields are applied, in the order PID, Mode, Waypoints, Reboot.
type Command struct {
	PID       map[string]any `json:"pid,omitempty"`
	Mode      *string        `json:"mode,omitempty"`
	Waypoints *[]Point       `json:"waypoints,omitempty"`
	Reboot    bool           `json:"reboot,omitempty"`
}

// Empty reports whether the command carries nothing to apply.
func (c Command) Empty() bool {
	return c.PID == nil && c.Mode == nil && c.Waypoints == nil && !c.Reboot
}

// ModeCommand builds a command that only switches flight mode.
func ModeCommand(mode string) Command {
	return Command{Mode: &mode}
}

// WaypointsCommand builds a command that only replaces the mission.
func WaypointsCommand(wps []Point) Command {
	if wps == nil {
		wps = []Point{}
	}
	return Command{Waypoints: &wps}
}
