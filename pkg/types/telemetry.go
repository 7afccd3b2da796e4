package types

// StatusRebooting is the only status value the vehicle emits.
const StatusRebooting = "rebooting"

// Telemetry is one vehicle-to-ground state frame. All keys are always
// present on the wire.
type Telemetry struct {
	Position      Point   `json:"position"`
	Orientation   Point   `json:"orientation"` // radians
	Battery       float64 `json:"battery"`
	Mode          string  `json:"mode"`
	WaypointIndex int     `json:"waypoint_index"`
}

// Status is an out-of-band announcement, sent once before a reboot.
type Status struct {
	Status string `json:"status"`
}
