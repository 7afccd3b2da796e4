package flight

import (
	"github.com/sasha-s/go-deadlock"

	"github.com/eytandecker/quadlink/pkg/types"
)

// ParamsSink receives a private copy of the controller parameters after every
// accepted PID update. It is implemented by the control law.
type ParamsSink interface {
	SetParams(p Params)
}

// Defaults are the values a Store starts with.
type Defaults struct {
	Mode      Mode
	Waypoints []types.Point
	Battery   float64
	Params    Params
}

// Snapshot is a consistent copy of the mission-related fields, taken under
// one lock acquisition.
type Snapshot struct {
	Mode          Mode
	WaypointIndex int
	Waypoints     []types.Point
	Battery       float64
	// Generation changes on every mode change and mission replacement.
	Generation uint64
}

// Target returns the active waypoint and true, or false when the mission is
// exhausted.
func (s Snapshot) Target() (types.Point, bool) {
	if s.WaypointIndex < 0 || s.WaypointIndex >= len(s.Waypoints) {
		return types.Point{}, false
	}
	return s.Waypoints[s.WaypointIndex], true
}

// Store is the single shared flight state record. Every field is guarded by
// one exclusive lock, held only for the read-modify-write of the call.
type Store struct {
	mu deadlock.Mutex

	mode          Mode
	waypointIndex int
	waypoints     []types.Point
	generation    uint64
	battery       float64
	params        Params

	sink ParamsSink
}

// NewStore creates a Store from d. A zero Mode means GUIDED and a zero
// Battery means a full pack.
func NewStore(d Defaults, sink ParamsSink) *Store {
	if d.Mode == "" {
		d.Mode = ModeGuided
	}
	if d.Battery <= 0 || d.Battery > 100 {
		d.Battery = 100
	}
	params := d.Params.Clone()
	if params == nil {
		params = Params{}
	}
	return &Store{
		mode:      d.Mode,
		waypoints: append([]types.Point(nil), d.Waypoints...),
		battery:   d.Battery,
		params:    params,
		sink:      sink,
	}
}

// Snapshot returns the mode, mission and battery as of a single instant.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Mode:          s.mode,
		WaypointIndex: s.waypointIndex,
		Waypoints:     append([]types.Point(nil), s.waypoints...),
		Battery:       s.battery,
		Generation:    s.generation,
	}
}

// Mode returns the current flight mode.
func (s *Store) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Battery returns the remaining battery percentage.
func (s *Store) Battery() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.battery
}

// SetMode switches to the named mode (any letter case) and rewinds the
// mission. Unknown names leave the state untouched and return ErrUnknownMode.
func (s *Store) SetMode(name string) (Mode, error) {
	m, err := ParseMode(name)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = m
	s.waypointIndex = 0
	s.generation++
	return m, nil
}

// SetWaypoints replaces the mission wholesale and rewinds it.
func (s *Store) SetWaypoints(wps []types.Point) {
	cp := append([]types.Point(nil), wps...)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.waypoints = cp
	s.waypointIndex = 0
	s.generation++
}

// AdvanceWaypoint moves past waypoint from, but only while the mission that
// produced gen is still active and from is still the current index. The index
// never moves backwards here.
func (s *Store) AdvanceWaypoint(gen uint64, from int) (next int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation || from != s.waypointIndex || s.waypointIndex >= len(s.waypoints) {
		return s.waypointIndex, false
	}
	s.waypointIndex++
	return s.waypointIndex, true
}

// Drain lowers the battery by amount, never below zero, and returns the new level.
func (s *Store) Drain(amount float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if amount > 0 {
		s.battery -= amount
	}
	if s.battery < 0 {
		s.battery = 0
	}
	return s.battery
}

// Params returns a deep copy of the controller parameters.
func (s *Store) Params() Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params.Clone()
}

// MergeParams applies a partial PID update (see Params.Merge) and hands the
// result to the sink outside the lock.
func (s *Store) MergeParams(update map[string]any) (skipped []string) {
	s.mu.Lock()
	skipped = s.params.Merge(update)
	var cp Params
	if s.sink != nil {
		cp = s.params.Clone()
	}
	s.mu.Unlock()

	if s.sink != nil {
		s.sink.SetParams(cp)
	}
	return skipped
}
