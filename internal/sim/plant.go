// Package sim is a kinematic stand-in for the vehicle dynamics and control
// law. It moves a point mass toward the commanded target at a bounded speed
// and derives a plausible attitude from the direction of travel.
package sim

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/eytandecker/quadlink/internal/flight"
	"github.com/eytandecker/quadlink/pkg/types"
)

const (
	defaultMaxSpeed = 1.0 // units per second
	defaultMaxTilt  = 10 * math.Pi / 180
	minGainScale    = 0.1
	maxGainScale    = 5.0
)

// Config holds Plant settings.
type Config struct {
	MaxSpeed  float64
	Interval  time.Duration
	TimeScale float64
}

// Plant is safe for concurrent use: the engine sets targets, telemetry reads
// the pose, and Run integrates.
type Plant struct {
	cfg Config

	mu        sync.Mutex
	pos       types.Point
	ori       types.Point
	target    types.Point
	hasTarget bool
	speed     float64
	maxTilt   float64
	baseGain  float64
}

// NewPlant creates a Plant at the origin tuned from params.
func NewPlant(cfg Config, params flight.Params) *Plant {
	if cfg.MaxSpeed <= 0 {
		cfg.MaxSpeed = defaultMaxSpeed
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Millisecond
	}
	if cfg.TimeScale <= 0 {
		cfg.TimeScale = 1
	}
	p := &Plant{cfg: cfg, speed: cfg.MaxSpeed, maxTilt: defaultMaxTilt}
	p.baseGain = linearGain(params)
	p.applyLimits(params)
	return p
}

// Position returns the current position.
func (p *Plant) Position() types.Point {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pos
}

// Orientation returns roll, pitch and yaw in radians.
func (p *Plant) Orientation() types.Point {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ori
}

// SetTarget sets the pose the plant converges on.
func (p *Plant) SetTarget(t types.Point) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.target = t
	p.hasTarget = true
}

// Target returns the last target and whether one was ever set.
func (p *Plant) Target() (types.Point, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.target, p.hasTarget
}

// SetParams retunes speed from the Linear_PID P gain relative to the gain
// the plant was created with, and tilt from Tilt_limits.
func (p *Plant) SetParams(params flight.Params) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if g := linearGain(params); g > 0 && p.baseGain > 0 {
		scale := math.Max(minGainScale, math.Min(maxGainScale, g/p.baseGain))
		p.speed = p.cfg.MaxSpeed * scale
	}
	p.applyLimits(params)
}

// Step advances the plant by dt seconds.
func (p *Plant) Step(dt float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.hasTarget || dt <= 0 {
		return
	}

	delta := p.target.Sub(p.pos)
	dist := delta.Norm()
	if dist < 1e-9 {
		p.ori[0], p.ori[1] = 0, 0
		return
	}

	step := p.speed * dt
	if step >= dist {
		p.pos = p.target
	} else {
		k := step / dist
		p.pos = types.Point{p.pos[0] + delta[0]*k, p.pos[1] + delta[1]*k, p.pos[2] + delta[2]*k}
	}

	horiz := math.Hypot(delta[0], delta[1])
	if horiz > 1e-6 {
		p.ori[2] = math.Atan2(delta[1], delta[0])
		p.ori[1] = -p.maxTilt * math.Min(1, horiz/dist)
	} else {
		p.ori[1] = 0
	}
	p.ori[0] = 0
}

// Run steps the plant every interval until ctx is done.
func (p *Plant) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	dt := p.cfg.Interval.Seconds() * p.cfg.TimeScale
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.Step(dt)
		}
	}
}

// applyLimits must be called with p.mu held (or before p is shared).
func (p *Plant) applyLimits(params flight.Params) {
	if lim, ok := flight.Floats(params["Tilt_limits"]); ok && len(lim) == 2 {
		deg := math.Max(math.Abs(lim[0]), math.Abs(lim[1]))
		if deg > 0 {
			p.maxTilt = deg * math.Pi / 180
		}
	}
}

func linearGain(params flight.Params) float64 {
	if vals, ok := flight.Floats(params.Group(flight.DefaultGroup)["P"]); ok && len(vals) > 0 {
		return vals[0]
	}
	return 0
}
