package types

import (
	"encoding/json"
	"fmt"
	"math"
)

// Point is a position or attitude triple: (x, y, z) or (roll, pitch, yaw).
type Point [3]float64

// NewPoint builds a Point from its components.
func NewPoint(x, y, z float64) Point {
	return Point{x, y, z}
}

func (p Point) X() float64 { return p[0] }
func (p Point) Y() float64 { return p[1] }
func (p Point) Z() float64 { return p[2] }

// Sub returns p - o.
func (p Point) Sub(o Point) Point {
	return Point{p[0] - o[0], p[1] - o[1], p[2] - o[2]}
}

// Norm returns the Euclidean length of p.
func (p Point) Norm() float64 {
	return math.Sqrt(p[0]*p[0] + p[1]*p[1] + p[2]*p[2])
}

// Within reports whether every axis of p is strictly closer than tol to o.
func (p Point) Within(o Point, tol float64) bool {
	for i := range p {
		if math.Abs(p[i]-o[i]) >= tol {
			return false
		}
	}
	return true
}

// UnmarshalJSON accepts exactly three numbers. The default array decoding
// would silently pad or truncate.
func (p *Point) UnmarshalJSON(data []byte) error {
	var vals []float64
	if err := json.Unmarshal(data, &vals); err != nil {
		return err
	}
	if len(vals) != 3 {
		return fmt.Errorf("point needs 3 components, got %d", len(vals))
	}
	copy(p[:], vals)
	return nil
}
