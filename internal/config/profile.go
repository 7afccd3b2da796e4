package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/eytandecker/quadlink/internal/flight"
	"github.com/eytandecker/quadlink/pkg/types"
)

//go:embed default_profile.yaml
var defaultProfileYAML []byte

// Profile is the vehicle's start-of-life mission and controller tuning.
type Profile struct {
	Waypoints  []types.Point  `yaml:"waypoints"`
	Controller map[string]any `yaml:"controller"`
}

// Params returns the controller table with numbers normalised to float64.
func (p Profile) Params() flight.Params {
	if p.Controller == nil {
		return flight.Params{}
	}
	return flight.Normalize(flight.Params(p.Controller)).(flight.Params)
}

// DefaultProfile returns the embedded profile.
func DefaultProfile() Profile {
	p, err := ParseProfile(defaultProfileYAML)
	if err != nil {
		panic(fmt.Sprintf("config: embedded profile: %v", err))
	}
	return p
}

// LoadProfile reads a YAML profile from path, or the embedded default when
// path is empty.
func LoadProfile(path string) (Profile, error) {
	if path == "" {
		return DefaultProfile(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("reading flight profile: %w", err)
	}
	p, err := ParseProfile(data)
	if err != nil {
		return Profile{}, fmt.Errorf("parsing flight profile %s: %w", path, err)
	}
	return p, nil
}

// ParseProfile decodes a YAML profile.
func ParseProfile(data []byte) (Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, err
	}
	if _, ok := p.Controller[flight.DefaultGroup].(map[string]any); p.Controller != nil && !ok {
		return Profile{}, fmt.Errorf("controller: missing %s group", flight.DefaultGroup)
	}
	return p, nil
}
