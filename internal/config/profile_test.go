package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eytandecker/quadlink/pkg/types"
)

func TestDefaultProfile(t *testing.T) {
	p := DefaultProfile()
	assert.Equal(t, []types.Point{{1, 1, 2}, {0, 0, 0}, {-1, -1, 2}, {-1, 1, 4}}, p.Waypoints)

	params := p.Params()
	lin := params.Group("Linear_PID")
	require.NotNil(t, lin)
	assert.Equal(t, []any{300.0, 300.0, 7000.0}, lin["P"])
	assert.Equal(t, []any{0.04, 0.04, 4.5}, lin["I"])
	assert.Equal(t, 0.18, params["Yaw_Rate_Scaler"])
	assert.Equal(t, 500.0, params["Z_XY_offset"])
	assert.Contains(t, params, "Angular_PID")
	assert.Contains(t, params, "Motor_limits")
}

func TestLoadProfileEmptyPathUsesDefault(t *testing.T) {
	p, err := LoadProfile("")
	require.NoError(t, err)
	assert.Equal(t, DefaultProfile(), p)
}

func TestLoadProfileFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
waypoints:
  - [3, 3, 3]
controller:
  Linear_PID:
    P: [1, 1, 1]
`), 0o600))

	p, err := LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, []types.Point{{3, 3, 3}}, p.Waypoints)
	assert.Equal(t, []any{1.0, 1.0, 1.0}, p.Params().Group("Linear_PID")["P"])
}

func TestLoadProfileErrors(t *testing.T) {
	_, err := LoadProfile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	tests := []struct {
		name string
		body string
	}{
		{name: "bad yaml", body: "waypoints: [[1, 2"},
		{name: "short waypoint", body: "waypoints:\n  - [1, 2]\n"},
		{name: "no default group", body: "controller:\n  Yaw_Rate_Scaler: 0.2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "profile.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0o600))
			_, err := LoadProfile(path)
			assert.Error(t, err)
		})
	}
}
