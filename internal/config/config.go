package config

import (
	"log/slog"
	"net"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration. The vehicle and ground
// processes read the same variables so that their ports agree.
type Config struct {
	Vehicle  VehicleConfig
	Ground   GroundConfig
	Link     LinkConfig
	Flight   FlightConfig
	Sim      SimConfig
	LogLevel slog.Level
}

// VehicleConfig is where the vehicle listens for commands.
type VehicleConfig struct {
	Host        string
	CommandPort int
}

// GroundConfig is where the ground station listens for telemetry, plus its
// local services.
type GroundConfig struct {
	Host           string
	TelemetryPort  int
	StaleThreshold time.Duration
	FlightLogDir   string
	RelayAddr      string
}

// LinkConfig holds datagram polling settings.
type LinkConfig struct {
	PollInterval time.Duration
}

// FlightConfig holds the vehicle task rates and flight constants.
type FlightConfig struct {
	TelemetryInterval time.Duration
	EngineInterval    time.Duration
	BatteryInterval   time.Duration
	BatteryDrain      float64
	TakeoffAltitude   float64
	ArrivalTolerance  float64
	ProfilePath       string
}

// SimConfig holds settings for the stand-in dynamics.
type SimConfig struct {
	Interval  time.Duration
	TimeScale float64
}

// CommandAddr is the vehicle's command host:port.
func (v VehicleConfig) CommandAddr() string {
	return net.JoinHostPort(v.Host, strconv.Itoa(v.CommandPort))
}

// TelemetryAddr is the ground station's telemetry host:port.
func (g GroundConfig) TelemetryAddr() string {
	return net.JoinHostPort(g.Host, strconv.Itoa(g.TelemetryPort))
}

// Load reads configuration from environment variables, falling back to defaults.
func Load() Config {
	return Config{
		Vehicle: VehicleConfig{
			Host:        getEnvString("VEHICLE_HOST", "127.0.0.1"),
			CommandPort: getEnvInt("COMMAND_PORT", 9000),
		},
		Ground: GroundConfig{
			Host:           getEnvString("GROUND_HOST", "127.0.0.1"),
			TelemetryPort:  getEnvInt("TELEMETRY_PORT", 9001),
			StaleThreshold: getEnvDuration("STALE_THRESHOLD", 2*time.Second),
			FlightLogDir:   getEnvString("FLIGHTLOG_DIR", ""),
			RelayAddr:      getEnvString("RELAY_ADDR", ""),
		},
		Link: LinkConfig{
			PollInterval: getEnvDuration("POLL_INTERVAL", 10*time.Millisecond),
		},
		Flight: FlightConfig{
			TelemetryInterval: getEnvDuration("TELEMETRY_INTERVAL", 50*time.Millisecond),
			EngineInterval:    getEnvDuration("ENGINE_INTERVAL", 50*time.Millisecond),
			BatteryInterval:   getEnvDuration("BATTERY_INTERVAL", 500*time.Millisecond),
			BatteryDrain:      getEnvFloat("BATTERY_DRAIN", 0.01),
			TakeoffAltitude:   getEnvFloat("TAKEOFF_ALTITUDE", 2.0),
			ArrivalTolerance:  getEnvFloat("ARRIVAL_TOLERANCE", 0.1),
			ProfilePath:       getEnvString("FLIGHT_PROFILE", ""),
		},
		Sim: SimConfig{
			Interval:  getEnvDuration("SIM_INTERVAL", 5*time.Millisecond),
			TimeScale: getEnvFloat("TIME_SCALE", 1.0),
		},
		LogLevel: getEnvLevel("LOG_LEVEL", slog.LevelInfo),
	}
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func getEnvLevel(key string, defaultVal slog.Level) slog.Level {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(v)); err != nil {
		return defaultVal
	}
	return l
}
