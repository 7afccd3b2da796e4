// Package mcp exposes the ground station to an operator agent as MCP tools:
// telemetry reads plus the vehicle commands.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/eytandecker/quadlink/internal/flight"
	"github.com/eytandecker/quadlink/internal/flightlog"
	"github.com/eytandecker/quadlink/internal/ground"
	"github.com/eytandecker/quadlink/internal/state"
	"github.com/eytandecker/quadlink/pkg/types"
)

// TelemetryReader is the subset of state.Manager used by the MCP server.
type TelemetryReader interface {
	Latest() (state.Reading, error)
	AltitudeHistory() []float64
}

// Commander is the subset of ground.Commander used by the MCP server.
type Commander interface {
	SetMode(name string) (flight.Mode, error)
	UploadMission(wps []types.Point) error
	SetPID(update map[string]any) error
	Reboot() error
}

// FlightLogReader is the subset of flightlog.Store used by get_flight_log.
type FlightLogReader interface {
	Sessions(ctx context.Context) ([]flightlog.Session, error)
	Frames(ctx context.Context, sessionID int64) ([]flightlog.Entry, error)
}

var (
	// errInvalidArgument marks tool input rejected before anything is sent.
	errInvalidArgument   = errors.New("invalid argument")
	errFlightLogDisabled = errors.New("flight log is not enabled")
)

const (
	defaultLogLimit = 20
	maxLogLimit     = 500
)

// Option configures a Server.
type Option func(*Server)

// WithFlightLog lets get_flight_log read recorded sessions from fl.
func WithFlightLog(fl FlightLogReader) Option {
	return func(s *Server) {
		s.flightLog = fl
	}
}

// Server wraps the MCP SDK server and exposes the vehicle link as tools.
type Server struct {
	sdk       *mcpsdk.Server
	state     TelemetryReader
	cmd       Commander
	flightLog FlightLogReader
}

// NewServer creates a Server and registers every tool.
func NewServer(tr TelemetryReader, cmd Commander, opts ...Option) *Server {
	s := &Server{
		sdk: mcpsdk.NewServer(&mcpsdk.Implementation{
			Name:    "quadlink",
			Version: "1.0.0",
		}, nil),
		state: tr,
		cmd:   cmd,
	}
	for _, opt := range opts {
		opt(s)
	}

	mcpsdk.AddTool(s.sdk, &mcpsdk.Tool{
		Name:        "get_telemetry",
		Description: "Returns the last telemetry frame received from the vehicle: position, battery, flight mode and waypoint index.",
	}, s.handleGetTelemetry)
	mcpsdk.AddTool(s.sdk, &mcpsdk.Tool{
		Name:        "get_altitude_history",
		Description: "Returns the most recent altitude samples, oldest first.",
	}, s.handleGetAltitudeHistory)
	mcpsdk.AddTool(s.sdk, &mcpsdk.Tool{
		Name:        "set_mode",
		Description: "Switches the vehicle flight mode (GUIDED, TAKEOFF, LAND or RTL). Restarts the mission from its first waypoint.",
	}, s.handleSetMode)
	mcpsdk.AddTool(s.sdk, &mcpsdk.Tool{
		Name:        "upload_mission",
		Description: "Replaces the vehicle's waypoint list and switches to GUIDED so it starts flying it.",
	}, s.handleUploadMission)
	mcpsdk.AddTool(s.sdk, &mcpsdk.Tool{
		Name:        "set_pid",
		Description: "Sends a partial controller parameter update, e.g. {\"Linear_PID\": {\"P\": [300, 300, 7000]}}.",
	}, s.handleSetPID)
	mcpsdk.AddTool(s.sdk, &mcpsdk.Tool{
		Name:        "reboot",
		Description: "Asks the vehicle to restart its flight software. Telemetry pauses while it restarts.",
	}, s.handleReboot)
	mcpsdk.AddTool(s.sdk, &mcpsdk.Tool{
		Name:        "get_flight_log",
		Description: "Returns the most recent frames recorded in a flight log session (the current one by default).",
	}, s.handleGetFlightLog)
	return s
}

// Run starts the MCP server over stdio and blocks until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	return s.sdk.Run(ctx, &mcpsdk.StdioTransport{})
}

// Connect connects the server to an existing transport (used in tests).
func (s *Server) Connect(ctx context.Context, t mcpsdk.Transport) (*mcpsdk.ServerSession, error) {
	return s.sdk.Connect(ctx, t, nil)
}

type getTelemetryInput struct {
	IncludeOrientation bool `json:"include_orientation,omitempty"`
}

type emptyInput struct{}

type setModeInput struct {
	Mode string `json:"mode" jsonschema:"the flight mode name, case-insensitive"`
}

type uploadMissionInput struct {
	Waypoints [][]float64 `json:"waypoints" jsonschema:"ordered [x, y, z] targets"`
}

type setPIDInput struct {
	PID map[string]any `json:"pid" jsonschema:"controller parameter groups and fields to change"`
}

type getFlightLogInput struct {
	SessionID int64 `json:"session_id,omitempty" jsonschema:"session to read; the latest session when omitted"`
	Limit     int   `json:"limit,omitempty" jsonschema:"number of most recent frames to return"`
}

// TelemetryResponse is the JSON payload returned by get_telemetry.
type TelemetryResponse struct {
	Position      [3]float64  `json:"position"`
	Orientation   *[3]float64 `json:"orientation,omitempty"`
	Battery       float64     `json:"battery"`
	Mode          string      `json:"mode"`
	WaypointIndex int         `json:"waypoint_index"`
	Status        string      `json:"status,omitempty"`
	Stale         bool        `json:"stale"`
	Age           string      `json:"age"`
	ReceivedAt    string      `json:"received_at"`
	Timestamp     string      `json:"timestamp"`
}

// AltitudeHistoryResponse is the JSON payload returned by get_altitude_history.
type AltitudeHistoryResponse struct {
	Altitudes []float64 `json:"altitudes"`
	Samples   int       `json:"samples"`
	Timestamp string    `json:"timestamp"`
}

// FlightLogFrame is one recorded frame in a FlightLogResponse.
type FlightLogFrame struct {
	Timestamp     string     `json:"timestamp"`
	Mode          string     `json:"mode"`
	Battery       float64    `json:"battery"`
	Position      [3]float64 `json:"position"`
	WaypointIndex int        `json:"waypoint_index"`
}

// FlightLogResponse is the JSON payload returned by get_flight_log.
type FlightLogResponse struct {
	SessionID   int64            `json:"session_id"`
	StartedAt   string           `json:"started_at"`
	Started     string           `json:"started"`
	Sessions    int              `json:"sessions"`
	TotalFrames string           `json:"total_frames"`
	Frames      []FlightLogFrame `json:"frames"`
	Timestamp   string           `json:"timestamp"`
}

// CommandResponse is returned by every command tool. The vehicle never
// acknowledges commands, so Sent only means the datagram left.
type CommandResponse struct {
	Sent      bool   `json:"sent"`
	Command   string `json:"command"`
	Detail    string `json:"detail,omitempty"`
	Timestamp string `json:"timestamp"`
}

// UnavailableResponse is returned when a tool cannot complete.
type UnavailableResponse struct {
	Available   bool   `json:"available"`
	Error       string `json:"error"`
	Code        string `json:"code"`
	Recoverable bool   `json:"recoverable"`
	Suggestion  string `json:"suggestion"`
	Timestamp   string `json:"timestamp"`
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func (s *Server) handleGetTelemetry(
	ctx context.Context,
	req *mcpsdk.CallToolRequest,
	input getTelemetryInput,
) (*mcpsdk.CallToolResult, any, error) {
	r, err := s.state.Latest()
	if err != nil && !errors.Is(err, state.ErrStale) {
		return s.errorResult(err), nil, nil
	}

	resp := TelemetryResponse{
		Position:      r.Frame.Position,
		Battery:       r.Frame.Battery,
		Mode:          r.Frame.Mode,
		WaypointIndex: r.Frame.WaypointIndex,
		Status:        r.Status,
		Stale:         err != nil,
		Age:           humanize.Time(r.Received),
		ReceivedAt:    r.Received.UTC().Format(time.RFC3339Nano),
		Timestamp:     now(),
	}
	if input.IncludeOrientation {
		o := [3]float64(r.Frame.Orientation)
		resp.Orientation = &o
	}
	return jsonResult(resp)
}

func (s *Server) handleGetAltitudeHistory(
	ctx context.Context,
	req *mcpsdk.CallToolRequest,
	input emptyInput,
) (*mcpsdk.CallToolResult, any, error) {
	hist := s.state.AltitudeHistory()
	if hist == nil {
		hist = []float64{}
	}
	return jsonResult(AltitudeHistoryResponse{Altitudes: hist, Samples: len(hist), Timestamp: now()})
}

func (s *Server) handleSetMode(
	ctx context.Context,
	req *mcpsdk.CallToolRequest,
	input setModeInput,
) (*mcpsdk.CallToolResult, any, error) {
	mode, err := s.cmd.SetMode(input.Mode)
	if err != nil {
		return s.errorResult(err), nil, nil
	}
	return jsonResult(CommandResponse{Sent: true, Command: "set_mode", Detail: mode.String(), Timestamp: now()})
}

func (s *Server) handleUploadMission(
	ctx context.Context,
	req *mcpsdk.CallToolRequest,
	input uploadMissionInput,
) (*mcpsdk.CallToolResult, any, error) {
	wps, err := toPoints(input.Waypoints)
	if err != nil {
		return s.errorResult(err), nil, nil
	}
	if err := s.cmd.UploadMission(wps); err != nil {
		return s.errorResult(err), nil, nil
	}
	return jsonResult(CommandResponse{
		Sent:      true,
		Command:   "upload_mission",
		Detail:    fmt.Sprintf("%d waypoints, mode GUIDED", len(wps)),
		Timestamp: now(),
	})
}

func (s *Server) handleSetPID(
	ctx context.Context,
	req *mcpsdk.CallToolRequest,
	input setPIDInput,
) (*mcpsdk.CallToolResult, any, error) {
	if err := s.cmd.SetPID(input.PID); err != nil {
		return s.errorResult(err), nil, nil
	}
	return jsonResult(CommandResponse{Sent: true, Command: "set_pid", Timestamp: now()})
}

func (s *Server) handleReboot(
	ctx context.Context,
	req *mcpsdk.CallToolRequest,
	input emptyInput,
) (*mcpsdk.CallToolResult, any, error) {
	if err := s.cmd.Reboot(); err != nil {
		return s.errorResult(err), nil, nil
	}
	return jsonResult(CommandResponse{Sent: true, Command: "reboot", Timestamp: now()})
}

func (s *Server) handleGetFlightLog(
	ctx context.Context,
	req *mcpsdk.CallToolRequest,
	input getFlightLogInput,
) (*mcpsdk.CallToolResult, any, error) {
	if s.flightLog == nil {
		return s.errorResult(errFlightLogDisabled), nil, nil
	}

	sessions, err := s.flightLog.Sessions(ctx)
	if err != nil {
		return s.errorResult(err), nil, nil
	}
	var sess *flightlog.Session
	for i := range sessions {
		if input.SessionID == 0 || sessions[i].ID == input.SessionID {
			sess = &sessions[i]
		}
	}
	if sess == nil {
		return s.errorResult(fmt.Errorf("%w: no session %d", errInvalidArgument, input.SessionID)), nil, nil
	}

	entries, err := s.flightLog.Frames(ctx, sess.ID)
	if err != nil {
		return s.errorResult(err), nil, nil
	}

	limit := input.Limit
	if limit <= 0 {
		limit = defaultLogLimit
	}
	limit = min(limit, maxLogLimit)
	total := len(entries)
	if total > limit {
		entries = entries[total-limit:]
	}

	frames := make([]FlightLogFrame, 0, len(entries))
	for _, e := range entries {
		frames = append(frames, FlightLogFrame{
			Timestamp:     e.Timestamp.UTC().Format(time.RFC3339Nano),
			Mode:          e.Frame.Mode,
			Battery:       e.Frame.Battery,
			Position:      e.Frame.Position,
			WaypointIndex: e.Frame.WaypointIndex,
		})
	}
	return jsonResult(FlightLogResponse{
		SessionID:   sess.ID,
		StartedAt:   sess.StartTime.UTC().Format(time.RFC3339),
		Started:     humanize.Time(sess.StartTime),
		Sessions:    len(sessions),
		TotalFrames: humanize.Comma(int64(total)),
		Frames:      frames,
		Timestamp:   now(),
	})
}

func toPoints(raw [][]float64) ([]types.Point, error) {
	wps := make([]types.Point, 0, len(raw))
	for i, wp := range raw {
		if len(wp) != 3 {
			return nil, fmt.Errorf("%w: waypoint %d has %d components, want 3", errInvalidArgument, i, len(wp))
		}
		wps = append(wps, types.Point{wp[0], wp[1], wp[2]})
	}
	return wps, nil
}

func jsonResult(v any) (*mcpsdk.CallToolResult, any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, nil, err
	}
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: string(data)}},
	}, nil, nil
}

func (s *Server) errorResult(err error) *mcpsdk.CallToolResult {
	resp := UnavailableResponse{
		Available: false,
		Error:     err.Error(),
		Timestamp: now(),
	}

	switch {
	case errors.Is(err, state.ErrNoTelemetry):
		resp.Code = "NO_TELEMETRY"
		resp.Recoverable = true
		resp.Suggestion = "Ensure the vehicle is running and sending to this ground station."
	case errors.Is(err, flight.ErrUnknownMode):
		resp.Code = "UNKNOWN_MODE"
		resp.Recoverable = true
		resp.Suggestion = "Use one of GUIDED, TAKEOFF, LAND or RTL."
	case errors.Is(err, errFlightLogDisabled):
		resp.Code = "FLIGHT_LOG_DISABLED"
		resp.Recoverable = false
		resp.Suggestion = "Set FLIGHTLOG_DIR and restart the ground station."
	case errors.Is(err, errInvalidArgument), errors.Is(err, ground.ErrEmptyPID):
		resp.Code = "INVALID_ARGUMENT"
		resp.Recoverable = true
		resp.Suggestion = "Fix the arguments and call the tool again."
	default:
		resp.Code = "LINK_ERROR"
		resp.Recoverable = false
		resp.Suggestion = "Check application logs for details."
	}

	data, _ := json.Marshal(resp)
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: string(data)}},
		IsError: true,
	}
}
