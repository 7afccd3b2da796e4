package link

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/eytandecker/quadlink/pkg/types"
)

// telemetryKeys must all be present for a datagram to be a telemetry frame.
var telemetryKeys = []string{"position", "orientation", "battery", "mode", "waypoint_index"}

// Inbound is a decoded vehicle-to-ground datagram: exactly one field is set.
type Inbound struct {
	Telemetry *types.Telemetry
	Status    *types.Status
}

// DecodeCommand parses a ground-to-vehicle datagram. The datagram must be a
// JSON object; unknown keys are ignored. Errors are *types.MalformedError.
func DecodeCommand(data []byte) (types.Command, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return types.Command{}, &types.MalformedError{Err: err, Size: len(data)}
	}
	if raw == nil {
		return types.Command{}, &types.MalformedError{Err: errors.New("not a JSON object"), Size: len(data)}
	}

	var cmd types.Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return types.Command{}, &types.MalformedError{Err: err, Size: len(data)}
	}
	return cmd, nil
}

// EncodeCommand serialises a command for the wire.
func EncodeCommand(cmd types.Command) ([]byte, error) {
	return json.Marshal(cmd)
}

// EncodeTelemetry serialises a telemetry frame for the wire.
func EncodeTelemetry(t types.Telemetry) ([]byte, error) {
	return json.Marshal(t)
}

// DecodeInbound parses a vehicle-to-ground datagram into either a telemetry
// frame or a status announcement. Errors are *types.MalformedError.
func DecodeInbound(data []byte) (Inbound, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Inbound{}, &types.MalformedError{Err: err, Size: len(data)}
	}
	if raw == nil {
		return Inbound{}, &types.MalformedError{Err: errors.New("not a JSON object"), Size: len(data)}
	}

	if _, ok := raw["status"]; ok {
		var st types.Status
		if err := json.Unmarshal(data, &st); err != nil {
			return Inbound{}, &types.MalformedError{Err: err, Size: len(data)}
		}
		return Inbound{Status: &st}, nil
	}

	for _, key := range telemetryKeys {
		if _, ok := raw[key]; !ok {
			return Inbound{}, &types.MalformedError{Err: fmt.Errorf("missing key %q", key), Size: len(data)}
		}
	}
	var t types.Telemetry
	if err := json.Unmarshal(data, &t); err != nil {
		return Inbound{}, &types.MalformedError{Err: err, Size: len(data)}
	}
	return Inbound{Telemetry: &t}, nil
}
