package flightlog

import (
	_ "embed"
)

const (
	insertSessionSQL = `
INSERT INTO sessions (start_time,
                      vehicle_addr)
VALUES (?, ?)`

	selectSessionsSQL = `
SELECT id,
       start_time,
       vehicle_addr
FROM sessions
ORDER BY id`

	insertFrameSQL = `
INSERT INTO frames (session_id,
                    timestamp,
                    mode,
                    battery,
                    x, y, z,
                    roll, pitch, yaw,
                    waypoint_index)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	selectFramesSQL = `
SELECT id,
       timestamp,
       mode,
       battery,
       x, y, z,
       roll, pitch, yaw,
       waypoint_index
FROM frames
WHERE session_id = ?
ORDER BY id`

	countFramesSQL = `
SELECT COUNT(*)
FROM frames
WHERE session_id = ?`
)

//go:embed schema.sql
var schemaSQL string
