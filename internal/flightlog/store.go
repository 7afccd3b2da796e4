// Package flightlog records received telemetry frames to SQLite, one session
// per ground station run.
package flightlog

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/eytandecker/quadlink/pkg/types"
)

// Session is one ground station run.
type Session struct {
	ID          int64
	StartTime   time.Time
	VehicleAddr string
}

// Entry is one logged frame.
type Entry struct {
	ID        int64
	Timestamp time.Time
	Frame     types.Telemetry
}

// Store handles flight log database operations.
type Store struct {
	dbPath string

	db     *sql.DB
	dbOnce sync.Once
	dbErr  error

	closeOnce sync.Once
	closeErr  error
}

// New creates a Store backed by the SQLite file at dbPath. The database is
// opened and its schema created on first use.
func New(dbPath string) *Store {
	return &Store{dbPath: dbPath}
}

func (s *Store) getDB() (*sql.DB, error) {
	s.dbOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "_journal_mode=WAL&_synchronous=NORMAL"))
		if err != nil {
			s.dbErr = fmt.Errorf("opening database: %w", err)
			return
		}

		if _, err = db.Exec(schemaSQL); err != nil {
			_ = db.Close()
			s.dbErr = fmt.Errorf("initializing schema: %w", err)
			return
		}

		s.db = db
	})

	return s.db, s.dbErr
}

// Open creates the database and schema now instead of on first write, so
// that a bad path fails at startup.
func (s *Store) Open() error {
	_, err := s.getDB()
	return err
}

// CreateSession starts a new session and returns its ID.
func (s *Store) CreateSession(ctx context.Context, vehicleAddr string) (sessionID int64, err error) {
	db, err := s.getDB()
	if err != nil {
		err = fmt.Errorf("getting connection: %w", err)
		return
	}

	var addr sql.NullString
	if vehicleAddr != "" {
		addr = sql.NullString{String: vehicleAddr, Valid: true}
	}

	result, err := db.ExecContext(ctx, insertSessionSQL, time.Now().UTC(), addr)
	if err != nil {
		err = fmt.Errorf("inserting session: %w", err)
		return
	}

	sessionID, err = result.LastInsertId()
	if err != nil {
		err = fmt.Errorf("getting session ID: %w", err)
	}
	return
}

// Sessions lists every recorded session, oldest first.
func (s *Store) Sessions(ctx context.Context) (sessions []Session, err error) {
	db, err := s.getDB()
	if err != nil {
		err = fmt.Errorf("getting connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectSessionsSQL)
	if err != nil {
		err = fmt.Errorf("querying sessions: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var sess Session
		var addr sql.NullString
		if err = rows.Scan(&sess.ID, &sess.StartTime, &addr); err != nil {
			err = fmt.Errorf("scanning session: %w", err)
			return
		}
		sess.VehicleAddr = addr.String
		sessions = append(sessions, sess)
	}
	err = rows.Err()
	return
}

// Record appends one frame to the session.
func (s *Store) Record(ctx context.Context, sessionID int64, at time.Time, t types.Telemetry) (frameID int64, err error) {
	db, err := s.getDB()
	if err != nil {
		err = fmt.Errorf("getting connection: %w", err)
		return
	}

	stmt, err := db.PrepareContext(ctx, insertFrameSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	result, err := stmt.ExecContext(
		ctx,
		sessionID,
		at.UTC(),
		t.Mode,
		t.Battery,
		t.Position.X(),
		t.Position.Y(),
		t.Position.Z(),
		t.Orientation[0],
		t.Orientation[1],
		t.Orientation[2],
		t.WaypointIndex,
	)
	if err != nil {
		err = fmt.Errorf("inserting frame: %w", err)
		return
	}

	frameID, err = result.LastInsertId()
	if err != nil {
		err = fmt.Errorf("getting frame ID: %w", err)
	}
	return
}

// Frames returns every frame of the session in arrival order.
func (s *Store) Frames(ctx context.Context, sessionID int64) (entries []Entry, err error) {
	db, err := s.getDB()
	if err != nil {
		err = fmt.Errorf("getting connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectFramesSQL, sessionID)
	if err != nil {
		err = fmt.Errorf("querying frames: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var e Entry
		if err = rows.Scan(
			&e.ID,
			&e.Timestamp,
			&e.Frame.Mode,
			&e.Frame.Battery,
			&e.Frame.Position[0],
			&e.Frame.Position[1],
			&e.Frame.Position[2],
			&e.Frame.Orientation[0],
			&e.Frame.Orientation[1],
			&e.Frame.Orientation[2],
			&e.Frame.WaypointIndex,
		); err != nil {
			err = fmt.Errorf("scanning frame: %w", err)
			return
		}
		entries = append(entries, e)
	}
	err = rows.Err()
	return
}

// Count returns the number of frames logged in the session.
func (s *Store) Count(ctx context.Context, sessionID int64) (n int64, err error) {
	db, err := s.getDB()
	if err != nil {
		return 0, fmt.Errorf("getting connection: %w", err)
	}
	if err = db.QueryRowContext(ctx, countFramesSQL, sessionID).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting frames: %w", err)
	}
	return n, nil
}

// Close closes the database. It is safe to call more than once.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		if s.db != nil {
			s.closeErr = s.db.Close()
		}
	})
	return s.closeErr
}
