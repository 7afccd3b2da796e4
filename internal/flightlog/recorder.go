package flightlog

import (
	"context"
	"fmt"
	"time"

	"github.com/eytandecker/quadlink/pkg/types"
)

// Recorder appends frames to a single session.
type Recorder struct {
	store     *Store
	sessionID int64
}

// NewRecorder starts a session in store.
func NewRecorder(ctx context.Context, store *Store, vehicleAddr string) (*Recorder, error) {
	id, err := store.CreateSession(ctx, vehicleAddr)
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	return &Recorder{store: store, sessionID: id}, nil
}

// SessionID is the session frames are recorded under.
func (r *Recorder) SessionID() int64 {
	return r.sessionID
}

// Record appends frame, received at at, to the session.
func (r *Recorder) Record(ctx context.Context, at time.Time, frame types.Telemetry) error {
	_, err := r.store.Record(ctx, r.sessionID, at, frame)
	return err
}

// Count is the number of frames recorded in the session.
func (r *Recorder) Count(ctx context.Context) (int64, error) {
	return r.store.Count(ctx, r.sessionID)
}
