package flightlog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eytandecker/quadlink/pkg/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := New(filepath.Join(t.TempDir(), "flightlog.db"))
	require.NoError(t, s.Open())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleFrame(i int) types.Telemetry {
	return types.Telemetry{
		Position:      types.Point{float64(i), -1, 2.5},
		Orientation:   types.Point{0.01, -0.02, 1.5},
		Battery:       99.5 - float64(i),
		Mode:          "GUIDED",
		WaypointIndex: i,
	}
}

func TestCreateSessionAndList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.CreateSession(ctx, "127.0.0.1:9000")
	require.NoError(t, err)
	second, err := s.CreateSession(ctx, "")
	require.NoError(t, err)
	assert.Greater(t, second, first)

	sessions, err := s.Sessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, first, sessions[0].ID)
	assert.Equal(t, "127.0.0.1:9000", sessions[0].VehicleAddr)
	assert.Empty(t, sessions[1].VehicleAddr)
	assert.WithinDuration(t, time.Now(), sessions[0].StartTime, time.Minute)
}

func TestRecordAndReadFrames(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateSession(ctx, "")
	require.NoError(t, err)

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := s.Record(ctx, id, at.Add(time.Duration(i)*50*time.Millisecond), sampleFrame(i))
		require.NoError(t, err)
	}

	entries, err := s.Frames(ctx, id)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for i, e := range entries {
		assert.Equal(t, sampleFrame(i), e.Frame)
		assert.True(t, at.Add(time.Duration(i)*50*time.Millisecond).Equal(e.Timestamp))
	}

	n, err := s.Count(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestFramesAreScopedToSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a, err := NewRecorder(ctx, s, "")
	require.NoError(t, err)
	b, err := NewRecorder(ctx, s, "")
	require.NoError(t, err)

	require.NoError(t, a.Record(ctx, time.Now(), sampleFrame(0)))
	require.NoError(t, a.Record(ctx, time.Now(), sampleFrame(1)))
	require.NoError(t, b.Record(ctx, time.Now(), sampleFrame(2)))

	na, err := a.Count(ctx)
	require.NoError(t, err)
	nb, err := b.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), na)
	assert.Equal(t, int64(1), nb)
	assert.NotEqual(t, a.SessionID(), b.SessionID())
}

func TestReopenKeepsSessions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flightlog.db")
	ctx := context.Background()

	s := New(path)
	id, err := s.CreateSession(ctx, "")
	require.NoError(t, err)
	_, err = s.Record(ctx, id, time.Now(), sampleFrame(0))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s = New(path)
	defer s.Close()
	entries, err := s.Frames(ctx, id)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestOpenBadPath(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "missing", "dir", "flightlog.db"))
	assert.Error(t, s.Open())

	_, err := s.CreateSession(context.Background(), "")
	assert.Error(t, err)
}

func TestCloseIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err := s.CreateSession(context.Background(), "")
	assert.Error(t, err)
}
