package vehicle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eytandecker/quadlink/internal/flight"
	"github.com/eytandecker/quadlink/internal/link"
	"github.com/eytandecker/quadlink/pkg/types"
)

func newTestIngress(store *flight.Store) (*Ingress, *fakeSender) {
	tx := &fakeSender{}
	rb := NewRebooter(tx, WithLogger(discardLogger()))
	return NewIngress(newFakePoller(), store, rb, WithLogger(discardLogger())), tx
}

func TestHandleModeAnyCase(t *testing.T) {
	for _, mode := range []string{"guided", "TAKEOFF", "Land", "rtl"} {
		t.Run(mode, func(t *testing.T) {
			store := testStore()
			in, _ := newTestIngress(store)
			snap := store.Snapshot()
			store.AdvanceWaypoint(snap.Generation, 0)

			require.NoError(t, in.Handle([]byte(`{"mode":"`+mode+`"}`)))

			got := store.Snapshot()
			want, err := flight.ParseMode(mode)
			require.NoError(t, err)
			assert.Equal(t, want, got.Mode)
			assert.Equal(t, 0, got.WaypointIndex)
		})
	}
}

func TestHandleUnknownModeIsIgnored(t *testing.T) {
	store := testStore()
	in, _ := newTestIngress(store)
	require.NoError(t, in.Handle([]byte(`{"mode":"LAND"}`)))

	require.NoError(t, in.Handle([]byte(`{"mode":"HOVER"}`)))
	assert.Equal(t, flight.ModeLand, store.Mode())
}

func TestHandlePIDMergesOnlyNamedField(t *testing.T) {
	store := testStore()
	in, _ := newTestIngress(store)

	require.NoError(t, in.Handle([]byte(`{"pid":{"Linear_PID":{"P":[1,2,3]}}}`)))

	lin := store.Params().Group("Linear_PID")
	assert.Equal(t, []any{1.0, 2.0, 3.0}, lin["P"])
	assert.Equal(t, []any{0.04, 0.04, 4.5}, lin["I"])
	assert.Equal(t, []any{450.0, 450.0, 5000.0}, lin["D"])
}

func TestHandlePIDUnknownGroupGoesToLinear(t *testing.T) {
	store := testStore()
	in, _ := newTestIngress(store)

	require.NoError(t, in.Handle([]byte(`{"pid":{"Z_Boost":2.5}}`)))
	assert.Equal(t, 2.5, store.Params().Group("Linear_PID")["Z_Boost"])
}

func TestHandleWaypointsReplaceAndRewind(t *testing.T) {
	store := testStore()
	in, _ := newTestIngress(store)
	snap := store.Snapshot()
	store.AdvanceWaypoint(snap.Generation, 0)

	require.NoError(t, in.Handle([]byte(`{"waypoints":[[1,1,2]]}`)))

	got := store.Snapshot()
	assert.Equal(t, []types.Point{{1, 1, 2}}, got.Waypoints)
	assert.Equal(t, 0, got.WaypointIndex)
}

func TestHandleMalformedIsDiscarded(t *testing.T) {
	store := testStore()
	in, tx := newTestIngress(store)
	before := store.Snapshot()

	for _, data := range []string{`garbage`, `[1]`, `{"waypoints":[[1]]}`, `{"mode":7,"reboot":true}`} {
		assert.NoError(t, in.Handle([]byte(data)), data)
	}

	assert.Equal(t, before, store.Snapshot())
	assert.Zero(t, tx.count())
}

func TestHandleAllFieldsAppliedInOrder(t *testing.T) {
	store := testStore()
	in, tx := newTestIngress(store)

	err := in.Handle([]byte(`{
		"reboot": true,
		"waypoints": [[5,5,5]],
		"mode": "takeoff",
		"pid": {"Angular_PID": {"I": [1,1,1]}}
	}`))
	require.ErrorIs(t, err, ErrRebootRequested)

	got := store.Snapshot()
	assert.Equal(t, flight.ModeTakeoff, got.Mode)
	assert.Equal(t, []types.Point{{5, 5, 5}}, got.Waypoints)
	assert.Equal(t, 0, got.WaypointIndex)
	assert.Equal(t, []any{1.0, 1.0, 1.0}, store.Params().Group("Angular_PID")["I"])
	assert.Equal(t, []string{`{"status":"rebooting"}`}, tx.payloads())
}

func TestHandleRebootFalseIsNoop(t *testing.T) {
	store := testStore()
	in, tx := newTestIngress(store)
	require.NoError(t, in.Handle([]byte(`{"reboot":false}`)))
	assert.Zero(t, tx.count())
}

func TestRunAppliesQueuedCommands(t *testing.T) {
	store := testStore()
	rx := newFakePoller()
	rb := NewRebooter(&fakeSender{}, WithLogger(discardLogger()))
	in := NewIngress(rx, store, rb, WithLogger(discardLogger()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- in.Run(ctx) }()

	rx.push(`not json`)
	rx.push(`{"mode":"rtl"}`)

	require.Eventually(t, func() bool {
		return store.Mode() == flight.ModeRTL
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not exit after context cancellation")
	}
}

func TestRunSurvivesReceiveErrors(t *testing.T) {
	store := testStore()
	rx := newFakePoller()
	rb := NewRebooter(&fakeSender{}, WithLogger(discardLogger()))
	in := NewIngress(rx, store, rb, WithLogger(discardLogger()))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go func() { _ = in.Run(ctx) }()

	rx.errs <- errors.New("connection refused")
	rx.push(`{"mode":"land"}`)

	require.Eventually(t, func() bool {
		return store.Mode() == flight.ModeLand
	}, 2*time.Second, 5*time.Millisecond)
}

func TestRunReturnsOnReboot(t *testing.T) {
	store := testStore()
	rx := newFakePoller()
	in, _ := newTestIngress(store)
	in.rx = rx

	rx.push(`{"reboot":true}`)
	rx.push(`{"mode":"land"}`)

	err := in.Run(context.Background())
	assert.ErrorIs(t, err, ErrRebootRequested)
	assert.Equal(t, flight.ModeGuided, store.Mode(), "commands after reboot must not be applied")
}

func TestRunReturnsWhenEndpointClosed(t *testing.T) {
	rx := newFakePoller()
	close(rx.closed)
	in, _ := newTestIngress(testStore())
	in.rx = rx

	err := in.Run(context.Background())
	assert.ErrorIs(t, err, link.ErrClosed)
}
