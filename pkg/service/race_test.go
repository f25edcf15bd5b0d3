package service

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/lapracer/log"
	"github.com/mpapenbr/lapracer/pkg/model"
	"github.com/mpapenbr/lapracer/pkg/notify"
	"github.com/mpapenbr/lapracer/pkg/processing"
	"github.com/mpapenbr/lapracer/pkg/track"
	"github.com/mpapenbr/lapracer/testsupport/basedata"
)

var t0 = basedata.TestTime()

const frame = 16 * time.Millisecond

func newTestService(t *testing.T, opts ...RaceServiceOption) *RaceService {
	t.Helper()
	return NewRaceService(append([]RaceServiceOption{
		WithCatalog(basedata.SampleCatalog()),
		WithLogger(log.New(os.Stderr, log.WarnLevel)),
	}, opts...)...)
}

func TestRaceService_CreateAndRemove(t *testing.T) {
	s := newTestService(t)
	r, err := s.CreateRace(track.Circle)
	require.NoError(t, err)
	assert.NotEmpty(t, r.ID)
	assert.Equal(t, 1, s.Count())

	got, ok := s.Get(r.ID)
	require.True(t, ok)
	assert.Same(t, r, got)

	_, err = s.CreateRace("nowhere")
	assert.ErrorIs(t, err, track.ErrTrackNotFound)

	s.Remove(r.ID)
	assert.Equal(t, 0, s.Count())
	assert.ErrorIs(t, r.Start(), ErrRaceStopped)
	s.Remove(r.ID)
}

func TestRace_StartAndDrive(t *testing.T) {
	s := newTestService(t)
	r, err := s.CreateRace(track.Square)
	require.NoError(t, err)
	defer s.Remove(r.ID)

	sub := r.Broadcaster.Subscribe()
	r.Input().KeyDown("ArrowUp")
	res := r.Tick(t0)
	assert.False(t, res.Snapshot.Started, "not started yet")
	assert.Equal(t, res.Snapshot, r.Snapshot())

	require.NoError(t, r.Start())
	require.NoError(t, r.SetCameraMode(model.CameraAerial))
	now := t0
	for range 10 {
		now = now.Add(frame)
		res = r.Tick(now)
	}
	assert.True(t, res.Snapshot.Started)
	assert.Equal(t, uint64(10), res.Snapshot.Frame)
	assert.Equal(t, model.CameraAerial, res.Snapshot.CameraMode)
	assert.Greater(t, res.Snapshot.Position.Z, 0.0)

	select {
	case snap := <-sub:
		assert.LessOrEqual(t, snap.Frame, uint64(10))
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot broadcast")
	}

	// started with the first of the ten frames
	r.UpdateClock(now.Add(250 * time.Millisecond))
	assert.Equal(t, int64(300), r.Snapshot().ElapsedMillis)
}

func TestRace_CompletionOnce(t *testing.T) {
	var delivered []*model.CompletionRecord
	s := newTestService(t,
		WithBlockID("block-42"),
		WithNotifier(notify.Func(func(_ context.Context, rec *model.CompletionRecord) error {
			delivered = append(delivered, rec)
			return nil
		})))
	r, err := s.CreateRace(basedata.Dragstrip)
	require.NoError(t, err)
	defer s.Remove(r.ID)

	require.NoError(t, r.Start())
	r.Input().KeyDown("KeyW")
	now := t0
	var wonAt time.Time
	for i := range 600 {
		res := r.Tick(now)
		if res.Completion != nil {
			wonAt = now
			assert.True(t, res.Snapshot.Won)
			assert.Equal(t, 1, res.Snapshot.CurrentLap)
		}
		if i < 599 {
			now = now.Add(frame)
		}
	}
	require.Len(t, delivered, 1)
	require.False(t, wonAt.IsZero())

	elapsed := wonAt.Sub(t0)
	rec := delivered[0]
	assert.Equal(t, model.CompletionMessageType, rec.Type)
	assert.Equal(t, "block-42", rec.BlockID)
	assert.Equal(t, r.ID, rec.SessionID)
	assert.True(t, rec.Completed)
	assert.Equal(t, processing.Score(elapsed), rec.Score)
	assert.Equal(t, int(elapsed/time.Second), rec.TimeSpentSeconds)

	select {
	case got := <-r.Completion():
		assert.Equal(t, *rec, got)
	default:
		t.Fatal("completion not available on channel")
	}
	assert.Equal(t, elapsed.Milliseconds(), r.Snapshot().ElapsedMillis, "clock frozen")
	assert.Greater(t, r.Snapshot().Position.Z, 20.0, "still drivable after the win")
}

func TestRace_Run(t *testing.T) {
	s := newTestService(t, WithFrameRate(120))
	r, err := s.CreateRace(track.Oval)
	require.NoError(t, err)
	require.NoError(t, r.Start())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()
	require.Eventually(t, func() bool { return r.Snapshot().Frame > 5 },
		2*time.Second, 10*time.Millisecond)
	cancel()
	<-done
	assert.ErrorIs(t, r.SetCameraMode(model.CameraCockpit), ErrRaceStopped)
}
