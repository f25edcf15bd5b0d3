package service

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/mpapenbr/lapracer/log"
	"github.com/mpapenbr/lapracer/pkg/input"
	"github.com/mpapenbr/lapracer/pkg/model"
	"github.com/mpapenbr/lapracer/pkg/notify"
	"github.com/mpapenbr/lapracer/pkg/processing"
	"github.com/mpapenbr/lapracer/pkg/track"
	"github.com/mpapenbr/lapracer/pkg/utils/broadcast"
)

type command func(s *processing.Session, now time.Time)

// Race is one running session. The session itself is only touched by the
// goroutine calling Tick/UpdateClock; other goroutines interact through the
// input state, the command queue and the published snapshot.
type Race struct {
	ID          string
	Track       *track.Track
	Broadcaster broadcast.BroadcastServer[model.RaceSnapshot]

	session    *processing.Session
	input      *input.State
	cmds       chan command
	bcstSource chan model.RaceSnapshot
	completion chan model.CompletionRecord
	frameRate  int
	now        func() time.Time
	notifier   notify.Notifier
	metrics    raceMetrics
	attrs      metric.MeasurementOption
	log        *log.Logger

	mu     sync.RWMutex
	latest model.RaceSnapshot

	done     chan struct{}
	stopOnce sync.Once
}

func newRace(id string, t *track.Track, s *RaceService) *Race {
	r := &Race{
		ID:    id,
		Track: t,
		session: processing.NewSession(
			processing.WithTrack(t),
			processing.WithSessionID(id),
			processing.WithBlockID(s.blockID),
		),
		input:      input.New(),
		cmds:       make(chan command, commandQueueDepth),
		bcstSource: make(chan model.RaceSnapshot),
		completion: make(chan model.CompletionRecord, 1),
		frameRate:  s.frameRate,
		now:        s.now,
		notifier:   s.notifier,
		metrics:    s.metrics,
		attrs:      metric.WithAttributes(attribute.String("track", t.Name)),
		log:        s.log.With(log.String("race", id)),
		done:       make(chan struct{}),
	}
	r.Broadcaster = broadcast.NewBroadcastServer("race", r.bcstSource,
		broadcast.WithTelemetry[model.RaceSnapshot](id),
		broadcast.WithLogger[model.RaceSnapshot](r.log.Named("bcst")))
	r.latest = r.session.Snapshot()
	return r
}

// Input is the key state fed by the client.
func (r *Race) Input() *input.State { return r.input }

// Snapshot returns the snapshot committed by the latest frame.
func (r *Race) Snapshot() model.RaceSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.latest
}

// Completion delivers the completion record once the race is won.
func (r *Race) Completion() <-chan model.CompletionRecord { return r.completion }

// Start requests the race start; applied at the beginning of the next frame.
func (r *Race) Start() error {
	return r.enqueue(func(s *processing.Session, now time.Time) {
		if s.Start(now) {
			r.log.Info("race started")
		}
	})
}

// SetCameraMode is passed through to the snapshot of the next frame.
func (r *Race) SetCameraMode(m model.CameraMode) error {
	return r.enqueue(func(s *processing.Session, _ time.Time) {
		s.SetCameraMode(m)
	})
}

func (r *Race) enqueue(c command) error {
	select {
	case <-r.done:
		return ErrRaceStopped
	default:
	}
	select {
	case <-r.done:
		return ErrRaceStopped
	case r.cmds <- c:
		return nil
	}
}

// Tick computes one frame at time now.
func (r *Race) Tick(now time.Time) processing.FrameResult {
	r.drainCommands(now)
	res := r.session.Step(r.input.Controls(), now)
	r.publish(res.Snapshot)

	ctx := context.Background()
	if res.Snapshot.Started {
		r.metrics.frames.Add(ctx, 1, r.attrs)
	}
	if res.Collision {
		r.metrics.collisions.Add(ctx, 1, r.attrs)
	}
	if res.LapCompleted {
		r.metrics.laps.Add(ctx, 1, r.attrs)
		r.log.Debug("lap completed",
			log.Int("lap", res.Snapshot.CurrentLap),
			log.Int64("elapsedMillis", r.session.Elapsed().Milliseconds()))
	}
	if res.Completion != nil {
		r.metrics.won.Add(ctx, 1, r.attrs)
		r.complete(res.Completion)
	}
	return res
}

// UpdateClock refreshes the display clock.
func (r *Race) UpdateClock(now time.Time) {
	r.session.UpdateClock(now)
	r.publish(r.session.Snapshot())
}

// Run drives the race with wall clock time until ctx is done or the race is stopped.
func (r *Race) Run(ctx context.Context) {
	frameTicker := time.NewTicker(time.Second / time.Duration(r.frameRate))
	defer frameTicker.Stop()
	clockTicker := time.NewTicker(processing.ClockResolution)
	defer clockTicker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.Stop()
			return
		case <-r.done:
			return
		case <-frameTicker.C:
			r.Tick(r.now())
		case <-clockTicker.C:
			r.UpdateClock(r.now())
		}
	}
}

func (r *Race) Stop() {
	r.stopOnce.Do(func() {
		close(r.done)
		r.Broadcaster.Close()
	})
}

func (r *Race) drainCommands(now time.Time) {
	for {
		select {
		case c := <-r.cmds:
			c(r.session, now)
		default:
			return
		}
	}
}

func (r *Race) publish(snap model.RaceSnapshot) {
	r.mu.Lock()
	r.latest = snap
	r.mu.Unlock()
	select {
	case r.bcstSource <- snap:
	case <-r.done:
	}
}

func (r *Race) complete(rec *model.CompletionRecord) {
	r.log.Info("race won",
		log.Int("score", rec.Score),
		log.Int("timeSpentSeconds", rec.TimeSpentSeconds))
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()
	if err := r.notifier.NotifyCompletion(ctx, rec); err != nil {
		r.log.Error("could not deliver completion", log.ErrorField(err))
	}
	r.completion <- *rec
}
