package replay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mpapenbr/lapracer/log"
	"github.com/mpapenbr/lapracer/pkg/input"
	"github.com/mpapenbr/lapracer/pkg/model"
	"github.com/mpapenbr/lapracer/pkg/processing"
	"github.com/mpapenbr/lapracer/pkg/service"
)

var ErrUnknownKey = errors.New("unknown key")

// Result summarizes a replayed race.
type Result struct {
	RaceID     string
	Frames     int
	Collisions int
	// frame numbers (1-based, counted from the first step) completing a lap
	LapFrames  []int
	Final      model.RaceSnapshot
	Completion *model.CompletionRecord
}

type Runner struct {
	service *service.RaceService
	speed   int
	start   time.Time
	log     *log.Logger
}

type RunnerOption func(r *Runner)

// WithSpeed replays at speed times real time. 0 runs as fast as possible.
func WithSpeed(speed int) RunnerOption {
	return func(r *Runner) {
		r.speed = speed
	}
}

// WithStartTime sets the synthetic time of the first frame.
func WithStartTime(t time.Time) RunnerOption {
	return func(r *Runner) {
		r.start = t
	}
}

// WithLogger overrides the logger taken from the context passed to Run.
func WithLogger(l *log.Logger) RunnerOption {
	return func(r *Runner) {
		r.log = l
	}
}

func NewRunner(s *service.RaceService, opts ...RunnerOption) *Runner {
	ret := &Runner{
		service: s,
		start:   time.Unix(0, 0).UTC(),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Run plays the script. Frame timestamps advance by 1/frameRate starting at
// the configured start time, independent of the replay speed.
//
//nolint:funlen,cyclop // sequential steps
func (r *Runner) Run(ctx context.Context, script *Script) (*Result, error) {
	if err := script.Validate(); err != nil {
		return nil, err
	}
	race, err := r.service.CreateRace(script.Track)
	if err != nil {
		return nil, err
	}
	defer r.service.Remove(race.ID)

	frameRate := script.FrameRate
	if frameRate == 0 {
		frameRate = r.service.FrameRate()
	}
	frameDur := time.Second / time.Duration(frameRate)

	ret := &Result{RaceID: race.ID}
	if script.autoStart() {
		if err := race.Start(); err != nil {
			return nil, err
		}
	}
	now := r.start
	lastClock := now
	for i, step := range script.Steps {
		if err := r.applyStep(race, &step); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		for range step.Frames {
			if err := ctx.Err(); err != nil {
				return ret, err
			}
			res := race.Tick(now)
			ret.Frames++
			if res.Collision {
				ret.Collisions++
			}
			if res.LapCompleted {
				ret.LapFrames = append(ret.LapFrames, ret.Frames)
			}
			if res.Completion != nil {
				ret.Completion = res.Completion
			}
			if now.Sub(lastClock) >= processing.ClockResolution {
				race.UpdateClock(now)
				lastClock = now
			}
			now = now.Add(frameDur)
			if r.speed > 0 {
				time.Sleep(frameDur / time.Duration(r.speed))
			}
		}
	}
	ret.Final = race.Snapshot()
	logger := r.log
	if logger == nil {
		logger = log.GetFromContext(ctx).Named("replay")
	}
	logger.Debug("replay done",
		log.String("track", script.Track),
		log.Int("frames", ret.Frames),
		log.Int("laps", ret.Final.CurrentLap),
		log.Bool("won", ret.Final.Won))
	return ret, nil
}

func (r *Runner) applyStep(race *service.Race, step *Step) error {
	in := race.Input()
	in.Reset()
	for _, k := range step.Keys {
		if !in.KeyDown(k) {
			return fmt.Errorf("%w: %s", ErrUnknownKey, k)
		}
	}
	for _, c := range step.Commands {
		if err := pressCommand(in, c); err != nil {
			return err
		}
	}
	if step.Camera != "" {
		m, err := model.ParseCameraMode(step.Camera)
		if err != nil {
			return err
		}
		if err := race.SetCameraMode(m); err != nil {
			return err
		}
	}
	if step.Start {
		return race.Start()
	}
	return nil
}

func pressCommand(in *input.State, name string) error {
	cmd, err := model.ParseCommand(name)
	if err != nil {
		return err
	}
	key, ok := in.KeyFor(cmd)
	if !ok {
		return fmt.Errorf("%w: no key bound to %s", ErrUnknownKey, cmd)
	}
	in.KeyDown(key)
	return nil
}
