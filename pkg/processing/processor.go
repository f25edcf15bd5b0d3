// Package processing runs the per frame pipeline of a race session:
// controls -> kinematics -> boundary -> laps -> counters -> completion.
package processing

import (
	"time"

	"github.com/mpapenbr/lapracer/pkg/model"
	"github.com/mpapenbr/lapracer/pkg/processing/boundary"
	"github.com/mpapenbr/lapracer/pkg/processing/kinematics"
	"github.com/mpapenbr/lapracer/pkg/processing/lap"
	"github.com/mpapenbr/lapracer/pkg/track"
)

const (
	// display clock resolution
	ClockResolution = 100 * time.Millisecond

	MaxScore = 1000
	MinScore = 100
)

// Session owns all state of one race. It is not safe for concurrent use;
// the owning service serializes access.
type Session struct {
	ID         string
	BlockID    string
	TotalLaps  int
	params     kinematics.Params
	geometry   boundary.Geometry
	laps       *lap.LapProcessor
	spawn      model.VehicleState
	vehicle    model.VehicleState
	cameraMode model.CameraMode
	frame      uint64
	started    bool
	won        bool
	completed  bool
	startTime  time.Time
	elapsed    time.Duration
}

type SessionOption func(s *Session)

// WithTrack configures physics, geometry, lap zones and spawn from t.
func WithTrack(t *track.Track) SessionOption {
	return func(s *Session) {
		s.params = t.Params
		s.geometry = t.Geometry
		s.laps = lap.NewLapProcessor(t.LapOptions()...)
		s.spawn = t.Spawn
		s.TotalLaps = t.TotalLaps
	}
}

func WithSessionID(id string) SessionOption {
	return func(s *Session) {
		s.ID = id
	}
}

// WithBlockID sets the id of the embedding block reported in the completion record.
func WithBlockID(id string) SessionOption {
	return func(s *Session) {
		s.BlockID = id
	}
}

func WithParams(p kinematics.Params) SessionOption {
	return func(s *Session) {
		s.params = p
	}
}

func WithGeometry(g boundary.Geometry) SessionOption {
	return func(s *Session) {
		s.geometry = g
	}
}

func WithLapProcessor(lp *lap.LapProcessor) SessionOption {
	return func(s *Session) {
		s.laps = lp
	}
}

func WithTotalLaps(n int) SessionOption {
	return func(s *Session) {
		s.TotalLaps = n
	}
}

func WithSpawn(v model.VehicleState) SessionOption {
	return func(s *Session) {
		s.spawn = v
	}
}

func WithCameraMode(m model.CameraMode) SessionOption {
	return func(s *Session) {
		s.cameraMode = m
	}
}

func NewSession(opts ...SessionOption) *Session {
	s := &Session{
		params:     kinematics.DefaultParams(),
		cameraMode: model.CameraFollow,
		TotalLaps:  1,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.laps == nil {
		s.laps = lap.NewLapProcessor()
	}
	s.vehicle = s.spawn
	return s
}

// FrameResult describes what happened during one frame.
// Completion is set in exactly one frame of a session.
type FrameResult struct {
	Snapshot     model.RaceSnapshot
	Collision    bool
	LapCompleted bool
	Completion   *model.CompletionRecord
}

// Start begins the race at now. Returns false if it was already started.
func (s *Session) Start(now time.Time) bool {
	if s.started {
		return false
	}
	s.started = true
	s.startTime = now
	s.elapsed = 0
	return true
}

// Step advances the session by one frame. Before Start the vehicle does not move.
// After the race is won the vehicle stays drivable but laps are no longer counted.
func (s *Session) Step(c model.Controls, now time.Time) FrameResult {
	if !s.started {
		return FrameResult{Snapshot: s.Snapshot()}
	}
	s.frame++
	ret := FrameResult{}

	prev := s.vehicle.Position
	next := kinematics.Step(s.params, c, s.vehicle)
	if s.geometry != nil {
		next, ret.Collision = s.geometry.Resolve(prev, next)
	}
	s.vehicle = next

	if !s.won && s.laps.Process(s.vehicle.Position, now) {
		ret.LapCompleted = true
		if s.laps.Progress.CurrentLap >= s.TotalLaps {
			s.won = true
			s.elapsed = now.Sub(s.startTime)
		}
	}
	if s.won && !s.completed {
		s.completed = true
		rec := s.completionRecord()
		ret.Completion = &rec
	}
	ret.Snapshot = s.Snapshot()
	return ret
}

// UpdateClock refreshes the display clock. It is frozen once the race is won.
func (s *Session) UpdateClock(now time.Time) {
	if !s.started || s.won {
		return
	}
	s.elapsed = now.Sub(s.startTime).Truncate(ClockResolution)
}

func (s *Session) SetCameraMode(m model.CameraMode) {
	s.cameraMode = m
}

func (s *Session) Snapshot() model.RaceSnapshot {
	return model.RaceSnapshot{
		SessionID:     s.ID,
		Frame:         s.frame,
		Position:      s.vehicle.Position,
		Rotation:      s.vehicle.Rotation,
		CameraMode:    s.cameraMode,
		CurrentLap:    s.laps.Progress.CurrentLap,
		TotalLaps:     s.TotalLaps,
		Won:           s.won,
		Started:       s.started,
		ElapsedMillis: s.elapsed.Milliseconds(),
	}
}

func (s *Session) Vehicle() model.VehicleState { return s.vehicle }

func (s *Session) Progress() model.LapProgress { return s.laps.Progress }

// LapState returns the state of the lap state machine (see lap.State*).
func (s *Session) LapState() string { return s.laps.State() }

func (s *Session) Won() bool { return s.won }

func (s *Session) Started() bool { return s.started }

func (s *Session) Elapsed() time.Duration { return s.elapsed }

func (s *Session) completionRecord() model.CompletionRecord {
	return model.CompletionRecord{
		Type:             model.CompletionMessageType,
		BlockID:          s.BlockID,
		SessionID:        s.ID,
		Completed:        true,
		Score:            Score(s.elapsed),
		TimeSpentSeconds: int(s.elapsed / time.Second),
	}
}

// Score rewards fast races: 1000 minus the elapsed deciseconds, at least 100.
func Score(elapsed time.Duration) int {
	return max(MaxScore-int(elapsed/ClockResolution), MinScore)
}
