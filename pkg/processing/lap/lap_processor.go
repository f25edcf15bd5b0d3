package lap

import (
	"time"

	"github.com/samber/lo"

	"github.com/mpapenbr/lapracer/pkg/model"
	"github.com/mpapenbr/lapracer/pkg/processing/zone"
)

const (
	StateIdle  = "IDLE"  // start guard configured and start zone not yet left
	StateRun   = "RUN"   // collecting checkpoints
	StateReady = "READY" // all checkpoints set, waiting for the finish zone

	DefaultMinLapInterval = time.Second
)

// LapProcessor validates laps. Checkpoints must be entered in index order;
// the finish zone only counts once every checkpoint is set and the last
// counted lap is older than MinLapInterval.
type LapProcessor struct {
	Checkpoints    []zone.Zone
	Finish         zone.Zone
	StartZone      zone.Zone // optional start guard
	MinLapInterval time.Duration
	Flags          []bool
	Progress       model.LapProgress
}

type LapProcessorOption func(lp *LapProcessor)

func WithCheckpoints(checkpoints ...zone.Zone) LapProcessorOption {
	return func(lp *LapProcessor) {
		lp.Checkpoints = checkpoints
	}
}

func WithFinish(finish zone.Zone) LapProcessorOption {
	return func(lp *LapProcessor) {
		lp.Finish = finish
	}
}

// WithStartGuard requires leaving the given zone once before checkpoints arm.
// Used when the spawn point lies inside the finish zone.
func WithStartGuard(start zone.Zone) LapProcessorOption {
	return func(lp *LapProcessor) {
		lp.StartZone = start
	}
}

func WithMinLapInterval(d time.Duration) LapProcessorOption {
	return func(lp *LapProcessor) {
		lp.MinLapInterval = d
	}
}

func NewLapProcessor(opts ...LapProcessorOption) *LapProcessor {
	lp := &LapProcessor{
		MinLapInterval: DefaultMinLapInterval,
	}
	for _, opt := range opts {
		opt(lp)
	}
	lp.Flags = make([]bool, len(lp.Checkpoints))
	return lp
}

// Process evaluates the corrected position of the current frame.
// Checkpoints are evaluated before the finish zone. Returns true if a lap
// was completed in this frame.
func (p *LapProcessor) Process(pos model.Vec3, now time.Time) bool {
	if !p.armed(pos) {
		return false
	}
	p.processCheckpoints(pos)
	return p.processFinish(pos, now)
}

func (p *LapProcessor) armed(pos model.Vec3) bool {
	if p.StartZone == nil || p.Progress.LeftStartZone {
		return true
	}
	if !p.StartZone.Contains(pos.X, pos.Z) {
		p.Progress.LeftStartZone = true
	}
	return p.Progress.LeftStartZone
}

func (p *LapProcessor) processCheckpoints(pos model.Vec3) {
	// flags always form a prefix, so only the first unset one is a candidate.
	// A following checkpoint may be set in the same frame if the zones overlap.
	for i := p.NextCheckpoint(); i < len(p.Checkpoints); i++ {
		if !p.Checkpoints[i].Contains(pos.X, pos.Z) {
			break
		}
		p.Flags[i] = true
	}
	p.Progress.CanFinishLap = !lo.Contains(p.Flags, false)
}

func (p *LapProcessor) processFinish(pos model.Vec3, now time.Time) bool {
	if !p.Progress.CanFinishLap || p.Finish == nil {
		return false
	}
	if !p.Finish.Contains(pos.X, pos.Z) {
		return false
	}
	if !p.Progress.LastLapTimestamp.IsZero() &&
		now.Sub(p.Progress.LastLapTimestamp) <= p.MinLapInterval {
		return false
	}
	p.Progress.CurrentLap++
	p.Progress.LastLapTimestamp = now
	p.Progress.CanFinishLap = false
	p.Flags = make([]bool, len(p.Checkpoints))
	return true
}

// NextCheckpoint returns the index of the next checkpoint to enter,
// len(Checkpoints) if all are set.
func (p *LapProcessor) NextCheckpoint() int {
	_, idx, ok := lo.FindIndexOf(p.Flags, func(set bool) bool { return !set })
	if !ok {
		return len(p.Flags)
	}
	return idx
}

func (p *LapProcessor) State() string {
	switch {
	case p.StartZone != nil && !p.Progress.LeftStartZone:
		return StateIdle
	case p.Progress.CanFinishLap:
		return StateReady
	default:
		return StateRun
	}
}
