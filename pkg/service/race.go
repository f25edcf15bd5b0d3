//nolint:whitespace //can't make both the linter and editor happy :(
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/mpapenbr/lapracer/log"
	"github.com/mpapenbr/lapracer/pkg/notify"
	"github.com/mpapenbr/lapracer/pkg/track"
)

const (
	DefaultFrameRate  = 60
	notifyTimeout     = 5 * time.Second
	commandQueueDepth = 16
)

var ErrRaceStopped = errors.New("race stopped")

var meter = otel.Meter("lapracer-race")

type raceMetrics struct {
	frames     metric.Int64Counter
	laps       metric.Int64Counter
	won        metric.Int64Counter
	collisions metric.Int64Counter
	active     metric.Int64UpDownCounter
}

func newRaceMetrics() raceMetrics {
	frames, _ := meter.Int64Counter("lapracer.frames",
		metric.WithDescription("simulated frames"), metric.WithUnit("{frame}"))
	laps, _ := meter.Int64Counter("lapracer.laps",
		metric.WithDescription("completed laps"), metric.WithUnit("{lap}"))
	won, _ := meter.Int64Counter("lapracer.races.won",
		metric.WithDescription("races finished"), metric.WithUnit("{race}"))
	collisions, _ := meter.Int64Counter("lapracer.collisions",
		metric.WithDescription("boundary corrections"), metric.WithUnit("{collision}"))
	active, _ := meter.Int64UpDownCounter("lapracer.races.active",
		metric.WithDescription("running races"), metric.WithUnit("{race}"))
	return raceMetrics{frames, laps, won, collisions, active}
}

// RaceService creates and tracks the races of all connected players.
type RaceService struct {
	catalog   *track.Catalog
	notifier  notify.Notifier
	frameRate int
	blockID   string
	now       func() time.Time
	log       *log.Logger
	metrics   raceMetrics
	mu        sync.Mutex
	races     map[string]*Race
}

type RaceServiceOption func(s *RaceService)

func WithCatalog(c *track.Catalog) RaceServiceOption {
	return func(s *RaceService) {
		s.catalog = c
	}
}

func WithNotifier(n notify.Notifier) RaceServiceOption {
	return func(s *RaceService) {
		s.notifier = n
	}
}

func WithFrameRate(fps int) RaceServiceOption {
	return func(s *RaceService) {
		s.frameRate = fps
	}
}

// WithBlockID sets the id reported in completion records.
func WithBlockID(id string) RaceServiceOption {
	return func(s *RaceService) {
		s.blockID = id
	}
}

func WithClock(now func() time.Time) RaceServiceOption {
	return func(s *RaceService) {
		s.now = now
	}
}

func WithLogger(l *log.Logger) RaceServiceOption {
	return func(s *RaceService) {
		s.log = l
	}
}

func NewRaceService(opts ...RaceServiceOption) *RaceService {
	ret := &RaceService{
		frameRate: DefaultFrameRate,
		now:       time.Now,
		log:       log.Default().Named("race"),
		metrics:   newRaceMetrics(),
		races:     make(map[string]*Race),
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.catalog == nil {
		ret.catalog = track.NewCatalog(track.WithLogger(ret.log.Named("track")))
	}
	if ret.notifier == nil {
		ret.notifier = notify.NewLogNotifier(ret.log.Named("notify"))
	}
	return ret
}

func (s *RaceService) Catalog() *track.Catalog { return s.catalog }

func (s *RaceService) FrameRate() int { return s.frameRate }

// CreateRace prepares a new race on the named track. The race does not run
// until Run is called (or it is driven by Tick).
func (s *RaceService) CreateRace(trackName string) (*Race, error) {
	t, err := s.catalog.Get(trackName)
	if err != nil {
		return nil, err
	}
	id := uuid.NewString()
	r := newRace(id, t, s)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.races[id] = r
	s.metrics.active.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("track", t.Name)))
	s.log.Debug("race created", log.String("id", id), log.String("track", t.Name))
	return r, nil
}

func (s *RaceService) Get(id string) (*Race, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.races[id]
	return r, ok
}

// Remove stops the race and forgets it.
func (s *RaceService) Remove(id string) {
	s.mu.Lock()
	r, ok := s.races[id]
	delete(s.races, id)
	s.mu.Unlock()
	if !ok {
		return
	}
	r.Stop()
	s.metrics.active.Add(context.Background(), -1,
		metric.WithAttributes(attribute.String("track", r.Track.Name)))
	s.log.Debug("race removed", log.String("id", id))
}

func (s *RaceService) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.races)
}

// StopAll stops every race, used on shutdown.
func (s *RaceService) StopAll() {
	s.mu.Lock()
	ids := lo.Keys(s.races)
	s.mu.Unlock()
	for _, id := range ids {
		s.Remove(id)
	}
}
