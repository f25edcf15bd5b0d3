// Package track turns declarative track definitions into the runtime pieces a
// race session needs: physics parameters, boundary geometry and lap zones.
package track

import (
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"

	"github.com/mpapenbr/lapracer/pkg/model"
	"github.com/mpapenbr/lapracer/pkg/processing/boundary"
	"github.com/mpapenbr/lapracer/pkg/processing/kinematics"
	"github.com/mpapenbr/lapracer/pkg/processing/lap"
	"github.com/mpapenbr/lapracer/pkg/processing/zone"
)

var ErrTrackNotFound = errors.New("track not found")

// defaults used when a soft policy leaves pull or damping unset
const (
	defaultAnnulusDamping    = 0.1
	defaultCenterlinePull    = 0.3
	defaultCenterlineDamping = 0.25
	defaultZoneUnionPull     = 0.5
	defaultZoneUnionDamping  = 0.3
)

// Track is an immutable, ready to race track variant.
type Track struct {
	Name           string
	Description    string
	TotalLaps      int
	MinLapInterval time.Duration
	Spawn          model.VehicleState
	Params         kinematics.Params
	Geometry       boundary.Geometry
	Checkpoints    []zone.Zone
	Finish         zone.Zone
	StartZone      zone.Zone
	Config         model.TrackConfig
}

// LapOptions returns the options to create a lap processor for this track.
func (t *Track) LapOptions() []lap.LapProcessorOption {
	opts := []lap.LapProcessorOption{
		lap.WithCheckpoints(t.Checkpoints...),
		lap.WithFinish(t.Finish),
		lap.WithMinLapInterval(t.MinLapInterval),
	}
	if t.StartZone != nil {
		opts = append(opts, lap.WithStartGuard(t.StartZone))
	}
	return opts
}

// Build validates cfg and creates the track from it.
func Build(cfg *model.TrackConfig) (*Track, error) {
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	geometry, err := buildGeometry(&cfg.Boundary)
	if err != nil {
		return nil, fmt.Errorf("track %s: %w", cfg.Name, err)
	}
	t := &Track{
		Name:           cfg.Name,
		Description:    cfg.Description,
		TotalLaps:      cfg.TotalLaps,
		MinLapInterval: cfg.MinLapInterval,
		Spawn: model.VehicleState{
			Position: cfg.Spawn.Position,
			Rotation: cfg.Spawn.Rotation,
		},
		Params: kinematics.Params{
			Speed:          cfg.Physics.Speed,
			RotationSpeed:  cfg.Physics.RotationSpeed,
			ReverseFactor:  cfg.Physics.ReverseFactor,
			FrictionFactor: cfg.Physics.FrictionFactor,
		},
		Geometry: geometry,
		Checkpoints: lo.Map(cfg.Checkpoints, func(z model.ZoneConfig, _ int) zone.Zone {
			return buildZone(&z)
		}),
		Finish: buildZone(&cfg.Finish),
		Config: *cfg,
	}
	if t.MinLapInterval == 0 {
		t.MinLapInterval = lap.DefaultMinLapInterval
	}
	if cfg.StartZone != nil {
		t.StartZone = buildZone(cfg.StartZone)
	}
	return t, nil
}

func buildGeometry(cfg *model.BoundaryConfig) (boundary.Geometry, error) {
	switch cfg.Type {
	case model.BoundaryRect:
		return boundary.RectClamp{Limit: cfg.Limit, VelocityFactor: cfg.VelocityFactor}, nil
	case model.BoundaryAnnulus:
		return boundary.Annulus{
			Inner:     cfg.Inner,
			Outer:     cfg.Outer,
			CarRadius: cfg.CarRadius,
			Damping:   lo.FromPtrOr(cfg.Damping, defaultAnnulusDamping),
		}, nil
	case model.BoundaryCenterline:
		samples := cfg.Samples
		if cfg.Ellipse != nil {
			samples = boundary.EllipseSamples(cfg.Ellipse.RadiusX, cfg.Ellipse.RadiusZ,
				cfg.Ellipse.Samples)
		}
		return boundary.Centerline{
			Samples:   samples,
			HalfWidth: cfg.HalfWidth,
			Pull:      lo.FromPtrOr(cfg.Pull, defaultCenterlinePull),
			Damping:   lo.FromPtrOr(cfg.Damping, defaultCenterlineDamping),
		}, nil
	case model.BoundaryZoneUnion:
		return boundary.ZoneUnion{
			Zones: lo.Map(cfg.Zones, func(z model.ZoneConfig, _ int) zone.Zone {
				return buildZone(&z)
			}),
			Pull:    lo.FromPtrOr(cfg.Pull, defaultZoneUnionPull),
			Damping: lo.FromPtrOr(cfg.Damping, defaultZoneUnionDamping),
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBoundary, cfg.Type)
	}
}

// buildZone expects a validated config
func buildZone(cfg *model.ZoneConfig) zone.Zone {
	switch {
	case cfg.Rect != nil:
		return zone.Rect{
			Label: cfg.Name,
			MinX:  cfg.Rect.MinX, MaxX: cfg.Rect.MaxX,
			MinZ: cfg.Rect.MinZ, MaxZ: cfg.Rect.MaxZ,
		}
	case cfg.Sector != nil:
		return zone.Sector{
			Label:   cfg.Name,
			CenterX: cfg.Sector.CenterX, CenterZ: cfg.Sector.CenterZ,
			Inner: cfg.Sector.Inner, Outer: cfg.Sector.Outer,
			From: cfg.Sector.From, To: cfg.Sector.To,
		}
	default:
		return zone.Circle{
			Label:   cfg.Name,
			CenterX: cfg.Circle.CenterX, CenterZ: cfg.Circle.CenterZ,
			Radius: cfg.Circle.Radius,
		}
	}
}
