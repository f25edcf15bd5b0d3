package track

import (
	"errors"
	"fmt"
	"math"

	"github.com/samber/lo"

	"github.com/mpapenbr/lapracer/pkg/model"
)

var (
	ErrInvalidTrack    = errors.New("invalid track")
	ErrUnknownBoundary = errors.New("unknown boundary type")
)

// Validate reports all problems of cfg at once. The returned error wraps
// ErrInvalidTrack.
func Validate(cfg *model.TrackConfig) error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if cfg.Name == "" {
		add("name is required")
	}
	if cfg.TotalLaps < 1 {
		add("totalLaps must be at least 1, got %d", cfg.TotalLaps)
	}
	if cfg.MinLapInterval < 0 {
		add("minLapInterval must not be negative")
	}

	p := cfg.Physics
	if p.Speed <= 0 {
		add("physics.speed must be positive")
	}
	if p.RotationSpeed <= 0 {
		add("physics.rotationSpeed must be positive")
	}
	if p.ReverseFactor < 0 || p.ReverseFactor > 1 {
		add("physics.reverseFactor must be within [0,1]")
	}
	if p.FrictionFactor <= 0 || p.FrictionFactor >= 1 {
		add("physics.frictionFactor must be within (0,1)")
	}

	errs = append(errs, validateBoundary(&cfg.Boundary)...)

	if len(cfg.Checkpoints) == 0 {
		add("at least one checkpoint is required")
	}
	for i := range cfg.Checkpoints {
		if err := validateZone(&cfg.Checkpoints[i]); err != nil {
			add("checkpoint %d: %w", i, err)
		}
	}
	if err := validateZone(&cfg.Finish); err != nil {
		add("finish: %w", err)
	}
	if cfg.StartZone != nil {
		if err := validateZone(cfg.StartZone); err != nil {
			add("startZone: %w", err)
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w %q: %w", ErrInvalidTrack, cfg.Name, errors.Join(errs...))
}

func validateBoundary(b *model.BoundaryConfig) []error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("boundary: "+format, args...))
	}
	switch b.Type {
	case model.BoundaryRect:
		if b.Limit <= 0 {
			add("limit must be positive")
		}
	case model.BoundaryAnnulus:
		if b.Inner < 0 || b.Outer <= b.Inner {
			add("need 0 <= inner < outer")
		}
		if b.CarRadius < 0 || 2*b.CarRadius >= b.Outer-b.Inner {
			add("carRadius does not fit between the barriers")
		}
	case model.BoundaryCenterline:
		switch {
		case b.Ellipse != nil && len(b.Samples) > 0:
			add("samples and ellipse are exclusive")
		case b.Ellipse != nil:
			if b.Ellipse.Samples < 3 {
				add("ellipse needs at least 3 samples, got %d", b.Ellipse.Samples)
			}
			if b.Ellipse.RadiusX <= 0 || b.Ellipse.RadiusZ <= 0 {
				add("ellipse radii must be positive")
			}
		case len(b.Samples) == 0:
			add("centerline needs samples or an ellipse")
		}
		if b.HalfWidth <= 0 {
			add("halfWidth must be positive")
		}
	case model.BoundaryZoneUnion:
		if len(b.Zones) == 0 {
			add("zoneUnion needs at least one zone")
		}
		for i := range b.Zones {
			if err := validateZone(&b.Zones[i]); err != nil {
				add("zone %d: %w", i, err)
			}
		}
	default:
		errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownBoundary, b.Type))
	}
	if b.Pull != nil && (*b.Pull < 0 || *b.Pull > 1) {
		add("pull must be within [0,1]")
	}
	if b.Damping != nil && (*b.Damping < 0 || *b.Damping > 1) {
		add("damping must be within [0,1]")
	}
	return errs
}

func validateZone(z *model.ZoneConfig) error {
	shapes := lo.Count([]bool{z.Rect != nil, z.Sector != nil, z.Circle != nil}, true)
	if shapes != 1 {
		return fmt.Errorf("zone %q must define exactly one shape, got %d", z.Name, shapes)
	}
	switch {
	case z.Rect != nil:
		if z.Rect.MinX > z.Rect.MaxX || z.Rect.MinZ > z.Rect.MaxZ {
			return fmt.Errorf("zone %q: rect min exceeds max", z.Name)
		}
	case z.Sector != nil:
		s := z.Sector
		if s.Inner < 0 || s.Outer <= s.Inner {
			return fmt.Errorf("zone %q: need 0 <= inner < outer", z.Name)
		}
		if math.IsInf(s.From, 0) || math.IsInf(s.To, 0) {
			return fmt.Errorf("zone %q: sector angles must be finite", z.Name)
		}
	case z.Circle != nil:
		if z.Circle.Radius <= 0 {
			return fmt.Errorf("zone %q: radius must be positive", z.Name)
		}
	}
	return nil
}
