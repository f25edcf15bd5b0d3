package track

import (
	"math"
	"time"

	"github.com/samber/lo"

	"github.com/mpapenbr/lapracer/pkg/model"
)

const (
	Square  = "square"
	Circle  = "circle"
	Oval    = "oval"
	Rounded = "rounded"
)

var inf = math.Inf(1)

// Builtin returns the definitions of the tracks shipped with the binary.
func Builtin() []model.TrackConfig {
	return []model.TrackConfig{
		squareTrack(),
		circleTrack(),
		ovalTrack(),
		roundedTrack(),
	}
}

func rect(name string, minX, maxX, minZ, maxZ float64) model.ZoneConfig {
	return model.ZoneConfig{
		Name: name,
		Rect: &model.RectConfig{MinX: minX, MaxX: maxX, MinZ: minZ, MaxZ: maxZ},
	}
}

func sector(name string, cx, cz, inner, outer, from, to float64) model.ZoneConfig {
	return model.ZoneConfig{
		Name: name,
		Sector: &model.SectorConfig{
			CenterX: cx, CenterZ: cz, Inner: inner, Outer: outer, From: from, To: to,
		},
	}
}

// small arena with a hard clamp at |x|,|z| <= 15. Car stops on impact.
func squareTrack() model.TrackConfig {
	return model.TrackConfig{
		Name:           Square,
		Description:    "30x30 arena, car stops at the walls",
		TotalLaps:      3,
		MinLapInterval: time.Second,
		Spawn: model.SpawnConfig{
			Position: model.Vec3{X: -11.5},
		},
		Physics: model.PhysicsConfig{
			Speed: 0.05, RotationSpeed: 0.03, ReverseFactor: 0.5, FrictionFactor: 0.95,
		},
		Boundary: model.BoundaryConfig{Type: model.BoundaryRect, Limit: 15},
		Checkpoints: []model.ZoneConfig{
			rect("north", -5, 5, 8, 15),
			rect("east", 8, 15, -5, 5),
			rect("south", -5, 5, -15, -8),
		},
		Finish: rect("west", -15, -8, -5, 5),
	}
}

// ring between radius 145 and 235, checkpoints at the compass points,
// finish line in the north west.
func circleTrack() model.TrackConfig {
	return model.TrackConfig{
		Name:           Circle,
		Description:    "ring track, driven clockwise N-E-S-W",
		TotalLaps:      3,
		MinLapInterval: time.Second,
		Spawn: model.SpawnConfig{
			Position: model.Vec3{X: -58.713, Z: 180.701},
			Rotation: 0.4 * math.Pi,
		},
		Physics: model.PhysicsConfig{
			Speed: 0.06, RotationSpeed: 0.025, ReverseFactor: 0.6, FrictionFactor: 0.97,
		},
		Boundary: model.BoundaryConfig{
			Type:      model.BoundaryAnnulus,
			Inner:     145,
			Outer:     235,
			CarRadius: 3,
			Damping:   lo.ToPtr(0.1),
		},
		Checkpoints: []model.ZoneConfig{
			rect("N", -40, 40, 140, inf),
			rect("E", 140, inf, -40, 40),
			rect("S", -40, 40, -inf, -140),
			rect("W", -inf, -140, -40, 40),
		},
		Finish: sector("finish", 0, 0, 145, 235, 0.7*math.Pi, 0.8*math.Pi),
	}
}

// elliptic centerline with soft correction
func ovalTrack() model.TrackConfig {
	return model.TrackConfig{
		Name:           Oval,
		Description:    "oval around an elliptic centerline, soft borders",
		TotalLaps:      3,
		MinLapInterval: time.Second,
		Spawn: model.SpawnConfig{
			Position: model.Vec3{X: -84.853, Z: 49.497},
			Rotation: 1.0428,
		},
		Physics: model.PhysicsConfig{
			Speed: 0.04, RotationSpeed: 0.03, ReverseFactor: 0.55, FrictionFactor: 0.98,
		},
		Boundary: model.BoundaryConfig{
			Type:      model.BoundaryCenterline,
			Ellipse:   &model.EllipseConfig{RadiusX: 120, RadiusZ: 70, Samples: 96},
			HalfWidth: 12,
			Pull:      lo.ToPtr(0.3),
			Damping:   lo.ToPtr(0.25),
		},
		Checkpoints: []model.ZoneConfig{
			rect("top", -20, 20, 50, inf),
			rect("right", 100, inf, -30, 30),
			rect("bottom", -20, 20, -inf, -50),
		},
		Finish: rect("left", -inf, -100, -30, 30),
	}
}

// rounded rectangle made of four straights and four corner arcs. The car
// spawns on the finish line, so the start guard is enabled.
func roundedTrack() model.TrackConfig {
	startZone := rect("start", -10, 10, -60, -40)
	return model.TrackConfig{
		Name:           Rounded,
		Description:    "rounded rectangle, counter clockwise",
		TotalLaps:      3,
		MinLapInterval: time.Second,
		Spawn: model.SpawnConfig{
			Position: model.Vec3{Z: -50},
			Rotation: math.Pi / 2,
		},
		Physics: model.PhysicsConfig{
			Speed: 0.05, RotationSpeed: 0.035, ReverseFactor: 0.5, FrictionFactor: 0.92,
		},
		Boundary: model.BoundaryConfig{
			Type: model.BoundaryZoneUnion,
			Zones: []model.ZoneConfig{
				rect("top", -60, 60, 40, 60),
				rect("bottom", -60, 60, -60, -40),
				rect("left", -100, -80, -20, 20),
				rect("right", 80, 100, -20, 20),
				sector("ne", 60, 20, 20, 40, 0, math.Pi/2),
				sector("nw", -60, 20, 20, 40, math.Pi/2, math.Pi),
				sector("sw", -60, -20, 20, 40, math.Pi, 3*math.Pi/2),
				sector("se", 60, -20, 20, 40, -math.Pi/2, 0),
			},
			Pull:    lo.ToPtr(0.5),
			Damping: lo.ToPtr(0.3),
		},
		Checkpoints: []model.ZoneConfig{
			rect("east", 80, 100, -20, 20),
			rect("north", -10, 10, 40, 60),
			rect("west", -100, -80, -20, 20),
		},
		Finish:    rect("finish", -5, 5, -60, -40),
		StartZone: &startZone,
	}
}
