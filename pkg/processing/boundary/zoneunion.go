package boundary

import (
	"github.com/mpapenbr/lapracer/pkg/model"
	"github.com/mpapenbr/lapracer/pkg/processing/zone"
)

// ZoneUnion is in bounds inside any of its zones (straights and corner arcs).
// Out of bounds, the position is pulled the fraction Pull back toward the
// previous position; if that still misses every zone the previous position is used.
type ZoneUnion struct {
	Zones   []zone.Zone
	Pull    float64
	Damping float64
}

var _ Geometry = ZoneUnion{}

func (u ZoneUnion) Kind() string { return model.BoundaryZoneUnion }

func (u ZoneUnion) Contains(p model.Vec3) bool {
	return zone.Any(u.Zones, p.X, p.Z)
}

func (u ZoneUnion) Resolve(prev model.Vec3, next model.VehicleState) (model.VehicleState, bool) {
	if u.Contains(next.Position) {
		return next, false
	}
	candidate := lerp(next.Position, prev, u.Pull)
	if u.Contains(candidate) {
		next.Position = candidate
	} else {
		next.Position = prev
	}
	next.Velocity = scale(next.Velocity, u.Damping)
	return next, true
}
