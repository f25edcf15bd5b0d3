package boundary

import (
	"math"

	"github.com/mpapenbr/lapracer/pkg/model"
)

// RectClamp limits |x| and |z| to Limit. An axis leaving the square is reverted
// to its previous value and the matching velocity component is multiplied by
// VelocityFactor (0 stops the car, a negative value bounces it back).
type RectClamp struct {
	Limit          float64
	VelocityFactor float64
}

var _ Geometry = RectClamp{}

func (r RectClamp) Kind() string { return model.BoundaryRect }

func (r RectClamp) Contains(p model.Vec3) bool {
	return math.Abs(p.X) <= r.Limit && math.Abs(p.Z) <= r.Limit
}

func (r RectClamp) Resolve(prev model.Vec3, next model.VehicleState) (model.VehicleState, bool) {
	corrected := false
	if math.Abs(next.Position.X) > r.Limit {
		// the previous value may itself be outside (spawn), so clamp as well
		next.Position.X = clampAbs(prev.X, r.Limit)
		next.Velocity.X *= r.VelocityFactor
		corrected = true
	}
	if math.Abs(next.Position.Z) > r.Limit {
		next.Position.Z = clampAbs(prev.Z, r.Limit)
		next.Velocity.Z *= r.VelocityFactor
		corrected = true
	}
	return next, corrected
}
