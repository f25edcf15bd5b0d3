// Package boundary keeps the vehicle on the drivable surface.
//
// Each track uses exactly one Geometry, selected when the track is built.
// Resolve never fails: in the worst case the previous position is returned.
package boundary

import (
	"math"

	"github.com/mpapenbr/lapracer/pkg/model"
)

type Geometry interface {
	// Kind returns the policy name as used in track definitions.
	Kind() string
	// Contains reports whether p lies on the drivable surface.
	Contains(p model.Vec3) bool
	// Resolve checks the tentative state against the surface. If it is out of
	// bounds the position is corrected and the velocity damped; the returned
	// bool reports whether a correction happened.
	Resolve(prev model.Vec3, next model.VehicleState) (model.VehicleState, bool)
}

func scale(v model.Vec2, f float64) model.Vec2 {
	return model.Vec2{X: v.X * f, Z: v.Z * f}
}

func lerp(from, to model.Vec3, t float64) model.Vec3 {
	return model.Vec3{
		X: from.X + (to.X-from.X)*t,
		Y: from.Y,
		Z: from.Z + (to.Z-from.Z)*t,
	}
}

func clampAbs(v, limit float64) float64 {
	return math.Max(-limit, math.Min(limit, v))
}
