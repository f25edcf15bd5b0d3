package boundary

import (
	"math"

	"github.com/mpapenbr/lapracer/pkg/model"
)

// Annulus is a ring shaped track around the origin. The car (of radius CarRadius)
// must stay between the inner and the outer barrier. On impact the car is put
// back onto the barrier along the same angle and its velocity is scaled by Damping.
type Annulus struct {
	Inner     float64
	Outer     float64
	CarRadius float64
	Damping   float64
}

var _ Geometry = Annulus{}

func (a Annulus) Kind() string { return model.BoundaryAnnulus }

func (a Annulus) minRadius() float64 { return a.Inner + a.CarRadius }
func (a Annulus) maxRadius() float64 { return a.Outer - a.CarRadius }

// tolerance absorbs rounding of points placed exactly onto a barrier
const tolerance = 1e-9

func (a Annulus) Contains(p model.Vec3) bool {
	d := math.Hypot(p.X, p.Z)
	return d >= a.minRadius()-tolerance && d <= a.maxRadius()+tolerance
}

func (a Annulus) Resolve(_ model.Vec3, next model.VehicleState) (model.VehicleState, bool) {
	d := math.Hypot(next.Position.X, next.Position.Z)
	var r float64
	switch {
	case d > a.maxRadius():
		r = a.maxRadius()
	case d < a.minRadius():
		r = a.minRadius()
	default:
		return next, false
	}
	angle := math.Atan2(next.Position.Z, next.Position.X)
	next.Position.X = math.Cos(angle) * r
	next.Position.Z = math.Sin(angle) * r
	next.Velocity = scale(next.Velocity, a.Damping)
	return next, true
}
