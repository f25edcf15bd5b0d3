package boundary

import (
	"math"

	"github.com/mpapenbr/lapracer/pkg/model"
)

// Centerline treats a point as on track while the nearest centerline sample is
// within HalfWidth. Off track, the car is pulled the fraction Pull of the way
// toward that sample (soft correction) and its velocity is scaled by Damping.
type Centerline struct {
	Samples   []model.Vec2
	HalfWidth float64
	Pull      float64
	Damping   float64
}

var _ Geometry = Centerline{}

func (c Centerline) Kind() string { return model.BoundaryCenterline }

// Nearest returns the closest sample and its distance to p.
// With no samples it returns p itself at distance 0.
func (c Centerline) Nearest(p model.Vec3) (model.Vec2, float64) {
	best := model.Vec2{X: p.X, Z: p.Z}
	bestDist := math.Inf(1)
	for _, s := range c.Samples {
		if d := math.Hypot(p.X-s.X, p.Z-s.Z); d < bestDist {
			best, bestDist = s, d
		}
	}
	if math.IsInf(bestDist, 1) {
		return best, 0
	}
	return best, bestDist
}

func (c Centerline) Contains(p model.Vec3) bool {
	_, d := c.Nearest(p)
	return d <= c.HalfWidth
}

func (c Centerline) Resolve(_ model.Vec3, next model.VehicleState) (model.VehicleState, bool) {
	nearest, d := c.Nearest(next.Position)
	if d <= c.HalfWidth {
		return next, false
	}
	next.Position = lerp(next.Position, model.Vec3{X: nearest.X, Z: nearest.Z}, c.Pull)
	next.Velocity = scale(next.Velocity, c.Damping)
	return next, true
}

// EllipseSamples places n samples on an ellipse around the origin,
// starting on the +z axis.
// It returns nil for n < 1.
func EllipseSamples(radiusX, radiusZ float64, n int) []model.Vec2 {
	if n < 1 {
		return nil
	}
	ret := make([]model.Vec2, 0, n)
	for i := range n {
		a := 2 * math.Pi * float64(i) / float64(n)
		ret = append(ret, model.Vec2{X: radiusX * math.Sin(a), Z: radiusZ * math.Cos(a)})
	}
	return ret
}
