// Package zone provides spatial predicates on the track plane (x/z).
// They are shared by checkpoints, finish lines and the zone-union boundary.
package zone

import "math"

type Zone interface {
	Name() string
	Contains(x, z float64) bool
}

// Rect is an axis aligned rectangle. Bounds may be infinite, which expresses
// directional thresholds such as "z > 140 and |x| < 40".
type Rect struct {
	Label      string
	MinX, MaxX float64
	MinZ, MaxZ float64
}

func (r Rect) Name() string { return r.Label }

func (r Rect) Contains(x, z float64) bool {
	return x >= r.MinX && x <= r.MaxX && z >= r.MinZ && z <= r.MaxZ
}

// Sector is an annular sector around a center. From and To are angles
// (radians, atan2(z, x)); the sector runs counter clockwise from From to To.
type Sector struct {
	Label            string
	CenterX, CenterZ float64
	Inner, Outer     float64
	From, To         float64
}

func (s Sector) Name() string { return s.Label }

func (s Sector) Contains(x, z float64) bool {
	dx, dz := x-s.CenterX, z-s.CenterZ
	d := math.Hypot(dx, dz)
	if d < s.Inner || d > s.Outer {
		return false
	}
	span := normalizeAngle(s.To - s.From)
	if span == 0 {
		// full ring
		return true
	}
	return normalizeAngle(math.Atan2(dz, dx)-s.From) <= span
}

type Circle struct {
	Label            string
	CenterX, CenterZ float64
	Radius           float64
}

func (c Circle) Name() string { return c.Label }

func (c Circle) Contains(x, z float64) bool {
	return math.Hypot(x-c.CenterX, z-c.CenterZ) <= c.Radius
}

// Any reports whether (x, z) lies in at least one of the zones.
func Any(zones []Zone, x, z float64) bool {
	for _, zn := range zones {
		if zn.Contains(x, z) {
			return true
		}
	}
	return false
}

// normalizeAngle maps a to [0, 2π)
func normalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}
