//nolint:funlen // ok for tests
package boundary

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/lapracer/pkg/model"
	"github.com/mpapenbr/lapracer/pkg/processing/zone"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

func TestRectClamp_Resolve(t *testing.T) {
	type args struct {
		prev model.Vec3
		next model.VehicleState
	}
	tests := []struct {
		name          string
		geom          RectClamp
		args          args
		want          model.VehicleState
		wantCorrected bool
	}{
		{
			name: "revert x and stop",
			geom: RectClamp{Limit: 15},
			args: args{
				prev: model.Vec3{X: 14.98},
				next: model.VehicleState{
					Position: model.Vec3{X: 15.48},
					Velocity: model.Vec2{X: 0.5},
				},
			},
			want: model.VehicleState{
				Position: model.Vec3{X: 14.98},
				Velocity: model.Vec2{X: 0},
			},
			wantCorrected: true,
		},
		{
			name: "bounce z only",
			geom: RectClamp{Limit: 10, VelocityFactor: -0.3},
			args: args{
				prev: model.Vec3{X: 2, Z: -9.9},
				next: model.VehicleState{
					Position: model.Vec3{X: 2.1, Z: -10.4},
					Velocity: model.Vec2{X: 0.1, Z: -0.5},
				},
			},
			want: model.VehicleState{
				Position: model.Vec3{X: 2.1, Z: -9.9},
				Velocity: model.Vec2{X: 0.1, Z: 0.15},
			},
			wantCorrected: true,
		},
		{
			name: "inside untouched",
			geom: RectClamp{Limit: 15},
			args: args{
				prev: model.Vec3{X: 1},
				next: model.VehicleState{
					Position: model.Vec3{X: 1.2, Z: -3},
					Velocity: model.Vec2{X: 0.2},
				},
			},
			want: model.VehicleState{
				Position: model.Vec3{X: 1.2, Z: -3},
				Velocity: model.Vec2{X: 0.2},
			},
		},
		{
			name: "previous outside is clamped",
			geom: RectClamp{Limit: 15},
			args: args{
				prev: model.Vec3{X: 20, Z: -30},
				next: model.VehicleState{Position: model.Vec3{X: 21, Z: -31}},
			},
			want:          model.VehicleState{Position: model.Vec3{X: 15, Z: -15}},
			wantCorrected: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, corrected := tt.geom.Resolve(tt.args.prev, tt.args.next)
			assert.Equal(t, tt.wantCorrected, corrected)
			if diff := cmp.Diff(tt.want, got, approx); diff != "" {
				t.Errorf("Resolve() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAnnulus_Resolve(t *testing.T) {
	a := Annulus{Inner: 145, Outer: 235, CarRadius: 3, Damping: 0.1}

	t.Run("outer barrier", func(t *testing.T) {
		got, corrected := a.Resolve(model.Vec3{X: 231}, model.VehicleState{
			Position: model.Vec3{X: 236},
			Velocity: model.Vec2{X: 2, Z: 1},
		})
		require.True(t, corrected)
		assert.InDelta(t, 232, got.Position.X, 1e-9)
		assert.InDelta(t, 0, got.Position.Z, 1e-9)
		assert.InDelta(t, 0.2, got.Velocity.X, 1e-9)
		assert.InDelta(t, 0.1, got.Velocity.Z, 1e-9)
	})

	t.Run("inner barrier keeps angle", func(t *testing.T) {
		got, corrected := a.Resolve(model.Vec3{}, model.VehicleState{
			Position: model.Vec3{X: -100, Z: -100},
		})
		require.True(t, corrected)
		assert.InDelta(t, 148, math.Hypot(got.Position.X, got.Position.Z), 1e-9)
		assert.InDelta(t, got.Position.X, got.Position.Z, 1e-9)
		assert.Less(t, got.Position.X, 0.0)
	})

	t.Run("on track untouched", func(t *testing.T) {
		in := model.VehicleState{Position: model.Vec3{Z: 190}, Velocity: model.Vec2{Z: 1}}
		got, corrected := a.Resolve(model.Vec3{}, in)
		assert.False(t, corrected)
		assert.Equal(t, in, got)
	})
}

func TestCenterline_Resolve(t *testing.T) {
	c := Centerline{
		Samples:   []model.Vec2{{X: 0, Z: 0}, {X: 10, Z: 0}, {X: 20, Z: 0}},
		HalfWidth: 3,
		Pull:      0.3,
		Damping:   0.25,
	}
	got, corrected := c.Resolve(model.Vec3{}, model.VehicleState{
		Position: model.Vec3{X: 10, Z: 10},
		Velocity: model.Vec2{X: 1, Z: 1},
	})
	require.True(t, corrected)
	assert.InDelta(t, 10, got.Position.X, 1e-9)
	assert.InDelta(t, 7, got.Position.Z, 1e-9)
	assert.InDelta(t, 0.25, got.Velocity.X, 1e-9)

	_, corrected = c.Resolve(model.Vec3{}, model.VehicleState{Position: model.Vec3{X: 11, Z: 2}})
	assert.False(t, corrected)
}

func TestCenterline_NoSamplesIsAlwaysOnTrack(t *testing.T) {
	c := Centerline{HalfWidth: 1}
	assert.True(t, c.Contains(model.Vec3{X: 1e6, Z: -1e6}))
}

func TestZoneUnion_Resolve(t *testing.T) {
	u := ZoneUnion{
		Zones: []zone.Zone{
			zone.Rect{MinX: -10, MaxX: 10, MinZ: -2, MaxZ: 2},
			zone.Rect{MinX: 8, MaxX: 12, MinZ: -10, MaxZ: 10},
		},
		Pull:    0.5,
		Damping: 0.5,
	}

	t.Run("pulled back into zone", func(t *testing.T) {
		got, corrected := u.Resolve(model.Vec3{X: 0, Z: 1.5}, model.VehicleState{
			Position: model.Vec3{X: 0, Z: 2.5},
			Velocity: model.Vec2{Z: 1},
		})
		require.True(t, corrected)
		assert.InDelta(t, 2, got.Position.Z, 1e-9)
		assert.InDelta(t, 0.5, got.Velocity.Z, 1e-9)
	})

	t.Run("fallback to previous", func(t *testing.T) {
		got, corrected := u.Resolve(model.Vec3{X: 0, Z: 1.9}, model.VehicleState{
			Position: model.Vec3{X: 0, Z: 9},
		})
		require.True(t, corrected)
		assert.Equal(t, model.Vec3{X: 0, Z: 1.9}, got.Position)
	})

	t.Run("inside second zone", func(t *testing.T) {
		_, corrected := u.Resolve(model.Vec3{X: 10}, model.VehicleState{Position: model.Vec3{X: 11, Z: 9}})
		assert.False(t, corrected)
	})
}

// out of bounds positions must end up in bounds (hard policies) or strictly
// closer to the track (soft policies)
func TestResolve_Containment(t *testing.T) {
	rnd := rand.New(rand.NewPCG(1, 2))
	randomPoint := func(spread float64) model.Vec3 {
		return model.Vec3{X: (rnd.Float64()*2 - 1) * spread, Z: (rnd.Float64()*2 - 1) * spread}
	}

	hard := []struct {
		geom    Geometry
		inside  func() model.Vec3
		spreadT float64
	}{
		{
			geom:    RectClamp{Limit: 15},
			inside:  func() model.Vec3 { return randomPoint(15) },
			spreadT: 40,
		},
		{
			geom: Annulus{Inner: 145, Outer: 235, CarRadius: 3, Damping: 0.1},
			inside: func() model.Vec3 {
				a := rnd.Float64() * 2 * math.Pi
				r := 148 + rnd.Float64()*84
				return model.Vec3{X: r * math.Cos(a), Z: r * math.Sin(a)}
			},
			spreadT: 400,
		},
	}
	for _, h := range hard {
		t.Run(h.geom.Kind(), func(t *testing.T) {
			for range 500 {
				prev := h.inside()
				next := model.VehicleState{Position: randomPoint(h.spreadT)}
				got, _ := h.geom.Resolve(prev, next)
				require.True(t, h.geom.Contains(got.Position), "prev %+v next %+v got %+v",
					prev, next.Position, got.Position)
			}
		})
	}

	t.Run(model.BoundaryCenterline, func(t *testing.T) {
		c := Centerline{Samples: EllipseSamples(80, 50, 64), HalfWidth: 8, Pull: 0.3, Damping: 0.2}
		for range 500 {
			next := model.VehicleState{Position: randomPoint(200)}
			if c.Contains(next.Position) {
				continue
			}
			_, before := c.Nearest(next.Position)
			got, corrected := c.Resolve(model.Vec3{}, next)
			require.True(t, corrected)
			_, after := c.Nearest(got.Position)
			require.Less(t, after, before)
		}
	})

	t.Run(model.BoundaryZoneUnion, func(t *testing.T) {
		u := ZoneUnion{
			Zones:   []zone.Zone{zone.Rect{MinX: -50, MaxX: 50, MinZ: -5, MaxZ: 5}},
			Pull:    0.6,
			Damping: 0.5,
		}
		for range 500 {
			prev := model.Vec3{X: (rnd.Float64()*2 - 1) * 50, Z: (rnd.Float64()*2 - 1) * 5}
			got, _ := u.Resolve(prev, model.VehicleState{Position: randomPoint(100)})
			require.True(t, u.Contains(got.Position))
		}
	})
}

func TestEllipseSamples(t *testing.T) {
	s := EllipseSamples(80, 50, 4)
	require.Len(t, s, 4)
	assert.InDelta(t, 0, s[0].X, 1e-9)
	assert.InDelta(t, 50, s[0].Z, 1e-9)
	assert.InDelta(t, 80, s[1].X, 1e-9)
	assert.InDelta(t, -50, s[2].Z, 1e-9)

	assert.Nil(t, EllipseSamples(80, 50, 0))
	assert.Nil(t, EllipseSamples(80, 50, -1))
}
