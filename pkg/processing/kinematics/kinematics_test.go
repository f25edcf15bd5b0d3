package kinematics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/lapracer/pkg/model"
)

const eps = 1e-9

func TestStep_AccelerateAlongHeading(t *testing.T) {
	p := DefaultParams()
	got := Step(p, model.Controls{Accelerate: true}, model.VehicleState{})

	// heading 0 points along +z
	assert.InDelta(t, 0, got.Velocity.X, eps)
	assert.InDelta(t, p.Speed*p.FrictionFactor, got.Velocity.Z, eps)
	assert.InDelta(t, got.Velocity.Z, got.Position.Z, eps)
	assert.InDelta(t, 0, got.Position.X, eps)
}

func TestStep_BrakeIsWeakerThanAccelerate(t *testing.T) {
	p := DefaultParams()
	fwd := Step(p, model.Controls{Accelerate: true}, model.VehicleState{})
	rev := Step(p, model.Controls{Brake: true}, model.VehicleState{})

	assert.Less(t, rev.Velocity.Z, 0.0)
	assert.InDelta(t, fwd.Velocity.Z*p.ReverseFactor, -rev.Velocity.Z, eps)
}

func TestStep_TurnDirections(t *testing.T) {
	p := DefaultParams()
	left := Step(p, model.Controls{TurnLeft: true}, model.VehicleState{Rotation: 1})
	right := Step(p, model.Controls{TurnRight: true}, model.VehicleState{Rotation: 1})
	both := Step(p, model.Controls{TurnLeft: true, TurnRight: true}, model.VehicleState{Rotation: 1})

	assert.InDelta(t, 1+p.RotationSpeed, left.Rotation, eps)
	assert.InDelta(t, 1-p.RotationSpeed, right.Rotation, eps)
	assert.InDelta(t, 1, both.Rotation, eps, "opposite turns cancel")
}

func TestStep_UsesUpdatedHeadingForThrust(t *testing.T) {
	p := Params{Speed: 1, RotationSpeed: math.Pi / 2, ReverseFactor: 0.5, FrictionFactor: 0.5}
	got := Step(p, model.Controls{TurnLeft: true, Accelerate: true}, model.VehicleState{})

	// rotated a quarter turn before thrust is applied: thrust goes along +x
	assert.InDelta(t, 0.5, got.Velocity.X, eps)
	assert.InDelta(t, 0, got.Velocity.Z, eps)
}

func TestStep_KeepsHeight(t *testing.T) {
	got := Step(DefaultParams(), model.Controls{Accelerate: true},
		model.VehicleState{Position: model.Vec3{Y: 0.25}})
	assert.Equal(t, 0.25, got.Position.Y)
}

func TestStep_PositionAddsVelocity(t *testing.T) {
	p := Params{Speed: 0, RotationSpeed: 0, ReverseFactor: 0.5, FrictionFactor: 1}
	got := Step(p, model.Controls{}, model.VehicleState{
		Position: model.Vec3{X: 14.98},
		Velocity: model.Vec2{X: 0.5},
	})
	assert.InDelta(t, 15.48, got.Position.X, eps)
}

func TestApplyFriction_Converges(t *testing.T) {
	for _, friction := range []float64{0.92, 0.95, 0.98} {
		p := DefaultParams()
		p.FrictionFactor = friction
		for _, start := range []model.Vec2{{X: 1, Z: 0}, {X: -3, Z: 7}, {X: 1e3, Z: -1e3}} {
			v := model.VehicleState{Velocity: start}
			// |v| * f^n < 1e-6 holds for n >= log(1e-6/|v|)/log(f)
			bound := int(math.Ceil(math.Log(1e-6/math.Hypot(start.X, start.Z))/math.Log(friction))) + 1
			for range bound {
				v = Step(p, model.Controls{}, v)
			}
			require.Less(t, math.Hypot(v.Velocity.X, v.Velocity.Z), 1e-6,
				"friction %v start %+v", friction, start)
		}
	}
}

func TestApplyFriction_Monotonic(t *testing.T) {
	p := DefaultParams()
	vel := model.Vec2{X: 2, Z: -1}
	prev := math.Hypot(vel.X, vel.Z)
	for range 50 {
		vel = ApplyFriction(p, vel)
		cur := math.Hypot(vel.X, vel.Z)
		assert.Less(t, cur, prev)
		prev = cur
	}
}
