// Package kinematics integrates one fixed simulation tick of vehicle motion.
// There is no variable timestep: one call equals one frame.
package kinematics

import (
	"math"

	"github.com/mpapenbr/lapracer/pkg/model"
)

// Params are fixed per track configuration.
type Params struct {
	Speed          float64 // velocity gain per frame while accelerating
	RotationSpeed  float64 // heading change per frame (radians)
	ReverseFactor  float64 // share of Speed applied while braking, [0.5, 0.6] in practice
	FrictionFactor float64 // per-frame velocity decay, (0, 1)
}

func DefaultParams() Params {
	return Params{
		Speed:          0.05,
		RotationSpeed:  0.03,
		ReverseFactor:  0.5,
		FrictionFactor: 0.95,
	}
}

// Step returns the new rotation and velocity together with the tentative position
// (before any boundary correction). Y is left unchanged.
func Step(p Params, c model.Controls, v model.VehicleState) model.VehicleState {
	rotation := v.Rotation
	if c.TurnLeft {
		rotation += p.RotationSpeed
	}
	if c.TurnRight {
		rotation -= p.RotationSpeed
	}

	sin, cos := math.Sincos(rotation)
	vel := v.Velocity
	if c.Accelerate {
		vel.X += sin * p.Speed
		vel.Z += cos * p.Speed
	}
	if c.Brake {
		vel.X -= sin * p.Speed * p.ReverseFactor
		vel.Z -= cos * p.Speed * p.ReverseFactor
	}

	vel = ApplyFriction(p, vel)

	return model.VehicleState{
		Position: model.Vec3{
			X: v.Position.X + vel.X,
			Y: v.Position.Y,
			Z: v.Position.Z + vel.Z,
		},
		Rotation: rotation,
		Velocity: vel,
	}
}

func ApplyFriction(p Params, vel model.Vec2) model.Vec2 {
	return model.Vec2{X: vel.X * p.FrictionFactor, Z: vel.Z * p.FrictionFactor}
}
