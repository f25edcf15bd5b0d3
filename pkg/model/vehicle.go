package model

import (
	"errors"
	"fmt"
	"strings"
)

// Vec3 is a position in world space. Y is the (constant) height above the track.
type Vec3 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// Vec2 is a planar vector on the track surface (x/z plane).
type Vec2 struct {
	X float64 `json:"x" yaml:"x"`
	Z float64 `json:"z" yaml:"z"`
}

// VehicleState is owned by the simulation loop.
// Rotation is the heading in radians and is never normalized.
type VehicleState struct {
	Position Vec3    `json:"position"`
	Rotation float64 `json:"rotation"`
	Velocity Vec2    `json:"velocity"`
}

type Command int

const (
	TurnLeft Command = iota
	TurnRight
	Accelerate
	Brake
)

var ErrUnknownCommand = errors.New("unknown command")

func (c Command) String() string {
	switch c {
	case TurnLeft:
		return "turnLeft"
	case TurnRight:
		return "turnRight"
	case Accelerate:
		return "accelerate"
	case Brake:
		return "brake"
	default:
		return fmt.Sprintf("Command(%d)", int(c))
	}
}

func ParseCommand(s string) (Command, error) {
	for _, c := range []Command{TurnLeft, TurnRight, Accelerate, Brake} {
		if strings.EqualFold(c.String(), s) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCommand, s)
}

// Controls holds the logical commands sampled once at the start of a frame.
type Controls struct {
	TurnLeft   bool `json:"turnLeft"`
	TurnRight  bool `json:"turnRight"`
	Accelerate bool `json:"accelerate"`
	Brake      bool `json:"brake"`
}

// CameraMode is selected by the UI and passed through to camera consumers.
type CameraMode string

const (
	CameraFollow  CameraMode = "follow"
	CameraCockpit CameraMode = "cockpit"
	CameraAerial  CameraMode = "aerial"
)

var ErrUnknownCameraMode = errors.New("unknown camera mode")

func ParseCameraMode(s string) (CameraMode, error) {
	switch m := CameraMode(strings.ToLower(s)); m {
	case CameraFollow, CameraCockpit, CameraAerial:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCameraMode, s)
	}
}
