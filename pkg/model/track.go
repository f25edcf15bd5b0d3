package model

import "time"

// boundary policy names used in track definitions
const (
	BoundaryRect       = "rect"
	BoundaryAnnulus    = "annulus"
	BoundaryCenterline = "centerline"
	BoundaryZoneUnion  = "zoneUnion"
)

// TrackConfig is the declarative definition of a track variant.
// Infinite rectangle bounds are written as .inf / -.inf in YAML.
type TrackConfig struct {
	Name           string         `yaml:"name"`
	Description    string         `yaml:"description,omitempty"`
	TotalLaps      int            `yaml:"totalLaps"`
	MinLapInterval time.Duration  `yaml:"minLapInterval"`
	Spawn          SpawnConfig    `yaml:"spawn"`
	Physics        PhysicsConfig  `yaml:"physics"`
	Boundary       BoundaryConfig `yaml:"boundary"`
	Checkpoints    []ZoneConfig   `yaml:"checkpoints"`
	Finish         ZoneConfig     `yaml:"finish"`
	StartZone      *ZoneConfig    `yaml:"startZone,omitempty"`
}

type SpawnConfig struct {
	Position Vec3    `yaml:"position"`
	Rotation float64 `yaml:"rotation"`
}

type PhysicsConfig struct {
	Speed          float64 `yaml:"speed"`
	RotationSpeed  float64 `yaml:"rotationSpeed"`
	ReverseFactor  float64 `yaml:"reverseFactor"`
	FrictionFactor float64 `yaml:"frictionFactor"`
}

type BoundaryConfig struct {
	Type string `yaml:"type"`
	// rect
	Limit          float64 `yaml:"limit,omitempty"`
	VelocityFactor float64 `yaml:"velocityFactor,omitempty"`
	// annulus
	Inner     float64 `yaml:"inner,omitempty"`
	Outer     float64 `yaml:"outer,omitempty"`
	CarRadius float64 `yaml:"carRadius,omitempty"`
	// centerline
	Samples   []Vec2         `yaml:"samples,omitempty"`
	Ellipse   *EllipseConfig `yaml:"ellipse,omitempty"`
	HalfWidth float64        `yaml:"halfWidth,omitempty"`
	// zoneUnion
	Zones []ZoneConfig `yaml:"zones,omitempty"`
	// centerline, zoneUnion: fraction of the way back toward the track.
	// Unset picks the per-type default, an explicit 0 disables the pull.
	Pull *float64 `yaml:"pull,omitempty"`
	// annulus, centerline, zoneUnion: velocity scale applied on correction.
	// Unset picks the per-type default, an explicit 0 stops the car.
	Damping *float64 `yaml:"damping,omitempty"`
}

// EllipseConfig generates centerline samples around the origin.
type EllipseConfig struct {
	RadiusX float64 `yaml:"radiusX"`
	RadiusZ float64 `yaml:"radiusZ"`
	Samples int     `yaml:"samples"`
}

// ZoneConfig describes exactly one of Rect, Sector or Circle.
type ZoneConfig struct {
	Name   string        `yaml:"name,omitempty"`
	Rect   *RectConfig   `yaml:"rect,omitempty"`
	Sector *SectorConfig `yaml:"sector,omitempty"`
	Circle *CircleConfig `yaml:"circle,omitempty"`
}

type RectConfig struct {
	MinX float64 `yaml:"minX"`
	MaxX float64 `yaml:"maxX"`
	MinZ float64 `yaml:"minZ"`
	MaxZ float64 `yaml:"maxZ"`
}

// SectorConfig is an annular sector; angles in radians, measured with atan2(z, x).
type SectorConfig struct {
	CenterX float64 `yaml:"centerX"`
	CenterZ float64 `yaml:"centerZ"`
	Inner   float64 `yaml:"inner"`
	Outer   float64 `yaml:"outer"`
	From    float64 `yaml:"from"`
	To      float64 `yaml:"to"`
}

type CircleConfig struct {
	CenterX float64 `yaml:"centerX"`
	CenterZ float64 `yaml:"centerZ"`
	Radius  float64 `yaml:"radius"`
}
