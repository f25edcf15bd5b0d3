package basedata

import (
	"math"
	"time"

	"github.com/mpapenbr/lapracer/pkg/model"
	"github.com/mpapenbr/lapracer/pkg/track"
)

const Dragstrip = "dragstrip"

func TestTime() time.Time {
	t, _ := time.Parse(time.RFC3339, "2024-04-28T11:10:12Z")
	return t
}

// DragstripConfig is a straight one lap track: driving ahead from the origin
// passes the only checkpoint (z 5..10) and then the finish (z >= 20).
func DragstripConfig() model.TrackConfig {
	inf := math.Inf(1)
	return model.TrackConfig{
		Name:        Dragstrip,
		Description: "straight line test track",
		TotalLaps:   1,
		Physics: model.PhysicsConfig{
			Speed:          0.05,
			RotationSpeed:  0.03,
			ReverseFactor:  0.5,
			FrictionFactor: 0.95,
		},
		Boundary: model.BoundaryConfig{Type: model.BoundaryRect, Limit: 1000},
		Checkpoints: []model.ZoneConfig{
			{Name: "mid", Rect: &model.RectConfig{MinX: -inf, MaxX: inf, MinZ: 5, MaxZ: 10}},
		},
		Finish: model.ZoneConfig{
			Name: "line",
			Rect: &model.RectConfig{MinX: -inf, MaxX: inf, MinZ: 20, MaxZ: inf},
		},
	}
}

// SampleCatalog holds the builtin tracks plus the dragstrip.
func SampleCatalog(opts ...track.CatalogOption) *track.Catalog {
	cfg := DragstripConfig()
	strip, err := track.Build(&cfg)
	if err != nil {
		panic(err)
	}
	c := track.NewCatalog(opts...)
	c.Add(strip)
	return c
}
