// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package mapstate

import (
	"math"

	"geoagent/platform/internal/model"
)

// Viewport is the derived camera state for the current set of layers.
type Viewport struct {
	Bounds model.BoundingBox
	Center [2]float64 // [lon, lat]
	Zoom   float64
}

// viewportFor computes the union envelope of bounds, its midpoint, and an
// approximate zoom level from the envelope's max span. An empty bounds
// slice yields the world-default viewport (spec.md §9: a design decision,
// not a missing-bounds error).
func viewportFor(bounds []model.BoundingBox) Viewport {
	if len(bounds) == 0 {
		world := model.WorldBounds()
		return Viewport{
			Bounds: world,
			Center: [2]float64{(world.West + world.East) / 2, (world.South + world.North) / 2},
			Zoom:   0,
		}
	}

	union := bounds[0]
	for _, b := range bounds[1:] {
		union = unionBounds(union, b)
	}

	center := [2]float64{(union.West + union.East) / 2, (union.South + union.North) / 2}
	lonSpan := union.East - union.West
	latSpan := union.North - union.South
	maxSpan := math.Max(lonSpan, latSpan)
	zoom := 0.0
	if maxSpan > 0 {
		zoom = -math.Log2(maxSpan / 360)
	}

	return Viewport{Bounds: union, Center: center, Zoom: zoom}
}

func unionBounds(a, b model.BoundingBox) model.BoundingBox {
	return model.BoundingBox{
		West:  math.Min(a.West, b.West),
		South: math.Min(a.South, b.South),
		East:  math.Max(a.East, b.East),
		North: math.Max(a.North, b.North),
	}
}
