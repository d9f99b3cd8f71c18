// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package steps

// SpatialPredicate is the closed set of spatial join predicates a Merge
// step may use.
type SpatialPredicate string

const (
	PredicateIntersects SpatialPredicate = "intersects"
	PredicateContains   SpatialPredicate = "contains"
	PredicateWithin     SpatialPredicate = "within"
	PredicateDWithin    SpatialPredicate = "dwithin"
)

// SpatialAggregator is the closed set of geometry-combining functions an
// Aggregate or Merge step may apply to its output geometry column.
type SpatialAggregator string

const (
	SpatialCollect     SpatialAggregator = "COLLECT"
	SpatialUnion       SpatialAggregator = "UNION"
	SpatialCentroid    SpatialAggregator = "CENTROID"
	SpatialExtent      SpatialAggregator = "EXTENT"
	SpatialEnvelope    SpatialAggregator = "ENVELOPE"
	SpatialConvexHull  SpatialAggregator = "CONVEXHULL"
	SpatialConcaveHull SpatialAggregator = "CONCAVEHULL"
)

// DistanceUnit is the closed set of units a Buffer step's distance may be
// expressed in.
type DistanceUnit string

const (
	UnitMeters     DistanceUnit = "meters"
	UnitKilometers DistanceUnit = "kilometers"
)

// Meters converts a distance expressed in u to meters, the unit every
// buffer.sql.tmpl call expects (ST_Buffer operates on a geography cast).
func (u DistanceUnit) Meters(distance float64) float64 {
	if u == UnitKilometers {
		return distance * 1000
	}
	return distance
}
