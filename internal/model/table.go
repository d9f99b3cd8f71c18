// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package model

// GeometryKind is the closed set of PostGIS geometry types the Table
// Registry distinguishes. NotFound marks a table whose geometry probe
// returned no non-null row (not an error — a legitimately empty table).
type GeometryKind string

const (
	GeometryPoint              GeometryKind = "Point"
	GeometryMultiPoint         GeometryKind = "MultiPoint"
	GeometryLineString         GeometryKind = "LineString"
	GeometryMultiLineString    GeometryKind = "MultiLineString"
	GeometryPolygon            GeometryKind = "Polygon"
	GeometryMultiPolygon       GeometryKind = "MultiPolygon"
	GeometryGeometryCollection GeometryKind = "GeometryCollection"
	GeometryGeneric            GeometryKind = "Geometry"
	GeometryNotFound           GeometryKind = "NotFound"
)

// BoundingBox is a WGS84 bounding envelope.
type BoundingBox struct {
	West  float64 `json:"west"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	North float64 `json:"north"`
}

// WorldBounds is the default viewport when no table bounds are available.
func WorldBounds() BoundingBox {
	return BoundingBox{West: -180, South: -90, East: 180, North: 90}
}

// IsZero reports whether b carries no usable extent.
func (b BoundingBox) IsZero() bool {
	return b.West == 0 && b.South == 0 && b.East == 0 && b.North == 0
}

// TableDescriptor is everything the Registry knows about one PostGIS table.
type TableDescriptor struct {
	Schema    string
	Name      string
	Columns   []string
	TileURL   string
	DetailURL string
	Bounds    BoundingBox
	Geometry  GeometryKind

	// Temporary marks a table created by an analysis step and not promoted
	// by a SaveTable step; Cleanup drops every descriptor with this set.
	Temporary bool
}

// QualifiedName returns "schema.name".
func (t TableDescriptor) QualifiedName() string {
	return t.Schema + "." + t.Name
}
