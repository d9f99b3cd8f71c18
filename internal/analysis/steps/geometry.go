// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package steps

import "geoagent/platform/internal/model"

// ResolveGeometryKind picks a compatible output geometry type for a SQL
// step fed by one or more input tables, following the same small
// table-driven classification style as the teacher's
// detectBedrockModelFamily/validateBedrockFamily functions: no side
// effects, a closed set of inputs mapped to a closed set of outputs.
//
//   - all Polygon/MultiPolygon        -> MultiPolygon
//   - all LineString/MultiLineString  -> MultiLineString
//   - all Point/MultiPoint            -> MultiPoint
//   - anything else                   -> GeometryCollection
func ResolveGeometryKind(inputs []model.GeometryKind) model.GeometryKind {
	if len(inputs) == 0 {
		return model.GeometryGeometryCollection
	}

	allPolygon, allLine, allPoint := true, true, true
	for _, k := range inputs {
		switch k {
		case model.GeometryPolygon, model.GeometryMultiPolygon:
			allLine, allPoint = false, false
		case model.GeometryLineString, model.GeometryMultiLineString:
			allPolygon, allPoint = false, false
		case model.GeometryPoint, model.GeometryMultiPoint:
			allPolygon, allLine = false, false
		default:
			allPolygon, allLine, allPoint = false, false, false
		}
	}

	switch {
	case allPolygon:
		return model.GeometryMultiPolygon
	case allLine:
		return model.GeometryMultiLineString
	case allPoint:
		return model.GeometryMultiPoint
	default:
		return model.GeometryGeometryCollection
	}
}
