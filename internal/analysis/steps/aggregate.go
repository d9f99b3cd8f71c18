// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package steps

import (
	"fmt"
	"strings"

	"geoagent/platform/internal/analysis/dsl"
	"geoagent/platform/internal/sqlrunner"
)

// AggregateStep groups a table by a set of columns, projecting aggregate
// expressions and, optionally, a combined output geometry.
type AggregateStep struct {
	Base

	From              *SourceTableRef
	GroupBy           []string
	Aggregates        []dsl.AggregateColumn
	SpatialAggregator SpatialAggregator // optional; empty omits the geometry column entirely

	Output string
}

func (s *AggregateStep) SourceRefs() []*SourceTableRef { return []*SourceTableRef{s.From} }
func (s *AggregateStep) OutputTable() string           { return s.Output }
func (s *AggregateStep) TemplateName() string          { return "aggregate" }

// OutputGeometryKind reports what kind of value the output table's geometry
// column holds once this step is planned: EXTENT yields a Box2D (not a
// geometry), so downstream type selection must fall back to
// GeometryCollection rather than treat it like any other geometry type.
func (s *AggregateStep) OutputGeometryKind() (isBox2D bool) {
	return s.SpatialAggregator == SpatialExtent
}

func (s *AggregateStep) TemplateArgs(ctx *ResolutionContext) (sqlrunner.TemplateArgs, error) {
	resolved, ok := ctx.Resolve(s.From)
	if !ok {
		return nil, fmt.Errorf("aggregate step %q: source table %s not resolved", s.ID, s.From)
	}
	esc := dsl.NewIdentifierSet(resolved.Columns)

	groupBy, err := s.renderGroupBy(esc)
	if err != nil {
		return nil, fmt.Errorf("aggregate step %q: group by: %w", s.ID, err)
	}

	aggCols, err := s.renderAggregates(esc)
	if err != nil {
		return nil, fmt.Errorf("aggregate step %q: aggregates: %w", s.ID, err)
	}

	args := sqlrunner.TemplateArgs{
		"Schema":           ctx.AnalysisSchema,
		"TargetTable":      s.Output,
		"SourceSchema":     resolved.Schema,
		"SourceTable":      resolved.Table,
		"GroupByColumns":   groupBy,
		"AggregateColumns": aggCols,
		"GeometryColumn":   ctx.GeometryColumn,
	}

	if expr := s.geometryExpr(ctx.GeometryColumn); expr != "" {
		args["GeometryExpr"] = expr
	}

	return args, nil
}

func (s *AggregateStep) renderGroupBy(esc dsl.Escaper) (string, error) {
	if len(s.GroupBy) == 0 {
		return "", fmt.Errorf("at least one group-by column is required")
	}
	quoted := make([]string, 0, len(s.GroupBy))
	for _, field := range s.GroupBy {
		q, err := esc.QuoteIdentifier(field)
		if err != nil {
			return "", err
		}
		quoted = append(quoted, q)
	}
	return strings.Join(quoted, ", "), nil
}

func (s *AggregateStep) renderAggregates(esc dsl.Escaper) (string, error) {
	if len(s.Aggregates) == 0 {
		return "", fmt.Errorf("at least one aggregate column is required")
	}
	parts := make([]string, 0, len(s.Aggregates))
	for _, a := range s.Aggregates {
		frag, err := a.ToSQLFragment(esc)
		if err != nil {
			return "", err
		}
		parts = append(parts, frag)
	}
	return strings.Join(parts, ", "), nil
}

func (s *AggregateStep) geometryExpr(geomCol string) string {
	col := fmt.Sprintf("%q", geomCol)
	switch s.SpatialAggregator {
	case SpatialCollect:
		return fmt.Sprintf("ST_Collect(%s)", col)
	case SpatialUnion:
		return fmt.Sprintf("ST_Union(%s)", col)
	case SpatialCentroid:
		return fmt.Sprintf("ST_Centroid(ST_Collect(%s))", col)
	case SpatialExtent:
		return fmt.Sprintf("ST_Extent(%s)", col)
	case SpatialEnvelope:
		return fmt.Sprintf("ST_Envelope(ST_Collect(%s))", col)
	case SpatialConvexHull:
		return fmt.Sprintf("ST_ConvexHull(ST_Collect(%s))", col)
	case SpatialConcaveHull:
		return fmt.Sprintf("ST_ConcaveHull(ST_Collect(%s), 0.8)", col)
	default:
		return ""
	}
}
