// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package steps

import (
	"fmt"
	"strings"

	"geoagent/platform/internal/analysis/dsl"
	"geoagent/platform/internal/sqlrunner"
)

// MergeStep spatially joins two tables, projecting columns from each side
// into one output table.
type MergeStep struct {
	Base

	Left, Right       *SourceTableRef
	LeftColumns       []dsl.SelectColumn
	RightColumns      []dsl.SelectColumn
	Predicate         SpatialPredicate
	Distance          float64           // meters, only meaningful for PredicateDWithin
	SpatialAggregator SpatialAggregator // optional, empty means keep the left geometry
	Output            string
}

func (s *MergeStep) SourceRefs() []*SourceTableRef { return []*SourceTableRef{s.Left, s.Right} }
func (s *MergeStep) OutputTable() string           { return s.Output }
func (s *MergeStep) TemplateName() string          { return "merge" }

func (s *MergeStep) TemplateArgs(ctx *ResolutionContext) (sqlrunner.TemplateArgs, error) {
	left, ok := ctx.Resolve(s.Left)
	if !ok {
		return nil, fmt.Errorf("merge step %q: left source %s not resolved", s.ID, s.Left)
	}
	right, ok := ctx.Resolve(s.Right)
	if !ok {
		return nil, fmt.Errorf("merge step %q: right source %s not resolved", s.ID, s.Right)
	}

	leftEsc := dsl.NewIdentifierSet(left.Columns)
	rightEsc := dsl.NewIdentifierSet(right.Columns)

	leftCols, err := renderQualifiedColumns(s.LeftColumns, leftEsc, "l")
	if err != nil {
		return nil, fmt.Errorf("merge step %q: left columns: %w", s.ID, err)
	}
	rightCols, err := renderQualifiedColumns(s.RightColumns, rightEsc, "r")
	if err != nil {
		return nil, fmt.Errorf("merge step %q: right columns: %w", s.ID, err)
	}

	join, err := s.joinCondition(ctx.GeometryColumn)
	if err != nil {
		return nil, fmt.Errorf("merge step %q: %w", s.ID, err)
	}

	return sqlrunner.TemplateArgs{
		"Schema":         ctx.AnalysisSchema,
		"TargetTable":    s.Output,
		"LeftSchema":     left.Schema,
		"LeftTable":      left.Table,
		"RightSchema":    right.Schema,
		"RightTable":     right.Table,
		"LeftColumns":    leftCols,
		"RightColumns":   rightCols,
		"JoinCondition":  join,
		"GeometryExpr":   s.geometryExpr(ctx.GeometryColumn),
		"GeometryColumn": ctx.GeometryColumn,
	}, nil
}

func (s *MergeStep) joinCondition(geomCol string) (string, error) {
	l := fmt.Sprintf("l.%q", geomCol)
	r := fmt.Sprintf("r.%q", geomCol)

	switch s.Predicate {
	case PredicateIntersects:
		return fmt.Sprintf("ST_Intersects(%s, %s)", l, r), nil
	case PredicateContains:
		return fmt.Sprintf("ST_Contains(%s, %s)", l, r), nil
	case PredicateWithin:
		return fmt.Sprintf("ST_Within(%s, %s)", l, r), nil
	case PredicateDWithin:
		return fmt.Sprintf("ST_DWithin(%s::geography, %s::geography, %v)", l, r, s.Distance), nil
	default:
		return "", fmt.Errorf("unsupported spatial predicate %q", s.Predicate)
	}
}

func (s *MergeStep) geometryExpr(geomCol string) string {
	l := fmt.Sprintf("l.%q", geomCol)
	r := fmt.Sprintf("r.%q", geomCol)

	switch s.SpatialAggregator {
	case SpatialUnion:
		return fmt.Sprintf("ST_Union(%s, %s)", l, r)
	case SpatialCollect:
		return fmt.Sprintf("ST_Collect(%s, %s)", l, r)
	case SpatialCentroid:
		return fmt.Sprintf("ST_Centroid(ST_Union(%s, %s))", l, r)
	case SpatialEnvelope:
		return fmt.Sprintf("ST_Envelope(ST_Union(%s, %s))", l, r)
	case SpatialConvexHull:
		return fmt.Sprintf("ST_ConvexHull(ST_Union(%s, %s))", l, r)
	case SpatialConcaveHull:
		return fmt.Sprintf("ST_ConcaveHull(ST_Union(%s, %s), 0.8)", l, r)
	default:
		return l
	}
}

// renderQualifiedColumns is the same column-rendering idiom as
// dsl.SelectColumn.ToSQLFragment, generalized to prefix each column with a
// join alias since Merge reads from two aliased sources at once.
func renderQualifiedColumns(cols []dsl.SelectColumn, esc dsl.Escaper, alias string) (string, error) {
	if len(cols) == 0 {
		return fmt.Sprintf("%s.*", alias), nil
	}
	parts := make([]string, 0, len(cols))
	for _, c := range cols {
		frag, err := c.ToSQLFragment(esc)
		if err != nil {
			return "", err
		}
		parts = append(parts, alias+"."+frag)
	}
	return strings.Join(parts, ", "), nil
}
