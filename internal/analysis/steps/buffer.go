// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package steps

import (
	"fmt"
	"strings"

	"geoagent/platform/internal/sqlrunner"
)

// BufferStep replaces a table's geometry with a distance-buffered version of
// itself.
type BufferStep struct {
	Base

	From     *SourceTableRef
	Distance float64
	Unit     DistanceUnit

	Output string
}

func (s *BufferStep) SourceRefs() []*SourceTableRef { return []*SourceTableRef{s.From} }
func (s *BufferStep) OutputTable() string           { return s.Output }
func (s *BufferStep) TemplateName() string          { return "buffer" }

// Validate rejects a non-positive distance, per the boundary behavior every
// Buffer step must enforce before any SQL is rendered.
func (s *BufferStep) Validate() error {
	if s.Distance <= 0 {
		return &ErrInvalidDistance{Distance: s.Distance}
	}
	return nil
}

func (s *BufferStep) TemplateArgs(ctx *ResolutionContext) (sqlrunner.TemplateArgs, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("buffer step %q: %w", s.ID, err)
	}

	resolved, ok := ctx.Resolve(s.From)
	if !ok {
		return nil, fmt.Errorf("buffer step %q: source table %s not resolved", s.ID, s.From)
	}

	return sqlrunner.TemplateArgs{
		"Schema":             ctx.AnalysisSchema,
		"TargetTable":        s.Output,
		"SourceSchema":       resolved.Schema,
		"SourceTable":        resolved.Table,
		"GeometryColumn":     ctx.GeometryColumn,
		"NonGeometryColumns": nonGeometryColumns(resolved.Columns, ctx.GeometryColumn),
		"Distance":           s.Unit.Meters(s.Distance),
	}, nil
}

func nonGeometryColumns(columns []string, geometryColumn string) string {
	kept := make([]string, 0, len(columns))
	for _, c := range columns {
		if c == geometryColumn {
			continue
		}
		kept = append(kept, fmt.Sprintf("%q", c))
	}
	if len(kept) == 0 {
		return "1 AS placeholder"
	}
	return strings.Join(kept, ", ")
}

// ErrInvalidDistance reports a non-positive Buffer distance.
type ErrInvalidDistance struct {
	Distance float64
}

func (e *ErrInvalidDistance) Error() string {
	return fmt.Sprintf("buffer distance must be > 0, got %v", e.Distance)
}
