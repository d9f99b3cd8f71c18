// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package steps

import (
	"fmt"
	"strings"

	"geoagent/platform/internal/analysis/dsl"
	"geoagent/platform/internal/sqlrunner"
)

// FilterStep selects a projected, predicated subset of one table into a new
// table.
type FilterStep struct {
	Base

	From    *SourceTableRef
	Columns []dsl.SelectColumn
	Where   []dsl.WhereClause
	OrderBy string
	Desc    bool
	Limit   int // 0 means no limit

	Output string
}

func (s *FilterStep) SourceRefs() []*SourceTableRef { return []*SourceTableRef{s.From} }
func (s *FilterStep) OutputTable() string           { return s.Output }
func (s *FilterStep) TemplateName() string          { return "filter" }

// TemplateArgs renders the step's WHERE clauses into one SQL predicate by
// passing each clause to dsl.WhereClause.ToSQLFragment, which quotes string
// literal values and checks identifiers; there is no separate quoting pass
// in this step.
func (s *FilterStep) TemplateArgs(ctx *ResolutionContext) (sqlrunner.TemplateArgs, error) {
	resolved, ok := ctx.Resolve(s.From)
	if !ok {
		return nil, fmt.Errorf("filter step %q: source table %s not resolved", s.ID, s.From)
	}

	esc := dsl.NewIdentifierSet(resolved.Columns)

	predicate, err := s.renderPredicate(esc)
	if err != nil {
		return nil, fmt.Errorf("filter step %q: %w", s.ID, err)
	}

	projection, err := s.renderProjection(esc)
	if err != nil {
		return nil, fmt.Errorf("filter step %q: %w", s.ID, err)
	}

	orderBy := ""
	if s.OrderBy != "" {
		q, err := esc.QuoteIdentifier(s.OrderBy)
		if err != nil {
			return nil, fmt.Errorf("filter step %q: order by: %w", s.ID, err)
		}
		orderBy = q
	}

	return sqlrunner.TemplateArgs{
		"Schema":       ctx.AnalysisSchema,
		"TargetTable":  s.Output,
		"SourceSchema": resolved.Schema,
		"SourceTable":  resolved.Table,
		"Predicate":    predicate,
		"Projection":   projection,
		"OrderBy":      orderBy,
		"Desc":         s.Desc,
		"Limit":        s.Limit,
	}, nil
}

func (s *FilterStep) renderProjection(esc dsl.Escaper) (string, error) {
	if len(s.Columns) == 0 {
		return "*", nil
	}
	fragments := make([]string, 0, len(s.Columns))
	for _, c := range s.Columns {
		frag, err := c.ToSQLFragment(esc)
		if err != nil {
			return "", err
		}
		fragments = append(fragments, frag)
	}
	return strings.Join(fragments, ", "), nil
}

func (s *FilterStep) renderPredicate(esc dsl.Escaper) (string, error) {
	if len(s.Where) == 0 {
		return "TRUE", nil
	}
	fragments := make([]string, 0, len(s.Where))
	for _, w := range s.Where {
		frag, err := w.ToSQLFragment(esc)
		if err != nil {
			return "", err
		}
		fragments = append(fragments, frag)
	}
	return strings.Join(fragments, " AND "), nil
}
