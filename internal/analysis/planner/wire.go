// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package planner

import (
	"fmt"

	"geoagent/platform/internal/analysis/dsl"
	"geoagent/platform/internal/analysis/steps"
)

// StepKind is the closed set of analysis step variants an LLM plan may
// emit, matching the step types enumerated in the Analysis Step Types
// component.
type StepKind string

const (
	KindFilter         StepKind = "filter"
	KindMerge          StepKind = "merge"
	KindBuffer         StepKind = "buffer"
	KindAggregate      StepKind = "aggregate"
	KindPlotlyMapLayer StepKind = "plotly_map_layer"
	KindSaveTable      StepKind = "save_table"
)

// AllStepKinds is every kind BuildPlanSchema may allow a caller to offer
// the LLM.
func AllStepKinds() []StepKind {
	return []StepKind{KindFilter, KindMerge, KindBuffer, KindAggregate, KindPlotlyMapLayer, KindSaveTable}
}

// wirePlan is the LLM's structured-output shape: one flat, mostly-optional
// step struct per entry, the same flat-with-omitempty idiom the teacher's
// WorkflowStep uses to hold fields for every step "type" in one struct
// rather than a Go-native tagged union (JSON has no sum types).
type wirePlan struct {
	AnalysisName string     `json:"analysis_name"`
	Steps        []wireStep `json:"steps"`
}

type wireStep struct {
	Kind   StepKind `json:"kind"`
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Reason string   `json:"reason"`

	// Filter
	From    *wireSourceRef       `json:"from,omitempty"`
	Columns []wireSelectColumn   `json:"columns,omitempty"`
	Where   []wireWhereClause    `json:"where,omitempty"`
	OrderBy string               `json:"order_by,omitempty"`
	Desc    bool                 `json:"desc,omitempty"`
	Limit   int                  `json:"limit,omitempty"`
	Output  string               `json:"output,omitempty"`

	// Merge
	Left              *wireSourceRef     `json:"left,omitempty"`
	Right             *wireSourceRef     `json:"right,omitempty"`
	LeftColumns       []wireSelectColumn `json:"left_columns,omitempty"`
	RightColumns      []wireSelectColumn `json:"right_columns,omitempty"`
	Predicate         string             `json:"predicate,omitempty"`
	Distance          float64            `json:"distance,omitempty"`
	SpatialAggregator string             `json:"spatial_aggregator,omitempty"`

	// Buffer
	Unit string `json:"unit,omitempty"`

	// Aggregate
	GroupBy    []string                `json:"group_by,omitempty"`
	Aggregates []wireAggregateColumn   `json:"aggregates,omitempty"`

	// PlotlyMapLayer / SaveTable
	Source  *wireSourceRef `json:"source,omitempty"`
	LayerID string         `json:"layer_id,omitempty"`
	Color   string         `json:"color,omitempty"`
}

type wireSourceRef struct {
	Index *int   `json:"index,omitempty"`
	Name  string `json:"name,omitempty"`
}

func (r *wireSourceRef) resolve() (*steps.SourceTableRef, error) {
	if r == nil {
		return nil, fmt.Errorf("missing source table reference")
	}
	if r.Index != nil {
		return steps.ByIndex(*r.Index), nil
	}
	if r.Name == "" {
		return nil, fmt.Errorf("source table reference has neither index nor name")
	}
	return steps.ByName(r.Name), nil
}

type wireSelectColumn struct {
	Field string `json:"field"`
	Alias string `json:"alias,omitempty"`
}

func (c wireSelectColumn) toDSL() dsl.SelectColumn {
	return dsl.SelectColumn{Field: c.Field, Alias: c.Alias}
}

type wireWhereClause struct {
	Field  string        `json:"field"`
	Op     string        `json:"op"`
	Value  any           `json:"value,omitempty"`
	Values []any         `json:"values,omitempty"`
	Lower  any           `json:"lower,omitempty"`
	Upper  any           `json:"upper,omitempty"`
}

func (w wireWhereClause) toDSL() dsl.WhereClause {
	return dsl.WhereClause{
		Field:  w.Field,
		Op:     dsl.ComparisonOp(w.Op),
		Value:  w.Value,
		Values: w.Values,
		Lower:  w.Lower,
		Upper:  w.Upper,
	}
}

type wireAggregateColumn struct {
	Field    string `json:"field"`
	Op       string `json:"op"`
	Alias    string `json:"alias"`
	Distinct bool   `json:"distinct,omitempty"`
}

func (a wireAggregateColumn) toDSL() dsl.AggregateColumn {
	return dsl.AggregateColumn{Field: a.Field, Op: dsl.AggregateOp(a.Op), Alias: a.Alias, Distinct: a.Distinct}
}

func selectColumns(in []wireSelectColumn) []dsl.SelectColumn {
	out := make([]dsl.SelectColumn, len(in))
	for i, c := range in {
		out[i] = c.toDSL()
	}
	return out
}

func whereClauses(in []wireWhereClause) []dsl.WhereClause {
	out := make([]dsl.WhereClause, len(in))
	for i, w := range in {
		out[i] = w.toDSL()
	}
	return out
}

func aggregateColumns(in []wireAggregateColumn) []dsl.AggregateColumn {
	out := make([]dsl.AggregateColumn, len(in))
	for i, a := range in {
		out[i] = a.toDSL()
	}
	return out
}

// toStep converts one validated wireStep into its concrete steps.Step
// variant.
func (w wireStep) toStep() (steps.Step, error) {
	base := steps.Base{ID: w.ID, Name: w.Name, Reason: w.Reason}

	switch w.Kind {
	case KindFilter:
		from, err := w.From.resolve()
		if err != nil {
			return nil, fmt.Errorf("filter step %q: %w", w.ID, err)
		}
		return &steps.FilterStep{
			Base:    base,
			From:    from,
			Columns: selectColumns(w.Columns),
			Where:   whereClauses(w.Where),
			OrderBy: w.OrderBy,
			Desc:    w.Desc,
			Limit:   w.Limit,
			Output:  w.Output,
		}, nil

	case KindMerge:
		left, err := w.Left.resolve()
		if err != nil {
			return nil, fmt.Errorf("merge step %q: left: %w", w.ID, err)
		}
		right, err := w.Right.resolve()
		if err != nil {
			return nil, fmt.Errorf("merge step %q: right: %w", w.ID, err)
		}
		return &steps.MergeStep{
			Base:              base,
			Left:              left,
			Right:             right,
			LeftColumns:       selectColumns(w.LeftColumns),
			RightColumns:      selectColumns(w.RightColumns),
			Predicate:         steps.SpatialPredicate(w.Predicate),
			Distance:          w.Distance,
			SpatialAggregator: steps.SpatialAggregator(w.SpatialAggregator),
			Output:            w.Output,
		}, nil

	case KindBuffer:
		from, err := w.From.resolve()
		if err != nil {
			return nil, fmt.Errorf("buffer step %q: %w", w.ID, err)
		}
		return &steps.BufferStep{
			Base:     base,
			From:     from,
			Distance: w.Distance,
			Unit:     steps.DistanceUnit(w.Unit),
			Output:   w.Output,
		}, nil

	case KindAggregate:
		from, err := w.From.resolve()
		if err != nil {
			return nil, fmt.Errorf("aggregate step %q: %w", w.ID, err)
		}
		return &steps.AggregateStep{
			Base:              base,
			From:              from,
			GroupBy:           w.GroupBy,
			Aggregates:        aggregateColumns(w.Aggregates),
			SpatialAggregator: steps.SpatialAggregator(w.SpatialAggregator),
			Output:            w.Output,
		}, nil

	case KindPlotlyMapLayer:
		source, err := w.Source.resolve()
		if err != nil {
			return nil, fmt.Errorf("plotly_map_layer step %q: %w", w.ID, err)
		}
		return &steps.PlotlyMapLayerStep{Base: base, Source: source, LayerID: w.LayerID, Color: w.Color}, nil

	case KindSaveTable:
		source, err := w.Source.resolve()
		if err != nil {
			return nil, fmt.Errorf("save_table step %q: %w", w.ID, err)
		}
		return &steps.SaveTableStep{Base: base, Source: source}, nil

	default:
		return nil, fmt.Errorf("unknown step kind %q", w.Kind)
	}
}
