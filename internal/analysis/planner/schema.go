// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package planner

import (
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"geoagent/platform/internal/model"
)

// PlanSchema is the compiled JSON Schema an LLM's structured-output call
// must conform to for one analysis request: every field slot is
// constrained to the field whitelist and every table slot to the table
// whitelist, per the "plan assembly" contract.
type PlanSchema struct {
	compiled *jsonschema.Schema
	fields   map[string]bool
	tables   map[string]bool
}

// KnownField reports whether name is one of the fields this schema was
// built from (case-sensitive; callers normalize case before calling).
func (s *PlanSchema) KnownField(name string) bool { return s.fields[name] }

// KnownTable reports whether name is one of the tables this schema was
// built from.
func (s *PlanSchema) KnownTable(name string) bool { return s.tables[name] }

// BuildPlanSchema assembles the per-call JSON Schema document, injecting
// the field and table whitelists as enums and restricting step kinds to
// the caller-offered set, then compiles it with jsonschema/v6 so
// Validate can check an LLM response against it before any SQL runs.
func BuildPlanSchema(fields []model.FieldDefinition, tables []string, kinds []StepKind) (*PlanSchema, error) {
	fieldNames := make([]any, 0, len(fields))
	fieldSet := make(map[string]bool, len(fields))
	for _, f := range fields {
		fieldNames = append(fieldNames, f.Name)
		fieldSet[f.Name] = true
	}

	tableNames := make([]any, 0, len(tables))
	tableSet := make(map[string]bool, len(tables))
	for _, t := range tables {
		tableNames = append(tableNames, t)
		tableSet[t] = true
	}

	kindNames := make([]any, 0, len(kinds))
	for _, k := range kinds {
		kindNames = append(kindNames, string(k))
	}

	fieldRef := map[string]any{"type": "string", "enum": fieldNames}
	tableRef := map[string]any{"type": "string", "enum": tableNames}

	sourceRef := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"index": map[string]any{"type": "integer", "minimum": 0},
			"name":  tableRef,
		},
	}

	whereClause := map[string]any{
		"type": "object",
		"required": []any{"field", "op"},
		"properties": map[string]any{
			"field":  fieldRef,
			"op":     map[string]any{"type": "string", "enum": []any{"=", "!=", ">", "<", ">=", "<=", "LIKE", "ILIKE", "IN", "NOT IN", "BETWEEN", "IS NULL", "IS NOT NULL"}},
			"value":  true,
			"values": map[string]any{"type": "array"},
			"lower":  true,
			"upper":  true,
		},
	}

	selectColumn := map[string]any{
		"type":     "object",
		"required": []any{"field"},
		"properties": map[string]any{
			"field": fieldRef,
			"alias": map[string]any{"type": "string"},
		},
	}

	aggregateColumn := map[string]any{
		"type":     "object",
		"required": []any{"field", "op", "alias"},
		"properties": map[string]any{
			"field":    fieldRef,
			"op":       map[string]any{"type": "string", "enum": []any{"COUNT", "SUM", "AVG", "MIN", "MAX"}},
			"alias":    map[string]any{"type": "string"},
			"distinct": map[string]any{"type": "boolean"},
		},
	}

	stepSchema := map[string]any{
		"type":     "object",
		"required": []any{"kind", "id", "name"},
		"properties": map[string]any{
			"kind":               map[string]any{"type": "string", "enum": kindNames},
			"id":                 map[string]any{"type": "string"},
			"name":               map[string]any{"type": "string"},
			"reason":             map[string]any{"type": "string"},
			"from":               sourceRef,
			"left":               sourceRef,
			"right":              sourceRef,
			"source":             sourceRef,
			"columns":            map[string]any{"type": "array", "items": selectColumn},
			"left_columns":       map[string]any{"type": "array", "items": selectColumn},
			"right_columns":      map[string]any{"type": "array", "items": selectColumn},
			"where":              map[string]any{"type": "array", "items": whereClause},
			"order_by":           fieldRef,
			"desc":               map[string]any{"type": "boolean"},
			"limit":              map[string]any{"type": "integer", "minimum": 0},
			"output":             map[string]any{"type": "string"},
			"predicate":          map[string]any{"type": "string", "enum": []any{"intersects", "contains", "within", "dwithin"}},
			"distance":           map[string]any{"type": "number"},
			"spatial_aggregator": map[string]any{"type": "string", "enum": []any{"", "COLLECT", "UNION", "CENTROID", "EXTENT", "ENVELOPE", "CONVEXHULL", "CONCAVEHULL"}},
			"unit":               map[string]any{"type": "string", "enum": []any{"meters", "kilometers"}},
			"group_by":           map[string]any{"type": "array", "items": fieldRef},
			"aggregates":         map[string]any{"type": "array", "items": aggregateColumn},
			"layer_id":           map[string]any{"type": "string"},
			"color":              map[string]any{"type": "string"},
		},
	}

	doc := map[string]any{
		"$id":      "analysis-plan.json",
		"type":     "object",
		"required": []any{"analysis_name", "steps"},
		"properties": map[string]any{
			"analysis_name": map[string]any{"type": "string", "pattern": "^[a-z][a-z0-9_]*$"},
			"steps":         map[string]any{"type": "array", "minItems": 1, "items": stepSchema},
		},
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("analysis-plan.json", doc); err != nil {
		return nil, fmt.Errorf("planner: failed to add plan schema resource: %w", err)
	}
	compiled, err := compiler.Compile("analysis-plan.json")
	if err != nil {
		return nil, fmt.Errorf("planner: failed to compile plan schema: %w", err)
	}

	return &PlanSchema{compiled: compiled, fields: fieldSet, tables: tableSet}, nil
}
