// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package app

import (
	"geoagent/platform/internal/analysis/planner"
	"geoagent/platform/internal/model"
)

// buildPlanSchema assembles the per-call plan schema from the Registry's
// live table set, matching spec.md's invariant that "field definitions
// projected into tool schemas always correspond to real columns in at
// least one registered table": every column of every registered table is
// offered as a known field, and every registered table name is offered
// as a known source/output table.
func (d *Deps) buildPlanSchema() (*planner.PlanSchema, error) {
	tables := d.Registry.Query()

	var fields []model.FieldDefinition
	seen := make(map[string]bool)
	tableNames := make([]string, 0, len(tables))
	for _, t := range tables {
		tableNames = append(tableNames, t.QualifiedName())
		for _, col := range t.Columns {
			key := t.QualifiedName() + "." + col
			if seen[key] {
				continue
			}
			seen[key] = true
			fields = append(fields, model.FieldDefinition{
				Name:        col,
				PrettyName:  col,
				Format:      model.FieldString,
				OwningTable: t.QualifiedName(),
			})
		}
	}

	return planner.BuildPlanSchema(fields, tableNames, planner.AllStepKinds())
}
