// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package planner

import (
	"fmt"

	"geoagent/platform/internal/analysis/steps"
	"geoagent/platform/internal/model"
)

// TableLookup resolves a by-name table reference to its registered
// descriptor; callers typically back this with the Table Registry.
type TableLookup func(name string) (model.TableDescriptor, bool)

// ResolveReferences rewrites every step's source-table references to a
// fully-qualified schema.table and binds them into rc, so each step's
// TemplateArgs can look up its resolved table. A by-index reference that
// points at the referencing step itself or a later step is rejected as a
// forward reference; a by-name reference that the lookup does not
// recognize is rejected as an unknown table.
func ResolveReferences(plan *AnalysisPlan, rc *steps.ResolutionContext, baseSchema string, lookup TableLookup) error {
	for i, step := range plan.Steps {
		for _, ref := range step.SourceRefs() {
			if ref == nil {
				continue
			}
			if err := resolveOne(plan, rc, ref, i, baseSchema, lookup); err != nil {
				return err
			}
		}
	}
	return nil
}

func resolveOne(plan *AnalysisPlan, rc *steps.ResolutionContext, ref *steps.SourceTableRef, stepIndex int, baseSchema string, lookup TableLookup) error {
	if idx, isIndex := ref.IsIndex(); isIndex {
		if idx >= stepIndex {
			return &ErrForwardReference{StepID: plan.Steps[stepIndex].StepID(), Referenced: idx}
		}
		referenced, ok := plan.Steps[idx].(steps.SQLStep)
		if !ok {
			return fmt.Errorf("step #%d is not a SQL step and has no output table", idx)
		}
		rc.BindByIndex(ref, idx, steps.ResolvedTable{
			Schema:   rc.AnalysisSchema,
			Table:    referenced.OutputTable(),
			Geometry: model.GeometryGeneric, // placeholder until step #idx runs; Execute corrects it via UpdateGeometryForStep
			Columns:  nil,                   // intermediate tables carry whatever the prior step projected; not whitelist-checked again
		})
		return nil
	}

	desc, ok := lookup(ref.Name())
	if !ok {
		return fmt.Errorf("unknown table %q", ref.Name())
	}
	rc.Bind(ref, steps.ResolvedTable{
		Schema:   baseSchema,
		Table:    desc.Name,
		Geometry: desc.Geometry,
		Columns:  desc.Columns,
	})
	return nil
}
