// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package steps

import (
	"context"
	"fmt"

	"geoagent/platform/internal/model"
	"geoagent/platform/internal/sqlrunner"
)

// Execute runs one SQL step against exec inside ctx's ResolutionContext,
// following the four-stage sequence every SQL step shares: pick the output
// geometry kind, render and run the step's own template, run the shared
// postprocess template against the table it just created, then report what
// was created.
//
// geometryInputs is the geometry kind of each of step's resolved source
// tables, used only to pick the output table's registered geometry kind;
// the rendered SQL itself is entirely up to the step's own template.
func Execute(ctx context.Context, runner *sqlrunner.Runner, exec sqlrunner.Executor, rc *ResolutionContext, step SQLStep, geometryInputs []model.GeometryKind) (TableCreated, model.GeometryKind, error) {
	outputKind := ResolveGeometryKind(geometryInputs)
	if agg, ok := step.(*AggregateStep); ok && agg.OutputGeometryKind() {
		outputKind = model.GeometryGeometryCollection
	}

	args, err := step.TemplateArgs(rc)
	if err != nil {
		return TableCreated{}, "", fmt.Errorf("step %q: %w", step.StepID(), err)
	}
	args["GeometryKind"] = string(outputKind)
	args["SRID"] = rc.SRID

	if _, err := runner.Run(ctx, step.TemplateName(), exec, args); err != nil {
		return TableCreated{}, "", fmt.Errorf("step %q: create table: %w", step.StepID(), err)
	}

	postArgs := sqlrunner.TemplateArgs{
		"Schema":         rc.AnalysisSchema,
		"Table":          step.OutputTable(),
		"GeometryColumn": rc.GeometryColumn,
		"TileServerRole": rc.TileServerRole,
	}
	if _, err := runner.Run(ctx, "postprocess", exec, postArgs); err != nil {
		return TableCreated{}, "", fmt.Errorf("step %q: postprocess: %w", step.StepID(), err)
	}

	columns, _ := args["Columns"].([]string)

	return TableCreated{
		StepName:     step.StepName(),
		Reason:       step.Reasoning(),
		CreatedTable: step.OutputTable(),
		Columns:      columns,
	}, outputKind, nil
}
