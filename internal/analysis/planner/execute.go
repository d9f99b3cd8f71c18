// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package planner

import (
	"context"
	"database/sql"
	"fmt"

	"geoagent/platform/internal/analysis/steps"
	"geoagent/platform/internal/model"
	"geoagent/platform/internal/sqlrunner"
)

// ProgressStatus is the closed set of states an Emitter call may report.
type ProgressStatus string

const (
	StatusGenerating ProgressStatus = "generating"
	StatusProcessing ProgressStatus = "processing"
	StatusSucceeded  ProgressStatus = "succeeded"
	StatusError      ProgressStatus = "error"
)

// ProgressEvent is emitted before each step, after each step, and on the
// plan's terminal outcome.
type ProgressEvent struct {
	ID       string
	Query    string
	Step     string
	Status   ProgressStatus
	Progress float64 // in [0,1]
}

// Emitter receives progress events as a plan executes. Implementations
// must not block the executor; a buffered channel send or a non-blocking
// log call are both appropriate.
type Emitter func(ProgressEvent)

// Execute creates the analysis schema, runs every step in declared order
// (each SQL step in its own transaction), and drops every intermediate
// table not in the final-tables set before returning. On any SQL step
// failure the plan is aborted and every table created so far (outside the
// final-tables set) is still dropped.
func Execute(ctx context.Context, db *sql.DB, runner *sqlrunner.Runner, plan *AnalysisPlan, rc *steps.ResolutionContext, query string, emit Emitter) (*steps.Report, error) {
	if emit == nil {
		emit = func(ProgressEvent) {}
	}

	if _, err := runner.Run(ctx, "schema_setup", db, sqlrunner.TemplateArgs{
		"Schema":         rc.AnalysisSchema,
		"TileServerRole": rc.TileServerRole,
	}); err != nil {
		return nil, fmt.Errorf("planner: failed to create analysis schema: %w", err)
	}

	report := &steps.Report{}
	created := make([]string, 0, len(plan.Steps))

	total := len(plan.Steps)
	for i, step := range plan.Steps {
		progress := float64(i) / float64(total)
		emit(ProgressEvent{ID: plan.AnalysisName, Query: query, Step: step.StepName(), Status: StatusProcessing, Progress: progress})

		item, geomKind, err := executeOne(ctx, runner, db, rc, step)
		if err != nil {
			emit(ProgressEvent{ID: plan.AnalysisName, Query: query, Step: step.StepName(), Status: StatusError, Progress: progress})
			dropIntermediates(ctx, runner, db, rc.AnalysisSchema, created, report.RetainedTables())
			return nil, &ErrStepExecution{StepID: step.StepID(), Err: err}
		}

		if item != nil {
			report.Items = append(report.Items, item)
		}
		if sqlStep, ok := step.(steps.SQLStep); ok {
			created = append(created, sqlStep.OutputTable())
			rc.UpdateGeometryForStep(i, geomKind)
		}

		emit(ProgressEvent{ID: plan.AnalysisName, Query: query, Step: step.StepName(), Status: StatusSucceeded, Progress: float64(i+1) / float64(total)})
	}

	dropIntermediates(ctx, runner, db, rc.AnalysisSchema, created, report.RetainedTables())
	emit(ProgressEvent{ID: plan.AnalysisName, Query: query, Status: StatusSucceeded, Progress: 1})

	return report, nil
}

// executeOne dispatches one step to either SQL execution or direct
// reporting-artifact construction, since PlotlyMapLayerStep/SaveTableStep
// never touch the database.
func executeOne(ctx context.Context, runner *sqlrunner.Runner, db *sql.DB, rc *steps.ResolutionContext, step steps.Step) (steps.ReportItem, model.GeometryKind, error) {
	switch v := step.(type) {
	case *steps.PlotlyMapLayerStep:
		table, err := outputTableOf(rc, v.Source)
		if err != nil {
			return nil, "", err
		}
		return steps.MapLayerArguments{StepName: v.StepName(), Reason: v.Reasoning(), Table: table, LayerID: v.LayerID, Color: v.Color}, "", nil

	case *steps.SaveTableStep:
		table, err := outputTableOf(rc, v.Source)
		if err != nil {
			return nil, "", err
		}
		return steps.SaveTableArtifact{StepName: v.StepName(), Reason: v.Reasoning(), Table: table}, "", nil

	case steps.SQLStep:
		inputKinds := geometryInputsOf(rc, v.SourceRefs())
		created, kind, err := steps.Execute(ctx, runner, db, rc, v, inputKinds)
		return created, kind, err

	default:
		return nil, "", fmt.Errorf("step %q: unsupported step type %T", step.StepID(), step)
	}
}

func outputTableOf(rc *steps.ResolutionContext, ref *steps.SourceTableRef) (string, error) {
	resolved, ok := rc.Resolve(ref)
	if !ok {
		return "", fmt.Errorf("source table %s not resolved", ref)
	}
	return resolved.QualifiedName(), nil
}

func geometryInputsOf(rc *steps.ResolutionContext, refs []*steps.SourceTableRef) []model.GeometryKind {
	kinds := make([]model.GeometryKind, 0, len(refs))
	for _, ref := range refs {
		if resolved, ok := rc.Resolve(ref); ok {
			kinds = append(kinds, resolved.Geometry)
		}
	}
	return kinds
}

// dropIntermediates drops every created table not in retained, best-effort
// (a drop failure is not itself fatal to the already-completed or
// already-failed plan, so errors are swallowed here).
func dropIntermediates(ctx context.Context, runner *sqlrunner.Runner, db *sql.DB, schema string, created []string, retained map[string]bool) {
	for _, table := range created {
		qualified := schema + "." + table
		if retained[qualified] || retained[table] {
			continue
		}
		_, _ = runner.Run(ctx, "drop", db, sqlrunner.TemplateArgs{"Schema": schema, "Table": table})
	}
}
