// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package app

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"geoagent/platform/internal/analysis/dsl"
	"geoagent/platform/internal/analysis/planner"
	"geoagent/platform/internal/analysis/steps"
	"geoagent/platform/internal/kernel"
	"geoagent/platform/internal/mapstate"
	"geoagent/platform/internal/sqlrunner"
)

// registerTools declares every tool and sub-type this system's Agent
// Kernel exposes to the LLM.
func (d *Deps) registerTools(a *kernel.Agent) {
	a.RegisterSubtype("handler_filter", "a single layer filter over one field", handlerFilterSubtype)

	a.RegisterTool("list_tables", "Lists every table currently registered, with its columns and geometry type.",
		map[string]any{}, nil, d.listTables)

	a.RegisterTool("add_map_layer",
		"Adds a layer to the map for a registered table, optionally filtered.",
		map[string]any{
			"table":    map[string]any{"type": "string", "description": "schema-qualified or bare table name", "enum": d.tableNamesEnum()},
			"layer_id": map[string]any{"type": "string", "description": "identifier for this layer; reusing an existing id replaces it"},
			"color":    map[string]any{"type": "string", "description": "hex color, e.g. #3388ff"},
			"style":    map[string]any{"type": "string", "enum": []any{string(mapstate.StyleLine), string(mapstate.StyleFill)}},
			"filters":  map[string]any{"type": "array", "items": "#handler_filter"},
		}, []string{"table", "layer_id"}, d.addMapLayer)

	a.RegisterTool("remove_map_layer", "Removes a layer from the map by its layer id.",
		map[string]any{
			"layer_id": map[string]any{"type": "string"},
		}, []string{"layer_id"}, d.removeMapLayer)

	a.RegisterTool("reset_map", "Clears every layer from the map.", map[string]any{}, nil, d.resetMap)

	a.RegisterTool("search_field_reference",
		"Searches field and supplemental documentation for definitions relevant to a question.",
		map[string]any{
			"query": map[string]any{"type": "string"},
		}, []string{"query"}, d.searchFieldReference)

	a.RegisterTool("query_at_point",
		"Looks up rows from the active map layer's table that intersect a given latitude/longitude, "+
			"buffering by tolerance_meters to also catch nearby line or point geometries.",
		map[string]any{
			"lat":              map[string]any{"type": "number", "description": "latitude in decimal degrees"},
			"lon":              map[string]any{"type": "number", "description": "longitude in decimal degrees"},
			"tolerance_meters": map[string]any{"type": "number", "description": "search radius in meters; defaults to 10"},
		}, []string{"lat", "lon"}, d.queryAtPoint)

	a.RegisterTool("run_analysis",
		"Runs a multi-step spatial analysis plan (filter/aggregate/buffer/merge/save/map-layer steps) "+
			"against the registered tables and folds its results into the map.",
		map[string]any{
			"query": map[string]any{"type": "string", "description": "the user's original analytical question"},
			"plan":  map[string]any{"type": "object", "description": "the analysis plan, one entry per step"},
		}, []string{"query", "plan"}, d.runAnalysis)
}

func (d *Deps) tableNamesEnum() kernel.DynamicEnum {
	return func(context.Context, *kernel.Agent) ([]string, error) {
		var names []string
		for _, t := range d.Registry.Query() {
			names = append(names, t.QualifiedName())
		}
		return names, nil
	}
}

func handlerFilterSubtype(context.Context, *kernel.Agent, string) (map[string]any, error) {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"Field": map[string]any{"type": "string"},
			"Op":    map[string]any{"type": "string", "enum": []any{"=", "!=", ">", "<", ">=", "<=", "contains"}},
			"Value": map[string]any{"type": "string", "description": "used by every operator; contains matches substrings"},
		},
		"required": []any{"Field", "Op", "Value"},
	}, nil
}

func (d *Deps) listTables(ctx context.Context, a *kernel.Agent, args json.RawMessage) (any, error) {
	tables := d.Registry.Query()
	out := make([]map[string]any, 0, len(tables))
	for _, t := range tables {
		out = append(out, map[string]any{
			"name":     t.QualifiedName(),
			"columns":  t.Columns,
			"geometry": string(t.Geometry),
			"bounds":   t.Bounds,
		})
	}
	return out, nil
}

type addMapLayerArgs struct {
	Table   string              `json:"table"`
	LayerID string              `json:"layer_id"`
	Color   string              `json:"color"`
	Style   string              `json:"style"`
	Filters []dsl.HandlerFilter `json:"filters"`
}

func (d *Deps) addMapLayer(ctx context.Context, a *kernel.Agent, args json.RawMessage) (any, error) {
	var req addMapLayerArgs
	if err := json.Unmarshal(args, &req); err != nil {
		return nil, fmt.Errorf("invalid add_map_layer arguments: %w", err)
	}

	table, ok := d.lookupTable(req.Table)
	if !ok {
		return nil, fmt.Errorf("no registered table named %q", req.Table)
	}

	style := mapstate.StyleLine
	if req.Style == string(mapstate.StyleFill) {
		style = mapstate.StyleFill
	}
	color := req.Color
	if color == "" {
		color = "#3388ff"
	}

	spec, err := a.Map.AddLayer(table, req.LayerID, color, req.Filters, style)
	if err != nil {
		return nil, fmt.Errorf("failed to add layer: %w", err)
	}
	return spec, nil
}

func (d *Deps) removeMapLayer(ctx context.Context, a *kernel.Agent, args json.RawMessage) (any, error) {
	var req struct {
		LayerID string `json:"layer_id"`
	}
	if err := json.Unmarshal(args, &req); err != nil {
		return nil, fmt.Errorf("invalid remove_map_layer arguments: %w", err)
	}
	a.Map.RemoveLayer(req.LayerID)
	return fmt.Sprintf("removed layer %q", req.LayerID), nil
}

func (d *Deps) resetMap(ctx context.Context, a *kernel.Agent, args json.RawMessage) (any, error) {
	a.Map.Reset()
	return "map cleared", nil
}

func (d *Deps) searchFieldReference(ctx context.Context, a *kernel.Agent, args json.RawMessage) (any, error) {
	var req struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal(args, &req); err != nil {
		return nil, fmt.Errorf("invalid search_field_reference arguments: %w", err)
	}

	hits, err := d.Fields.SmartQuery(ctx, d.termExpander, req.Query, a.History(), "field definitions", 5)
	if err != nil {
		return nil, fmt.Errorf("field search failed: %w", err)
	}
	return hits, nil
}

type queryAtPointArgs struct {
	Lat             float64 `json:"lat"`
	Lon             float64 `json:"lon"`
	ToleranceMeters float64 `json:"tolerance_meters"`
}

// queryAtPoint answers "what's here?" questions by running the lat_long
// template against the active map layer's table — the table backing the
// first layer the session added, mirroring the original assistant's
// single-active-table point lookup. The geometry column is stripped from
// each row since it isn't meaningful to the LLM as raw WKB/hex text.
func (d *Deps) queryAtPoint(ctx context.Context, a *kernel.Agent, args json.RawMessage) (any, error) {
	var req queryAtPointArgs
	if err := json.Unmarshal(args, &req); err != nil {
		return nil, fmt.Errorf("invalid query_at_point arguments: %w", err)
	}
	tolerance := req.ToleranceMeters
	if tolerance <= 0 {
		tolerance = 10
	}

	qualified, ok := a.Map.ActiveTable()
	if !ok {
		return nil, fmt.Errorf("no active map layer to query")
	}
	table, ok := d.lookupTable(qualified)
	if !ok {
		return nil, fmt.Errorf("active layer's table %q is no longer registered", qualified)
	}

	geometryColumn := d.Config.Map.GeometryColumn
	rows, err := d.Runner.Run(ctx, "lat_long", d.DB, sqlrunner.TemplateArgs{
		"Schema":          table.Schema,
		"Table":           table.Name,
		"GeometryColumn":  geometryColumn,
		"Lat":             req.Lat,
		"Lon":             req.Lon,
		"ToleranceMeters": tolerance,
	})
	if err != nil {
		return nil, fmt.Errorf("lat/long query failed: %w", err)
	}

	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		clean := make(map[string]any, len(row))
		for k, v := range row {
			if k == geometryColumn {
				continue
			}
			clean[k] = v
		}
		out = append(out, clean)
	}
	return out, nil
}

type runAnalysisArgs struct {
	Query string          `json:"query"`
	Plan  json.RawMessage `json:"plan"`
}

// runAnalysis validates and executes an analysis plan, streams its
// per-step progress to the turn's Subscriber (recovered via
// kernel.SubscriberFromContext), and folds any resulting map-layer
// artifacts into the session's Map State.
func (d *Deps) runAnalysis(ctx context.Context, a *kernel.Agent, args json.RawMessage) (any, error) {
	var req runAnalysisArgs
	if err := json.Unmarshal(args, &req); err != nil {
		return nil, fmt.Errorf("invalid run_analysis arguments: %w", err)
	}

	schema, err := d.buildPlanSchema()
	if err != nil {
		return nil, fmt.Errorf("failed to build plan schema: %w", err)
	}

	plan, err := planner.Validate(req.Plan, schema)
	if err != nil {
		return nil, fmt.Errorf("plan validation failed: %w", err)
	}

	baseSchema := d.Config.Database.BaseSchemaName
	rc := steps.NewResolutionContext(plan.AnalysisName, d.Config.Map.DefaultSRID, d.Config.Map.GeometryColumn)
	if role := d.Config.Database.TileServerRole; role != "" {
		rc.TileServerRole = role
	}
	if err := planner.ResolveReferences(plan, rc, baseSchema, d.lookupTable); err != nil {
		return nil, fmt.Errorf("failed to resolve table references: %w", err)
	}

	analysisID := uuid.NewString()
	sub := kernel.SubscriberFromContext(ctx)
	emit := func(ev planner.ProgressEvent) {
		sub.Emit(kernel.Event{
			Status:  kernel.EventStatus(ev.Status),
			Tool:    "run_analysis",
			Message: fmt.Sprintf("[%s] %s: %s (%.0f%%)", analysisID, ev.Step, ev.Status, ev.Progress*100),
		})
	}

	report, err := planner.Execute(ctx, d.DB, d.Runner, plan, rc, req.Query, emit)
	if err != nil {
		return nil, fmt.Errorf("analysis execution failed: %w", err)
	}

	d.foldReportIntoMap(ctx, a, report)
	return report, nil
}

// foldReportIntoMap registers any newly materialized, retained tables
// and adds the map layers a PlotlyMapLayerStep requested. A single
// layer's registration failure is reported but does not fail the
// analysis as a whole, matching the kernel's "never abort the turn on a
// sub-operation's failure" posture.
func (d *Deps) foldReportIntoMap(ctx context.Context, a *kernel.Agent, report *steps.Report) {
	sub := kernel.SubscriberFromContext(ctx)
	for _, item := range report.Items {
		if st, ok := item.(steps.SaveTableArtifact); ok {
			if err := d.Registry.Register(ctx, st.Table); err != nil {
				sub.Emit(kernel.Event{Status: kernel.StatusError, Tool: "run_analysis", Message: fmt.Sprintf("could not register %q: %v", st.Table, err)})
			}
			continue
		}
		ml, ok := item.(steps.MapLayerArguments)
		if !ok {
			continue
		}
		if err := d.Registry.Register(ctx, ml.Table); err != nil {
			sub.Emit(kernel.Event{Status: kernel.StatusError, Tool: "run_analysis", Message: fmt.Sprintf("could not register %q: %v", ml.Table, err)})
			continue
		}
		table, ok := d.lookupTable(ml.Table)
		if !ok {
			continue
		}
		if _, err := a.Map.AddLayer(table, ml.LayerID, ml.Color, nil, mapstate.StyleFill); err != nil {
			sub.Emit(kernel.Event{Status: kernel.StatusError, Tool: "run_analysis", Message: fmt.Sprintf("could not add layer for %q: %v", ml.Table, err)})
		}
	}
}
