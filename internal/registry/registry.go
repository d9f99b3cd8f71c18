// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package registry

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"geoagent/platform/internal/model"
	"geoagent/platform/internal/sqlrunner"
	"geoagent/platform/shared/logger"
)

// Registry is the live catalog of PostGIS tables, keyed by "schema.name".
// Reads (Query, VerifyFields) take mu's read lock (Query only long enough
// to copy the map, then filters the copy); writes take mu, the same split
// connectors/registry/registry.go uses for its connector map.
type Registry struct {
	tileserver     TileServerClient
	runner         *sqlrunner.Runner
	db             sqlrunner.Executor
	geometryColumn string
	logger         *logger.Logger

	mu     sync.RWMutex
	tables map[string]model.TableDescriptor
}

// New creates an empty Registry. Discover must be called (directly, or via
// Register for a single table) before Query returns anything.
func New(tileserver TileServerClient, runner *sqlrunner.Runner, db sqlrunner.Executor, geometryColumn string, log *logger.Logger) *Registry {
	return &Registry{
		tileserver:     tileserver,
		runner:         runner,
		db:             db,
		geometryColumn: geometryColumn,
		logger:         log,
		tables:         make(map[string]model.TableDescriptor),
	}
}

// Discover fetches the tile server's index document and, for each entry,
// its detail document, then probes the database for the table's geometry
// type. A single table's detail-fetch or probe failure is logged and that
// table is skipped; it is not fatal to Discover as a whole.
func (r *Registry) Discover(ctx context.Context) error {
	entries, err := r.tileserver.FetchIndex(ctx)
	if err != nil {
		return fmt.Errorf("registry: failed to fetch tile server index: %w", err)
	}

	discovered := make(map[string]model.TableDescriptor, len(entries))
	for _, entry := range entries {
		desc, err := r.discoverOne(ctx, entry)
		if err != nil {
			if r.logger != nil {
				r.logger.Warn("", "", "registry: skipping table after discovery failure", map[string]any{
					"table": entry.Name, "error": err.Error(),
				})
			}
			continue
		}
		discovered[desc.QualifiedName()] = desc
	}

	r.mu.Lock()
	r.tables = discovered
	r.mu.Unlock()
	return nil
}

func (r *Registry) discoverOne(ctx context.Context, entry IndexEntry) (model.TableDescriptor, error) {
	detail, err := r.tileserver.FetchDetail(ctx, entry.DetailURL)
	if err != nil {
		return model.TableDescriptor{}, fmt.Errorf("fetch detail document: %w", err)
	}

	schema, table := splitQualifiedName(entry.Name)
	geometry, err := r.probeGeometryType(ctx, schema, table)
	if err != nil {
		return model.TableDescriptor{}, fmt.Errorf("probe geometry type: %w", err)
	}

	return model.TableDescriptor{
		Schema:    schema,
		Name:      table,
		Columns:   detail.Columns,
		TileURL:   detail.TileURL,
		DetailURL: entry.DetailURL,
		Bounds: model.BoundingBox{
			West: detail.Bounds.West, South: detail.Bounds.South,
			East: detail.Bounds.East, North: detail.Bounds.North,
		},
		Geometry: geometry,
	}, nil
}

// probeGeometryType runs ST_GeometryType on one non-null row of the table;
// a table with no non-null geometry rows is legitimately GeometryNotFound,
// not an error.
func (r *Registry) probeGeometryType(ctx context.Context, schema, table string) (model.GeometryKind, error) {
	rows, err := r.runner.Run(ctx, "geometry_probe", r.db, sqlrunner.TemplateArgs{
		"Schema": schema, "Table": table, "GeometryColumn": r.geometryColumn,
	})
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return model.GeometryNotFound, nil
	}
	raw, _ := rows[0]["geometry_type"].(string)
	return pgGeometryTypeToKind(raw), nil
}

// pgGeometryTypeToKind normalizes PostGIS's "ST_Polygon"-style type strings
// (the leading "ST_" and mixed case vary by PostGIS version) to the closed
// GeometryKind enum.
func pgGeometryTypeToKind(raw string) model.GeometryKind {
	trimmed := strings.TrimPrefix(raw, "ST_")
	switch strings.ToLower(trimmed) {
	case "point":
		return model.GeometryPoint
	case "multipoint":
		return model.GeometryMultiPoint
	case "linestring":
		return model.GeometryLineString
	case "multilinestring":
		return model.GeometryMultiLineString
	case "polygon":
		return model.GeometryPolygon
	case "multipolygon":
		return model.GeometryMultiPolygon
	case "geometrycollection":
		return model.GeometryGeometryCollection
	default:
		return model.GeometryGeneric
	}
}

func splitQualifiedName(name string) (schema, table string) {
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		return name[:idx], name[idx+1:]
	}
	return "public", name
}

// Query applies criteria left-to-right over a snapshot of the registered
// tables. FieldsKind projects each surviving descriptor's columns to the
// intersection with the requested fields, dropping descriptors left with
// zero columns.
func (r *Registry) Query(criteria ...Criterion) []model.TableDescriptor {
	r.mu.RLock()
	result := make([]model.TableDescriptor, 0, len(r.tables))
	for _, t := range r.tables {
		result = append(result, t)
	}
	r.mu.RUnlock()

	for _, c := range criteria {
		result = applyCriterion(result, c)
	}
	return result
}

func applyCriterion(tables []model.TableDescriptor, c Criterion) []model.TableDescriptor {
	switch c.Kind {
	case SchemaKind:
		schema, _ := c.Value.(string)
		return filterTables(tables, func(t model.TableDescriptor) bool { return t.Schema == schema })
	case AnalysisKind:
		analysis, _ := c.Value.(string)
		return filterTables(tables, func(t model.TableDescriptor) bool { return t.Schema == analysis })
	case TableKind:
		name, _ := c.Value.(string)
		return filterTables(tables, func(t model.TableDescriptor) bool { return t.Name == name })
	case FieldsKind:
		fields, _ := c.Value.([]string)
		return projectFields(tables, fields)
	default:
		return tables
	}
}

func filterTables(tables []model.TableDescriptor, keep func(model.TableDescriptor) bool) []model.TableDescriptor {
	out := make([]model.TableDescriptor, 0, len(tables))
	for _, t := range tables {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

func projectFields(tables []model.TableDescriptor, fields []string) []model.TableDescriptor {
	requested := make(map[string]bool, len(fields))
	for _, f := range fields {
		requested[strings.ToLower(f)] = true
	}

	out := make([]model.TableDescriptor, 0, len(tables))
	for _, t := range tables {
		var projected []string
		for _, col := range t.Columns {
			if requested[strings.ToLower(col)] {
				projected = append(projected, col)
			}
		}
		if len(projected) == 0 {
			continue
		}
		cp := t
		cp.Columns = projected
		out = append(out, cp)
	}
	return out
}

// Register re-discovers a single table (by "schema.name", or by bare name,
// which matches the first tile-server index entry named name or ending in
// "."+name, in any schema) and adds or replaces it in the registry.
func (r *Registry) Register(ctx context.Context, name string) error {
	entries, err := r.tileserver.FetchIndex(ctx)
	if err != nil {
		return fmt.Errorf("registry: failed to fetch tile server index: %w", err)
	}

	for _, entry := range entries {
		if entry.Name != name && !strings.HasSuffix(entry.Name, "."+name) {
			continue
		}
		desc, err := r.discoverOne(ctx, entry)
		if err != nil {
			return fmt.Errorf("registry: failed to register %q: %w", name, err)
		}
		r.mu.Lock()
		r.tables[desc.QualifiedName()] = desc
		r.mu.Unlock()
		return nil
	}
	return &ErrTableNotFound{Name: name}
}

// Unregister drops name from the registry and the database.
func (r *Registry) Unregister(ctx context.Context, name string) error {
	r.mu.Lock()
	desc, ok := r.findLocked(name)
	if ok {
		delete(r.tables, desc.QualifiedName())
	}
	r.mu.Unlock()
	if !ok {
		return &ErrTableNotFound{Name: name}
	}

	_, err := r.runner.Run(ctx, "drop", r.db, sqlrunner.TemplateArgs{"Schema": desc.Schema, "Table": desc.Name})
	if err != nil {
		return fmt.Errorf("registry: failed to drop table %q: %w", name, err)
	}
	return nil
}

func (r *Registry) findLocked(name string) (model.TableDescriptor, bool) {
	if t, ok := r.tables[name]; ok {
		return t, true
	}
	for _, t := range r.tables {
		if t.Name == name {
			return t, true
		}
	}
	return model.TableDescriptor{}, false
}

// Cleanup drops every registered table marked Temporary, both from the
// database and from the registry.
func (r *Registry) Cleanup(ctx context.Context) error {
	r.mu.Lock()
	var temporary []model.TableDescriptor
	for key, t := range r.tables {
		if t.Temporary {
			temporary = append(temporary, t)
			delete(r.tables, key)
		}
	}
	r.mu.Unlock()

	for _, t := range temporary {
		if _, err := r.runner.Run(ctx, "drop", r.db, sqlrunner.TemplateArgs{"Schema": t.Schema, "Table": t.Name}); err != nil {
			return fmt.Errorf("registry: failed to drop temporary table %q: %w", t.QualifiedName(), err)
		}
	}
	return nil
}

// DropSchema cascades a schema drop and removes every table registered
// under it.
func (r *Registry) DropSchema(ctx context.Context, name string) error {
	if _, err := r.runner.Run(ctx, "drop_schema", r.db, sqlrunner.TemplateArgs{"Schema": name}); err != nil {
		return fmt.Errorf("registry: failed to drop schema %q: %w", name, err)
	}

	r.mu.Lock()
	for key, t := range r.tables {
		if t.Schema == name {
			delete(r.tables, key)
		}
	}
	r.mu.Unlock()
	return nil
}

// VerifyFields returns the subset of proposed field names that match a
// column in any registered table, case-insensitively, with the registry's
// canonical column case substituted into the result.
func (r *Registry) VerifyFields(proposed []string) []model.FieldDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	columnOwner := make(map[string]struct {
		canonical string
		table     model.TableDescriptor
	}, len(proposed))
	for _, t := range r.tables {
		for _, col := range t.Columns {
			key := strings.ToLower(col)
			if _, ok := columnOwner[key]; !ok {
				columnOwner[key] = struct {
					canonical string
					table     model.TableDescriptor
				}{canonical: col, table: t}
			}
		}
	}

	var out []model.FieldDefinition
	for _, name := range proposed {
		owner, ok := columnOwner[strings.ToLower(name)]
		if !ok {
			continue
		}
		out = append(out, model.FieldDefinition{
			Name:        owner.canonical,
			Source:      owner.table.QualifiedName(),
			OwningTable: owner.table.Name,
		})
	}
	return out
}
