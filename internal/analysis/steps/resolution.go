// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package steps

import "geoagent/platform/internal/model"

// ResolvedTable is what a SourceTableRef resolves to once the planner has
// rewritten every step's references to fully-qualified tables.
type ResolvedTable struct {
	Schema   string
	Table    string
	Geometry model.GeometryKind
	Columns  []string
}

// QualifiedName returns "schema.table".
func (r ResolvedTable) QualifiedName() string {
	return r.Schema + "." + r.Table
}

// ResolutionContext carries everything a step needs to turn its fields into
// SQL template arguments: the analysis's own schema/SRID/geometry-column
// conventions and a lookup from SourceTableRef to its resolved table.
type ResolutionContext struct {
	AnalysisSchema string
	SRID           int
	GeometryColumn string
	TileServerRole string

	resolved   map[*SourceTableRef]ResolvedTable
	byStepRefs map[int][]*SourceTableRef // by-index refs, keyed by the step index they point to
}

// NewResolutionContext creates an empty context; Bind and BindByIndex
// populate it one reference at a time as the planner walks the plan.
func NewResolutionContext(analysisSchema string, srid int, geometryColumn string) *ResolutionContext {
	return &ResolutionContext{
		AnalysisSchema: analysisSchema,
		SRID:           srid,
		GeometryColumn: geometryColumn,
		TileServerRole: "tile_server",
		resolved:       make(map[*SourceTableRef]ResolvedTable),
		byStepRefs:     make(map[int][]*SourceTableRef),
	}
}

// Bind records the resolution for a reference.
func (c *ResolutionContext) Bind(ref *SourceTableRef, table ResolvedTable) {
	c.resolved[ref] = table
}

// BindByIndex records the resolution for a by-index reference, additionally
// remembering that it points at stepIndex so UpdateGeometryForStep can
// later correct its Geometry once that step has actually run and its real
// output kind is known — at bind time only the referenced step's position
// is known, not what it will produce.
func (c *ResolutionContext) BindByIndex(ref *SourceTableRef, stepIndex int, table ResolvedTable) {
	c.Bind(ref, table)
	c.byStepRefs[stepIndex] = append(c.byStepRefs[stepIndex], ref)
}

// UpdateGeometryForStep overwrites the Geometry of every by-index reference
// bound to stepIndex, once that step has executed and its real output kind
// is known. Schema/Table/Columns are left as resolveOne originally bound
// them.
func (c *ResolutionContext) UpdateGeometryForStep(stepIndex int, kind model.GeometryKind) {
	for _, ref := range c.byStepRefs[stepIndex] {
		table := c.resolved[ref]
		table.Geometry = kind
		c.resolved[ref] = table
	}
}

// Resolve returns the table a reference was bound to, or false if it has
// not been resolved yet (a planner bug, since ResolveReferences must bind
// every step's refs before Execute runs).
func (c *ResolutionContext) Resolve(ref *SourceTableRef) (ResolvedTable, bool) {
	t, ok := c.resolved[ref]
	return t, ok
}
