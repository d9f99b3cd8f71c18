// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package mapstate

import (
	"geoagent/platform/internal/analysis/dsl"
	"geoagent/platform/internal/model"
)

// MapState is one session's map: an ordered set of layers plus the
// derived viewport. It is owned by its session's turn loop and is never
// mutated concurrently, so no internal lock is needed — unlike
// internal/registry and internal/docstore, which are shared across
// sessions.
type MapState struct {
	order  []string // insertion order, for deterministic Status output
	specs  map[string]LayerSpec
	bounds map[string]model.BoundingBox
}

// New creates an empty MapState.
func New() *MapState {
	return &MapState{
		specs:  make(map[string]LayerSpec),
		bounds: make(map[string]model.BoundingBox),
	}
}

// AddLayer composes a LayerSpec from table, color, filters, and style and
// records it under layerID, replacing any prior spec at that id in place
// (its position in Status order is preserved, matching the teacher's
// Save/Update distinction in InMemoryWorkflowStorage).
func (m *MapState) AddLayer(table model.TableDescriptor, layerID, color string, filters []dsl.HandlerFilter, style LayerStyle) (LayerSpec, error) {
	tileURL, err := buildLayerURL(table.TileURL, filters)
	if err != nil {
		return LayerSpec{}, err
	}

	spec := LayerSpec{
		LayerID: layerID,
		Table:   table.QualifiedName(),
		Color:   color,
		Style:   style,
		Filters: filters,
		URL:     tileURL,
	}

	if _, exists := m.specs[layerID]; !exists {
		m.order = append(m.order, layerID)
	}
	m.specs[layerID] = spec
	m.bounds[layerID] = table.Bounds
	return spec, nil
}

// RemoveLayer drops layerID; removing an id that does not exist is a no-op.
func (m *MapState) RemoveLayer(layerID string) {
	if _, ok := m.specs[layerID]; !ok {
		return
	}
	delete(m.specs, layerID)
	delete(m.bounds, layerID)
	for i, id := range m.order {
		if id == layerID {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// Reset clears every layer.
func (m *MapState) Reset() {
	m.order = nil
	m.specs = make(map[string]LayerSpec)
	m.bounds = make(map[string]model.BoundingBox)
}

// Viewport computes the union bounding envelope of every layer's table,
// or the world default when no layer exists.
func (m *MapState) Viewport() Viewport {
	bounds := make([]model.BoundingBox, 0, len(m.order))
	for _, id := range m.order {
		bounds = append(bounds, m.bounds[id])
	}
	return viewportFor(bounds)
}

// ActiveTable returns the schema-qualified table name of the first layer
// added to the map, matching the original assistant's "active_tables[0]"
// notion of the table currently in focus. Returns false when the map has
// no layers.
func (m *MapState) ActiveTable() (string, bool) {
	if len(m.order) == 0 {
		return "", false
	}
	return m.specs[m.order[0]].Table, true
}

// Status returns an ordered summary of every layer, suitable for
// inclusion in the agent's next system prompt.
func (m *MapState) Status() []LayerSummary {
	out := make([]LayerSummary, 0, len(m.order))
	for _, id := range m.order {
		spec := m.specs[id]
		out = append(out, LayerSummary{
			LayerID: spec.LayerID,
			Color:   spec.Color,
			Style:   spec.Style,
			Filters: spec.Filters,
		})
	}
	return out
}
