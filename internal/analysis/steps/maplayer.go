// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package steps

// PlotlyMapLayerStep is a reporting step: it never touches the database,
// instead producing arguments the caller uses to add a vector-tile layer
// for an already-materialized analysis table.
type PlotlyMapLayerStep struct {
	Base

	Source  *SourceTableRef
	LayerID string
	Color   string
}

func (s *PlotlyMapLayerStep) SourceRefs() []*SourceTableRef { return []*SourceTableRef{s.Source} }
