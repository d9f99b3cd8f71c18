// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package mapstate

import (
	"strings"

	"geoagent/platform/internal/analysis/dsl"
)

// LayerStyle is the closed set of rendering styles a layer may use.
type LayerStyle string

const (
	StyleLine LayerStyle = "line"
	StyleFill LayerStyle = "fill"
)

// LayerSpec is one entry on the map: a tile source plus its rendering
// parameters, as handed to the frontend map component.
type LayerSpec struct {
	LayerID string
	Table   string
	Color   string
	Style   LayerStyle
	Filters []dsl.HandlerFilter
	URL     string
}

// LayerSummary is the per-layer slice of Status's system-prompt summary.
type LayerSummary struct {
	LayerID string
	Color   string
	Style   LayerStyle
	Filters []dsl.HandlerFilter
}

// buildLayerURL composes the tile source URL: the bare tile URL when no
// filters are present, or the tile URL with a CQL filter query parameter
// otherwise. Each filter renders through dsl.HandlerFilter.ToCQL, the
// single place that knows how to turn a handler filter into CQL text.
func buildLayerURL(tileURL string, filters []dsl.HandlerFilter) (string, error) {
	if len(filters) == 0 {
		return tileURL, nil
	}

	parts := make([]string, 0, len(filters))
	for _, f := range filters {
		frag, err := f.ToCQL()
		if err != nil {
			return "", err
		}
		parts = append(parts, frag)
	}
	cql := strings.Join(parts, " AND ")

	sep := "?"
	if strings.Contains(tileURL, "?") {
		sep = "&"
	}
	return tileURL + sep + "filter=" + cql, nil
}
