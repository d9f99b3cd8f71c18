// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package registry

import "context"

// IndexEntry is one row of the tile server's index document: the name of a
// published table and the URL of its detail document.
type IndexEntry struct {
	Name      string
	DetailURL string
}

// TableDetail is the tile server's per-table detail document.
type TableDetail struct {
	Columns []string
	TileURL string
	Bounds  BoundingBox
}

// BoundingBox mirrors model.BoundingBox; kept as its own type here so this
// package's tile-server contract does not require importing internal/model
// for a detail the tile server itself answers in plain floats.
type BoundingBox struct {
	West, South, East, North float64
}

// TileServerClient is the Registry's view of the tile server: fetch the
// index document, then each entry's detail document. Production callers
// back this with internal/tileserver.Client, which applies the same SSRF
// protections as connectors/http/connector.go (scheme and private-IP
// validation on the configured base URL); tests use a stub.
type TileServerClient interface {
	FetchIndex(ctx context.Context) ([]IndexEntry, error)
	FetchDetail(ctx context.Context, detailURL string) (TableDetail, error)
}
