// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

// Package tileserver is the Table Registry's read-only HTTP collaborator:
// it fetches the tile server's index document and each table's detail
// document. Generalized from connectors/http/connector.go's write-capable
// HTTPConnector (Query/Execute, retries, SSRF protection) down to the two
// read-only GETs this system needs.
package tileserver
