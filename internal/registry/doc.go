// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

// Package registry is the Table Registry: a live catalog of PostGIS tables
// discovered from the tile server and annotated with their geometry type.
// It answers multi-criteria lookups and owns the lifecycle of
// analysis-created tables (register, unregister, cleanup, drop schema).
//
// Reads take the registry's read lock (Query only while copying the table
// map, then filters the copy); writes
// (Discover, Register, Unregister, Cleanup, DropSchema) take the registry's
// single write lock, mirroring the read/write split in
// connectors/registry/registry.go.
package registry
