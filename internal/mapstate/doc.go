// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

// Package mapstate is the Map State Handler: the ordered set of tile layers
// a single chat session has added to its map, plus the derived viewport.
//
// One MapState belongs to exactly one session and is owned by that
// session's turn loop (spec.md §5) — no external synchronization is
// needed, unlike internal/registry or internal/docstore which are shared
// across sessions.
package mapstate
