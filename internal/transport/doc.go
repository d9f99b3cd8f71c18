// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

// Package transport defines the session channel's wire frame types. The
// channel itself (WebSocket framing, connection lifecycle) is out of
// scope per spec.md §1; only the frame shapes are a fixed contract, the
// way orchestrator/run.go fixes its HTTP response shapes while leaving
// the transport (gorilla/mux + net/http) to cmd/orchestrator.
package transport
