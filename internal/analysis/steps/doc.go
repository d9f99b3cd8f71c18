// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

// Package steps defines the closed set of analysis step variants an LLM
// plan may emit — Filter, Merge, Buffer, Aggregate, PlotlyMapLayer,
// SaveTable — each knowing its SQL template name, how to materialize its
// fields into template arguments, and which fields reference another step's
// output table.
package steps
