// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

// Package dsl renders the filter, aggregate, and column types an analysis
// plan's LLM-proposed steps carry into SQL fragments and CQL attribute-query
// strings. Every type is a closed tagged variant rather than a free-form
// expression tree: a plan step may only say "this field, this operator, this
// value", never compose arbitrary boolean trees, which is what keeps
// Identifier checking tractable against the Table Registry's known columns.
package dsl
