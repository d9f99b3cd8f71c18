// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

// Package planner turns an LLM-proposed analysis plan into validated,
// executable steps: it builds the JSON Schema an LLM call must conform to,
// validates structured output against it, resolves cross-step table
// references, and executes the resulting plan step by step against
// PostGIS, emitting progress and a final report.
package planner
