// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

// Package app wires the Agent Kernel to the rest of the system: the
// Table Registry, Document Stores, Map State, and Analysis Planner/
// Executor become the kernel's system-message builder and its
// registered tools and sub-types. cmd/orchestrator builds one Deps per
// process and calls NewAgent once per chat session.
package app
