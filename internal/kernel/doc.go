// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

// Package kernel implements the Agent Kernel: declarative tool/sub-type
// registration and the per-turn chat loop that synthesizes tool schemas,
// dispatches to an LLM, and executes the tool calls it returns.
//
// An *Agent is goroutine-affine: one value per session, owning its
// message history and never shared across goroutines, the same way the
// teacher keeps one WorkflowExecution per in-flight workflow run
// (orchestrator/workflow_engine.go). Dispatch follows the shape of
// orchestrator/run.go's request handling and orchestrator/llm_router.go's
// provider failover, enriched with real tool-call encoding from
// goadesign-goa-ai/features/model/anthropic since the teacher's own LLM
// layer never does function calling, only prompt-and-regex JSON
// extraction.
package kernel
