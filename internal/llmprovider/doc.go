// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

// Package llmprovider is the Agent Kernel's LLM boundary: it translates the
// kernel's generic Request/Response shape into github.com/anthropics/anthropic-sdk-go
// Messages API calls, including real tool-use encoding (not the teacher's
// prompt-and-regex JSON extraction in planning_engine.go).
//
// Provider wraps a single model; Router selects among a primary and
// fallback Provider and fails over on a provider error, generalized from
// orchestrator/llm_router.go's multi-provider LLMRouter to this module's
// single real backend.
package llmprovider
