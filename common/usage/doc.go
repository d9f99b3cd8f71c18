// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

/*
Package usage records per-session LLM spend for cost visibility.

# Overview

The usage package records usage events to PostgreSQL. It supports two event
types:

  - Turns: one HTTP request/response cycle through the agent kernel
  - LLM requests: a single completion call, including tool-use round trips
    made while generating an analysis plan

# Usage Recording

	recorder := usage.NewRecorder(db)

	recorder.RecordTurn(usage.TurnEvent{
	    SessionID:      "session-123",
	    HTTPMethod:     "POST",
	    HTTPPath:       "/api/v1/chat",
	    HTTPStatusCode: 200,
	    LatencyMs:      840,
	})

	recorder.RecordLLMRequest(usage.LLMRequestEvent{
	    SessionID:        "session-123",
	    AnalysisID:       "analysis-456",
	    LLMProvider:      "anthropic",
	    LLMModel:         "claude-3.5-sonnet",
	    PromptTokens:     820,
	    CompletionTokens: 140,
	    TotalTokens:      960,
	    LatencyMs:        1200,
	    HTTPStatusCode:   200,
	})

# Cost Calculation

LLM costs are calculated automatically from the pricing table in pricing.go:

	costCents := usage.CalculateCost("anthropic", "claude-3.5-sonnet",promptTokens, completionTokens)

# Thread Safety

Recorder is safe for concurrent use; recording calls may be made from
multiple session goroutines simultaneously.

# Best Practices

Record usage without blocking turn processing:

	go func() {
	    if err := recorder.RecordLLMRequest(event); err != nil {
	        log.Printf("usage recording failed: %v", err)
	    }
	}()
*/
package usage
