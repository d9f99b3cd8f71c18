// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package usage

import "database/sql"

// Recorder persists usage events for cost visibility into LLM spend.
type Recorder struct {
	db *sql.DB
}

// TurnEvent represents one kernel dispatch loop turn.
type TurnEvent struct {
	SessionID      string
	RequestID      string
	HTTPMethod     string
	HTTPPath       string
	HTTPStatusCode int
	LatencyMs      int64
}

// LLMRequestEvent represents a single LLM completion call made while
// servicing a turn, including tool-use round trips during plan generation.
type LLMRequestEvent struct {
	SessionID        string
	RequestID        string
	AnalysisID       string // set only when the call happened inside analysis planning
	LLMProvider      string
	LLMModel         string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	LatencyMs        int64
	HTTPStatusCode   int
}
