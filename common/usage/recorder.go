// Copyright 2025 AxonFlow
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package usage

import (
	"database/sql"
	"log"
)

// NewRecorder creates a new usage recorder backed by the given database.
// A nil db is accepted and turns every recording call into a no-op, which
// keeps callers simple when usage accounting is not configured.
func NewRecorder(db *sql.DB) *Recorder {
	return &Recorder{db: db}
}

// RecordTurn records one kernel dispatch turn's request metadata.
func (r *Recorder) RecordTurn(event TurnEvent) error {
	if r.db == nil {
		return nil
	}

	_, err := r.db.Exec(`
		INSERT INTO usage_events (
			session_id, request_id, event_type,
			http_method, http_path, http_status_code, latency_ms
		) VALUES ($1, $2, 'turn', $3, $4, $5, $6)
	`, event.SessionID, nullString(event.RequestID), event.HTTPMethod,
		event.HTTPPath, event.HTTPStatusCode, event.LatencyMs)

	if err != nil {
		log.Printf("[USAGE] failed to record turn: %v", err)
	}

	return err
}

// RecordLLMRequest records an LLM completion call with cost computed from
// the provider/model pricing table.
func (r *Recorder) RecordLLMRequest(event LLMRequestEvent) error {
	if r.db == nil {
		return nil
	}

	costCents := CalculateCost(event.LLMProvider, event.LLMModel,
		event.PromptTokens, event.CompletionTokens)

	_, err := r.db.Exec(`
		INSERT INTO usage_events (
			session_id, request_id, event_type, analysis_id,
			llm_provider, llm_model, prompt_tokens, completion_tokens,
			total_tokens, estimated_cost_cents, latency_ms, http_status_code
		) VALUES ($1, $2, 'llm_request', $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, event.SessionID, nullString(event.RequestID), nullString(event.AnalysisID),
		event.LLMProvider, event.LLMModel, event.PromptTokens, event.CompletionTokens,
		event.TotalTokens, costCents, event.LatencyMs, event.HTTPStatusCode)

	if err != nil {
		log.Printf("[USAGE] failed to record LLM request: %v", err)
	}

	return err
}

// nullString converts an empty string to NULL for database insertion.
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
