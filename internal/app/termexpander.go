// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package app

import (
	"context"
	"encoding/json"
	"fmt"

	"geoagent/platform/internal/llmprovider"
	"geoagent/platform/internal/model"
)

// llmTermExpander implements docstore.TermExpander over a
// llmprovider.Client structured-parse call, matching spec.md §6's
// "schema-constrained structured parse" operation.
type llmTermExpander struct {
	client llmprovider.Client
}

var termsSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"terms": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		},
	},
	"required": []any{"terms"},
}

// ExpandTerms asks the LLM to break a free-text question into a short
// list of search terms, optionally biased by a domain hint (e.g. "field
// definitions", "supplemental zoning sections").
func (e *llmTermExpander) ExpandTerms(ctx context.Context, text string, transcript []model.ConversationMessage, domain string) ([]string, error) {
	prompt := fmt.Sprintf("Break this question into 2-5 short search terms for a document index: %q", text)
	if domain != "" {
		prompt = fmt.Sprintf("Break this question into 2-5 short search terms for a %s index: %q", domain, text)
	}

	messages := []model.ConversationMessage{
		{Role: model.RoleSystem, Content: "You expand a user's question into concise keyword search terms. Reply only via the provided schema."},
		{Role: model.RoleUser, Content: prompt},
	}

	raw, err := e.client.StructuredParse(ctx, messages, termsSchema)
	if err != nil {
		return nil, fmt.Errorf("term expander: structured parse failed: %w", err)
	}

	var out struct {
		Terms []string `json:"terms"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("term expander: malformed structured response: %w", err)
	}
	return out.Terms, nil
}
