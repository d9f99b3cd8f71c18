// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package docstore

import (
	"context"
	"fmt"

	"geoagent/platform/internal/model"
)

// TermExpander expands a user's free-text question into a list of search
// terms, given the conversation so far and an optional domain hint.
// Production callers back this with internal/llmprovider's structured-
// parse call; tests use a deterministic stub.
type TermExpander interface {
	ExpandTerms(ctx context.Context, text string, transcript []model.ConversationMessage, domain string) ([]string, error)
}

// SmartQuery expands text into search terms, runs Query once per term, and
// unions the results by document name, keeping each name's first-seen
// position — so if term1 surfaces a document before term2's first
// occurrence of it, that document appears once, at term1's position. Two
// records can share a name across document sets (e.g. the same field
// re-documented in a supplemental source), and a union keyed by id would
// let both through; the name is the identity that matters to the caller.
func (s *Store) SmartQuery(ctx context.Context, expander TermExpander, text string, transcript []model.ConversationMessage, domain string, k int) ([]ScoredDocument, error) {
	terms, err := expander.ExpandTerms(ctx, text, transcript, domain)
	if err != nil {
		return nil, fmt.Errorf("docstore: failed to expand search terms: %w", err)
	}
	if len(terms) == 0 {
		terms = []string{text}
	}

	seen := make(map[string]bool)
	var results []ScoredDocument
	for _, term := range terms {
		hits, err := s.Query(ctx, term, k)
		if err != nil {
			return nil, err
		}
		for _, hit := range hits {
			name, _ := hit.Metadata["name"].(string)
			if seen[name] {
				continue
			}
			seen[name] = true
			results = append(results, hit)
		}
	}

	return results, nil
}
