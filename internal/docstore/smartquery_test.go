// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package docstore

import (
	"context"
	"testing"

	"geoagent/platform/internal/model"
)

type fakeExpander struct {
	terms []string
}

func (e *fakeExpander) ExpandTerms(_ context.Context, _ string, _ []model.ConversationMessage, _ string) ([]string, error) {
	return e.terms, nil
}

func TestSmartQuery_UnionsByFirstSeenOrder(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir, "fields", "v1", newFakeEmbedder(), nil)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}

	bldg := Document{ID: 1, Text: "building area size", Metadata: map[string]any{"name": "BldgArea"}}
	lot := Document{ID: 2, Text: "lot area", Metadata: map[string]any{"name": "LotArea"}}
	if err := store.Add(context.Background(), []Document{bldg, lot}); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}

	expander := &fakeExpander{terms: []string{"building size", "lot area"}}
	results, err := store.SmartQuery(context.Background(), expander, "how big are the buildings?", nil, "", 2)
	if err != nil {
		t.Fatalf("SmartQuery returned error: %v", err)
	}

	seen := make(map[int64]bool)
	for _, r := range results {
		if seen[r.ID] {
			t.Fatalf("document %d appeared more than once: %+v", r.ID, results)
		}
		seen[r.ID] = true
	}
	if len(results) == 0 {
		t.Fatal("expected at least one result")
	}
	if results[0].ID != bldg.ID {
		t.Errorf("expected BldgArea to rank first for the first search term, got id %d", results[0].ID)
	}
}

func TestSmartQuery_UnionsByNameNotID(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir, "fields", "v1", newFakeEmbedder(), nil)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}

	bldg := Document{ID: 1, Text: "building area size", Metadata: map[string]any{"name": "BldgArea"}}
	bldgAgain := Document{ID: 2, Text: "building area size, restated", Metadata: map[string]any{"name": "BldgArea"}}
	if err := store.Add(context.Background(), []Document{bldg, bldgAgain}); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}

	expander := &fakeExpander{terms: []string{"building size", "building area size, restated"}}
	results, err := store.SmartQuery(context.Background(), expander, "building area", nil, "", 2)
	if err != nil {
		t.Fatalf("SmartQuery returned error: %v", err)
	}

	count := 0
	for _, r := range results {
		if r.Metadata["name"] == "BldgArea" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected a single BldgArea result across both distinct ids, got %d in %+v", count, results)
	}
}

func TestSmartQuery_FallsBackToRawTextWhenNoTermsExpanded(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir, "fields", "v1", newFakeEmbedder(), nil)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	doc := Document{ID: 1, Text: "residential building area", Metadata: map[string]any{"name": "BldgArea"}}
	if err := store.Add(context.Background(), []Document{doc}); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}

	expander := &fakeExpander{terms: nil}
	results, err := store.SmartQuery(context.Background(), expander, "building area", nil, "", 1)
	if err != nil {
		t.Fatalf("SmartQuery returned error: %v", err)
	}
	if len(results) != 1 || results[0].ID != doc.ID {
		t.Fatalf("expected the raw text fallback to still find the document, got %+v", results)
	}
}
