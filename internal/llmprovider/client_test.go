// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package llmprovider

import (
	"context"
	"encoding/json"
	"testing"

	"geoagent/platform/internal/model"
)

func TestClient_ChatWithTools_SplitsSystemAndTranslatesItems(t *testing.T) {
	primary := &fakeNamedProvider{name: "primary", response: Response{
		Text:      "done",
		ToolCalls: []ToolCall{{ID: "call_1", Name: "add_layer", Input: json.RawMessage(`{}`)}},
	}}
	client := NewClient(&Router{primary: primary}, 1024)

	items, err := client.ChatWithTools(context.Background(), []model.ConversationMessage{
		{Role: model.RoleSystem, Content: "you are a geo agent"},
		{Role: model.RoleUser, Content: "show me parcels"},
	}, []ToolSpec{{Name: "add_layer", Description: "adds a layer"}})
	if err != nil {
		t.Fatalf("ChatWithTools returned error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected a text item and a tool_call item, got %+v", items)
	}
	if items[0].Kind != ItemText || items[0].Text != "done" {
		t.Errorf("unexpected first item: %+v", items[0])
	}
	if items[1].Kind != ItemToolCall || items[1].ToolName != "add_layer" {
		t.Errorf("unexpected second item: %+v", items[1])
	}
}

func TestClient_StructuredParse_ForcesSyntheticToolAndReturnsInput(t *testing.T) {
	primary := &fakeNamedProvider{name: "primary", response: Response{
		ToolCalls: []ToolCall{{ID: "call_1", Name: structuredOutputTool, Input: json.RawMessage(`{"terms":["lot size"]}`)}},
	}}
	client := NewClient(&Router{primary: primary}, 1024)

	raw, err := client.StructuredParse(context.Background(), []model.ConversationMessage{
		{Role: model.RoleUser, Content: "how big is this lot?"},
	}, map[string]any{"type": "object"})
	if err != nil {
		t.Fatalf("StructuredParse returned error: %v", err)
	}
	if string(raw) != `{"terms":["lot size"]}` {
		t.Errorf("expected the tool's raw input back, got %s", raw)
	}
}

func TestClient_StructuredParse_MissingToolCallIsAnError(t *testing.T) {
	primary := &fakeNamedProvider{name: "primary", response: Response{Text: "I can't do that"}}
	client := NewClient(&Router{primary: primary}, 1024)

	_, err := client.StructuredParse(context.Background(), []model.ConversationMessage{
		{Role: model.RoleUser, Content: "hi"},
	}, map[string]any{"type": "object"})
	if err == nil {
		t.Fatal("expected an error when the model never calls the structured tool")
	}
}

func TestEncodeHistory_FoldsToolCallAndOutputIntoContentBlocks(t *testing.T) {
	system, msgs, err := encodeHistory([]model.ConversationMessage{
		{Role: model.RoleSystem, Content: "sys"},
		{Role: model.RoleUser, Content: "add a layer"},
		{Role: model.RoleToolCall, ToolName: "add_layer", ToolCallID: "call_1", Arguments: json.RawMessage(`{}`)},
		{Role: model.RoleToolOutput, ToolCallID: "call_1", Content: "layer added"},
	})
	if err != nil {
		t.Fatalf("encodeHistory returned error: %v", err)
	}
	if system != "sys" {
		t.Errorf("expected system prompt %q, got %q", "sys", system)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected 3 non-system messages, got %d: %+v", len(msgs), msgs)
	}
	if msgs[1].Parts[0].Kind != BlockToolUse || msgs[1].Parts[0].ToolUse.Name != "add_layer" {
		t.Errorf("expected tool_call to fold into a tool_use block, got %+v", msgs[1])
	}
	if msgs[2].Parts[0].Kind != BlockToolResult || msgs[2].Parts[0].ToolResult.Content != "layer added" {
		t.Errorf("expected tool_output to fold into a tool_result block, got %+v", msgs[2])
	}
}
