// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package kernel

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"geoagent/platform/internal/llmprovider"
	"geoagent/platform/internal/model"
	"geoagent/platform/shared/logger"
)

type scriptedClient struct {
	calls     int
	responses [][]llmprovider.ResponseItem
	errs      []error
}

func (c *scriptedClient) ChatWithTools(_ context.Context, _ []model.ConversationMessage, _ []llmprovider.ToolSpec) ([]llmprovider.ResponseItem, error) {
	i := c.calls
	c.calls++
	if i < len(c.errs) && c.errs[i] != nil {
		return nil, c.errs[i]
	}
	if i < len(c.responses) {
		return c.responses[i], nil
	}
	return nil, errors.New("scriptedClient: no more scripted responses")
}

func (c *scriptedClient) StructuredParse(context.Context, []model.ConversationMessage, map[string]any) (json.RawMessage, error) {
	return nil, errors.New("not used in these tests")
}

type recordingSubscriber struct {
	events []Event
}

func (r *recordingSubscriber) Emit(e Event) { r.events = append(r.events, e) }

func newTestAgent(client llmprovider.Client) *Agent {
	a := New("session-1", client, logger.New("kernel-test"))
	a.SetSystemMessageBuilder(func(context.Context, *Agent, string) (string, error) {
		return "you are a geospatial assistant", nil
	})
	return a
}

func TestChat_NoToolCallReturnsTextDirectly(t *testing.T) {
	client := &scriptedClient{responses: [][]llmprovider.ResponseItem{
		{{Kind: llmprovider.ItemText, Text: "there are 42 parcels"}},
	}}
	a := newTestAgent(client)
	sub := &recordingSubscriber{}

	reply, err := a.Chat(context.Background(), "how many parcels are there?", sub)
	if err != nil {
		t.Fatalf("Chat returned error: %v", err)
	}
	if reply != "there are 42 parcels" {
		t.Errorf("unexpected reply: %q", reply)
	}
	if client.calls != 1 {
		t.Errorf("expected exactly 1 LLM call when no tool ran, got %d", client.calls)
	}
	if len(a.History()) != 3 {
		t.Fatalf("expected [system, user, assistant], got %d messages: %+v", len(a.History()), a.History())
	}
}

func TestChat_ToolCallDispatchesHandlerThenReinvokes(t *testing.T) {
	var handlerArgs json.RawMessage
	client := &scriptedClient{responses: [][]llmprovider.ResponseItem{
		{{Kind: llmprovider.ItemToolCall, ToolCallID: "call_1", ToolName: "add_layer", ToolInput: json.RawMessage(`{"table":"parcels"}`)}},
		{{Kind: llmprovider.ItemText, Text: "added the parcels layer"}},
	}}
	a := newTestAgent(client)
	a.RegisterTool("add_layer", "adds a map layer", map[string]any{
		"table": map[string]any{"type": "string"},
	}, []string{"table"}, func(_ context.Context, _ *Agent, args json.RawMessage) (any, error) {
		handlerArgs = args
		return "layer added", nil
	})
	sub := &recordingSubscriber{}

	reply, err := a.Chat(context.Background(), "add the parcels layer", sub)
	if err != nil {
		t.Fatalf("Chat returned error: %v", err)
	}
	if reply != "added the parcels layer" {
		t.Errorf("unexpected reply: %q", reply)
	}
	if client.calls != 2 {
		t.Errorf("expected 2 LLM calls (dispatch + reinvoke), got %d", client.calls)
	}
	if string(handlerArgs) != `{"table":"parcels"}` {
		t.Errorf("unexpected handler args: %s", handlerArgs)
	}

	var statuses []EventStatus
	for _, e := range sub.events {
		statuses = append(statuses, e.Status)
	}
	if len(statuses) < 3 || statuses[0] != StatusGenerating || statuses[len(statuses)-1] != StatusSucceeded {
		t.Errorf("unexpected event sequence: %+v", statuses)
	}

	history := a.History()
	foundCall, foundOutput := false, false
	for _, m := range history {
		if m.Role == model.RoleToolCall && m.ToolName == "add_layer" {
			foundCall = true
		}
		if m.Role == model.RoleToolOutput && m.Content == "layer added" {
			foundOutput = true
		}
	}
	if !foundCall || !foundOutput {
		t.Errorf("expected history to record the tool call and output, got %+v", history)
	}
}

func TestChat_ToolHandlerErrorRecordsFailureOutputWithoutAbortingTurn(t *testing.T) {
	client := &scriptedClient{responses: [][]llmprovider.ResponseItem{
		{{Kind: llmprovider.ItemToolCall, ToolCallID: "call_1", ToolName: "add_layer", ToolInput: json.RawMessage(`{}`)}},
		{{Kind: llmprovider.ItemText, Text: "sorry, that table does not exist"}},
	}}
	a := newTestAgent(client)
	a.RegisterTool("add_layer", "adds a map layer", map[string]any{}, nil, func(context.Context, *Agent, json.RawMessage) (any, error) {
		return nil, errors.New("unknown table")
	})
	sub := &recordingSubscriber{}

	reply, err := a.Chat(context.Background(), "add a layer", sub)
	if err != nil {
		t.Fatalf("Chat returned error: %v", err)
	}
	if reply != "sorry, that table does not exist" {
		t.Errorf("unexpected reply: %q", reply)
	}

	sawToolError := false
	for _, e := range sub.events {
		if e.Status == StatusError && e.Tool == "add_layer" {
			sawToolError = true
		}
	}
	if !sawToolError {
		t.Errorf("expected a tool-scoped error event, got %+v", sub.events)
	}
}

func TestChat_FirstLLMCallErrorReturnsCannedReply(t *testing.T) {
	client := &scriptedClient{errs: []error{errors.New("provider unavailable")}}
	a := newTestAgent(client)
	sub := &recordingSubscriber{}

	reply, err := a.Chat(context.Background(), "hello", sub)
	if err != nil {
		t.Fatalf("Chat should not return a Go error for an LLM failure, got: %v", err)
	}
	if reply != cannedFailureReply {
		t.Errorf("expected canned failure reply, got %q", reply)
	}
	if sub.events[len(sub.events)-1].Status != StatusError {
		t.Errorf("expected last event to be an error status, got %+v", sub.events)
	}
}

func TestChat_HandlerCanRecoverTurnSubscriberFromContext(t *testing.T) {
	var seenSub Subscriber
	client := &scriptedClient{responses: [][]llmprovider.ResponseItem{
		{{Kind: llmprovider.ItemToolCall, ToolCallID: "call_1", ToolName: "run_analysis", ToolInput: json.RawMessage(`{}`)}},
		{{Kind: llmprovider.ItemText, Text: "done"}},
	}}
	a := newTestAgent(client)
	a.RegisterTool("run_analysis", "runs a multi-step analysis", map[string]any{}, nil, func(ctx context.Context, _ *Agent, _ json.RawMessage) (any, error) {
		seenSub = SubscriberFromContext(ctx)
		seenSub.Emit(Event{Status: StatusProcessing, Tool: "run_analysis", Message: "step 1 of 2"})
		return "ok", nil
	})
	sub := &recordingSubscriber{}

	if _, err := a.Chat(context.Background(), "run the analysis", sub); err != nil {
		t.Fatalf("Chat returned error: %v", err)
	}
	if seenSub != sub {
		t.Errorf("expected the handler to recover the same Subscriber passed to Chat")
	}

	found := false
	for _, e := range sub.events {
		if e.Message == "step 1 of 2" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected the handler's nested progress event to reach the turn's subscriber, got %+v", sub.events)
	}
}

func TestSubscriberFromContext_ReturnsNoopWhenAbsent(t *testing.T) {
	sub := SubscriberFromContext(context.Background())
	sub.Emit(Event{Status: StatusGenerating}) // must not panic
}

func TestChat_SystemMessageIsReplacedInPlaceNotAppended(t *testing.T) {
	client := &scriptedClient{responses: [][]llmprovider.ResponseItem{
		{{Kind: llmprovider.ItemText, Text: "first"}},
		{{Kind: llmprovider.ItemText, Text: "second"}},
	}}
	a := newTestAgent(client)

	if _, err := a.Chat(context.Background(), "first question", nil); err != nil {
		t.Fatalf("first Chat returned error: %v", err)
	}
	if _, err := a.Chat(context.Background(), "second question", nil); err != nil {
		t.Fatalf("second Chat returned error: %v", err)
	}

	history := a.History()
	systemCount := 0
	for _, m := range history {
		if m.Role == model.RoleSystem {
			systemCount++
		}
	}
	if systemCount != 1 {
		t.Errorf("expected exactly 1 system message across two turns, got %d", systemCount)
	}
	if history[0].Role != model.RoleSystem {
		t.Errorf("expected message 0 to remain the system message, got %+v", history[0])
	}
}
