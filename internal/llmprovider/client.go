// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package llmprovider

import (
	"context"
	"encoding/json"
	"fmt"

	"geoagent/platform/internal/model"
)

// ToolSpec is the kernel-facing description of one callable tool: name,
// description, and a fully-resolved (no #<subtype> markers remaining)
// JSON-schema input shape.
type ToolSpec struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// ResponseItemKind distinguishes the two shapes ChatWithTools may return.
type ResponseItemKind string

const (
	ItemText     ResponseItemKind = "text"
	ItemToolCall ResponseItemKind = "tool_call"
)

// ResponseItem is one piece of an assistant turn, in the order the model
// emitted it: either a text segment or a tool invocation.
type ResponseItem struct {
	Kind ResponseItemKind
	Text string

	ToolCallID string
	ToolName   string
	ToolInput  json.RawMessage
}

// Client is the Agent Kernel's two LLM operations (spec.md §6): an
// open-ended tool-calling turn, and a schema-constrained structured parse
// (used by the planner for plan generation and by the Document Store's
// SmartQuery for search-term expansion).
type Client interface {
	ChatWithTools(ctx context.Context, messages []model.ConversationMessage, tools []ToolSpec) ([]ResponseItem, error)
	StructuredParse(ctx context.Context, messages []model.ConversationMessage, schema map[string]any) (json.RawMessage, error)
}

// structuredOutputTool is the synthetic tool name StructuredParse forces
// the model to call so its reply is shaped exactly like schema.
const structuredOutputTool = "emit_structured_output"

// routerClient implements Client over a Router, translating between the
// kernel's model.ConversationMessage history and this package's Message
// shape.
type routerClient struct {
	router    *Router
	maxTokens int
}

// NewClient builds a Client backed by router.
func NewClient(router *Router, maxTokens int) Client {
	return &routerClient{router: router, maxTokens: maxTokens}
}

func (c *routerClient) ChatWithTools(ctx context.Context, messages []model.ConversationMessage, tools []ToolSpec) ([]ResponseItem, error) {
	system, history, err := encodeHistory(messages)
	if err != nil {
		return nil, err
	}

	resp, err := c.router.Complete(ctx, Request{
		SystemPrompt: system,
		Messages:     history,
		Tools:        encodeToolSpecs(tools),
		MaxTokens:    c.maxTokens,
	})
	if err != nil {
		return nil, err
	}
	return decodeResponse(resp), nil
}

func (c *routerClient) StructuredParse(ctx context.Context, messages []model.ConversationMessage, schema map[string]any) (json.RawMessage, error) {
	system, history, err := encodeHistory(messages)
	if err != nil {
		return nil, err
	}

	resp, err := c.router.Complete(ctx, Request{
		SystemPrompt: system,
		Messages:     history,
		Tools: []ToolSchema{{
			Name:        structuredOutputTool,
			Description: "Emit the final answer matching the required schema.",
			InputSchema: schema,
		}},
		ForceTool: structuredOutputTool,
		MaxTokens: c.maxTokens,
	})
	if err != nil {
		return nil, err
	}
	for _, call := range resp.ToolCalls {
		if call.Name == structuredOutputTool {
			return call.Input, nil
		}
	}
	return nil, fmt.Errorf("llmprovider: model did not emit %q", structuredOutputTool)
}

func encodeToolSpecs(specs []ToolSpec) []ToolSchema {
	out := make([]ToolSchema, len(specs))
	for i, s := range specs {
		out[i] = ToolSchema{Name: s.Name, Description: s.Description, InputSchema: s.InputSchema}
	}
	return out
}

// encodeHistory splits the kernel's flat message list into the system
// prompt (message 0) and the remaining user/assistant/tool turns, folding
// tool_call/tool_output entries into the preceding assistant/user message
// as tool_use/tool_result content blocks.
func encodeHistory(messages []model.ConversationMessage) (string, []Message, error) {
	var system string
	var out []Message

	for _, m := range messages {
		switch m.Role {
		case model.RoleSystem:
			system = m.Content
		case model.RoleUser:
			out = append(out, Message{Role: RoleUser, Parts: []ContentBlock{TextBlock(m.Content)}})
		case model.RoleAssistant:
			out = append(out, Message{Role: RoleAssistant, Parts: []ContentBlock{TextBlock(m.Content)}})
		case model.RoleToolCall:
			out = append(out, Message{Role: RoleAssistant, Parts: []ContentBlock{ToolUse(ToolUseBlock{
				ID: m.ToolCallID, Name: m.ToolName, Input: m.Arguments,
			})}})
		case model.RoleToolOutput:
			out = append(out, Message{Role: RoleUser, Parts: []ContentBlock{ToolResult(ToolResultBlock{
				ToolUseID: m.ToolCallID, Content: m.Content,
			})}})
		default:
			return "", nil, fmt.Errorf("llmprovider: unknown message role %q", m.Role)
		}
	}
	return system, out, nil
}

func decodeResponse(resp Response) []ResponseItem {
	var items []ResponseItem
	if resp.Text != "" {
		items = append(items, ResponseItem{Kind: ItemText, Text: resp.Text})
	}
	for _, call := range resp.ToolCalls {
		items = append(items, ResponseItem{
			Kind: ItemToolCall, ToolCallID: call.ID, ToolName: call.Name, ToolInput: call.Input,
		})
	}
	return items
}
