// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package llmprovider

import (
	"context"
	"fmt"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// MessagesClient is the subset of *sdk.MessageService the Provider calls,
// letting tests substitute a stub.
type MessagesClient interface {
	New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

// Provider is a single Claude model bound to one MessagesClient.
type Provider struct {
	client       MessagesClient
	model        string
	name         string
	defaultMax   int
	capabilities []string
}

// NewProvider wraps an Anthropic messages client for the given model.
func NewProvider(name, model string, client MessagesClient, defaultMaxTokens int) *Provider {
	return &Provider{
		client:       client,
		model:        model,
		name:         name,
		defaultMax:   defaultMaxTokens,
		capabilities: []string{"tool_use", "vision"},
	}
}

// NewProviderFromAPIKey builds a Provider using the SDK's default HTTP
// client, authenticated with apiKey.
func NewProviderFromAPIKey(name, apiKey, model string, defaultMaxTokens int) *Provider {
	c := sdk.NewClient(option.WithAPIKey(apiKey))
	return NewProvider(name, model, &c.Messages, defaultMaxTokens)
}

// Name identifies the provider, matching the teacher's LLMProvider.Name.
func (p *Provider) Name() string { return p.name }

// GetCapabilities reports the feature set this provider supports.
func (p *Provider) GetCapabilities() []string { return p.capabilities }

// Complete issues one Messages.New call and translates the result back
// into the kernel's Response shape.
func (p *Provider) Complete(ctx context.Context, req Request) (Response, error) {
	params, err := p.buildParams(req)
	if err != nil {
		return Response{}, err
	}

	msg, err := p.client.New(ctx, params)
	if err != nil {
		return Response{}, fmt.Errorf("llmprovider: %s: %w", p.name, err)
	}
	return translateMessage(msg), nil
}

func (p *Provider) buildParams(req Request) (sdk.MessageNewParams, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = p.defaultMax
	}
	if maxTokens <= 0 {
		return sdk.MessageNewParams{}, fmt.Errorf("llmprovider: max tokens must be positive")
	}

	messages, err := encodeMessages(req.Messages)
	if err != nil {
		return sdk.MessageNewParams{}, err
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(p.model),
		MaxTokens: int64(maxTokens),
		Messages:  messages,
	}
	if req.SystemPrompt != "" {
		params.System = []sdk.TextBlockParam{{Text: req.SystemPrompt}}
	}
	if len(req.Tools) > 0 {
		tools, err := encodeTools(req.Tools)
		if err != nil {
			return sdk.MessageNewParams{}, err
		}
		params.Tools = tools
	}
	if req.ForceTool != "" {
		if !hasTool(req.Tools, req.ForceTool) {
			return sdk.MessageNewParams{}, fmt.Errorf("llmprovider: force tool %q is not among the request's tools", req.ForceTool)
		}
		params.ToolChoice = sdk.ToolChoiceParamOfTool(req.ForceTool)
	}
	return params, nil
}

func hasTool(tools []ToolSchema, name string) bool {
	for _, t := range tools {
		if t.Name == name {
			return true
		}
	}
	return false
}

func encodeMessages(msgs []Message) ([]sdk.MessageParam, error) {
	out := make([]sdk.MessageParam, 0, len(msgs))
	for _, m := range msgs {
		blocks := make([]sdk.ContentBlockParamUnion, 0, len(m.Parts))
		for _, part := range m.Parts {
			block, err := encodeBlock(part)
			if err != nil {
				return nil, err
			}
			blocks = append(blocks, block)
		}
		switch m.Role {
		case RoleUser:
			out = append(out, sdk.NewUserMessage(blocks...))
		case RoleAssistant:
			out = append(out, sdk.NewAssistantMessage(blocks...))
		default:
			return nil, fmt.Errorf("llmprovider: unknown message role %q", m.Role)
		}
	}
	return out, nil
}

func encodeBlock(part ContentBlock) (sdk.ContentBlockParamUnion, error) {
	switch part.Kind {
	case BlockText:
		return sdk.NewTextBlock(part.Text), nil
	case BlockToolUse:
		return sdk.NewToolUseBlock(part.ToolUse.ID, part.ToolUse.Input, part.ToolUse.Name), nil
	case BlockToolResult:
		return sdk.NewToolResultBlock(part.ToolResult.ToolUseID, part.ToolResult.Content, part.ToolResult.IsError), nil
	default:
		return sdk.ContentBlockParamUnion{}, fmt.Errorf("llmprovider: unknown content block kind %q", part.Kind)
	}
}

func encodeTools(schemas []ToolSchema) ([]sdk.ToolUnionParam, error) {
	out := make([]sdk.ToolUnionParam, 0, len(schemas))
	for _, s := range schemas {
		u := sdk.ToolUnionParamOfTool(sdk.ToolInputSchemaParam{ExtraFields: s.InputSchema}, s.Name)
		if u.OfTool != nil {
			u.OfTool.Description = sdk.String(s.Description)
		}
		out = append(out, u)
	}
	return out, nil
}

func translateMessage(msg *sdk.Message) Response {
	resp := Response{StopReason: string(msg.StopReason)}
	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			resp.Text += block.Text
		case "tool_use":
			resp.ToolCalls = append(resp.ToolCalls, ToolCall{ID: block.ID, Name: block.Name, Input: block.Input})
		}
	}
	resp.Usage = Usage{
		InputTokens:      int(msg.Usage.InputTokens),
		OutputTokens:     int(msg.Usage.OutputTokens),
		CacheReadTokens:  int(msg.Usage.CacheReadInputTokens),
		CacheWriteTokens: int(msg.Usage.CacheCreationInputTokens),
	}
	return resp
}
