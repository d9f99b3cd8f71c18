// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package llmprovider

import "encoding/json"

// Role is the closed set of message roles the kernel exchanges with a
// provider.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of the conversation sent to Complete. The kernel
// never sends a system message through Messages; Request.SystemPrompt
// carries it instead (matching the Anthropic Messages API's separate
// system parameter).
type Message struct {
	Role  Role
	Parts []ContentBlock
}

// ContentBlock is a tagged-union content part of a Message. Exactly one of
// Text, ToolUse, or ToolResult is populated, selected by Kind.
type ContentBlock struct {
	Kind       BlockKind
	Text       string
	ToolUse    *ToolUseBlock
	ToolResult *ToolResultBlock
}

// BlockKind is the closed set of content block variants.
type BlockKind string

const (
	BlockText       BlockKind = "text"
	BlockToolUse    BlockKind = "tool_use"
	BlockToolResult BlockKind = "tool_result"
)

// TextBlock builds a text content block.
func TextBlock(text string) ContentBlock { return ContentBlock{Kind: BlockText, Text: text} }

// ToolUseBlock is an assistant turn's invocation of a tool.
type ToolUseBlock struct {
	ID    string
	Name  string
	Input json.RawMessage
}

// ToolUse builds a tool_use content block, for replaying an assistant's
// prior tool call back into message history.
func ToolUse(b ToolUseBlock) ContentBlock { return ContentBlock{Kind: BlockToolUse, ToolUse: &b} }

// ToolResultBlock is the tool runtime's reply to one ToolUseBlock.
type ToolResultBlock struct {
	ToolUseID string
	Content   string
	IsError   bool
}

// ToolResult builds a tool_result content block.
func ToolResult(b ToolResultBlock) ContentBlock {
	return ContentBlock{Kind: BlockToolResult, ToolResult: &b}
}

// ToolSchema is one tool's JSON-schema-described signature, as synthesized
// by internal/kernel from a registered tool's declared parameters and
// resolved sub-types.
type ToolSchema struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// ToolCall is one tool invocation the model asked the kernel to run.
type ToolCall struct {
	ID    string
	Name  string
	Input json.RawMessage
}

// Usage is per-call token accounting, mirroring sdk.Message's Usage block.
type Usage struct {
	InputTokens      int
	OutputTokens     int
	CacheReadTokens  int
	CacheWriteTokens int
}

// Request is one call to Complete.
type Request struct {
	SystemPrompt string
	Messages     []Message
	Tools        []ToolSchema
	MaxTokens    int

	// ForceTool, when non-empty, names a tool from Tools the model must
	// call rather than choosing freely — used by Client.StructuredParse to
	// coerce a JSON-schema-shaped reply out of a single synthetic tool.
	ForceTool string
}

// Response is Complete's result: zero or more text segments, zero or more
// tool calls, and usage accounting.
type Response struct {
	Text       string
	ToolCalls  []ToolCall
	StopReason string
	Usage      Usage
}
