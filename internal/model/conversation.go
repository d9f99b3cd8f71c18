// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package model

import "encoding/json"

// Role is the tag of a ConversationMessage.
type Role string

const (
	RoleSystem     Role = "system"
	RoleUser       Role = "user"
	RoleAssistant  Role = "assistant"
	RoleToolCall   Role = "tool_call"
	RoleToolOutput Role = "tool_output"
)

// ConversationMessage is one entry in a session's append-only message list.
// Element 0 is always the current system message and is the only element
// ever replaced rather than appended; everything else is appended in the
// order the kernel observed it.
type ConversationMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content,omitempty"`

	// ToolName, ToolCallID, and Arguments are populated only for
	// RoleToolCall/RoleToolOutput entries.
	ToolName   string          `json:"tool_name,omitempty"`
	ToolCallID string          `json:"tool_call_id,omitempty"`
	Arguments  json.RawMessage `json:"arguments,omitempty"`
}
