// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package transport

import "encoding/json"

// FrameType tags every inbound and outbound frame, matching spec.md §6's
// enumerated transport contract.
type FrameType string

const (
	FrameUser         FrameType = "user"
	FrameUserMessage  FrameType = "user_message"
	FrameAIResponse   FrameType = "ai_response"
	FrameTool         FrameType = "tool"
	FrameAnalysis     FrameType = "analysis"
	FrameFigureUpdate FrameType = "figure_update"
)

// UserFrame is the one inbound frame shape: the user's free-text message.
type UserFrame struct {
	Type    FrameType `json:"type"`
	Message string    `json:"message"`
}

// NewUserFrame builds a UserFrame with its type tag set.
func NewUserFrame(message string) UserFrame {
	return UserFrame{Type: FrameUser, Message: message}
}

// AIResponseFrame echoes the user's message back, or carries the
// assistant's final reply, depending on Type.
type AIResponseFrame struct {
	Type    FrameType `json:"type"`
	Message string    `json:"message"`
}

// NewUserMessageEcho builds the "user_message" echo frame a server sends
// back immediately on receiving a UserFrame.
func NewUserMessageEcho(message string) AIResponseFrame {
	return AIResponseFrame{Type: FrameUserMessage, Message: message}
}

// NewAIResponseFrame builds the "ai_response" frame carrying the Agent
// Kernel's final turn reply.
func NewAIResponseFrame(message string) AIResponseFrame {
	return AIResponseFrame{Type: FrameAIResponse, Message: message}
}

// ToolFrame reports one tool invocation's lifecycle: its name, the raw
// argument JSON, and the kernel's progress status for it.
type ToolFrame struct {
	Type     FrameType       `json:"type"`
	ToolCall string          `json:"tool_call"`
	ToolArgs json.RawMessage `json:"tool_args,omitempty"`
	Status   string          `json:"status"`
}

// NewToolFrame builds a ToolFrame.
func NewToolFrame(toolCall string, toolArgs json.RawMessage, status string) ToolFrame {
	return ToolFrame{Type: FrameTool, ToolCall: toolCall, ToolArgs: toolArgs, Status: status}
}

// AnalysisFrame reports one analysis plan's execution progress: which
// step is running, its status, and overall fractional progress in
// [0,1].
type AnalysisFrame struct {
	Type     FrameType `json:"type"`
	ID       string    `json:"id"`
	Query    string    `json:"query"`
	Step     string    `json:"step"`
	Status   string    `json:"status"`
	Progress float64   `json:"progress"`
}

// NewAnalysisFrame builds an AnalysisFrame.
func NewAnalysisFrame(id, query, step, status string, progress float64) AnalysisFrame {
	return AnalysisFrame{Type: FrameAnalysis, ID: id, Query: query, Step: step, Status: status, Progress: progress}
}

// FigureUpdateFrame carries the session's current Map State, as the
// ordered layer summary mapstate.MapState.Status() returns.
type FigureUpdateFrame struct {
	Type   FrameType `json:"type"`
	Figure any       `json:"figure"`
}

// NewFigureUpdateFrame builds a FigureUpdateFrame from a map-state status
// snapshot.
func NewFigureUpdateFrame(figure any) FigureUpdateFrame {
	return FigureUpdateFrame{Type: FrameFigureUpdate, Figure: figure}
}
