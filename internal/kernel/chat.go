// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package kernel

import (
	"context"
	"encoding/json"
	"fmt"

	"geoagent/platform/internal/llmprovider"
	"geoagent/platform/internal/model"
)

// cannedFailureReply is appended to history (and returned) when an LLM
// call itself fails, matching spec.md §4.8 steps 5/7's "emit error,
// append a canned assistant message".
const cannedFailureReply = "I ran into a problem and couldn't finish that. Please try again."

// Chat runs one full turn: spec.md §4.8 steps 1-8. sub may be nil, in
// which case events are discarded.
func (a *Agent) Chat(ctx context.Context, userText string, sub Subscriber) (string, error) {
	if sub == nil {
		sub = noopSubscriber{}
	}

	text := userText
	if a.preChat != nil {
		var err error
		text, err = a.preChat(ctx, a, userText)
		if err != nil {
			return "", fmt.Errorf("kernel: pre-chat transform failed: %w", err)
		}
	}

	if a.systemBuilder == nil {
		return "", fmt.Errorf("kernel: no system message builder registered")
	}
	systemMsg, err := a.systemBuilder(ctx, a, text)
	if err != nil {
		return "", fmt.Errorf("kernel: failed to build system message: %w", err)
	}
	a.installSystemMessage(systemMsg)

	a.messages = append(a.messages, model.ConversationMessage{Role: model.RoleUser, Content: text})

	toolSpecs, err := a.synthesizeTools(ctx, text)
	if err != nil {
		sub.Emit(Event{Status: StatusError, Message: err.Error()})
		return "", err
	}
	sub.Emit(Event{Status: StatusGenerating})

	reply, ranTool, err := a.dispatchTurn(ctx, sub, toolSpecs)
	if err != nil {
		a.logFailure("chat dispatch failed", err)
		sub.Emit(Event{Status: StatusError, Message: err.Error()})
		a.messages = append(a.messages, model.ConversationMessage{Role: model.RoleAssistant, Content: cannedFailureReply})
		return cannedFailureReply, nil
	}

	if ranTool {
		reply, err = a.reinvokeForFinalReply(ctx)
		if err != nil {
			a.logFailure("final-reply re-invocation failed", err)
			sub.Emit(Event{Status: StatusError, Message: err.Error()})
			a.messages = append(a.messages, model.ConversationMessage{Role: model.RoleAssistant, Content: cannedFailureReply})
			return cannedFailureReply, nil
		}
	}

	if a.postChat != nil {
		reply, err = a.postChat(ctx, a, reply)
		if err != nil {
			return "", fmt.Errorf("kernel: post-chat transform failed: %w", err)
		}
	}

	a.messages = append(a.messages, model.ConversationMessage{Role: model.RoleAssistant, Content: reply})
	sub.Emit(Event{Status: StatusSucceeded, Message: reply})
	return reply, nil
}

// installSystemMessage replaces message 0, or inserts it if history is
// still empty — the only element ever mutated in place.
func (a *Agent) installSystemMessage(content string) {
	msg := model.ConversationMessage{Role: model.RoleSystem, Content: content}
	if len(a.messages) == 0 {
		a.messages = append(a.messages, msg)
		return
	}
	a.messages[0] = msg
}

// dispatchTurn performs step 5 (the tool-offering LLM call) and step 6
// (walking the response, dispatching any tool calls). It reports
// whether at least one tool ran.
func (a *Agent) dispatchTurn(ctx context.Context, sub Subscriber, toolSpecs []llmprovider.ToolSpec) (string, bool, error) {
	resp, err := a.llm.ChatWithTools(ctx, a.messages, toolSpecs)
	if err != nil {
		return "", false, fmt.Errorf("kernel: LLM call failed: %w", err)
	}

	var text string
	ranTool := false
	for _, item := range resp {
		switch item.Kind {
		case llmprovider.ItemText:
			text = item.Text

		case llmprovider.ItemToolCall:
			ranTool = true
			a.messages = append(a.messages, model.ConversationMessage{
				Role: model.RoleToolCall, ToolName: item.ToolName, ToolCallID: item.ToolCallID, Arguments: item.ToolInput,
			})
			sub.Emit(Event{Status: StatusProcessing, Tool: item.ToolName, Args: item.ToolInput})
			output := a.runTool(ctx, sub, item.ToolName, item.ToolInput)
			a.messages = append(a.messages, model.ConversationMessage{
				Role: model.RoleToolOutput, ToolCallID: item.ToolCallID, Content: output,
			})
		}
	}
	return text, ranTool, nil
}

// runTool looks up the handler, applies pre-/post-processors, and
// returns the textual tool output recorded in history. A failure at any
// stage is caught and turned into a failure explanation rather than
// propagated, matching step 6's "on handler exception emit error and
// record a textual failure explanation as the tool output".
func (a *Agent) runTool(ctx context.Context, sub Subscriber, name string, rawArgs json.RawMessage) string {
	t, err := a.lookupTool(name)
	if err != nil {
		sub.Emit(Event{Status: StatusError, Tool: name, Message: err.Error()})
		return fmt.Sprintf("tool %q failed: %v", name, err)
	}

	args := rawArgs
	if t.preChat != nil {
		args, err = t.preChat(ctx, a, rawArgs)
		if err != nil {
			sub.Emit(Event{Status: StatusError, Tool: name, Message: err.Error()})
			return fmt.Sprintf("tool %q failed: %v", name, err)
		}
	}

	ctx = context.WithValue(ctx, subscriberKey{}, sub)
	result, err := t.handler(ctx, a, args)
	if err != nil {
		sub.Emit(Event{Status: StatusError, Tool: name, Message: err.Error()})
		return fmt.Sprintf("tool %q failed: %v", name, err)
	}

	if t.postChat != nil {
		result, err = t.postChat(ctx, a, result)
		if err != nil {
			sub.Emit(Event{Status: StatusError, Tool: name, Message: err.Error()})
			return fmt.Sprintf("tool %q failed: %v", name, err)
		}
	}

	return stringifyToolResult(result)
}

func (a *Agent) logFailure(message string, err error) {
	if a.logger == nil {
		return
	}
	a.logger.Error(a.SessionID, "", message, map[string]interface{}{"error": err.Error()})
}

func stringifyToolResult(result any) string {
	switch v := result.(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(encoded)
	}
}

// reinvokeForFinalReply is step 7: re-call the LLM with the updated
// history and no tool schemas, to obtain the natural-language reply that
// follows any tool execution.
func (a *Agent) reinvokeForFinalReply(ctx context.Context) (string, error) {
	resp, err := a.llm.ChatWithTools(ctx, a.messages, nil)
	if err != nil {
		return "", fmt.Errorf("kernel: final-reply LLM call failed: %w", err)
	}
	for _, item := range resp {
		if item.Kind == llmprovider.ItemText {
			return item.Text, nil
		}
	}
	return "", nil
}
