// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package kernel

import (
	"context"
	"fmt"

	"geoagent/platform/internal/llmprovider"
	"geoagent/platform/internal/mapstate"
	"geoagent/platform/internal/model"
	"geoagent/platform/shared/logger"
)

// SystemMessageBuilder produces the string installed as message 0 on
// every turn, given the user's current text.
type SystemMessageBuilder func(ctx context.Context, a *Agent, userText string) (string, error)

// PreChatTransform rewrites the user's raw text before it's appended to
// history.
type PreChatTransform func(ctx context.Context, a *Agent, userText string) (string, error)

// PostChatTransform rewrites the assistant's final reply before it's
// appended to history and returned.
type PostChatTransform func(ctx context.Context, a *Agent, reply string) (string, error)

// Agent is one session's kernel: its message history, its Map State, and
// its declared tools/sub-types. Not safe for concurrent use — a session
// owns exactly one Agent and drives it from a single goroutine, matching
// spec.md §5's "cooperative, single-task-per-chat-session" model.
type Agent struct {
	SessionID string

	llm    llmprovider.Client
	logger *logger.Logger
	Map    *mapstate.MapState

	messages []model.ConversationMessage

	systemBuilder SystemMessageBuilder
	preChat       PreChatTransform
	postChat      PostChatTransform

	tools    map[string]*toolDef
	toolOrd  []string
	subtypes map[string]*subtypeDef
}

// New builds an Agent for one session.
func New(sessionID string, llm llmprovider.Client, log *logger.Logger) *Agent {
	return &Agent{
		SessionID: sessionID,
		llm:       llm,
		logger:    log,
		Map:       mapstate.New(),
		tools:     make(map[string]*toolDef),
		subtypes:  make(map[string]*subtypeDef),
	}
}

// SetSystemMessageBuilder installs the (required, exactly one) system
// message builder.
func (a *Agent) SetSystemMessageBuilder(fn SystemMessageBuilder) { a.systemBuilder = fn }

// SetPreChat installs an optional transform over the user's raw text.
func (a *Agent) SetPreChat(fn PreChatTransform) { a.preChat = fn }

// SetPostChat installs an optional transform over the assistant's final
// reply.
func (a *Agent) SetPostChat(fn PostChatTransform) { a.postChat = fn }

// RegisterTool declares one callable tool. paramSchema may reference a
// registered sub-type anywhere a property value would otherwise be a
// JSON-schema fragment, by using the string "#<name>" in its place; it
// may also set a property's "enum" key to a DynamicEnum function instead
// of a fixed []any. Both are resolved fresh at schema synthesis time.
func (a *Agent) RegisterTool(name, description string, paramSchema map[string]any, required []string, handler ToolHandler, opts ...ToolOption) {
	t := &toolDef{name: name, description: description, paramSchema: paramSchema, required: required, handler: handler}
	for _, opt := range opts {
		opt(t)
	}
	if _, exists := a.tools[name]; !exists {
		a.toolOrd = append(a.toolOrd, name)
	}
	a.tools[name] = t
}

// RegisterSubtype declares one named parameter sub-type a tool's
// paramSchema may reference via the "#<name>" sentinel marker.
func (a *Agent) RegisterSubtype(name, description string, builder SubtypeBuilder) {
	a.subtypes[name] = &subtypeDef{name: name, description: description, builder: builder}
}

// History returns the agent's message list. The slice is returned as-is
// for inspection (e.g. logging, usage accounting); callers must not
// mutate it — Chat is the only writer.
func (a *Agent) History() []model.ConversationMessage {
	return a.messages
}

// Reset clears the agent's message history (used when a session starts a
// fresh conversation without discarding its Map State).
func (a *Agent) Reset() {
	a.messages = nil
}

func (a *Agent) toolNames() []string {
	return a.toolOrd
}

func (a *Agent) lookupTool(name string) (*toolDef, error) {
	t, ok := a.tools[name]
	if !ok {
		return nil, fmt.Errorf("kernel: no tool registered with name %q", name)
	}
	return t, nil
}
