// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package kernel

import (
	"context"
	"encoding/json"
)

// ToolHandler performs a tool's side effect given its parsed arguments
// and returns the value recorded as the tool's output in history. A
// returned error is caught by Chat and turned into a textual failure
// explanation rather than aborting the turn.
type ToolHandler func(ctx context.Context, a *Agent, args json.RawMessage) (any, error)

// ArgsTransform rewrites a tool call's raw argument JSON before the
// handler runs (a pre-processor) — e.g. normalizing a table name's case
// against the live registry.
type ArgsTransform func(ctx context.Context, a *Agent, args json.RawMessage) (json.RawMessage, error)

// ResultTransform rewrites a handler's return value before it's recorded
// as the tool output (a post-processor) — e.g. formatting a row count
// into a sentence.
type ResultTransform func(ctx context.Context, a *Agent, result any) (any, error)

// SubtypeBuilder produces the JSON-schema property map a tool's
// parameter schema references via the "#<name>" sentinel marker,
// resolved fresh at tool-schema synthesis time against live agent state
// (e.g. the current set of registered tables).
type SubtypeBuilder func(ctx context.Context, a *Agent, userText string) (map[string]any, error)

// DynamicEnum marks a parameter schema's "enum" value as resolved at
// synthesis time rather than fixed at registration time, so enums
// reflect current table/layer state.
type DynamicEnum func(ctx context.Context, a *Agent) ([]string, error)

// toolDef is one registered tool.
type toolDef struct {
	name        string
	description string
	paramSchema map[string]any
	required    []string
	handler     ToolHandler
	preChat     ArgsTransform
	postChat    ResultTransform
}

// ToolOption configures optional pre-/post-processors on a registered
// tool.
type ToolOption func(*toolDef)

// WithArgsTransform installs a pre-processor run on the tool's raw
// argument JSON before the handler is invoked.
func WithArgsTransform(fn ArgsTransform) ToolOption {
	return func(t *toolDef) { t.preChat = fn }
}

// WithResultTransform installs a post-processor run on the handler's
// return value before it's recorded as the tool's output.
func WithResultTransform(fn ResultTransform) ToolOption {
	return func(t *toolDef) { t.postChat = fn }
}

// subtypeDef is one registered tool parameter sub-type.
type subtypeDef struct {
	name        string
	description string
	builder     SubtypeBuilder
}
