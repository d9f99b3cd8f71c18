// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package kernel

import (
	"context"
	"fmt"
	"strings"

	"geoagent/platform/internal/llmprovider"
)

// synthesizeTools resolves every registered tool's parameter schema
// against live agent state and returns the flat ToolSpec list Chat hands
// to internal/llmprovider.Client.ChatWithTools.
func (a *Agent) synthesizeTools(ctx context.Context, userText string) ([]llmprovider.ToolSpec, error) {
	specs := make([]llmprovider.ToolSpec, 0, len(a.tools))
	for _, name := range a.toolNames() {
		t := a.tools[name]

		definitions := map[string]any{}
		resolvedProps, err := a.resolveSchemaNode(ctx, userText, t.paramSchema, definitions)
		if err != nil {
			return nil, fmt.Errorf("kernel: failed to synthesize schema for tool %q: %w", name, err)
		}

		schema := map[string]any{
			"type":       "object",
			"properties": resolvedProps,
		}
		if len(t.required) > 0 {
			schema["required"] = t.required
		}
		if len(definitions) > 0 {
			schema["definitions"] = definitions
		}

		specs = append(specs, llmprovider.ToolSpec{
			Name:        t.name,
			Description: t.description,
			InputSchema: schema,
		})
	}
	return specs, nil
}

// resolveSchemaNode walks one JSON-schema fragment (expressed as Go
// map[string]any/[]any/primitives), replacing:
//   - a "#<name>" sentinel string value with {"$ref": "#/definitions/<name>"},
//     invoking that sub-type's builder once and recording its output in
//     definitions (only sub-types actually referenced end up there);
//   - a DynamicEnum value with the []string it resolves to, against live
//     agent state.
func (a *Agent) resolveSchemaNode(ctx context.Context, userText string, node any, definitions map[string]any) (any, error) {
	switch v := node.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, val := range v {
			resolved, err := a.resolveSchemaValue(ctx, userText, val, definitions)
			if err != nil {
				return nil, err
			}
			out[key] = resolved
		}
		return out, nil

	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			resolved, err := a.resolveSchemaNode(ctx, userText, val, definitions)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil

	default:
		return v, nil
	}
}

func (a *Agent) resolveSchemaValue(ctx context.Context, userText string, val any, definitions map[string]any) (any, error) {
	switch v := val.(type) {
	case DynamicEnum:
		values, err := v(ctx, a)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve dynamic enum: %w", err)
		}
		out := make([]any, len(values))
		for i, s := range values {
			out[i] = s
		}
		return out, nil

	case string:
		if name, ok := subtypeMarker(v); ok {
			if err := a.resolveSubtype(ctx, userText, name, definitions); err != nil {
				return nil, err
			}
			return map[string]any{"$ref": "#/definitions/" + name}, nil
		}
		return v, nil

	default:
		return a.resolveSchemaNode(ctx, userText, val, definitions)
	}
}

func subtypeMarker(s string) (string, bool) {
	if strings.HasPrefix(s, "#") && len(s) > 1 {
		return s[1:], true
	}
	return "", false
}

func (a *Agent) resolveSubtype(ctx context.Context, userText, name string, definitions map[string]any) error {
	if _, already := definitions[name]; already {
		return nil
	}
	st, ok := a.subtypes[name]
	if !ok {
		return fmt.Errorf("unknown sub-type %q", name)
	}
	props, err := st.builder(ctx, a, userText)
	if err != nil {
		return fmt.Errorf("failed to build sub-type %q: %w", name, err)
	}
	definitions[name] = props
	return nil
}
