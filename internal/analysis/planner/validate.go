// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package planner

import (
	"encoding/json"
	"fmt"
)

// Validate checks raw against schema and, on success, converts it into an
// AnalysisPlan. Any schema deviation or structural problem (unknown step
// kind, a source reference that resolves by name to a table outside the
// whitelist) is reported as a *ValidationError; no SQL runs until this
// succeeds.
func Validate(raw json.RawMessage, schema *PlanSchema) (*AnalysisPlan, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}

	if err := schema.compiled.Validate(doc); err != nil {
		return nil, &ValidationError{Reason: err.Error()}
	}

	var wire wirePlan
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("failed to decode plan: %v", err)}
	}

	plan := &AnalysisPlan{AnalysisName: wire.AnalysisName}
	for _, ws := range wire.Steps {
		step, err := ws.toStep()
		if err != nil {
			return nil, &ValidationError{Reason: err.Error()}
		}
		plan.Steps = append(plan.Steps, step)
	}

	if err := validateNameReferences(plan, schema); err != nil {
		return nil, err
	}

	return plan, nil
}

// validateNameReferences rejects a by-name source reference that names a
// table outside the whitelist the schema was built from. JSON Schema
// enums already constrain this for the string case, but the check is
// repeated here as the single gate every construction path (including
// future non-schema callers) goes through.
func validateNameReferences(plan *AnalysisPlan, schema *PlanSchema) error {
	for _, step := range plan.Steps {
		for _, ref := range step.SourceRefs() {
			if ref == nil {
				continue
			}
			if _, isIndex := ref.IsIndex(); isIndex {
				continue
			}
			if !schema.KnownTable(ref.Name()) {
				return &ValidationError{Reason: fmt.Sprintf("step %q references unknown table %q", step.StepID(), ref.Name())}
			}
		}
	}
	return nil
}
