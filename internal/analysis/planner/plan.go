// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package planner

import "geoagent/platform/internal/analysis/steps"

// AnalysisPlan is a structurally valid, not-yet-resolved sequence of
// analysis steps together with the schema the plan will be materialized
// under.
type AnalysisPlan struct {
	AnalysisName string
	Steps        []steps.Step
}

// SQLSteps returns the subset of Steps that implement steps.SQLStep, in
// declared order.
func (p *AnalysisPlan) SQLSteps() []steps.SQLStep {
	var out []steps.SQLStep
	for _, s := range p.Steps {
		if sql, ok := s.(steps.SQLStep); ok {
			out = append(out, sql)
		}
	}
	return out
}
