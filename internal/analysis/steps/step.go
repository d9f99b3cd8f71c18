// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package steps

import "geoagent/platform/internal/sqlrunner"

// Step is the common shape of every analysis step variant.
type Step interface {
	StepID() string
	StepName() string
	Reasoning() string
	SourceRefs() []*SourceTableRef
}

// SQLStep is a Step that runs against PostGIS and produces a new table.
// Reporting steps (PlotlyMapLayerStep, SaveTableStep) implement Step only —
// the executor never asks them for a template.
type SQLStep interface {
	Step
	TemplateName() string
	TemplateArgs(ctx *ResolutionContext) (sqlrunner.TemplateArgs, error)
	OutputTable() string
}

// Base carries the fields every variant shares: a stable id, a descriptive
// name, and the LLM's stated reasoning for choosing this step.
type Base struct {
	ID     string
	Name   string
	Reason string
}

func (b Base) StepID() string    { return b.ID }
func (b Base) StepName() string  { return b.Name }
func (b Base) Reasoning() string { return b.Reason }
