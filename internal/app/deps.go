// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package app

import (
	"database/sql"
	"sync"
	"text/template"

	"geoagent/platform/common/usage"
	"geoagent/platform/internal/config"
	"geoagent/platform/internal/docstore"
	"geoagent/platform/internal/kernel"
	"geoagent/platform/internal/llmprovider"
	"geoagent/platform/internal/model"
	"geoagent/platform/internal/registry"
	"geoagent/platform/internal/sqlrunner"
	"geoagent/platform/shared/logger"
)

// Deps holds every shared, process-lifetime collaborator the Agent Kernel
// needs to do real work. cmd/orchestrator builds exactly one Deps at
// startup; NewAgent is called once per chat session.
type Deps struct {
	Config   *config.Config
	DB       *sql.DB
	Runner   *sqlrunner.Runner
	Registry *registry.Registry
	Fields   *docstore.Store
	LLM      llmprovider.Client
	Logger   *logger.Logger
	Usage    *usage.Recorder

	termExpander *llmTermExpander

	promptOnce sync.Once
	promptTmpl *template.Template
	promptErr  error
}

// NewDeps assembles Deps, wiring the term expander used by
// search_field_reference and a usage.Recorder backed by db (nil db makes
// every recording call a no-op, so usage accounting is always safe to
// wire regardless of whether the deployment wants it).
func NewDeps(cfg *config.Config, db *sql.DB, runner *sqlrunner.Runner, reg *registry.Registry, fields *docstore.Store, llm llmprovider.Client, log *logger.Logger) *Deps {
	return &Deps{
		Config:       cfg,
		DB:           db,
		Runner:       runner,
		Registry:     reg,
		Fields:       fields,
		LLM:          llm,
		Logger:       log,
		Usage:        usage.NewRecorder(db),
		termExpander: &llmTermExpander{client: llm},
	}
}

// NewAgent builds a fresh kernel.Agent for one chat session: the system-
// message builder and the full registered tool/sub-type set.
func (d *Deps) NewAgent(sessionID string) *kernel.Agent {
	a := kernel.New(sessionID, d.LLM, d.Logger)
	a.SetSystemMessageBuilder(d.buildSystemMessage)
	d.registerTools(a)
	return a
}

// lookupTable adapts Registry.Query to planner.TableLookup's single-name
// shape, matching by either bare name or schema-qualified name.
func (d *Deps) lookupTable(name string) (model.TableDescriptor, bool) {
	for _, t := range d.Registry.Query() {
		if t.Name == name || t.QualifiedName() == name {
			return t, true
		}
	}
	return model.TableDescriptor{}, false
}
