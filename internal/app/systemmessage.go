// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"text/template"

	"geoagent/platform/internal/kernel"
)

// defaultSystemPrompt is used when Paths.PromptTemplateDir carries no
// system.md.tmpl override.
const defaultSystemPrompt = `You are a geospatial analysis assistant. You answer questions about parcels,
zoning, and other map layers by querying the data and updating the map; you
never invent table names, column names, or values that aren't backed by a
tool call.

{{if .Tables}}Available tables:
{{range .Tables}}- {{.Name}} ({{.Geometry}} geometry): {{.Columns}}
{{end}}{{else}}No tables are currently registered.
{{end}}
{{if .Layers}}Current map layers:
{{range .Layers}}- {{.LayerID}} ({{.Style}}, color {{.Color}})
{{end}}{{else}}The map currently has no layers.
{{end}}`

type systemPromptTable struct {
	Name     string
	Geometry string
	Columns  string
}

type systemPromptLayer struct {
	LayerID string
	Style   string
	Color   string
}

type systemPromptData struct {
	Tables []systemPromptTable
	Layers []systemPromptLayer
}

// systemPromptTemplate loads and caches (sync.Once, matching the
// teacher's load-once-then-cache preference for template assets) the
// system prompt template from Paths.PromptTemplateDir/system.md.tmpl,
// falling back to defaultSystemPrompt when no override file exists.
func (d *Deps) systemPromptTemplate() (*template.Template, error) {
	d.promptOnce.Do(func() {
		source := defaultSystemPrompt
		if d.Config != nil && d.Config.Paths.PromptTemplateDir != "" {
			path := filepath.Join(d.Config.Paths.PromptTemplateDir, "system.md.tmpl")
			if content, err := os.ReadFile(path); err == nil {
				source = string(content)
			}
		}
		d.promptTmpl, d.promptErr = template.New("system").Parse(source)
	})
	return d.promptTmpl, d.promptErr
}

// buildSystemMessage assembles the per-turn system prompt: a fixed
// persona (or configured override), the live set of registered tables
// from the Table Registry, and the session's current Map State. No
// Document Store context is included.
func (d *Deps) buildSystemMessage(ctx context.Context, a *kernel.Agent, userText string) (string, error) {
	tmpl, err := d.systemPromptTemplate()
	if err != nil {
		return "", err
	}

	data := systemPromptData{}
	for _, t := range d.Registry.Query() {
		data.Tables = append(data.Tables, systemPromptTable{
			Name:     t.QualifiedName(),
			Geometry: string(t.Geometry),
			Columns:  columnList(t.Columns),
		})
	}
	for _, l := range a.Map.Status() {
		data.Layers = append(data.Layers, systemPromptLayer{LayerID: l.LayerID, Style: string(l.Style), Color: l.Color})
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func columnList(columns []string) string {
	var buf bytes.Buffer
	for i, c := range columns {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(c)
	}
	return buf.String()
}
