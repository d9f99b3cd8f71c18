// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package model

// FieldFormat is the closed set of value shapes a FieldDefinition may carry.
type FieldFormat string

const (
	FieldString  FieldFormat = "string"
	FieldNumber  FieldFormat = "number"
	FieldBoolean FieldFormat = "boolean"
)

// FieldDefinition describes one column the Agent Kernel may expose to the
// LLM, immutable once indexed into the field Document Store.
type FieldDefinition struct {
	Name        string
	PrettyName  string
	Description string
	Source      string
	Format      FieldFormat
	Enum        []string // optional; nil when the field is unconstrained
	OwningTable string
}

// SupplementalSection is a markdown excerpt tied to a table, immutable once
// indexed into the supplemental-info Document Store.
type SupplementalSection struct {
	Title          string
	Markdown       string
	OwningTable    string
	SourceDocument string
}
