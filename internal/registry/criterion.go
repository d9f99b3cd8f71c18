// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package registry

// CriterionKind is the closed set of filters Query understands.
type CriterionKind string

const (
	SchemaKind   CriterionKind = "schema"
	TableKind    CriterionKind = "table"
	AnalysisKind CriterionKind = "analysis"
	FieldsKind   CriterionKind = "fields"
)

// Criterion is one step of a Query filter chain. Value holds a single
// string for Schema/Table/Analysis kinds, or a []string of requested field
// names for FieldsKind.
type Criterion struct {
	Kind  CriterionKind
	Value any
}

// BySchema filters to tables registered under the given schema.
func BySchema(schema string) Criterion { return Criterion{Kind: SchemaKind, Value: schema} }

// ByTable filters to the table with the given name.
func ByTable(name string) Criterion { return Criterion{Kind: TableKind, Value: name} }

// ByAnalysis filters to tables created by the named analysis, i.e. those
// registered under the schema {analysisName}.
func ByAnalysis(analysisName string) Criterion { return Criterion{Kind: AnalysisKind, Value: analysisName} }

// ByFields projects surviving tables' columns down to the intersection with
// fields, dropping any table left with zero columns.
func ByFields(fields []string) Criterion { return Criterion{Kind: FieldsKind, Value: fields} }
