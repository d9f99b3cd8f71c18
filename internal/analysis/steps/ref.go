// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package steps

import "fmt"

// SourceTableRef is a sum type, not the "two optional fields plus a
// post-validator" shape some analysis-planning prototypes use: a step's
// source table is either a back-reference to an earlier step's output, or a
// name drawn from the table whitelist in scope. Exactly one of the two
// constructors below should be used to build a value.
type SourceTableRef struct {
	byIndex bool
	index   int
	name    string
}

// ByIndex references the output of the step at position i (0-based) within
// the same plan. A forward reference (i >= the referencing step's own
// index) is rejected by the planner at resolution time, not here.
func ByIndex(i int) *SourceTableRef {
	return &SourceTableRef{byIndex: true, index: i}
}

// ByName references a table drawn from the allowed-tables enum in scope.
func ByName(name string) *SourceTableRef {
	return &SourceTableRef{byIndex: false, name: name}
}

// IsIndex reports whether this ref is a back-reference, returning the index
// when true.
func (r *SourceTableRef) IsIndex() (int, bool) {
	if r.byIndex {
		return r.index, true
	}
	return 0, false
}

// Name returns the referenced table name; valid only when IsIndex is false.
func (r *SourceTableRef) Name() string {
	return r.name
}

func (r *SourceTableRef) String() string {
	if r.byIndex {
		return fmt.Sprintf("#%d", r.index)
	}
	return r.name
}
