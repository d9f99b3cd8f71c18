// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package dsl

import "fmt"

// AggregateOp is the closed set of aggregate functions an AggregateStep may
// request.
type AggregateOp string

const (
	AggCount AggregateOp = "COUNT"
	AggSum   AggregateOp = "SUM"
	AggAvg   AggregateOp = "AVG"
	AggMin   AggregateOp = "MIN"
	AggMax   AggregateOp = "MAX"
)

// AggregateColumn describes one aggregate expression in a GROUP BY query,
// e.g. `COUNT(DISTINCT "species") AS "species_count"`.
type AggregateColumn struct {
	Field    string
	Op       AggregateOp
	Alias    string
	Distinct bool // only meaningful for COUNT
}

// ToSQLFragment renders the aggregate expression with its alias.
func (a AggregateColumn) ToSQLFragment(esc Escaper) (string, error) {
	col, err := esc.QuoteIdentifier(a.Field)
	if err != nil {
		return "", err
	}

	switch a.Op {
	case AggCount, AggSum, AggAvg, AggMin, AggMax:
		// fall through to rendering below
	default:
		return "", &ErrUnsupportedOp{Op: string(a.Op)}
	}

	inner := col
	if a.Distinct && a.Op == AggCount {
		inner = "DISTINCT " + col
	}

	// Aliases are caller-chosen output names, not existing table columns,
	// so they are quoted directly rather than checked against the
	// identifier whitelist — only their syntax needs validating.
	if !identifierPattern.MatchString(a.Alias) {
		return "", &ErrUnknownIdentifier{Identifier: a.Alias}
	}

	return fmt.Sprintf("%s(%s) AS %q", a.Op, inner, a.Alias), nil
}

// SelectColumn is a plain projected column, optionally aliased.
type SelectColumn struct {
	Field string
	Alias string
}

// ToSQLFragment renders the column, e.g. `"name" AS "city_name"`.
func (s SelectColumn) ToSQLFragment(esc Escaper) (string, error) {
	col, err := esc.QuoteIdentifier(s.Field)
	if err != nil {
		return "", err
	}
	if s.Alias == "" {
		return col, nil
	}
	if !identifierPattern.MatchString(s.Alias) {
		return "", &ErrUnknownIdentifier{Identifier: s.Alias}
	}
	return fmt.Sprintf("%s AS %q", col, s.Alias), nil
}
