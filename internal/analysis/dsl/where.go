// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package dsl

import "fmt"

// ComparisonOp is the closed set of comparison operators a WhereClause may
// use. LLM-proposed filters are validated against this set before any SQL is
// rendered, so an unrecognized operator never reaches the database.
type ComparisonOp string

const (
	OpEq         ComparisonOp = "="
	OpNeq        ComparisonOp = "!="
	OpGt         ComparisonOp = ">"
	OpLt         ComparisonOp = "<"
	OpGte        ComparisonOp = ">="
	OpLte        ComparisonOp = "<="
	OpLike       ComparisonOp = "LIKE"
	OpILike      ComparisonOp = "ILIKE"
	OpIn         ComparisonOp = "IN"
	OpNotIn      ComparisonOp = "NOT IN"
	OpBetween    ComparisonOp = "BETWEEN"
	OpIsNull     ComparisonOp = "IS NULL"
	OpIsNotNull  ComparisonOp = "IS NOT NULL"
)

// WhereClause is a single predicate over one field. Only the fields the
// chosen Op actually reads are populated by callers; ToSQLFragment ignores
// the rest. Values held in Value/Values/Lower/Upper are raw and unescaped —
// ToSQLFragment is the single place that quotes them, per the resolved
// open question on centralized escaping.
type WhereClause struct {
	Field  string
	Op     ComparisonOp
	Value  any   // used by =, !=, >, <, >=, <=, LIKE, ILIKE
	Values []any // used by IN, NOT IN
	Lower  any   // used by BETWEEN
	Upper  any   // used by BETWEEN
}

// ToSQLFragment renders the clause as a standalone SQL boolean expression,
// e.g. `"status" = 'active'` or `"population" BETWEEN 1000 AND 50000`.
func (w WhereClause) ToSQLFragment(esc Escaper) (string, error) {
	col, err := esc.QuoteIdentifier(w.Field)
	if err != nil {
		return "", err
	}

	switch w.Op {
	case OpEq, OpNeq, OpGt, OpLt, OpGte, OpLte, OpLike, OpILike:
		if w.Value == nil {
			return "", &ErrMissingValue{Op: string(w.Op), Detail: "Value"}
		}
		return fmt.Sprintf("%s %s %s", col, w.Op, esc.QuoteLiteral(w.Value)), nil

	case OpIn, OpNotIn:
		if len(w.Values) == 0 {
			// An empty IN/NOT IN list renders to a constant predicate rather
			// than being rejected, so an enum that resolved to zero matches
			// at render time still executes and yields zero rows.
			if w.Op == OpIn {
				return "(1 = 0)", nil
			}
			return "(1 = 1)", nil
		}
		literals := make([]string, len(w.Values))
		for i, v := range w.Values {
			literals[i] = esc.QuoteLiteral(v)
		}
		return fmt.Sprintf("%s %s (%s)", col, w.Op, joinComma(literals)), nil

	case OpBetween:
		if w.Lower == nil || w.Upper == nil {
			return "", &ErrMissingValue{Op: string(w.Op), Detail: "Lower/Upper"}
		}
		return fmt.Sprintf("%s BETWEEN %s AND %s", col, esc.QuoteLiteral(w.Lower), esc.QuoteLiteral(w.Upper)), nil

	case OpIsNull, OpIsNotNull:
		return fmt.Sprintf("%s %s", col, w.Op), nil

	default:
		return "", &ErrUnsupportedOp{Op: string(w.Op)}
	}
}

func joinComma(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}
