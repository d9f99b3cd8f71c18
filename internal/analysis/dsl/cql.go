// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package dsl

import (
	"fmt"
	"net/url"
	"strings"
)

// HandlerFilterOp is the closed set of comparisons the Map State Handler's
// tile-URL `filter` query parameter supports, expressed in OGC CQL text.
type HandlerFilterOp string

const (
	HFEq       HandlerFilterOp = "="
	HFNeq      HandlerFilterOp = "!="
	HFGt       HandlerFilterOp = ">"
	HFLt       HandlerFilterOp = "<"
	HFGte      HandlerFilterOp = ">="
	HFLte      HandlerFilterOp = "<="
	HFContains HandlerFilterOp = "contains"
)

// HandlerFilter is a single layer filter applied both to the tile server's
// CQL attribute query and, when the same table is queried directly, to SQL.
type HandlerFilter struct {
	Field string
	Op    HandlerFilterOp
	Value string
}

// ToCQL renders the filter as an OGC CQL fragment suitable for embedding in
// a tile-server `filter` query parameter. Single quotes in the value are
// doubled per CQL string-literal convention, then the whole literal is
// percent-encoded with net/url.QueryEscape before being embedded in the URL
// query string — the value only, never the field name or operator.
func (h HandlerFilter) ToCQL() (string, error) {
	switch h.Op {
	case HFEq, HFNeq, HFGt, HFLt, HFGte, HFLte:
		literal := "'" + strings.ReplaceAll(h.Value, "'", "''") + "'"
		return fmt.Sprintf("%s%s%s", h.Field, h.Op, url.QueryEscape(literal)), nil
	case HFContains:
		literal := "'%" + strings.ReplaceAll(h.Value, "'", "''") + "%'"
		return fmt.Sprintf("%s LIKE %s", h.Field, url.QueryEscape(literal)), nil
	default:
		return "", &ErrUnsupportedOp{Op: string(h.Op)}
	}
}

// ToSQLFragment renders the same filter as a SQL boolean expression, used
// when a step needs to apply a map layer's active filter directly in a
// WHERE clause rather than through the tile server.
func (h HandlerFilter) ToSQLFragment(esc Escaper) (string, error) {
	col, err := esc.QuoteIdentifier(h.Field)
	if err != nil {
		return "", err
	}

	switch h.Op {
	case HFEq:
		return fmt.Sprintf("%s = %s", col, esc.QuoteLiteral(h.Value)), nil
	case HFNeq:
		return fmt.Sprintf("%s != %s", col, esc.QuoteLiteral(h.Value)), nil
	case HFGt:
		return fmt.Sprintf("%s > %s", col, esc.QuoteLiteral(h.Value)), nil
	case HFLt:
		return fmt.Sprintf("%s < %s", col, esc.QuoteLiteral(h.Value)), nil
	case HFGte:
		return fmt.Sprintf("%s >= %s", col, esc.QuoteLiteral(h.Value)), nil
	case HFLte:
		return fmt.Sprintf("%s <= %s", col, esc.QuoteLiteral(h.Value)), nil
	case HFContains:
		return fmt.Sprintf("%s LIKE %s", col, esc.QuoteLiteral("%"+h.Value+"%")), nil
	default:
		return "", &ErrUnsupportedOp{Op: string(h.Op)}
	}
}
