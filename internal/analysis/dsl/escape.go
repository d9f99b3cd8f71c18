// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package dsl

import (
	"fmt"
	"regexp"
	"strings"
)

// Escaper centralizes every place a DSL value or identifier touches raw SQL
// text. ToSQLFragment implementations never call strings.ReplaceAll on a
// literal directly; they go through an Escaper so there is exactly one place
// in the codebase that knows how PostgreSQL string/identifier quoting works.
type Escaper interface {
	// QuoteLiteral renders a Go value as a SQL literal (quoting/escaping
	// strings, passing numbers and booleans through unquoted).
	QuoteLiteral(v any) string
	// QuoteIdentifier validates and double-quotes a column or table name.
	// Returns ErrUnknownIdentifier if name is not in the caller's known set.
	QuoteIdentifier(name string) (string, error)
}

var identifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// IdentifierSet is an Escaper backed by a fixed whitelist of column names,
// typically the owning table's columns as reported by the Table Registry.
// This is the same "reject anything not on the allowlist" posture as
// connectors/base/security.go's ValidateSQLIdentifier, narrowed from a
// syntax check to a membership check since every legal identifier here is
// already known ahead of time.
type IdentifierSet struct {
	known map[string]string // lowercase -> canonical case
}

// NewIdentifierSet builds an IdentifierSet from a list of known column names.
func NewIdentifierSet(columns []string) *IdentifierSet {
	known := make(map[string]string, len(columns))
	for _, c := range columns {
		known[strings.ToLower(c)] = c
	}
	return &IdentifierSet{known: known}
}

// QuoteLiteral renders v as a SQL literal. Strings are single-quoted with
// internal quotes doubled; everything else is formatted with fmt and passed
// through unquoted (ints, floats, bools all round-trip safely that way).
func (s *IdentifierSet) QuoteLiteral(v any) string {
	switch val := v.(type) {
	case string:
		return quoteStringLiteral(val)
	case nil:
		return "NULL"
	default:
		return fmt.Sprintf("%v", val)
	}
}

// QuoteIdentifier validates name against the whitelist and double-quotes it.
func (s *IdentifierSet) QuoteIdentifier(name string) (string, error) {
	canonical, ok := s.known[strings.ToLower(name)]
	if !ok {
		return "", &ErrUnknownIdentifier{Identifier: name}
	}
	if !identifierPattern.MatchString(canonical) {
		return "", &ErrUnknownIdentifier{Identifier: name}
	}
	return `"` + canonical + `"`, nil
}

func quoteStringLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
