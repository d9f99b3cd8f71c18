// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

// Package sqlrunner renders named SQL templates and runs them against
// PostGIS, generalizing the teacher's PostgresConnector.Query/Execute
// context-timeout-and-scan idiom to a template-driven call that can run
// inside an already-open transaction or open its own.
package sqlrunner
