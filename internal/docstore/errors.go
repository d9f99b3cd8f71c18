// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package docstore

import "fmt"

// ErrDocumentNotFound is returned when a metadata lookup misses.
type ErrDocumentNotFound struct {
	ID int64
}

func (e *ErrDocumentNotFound) Error() string {
	return fmt.Sprintf("docstore: document %d not found", e.ID)
}
