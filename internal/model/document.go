// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package model

import "hash/fnv"

// DocumentRecord is one entry in a Document Store's vector index.
type DocumentRecord struct {
	ID        int64
	Metadata  map[string]any
	Embedding []float32
}

// DocumentID derives the stable id for a (owning table, source document,
// ordinal) triple via FNV-1a, so re-ingesting the same document produces
// the same id and Add is idempotent.
func DocumentID(owningTable, sourceDocument string, ordinal int) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(owningTable))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(sourceDocument))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte{
		byte(ordinal >> 24), byte(ordinal >> 16), byte(ordinal >> 8), byte(ordinal),
	})
	return int64(h.Sum64() & 0x7fffffffffffffff) // stay within int64 positive range
}
