// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package docstore

import "context"

// Embedder generates fixed-dimension embeddings for text. cmd/orchestrator
// wires HashEmbedder; this module has no llmprovider-backed Embedder. Tests
// use a deterministic stub.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}
