// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package docstore

import (
	"context"
	"regexp"
	"strings"
)

// HashEmbedder is a dependency-free Embedder: it tokenizes text and
// scatters each token into a fixed-dimension vector via the hashing
// trick, so cosine similarity still reflects shared vocabulary between
// documents and queries.
type HashEmbedder struct {
	dimensions int
}

// NewHashEmbedder builds a HashEmbedder of the given dimension.
func NewHashEmbedder(dimensions int) *HashEmbedder {
	if dimensions <= 0 {
		dimensions = 256
	}
	return &HashEmbedder{dimensions: dimensions}
}

func (e *HashEmbedder) Dimensions() int { return e.dimensions }

var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

// Embed tokenizes text to lowercase alphanumeric runs and accumulates
// each token's hash bucket, signed by a second hash bit so opposing
// tokens can partially cancel instead of only ever adding mass.
func (e *HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dimensions)
	for _, tok := range tokenPattern.FindAllString(strings.ToLower(text), -1) {
		h := fnv1a(tok)
		bucket := int(h % uint32(e.dimensions))
		sign := float32(1)
		if h&1 == 1 {
			sign = -1
		}
		vec[bucket] += sign
	}
	return vec, nil
}

// fnv1a is the 32-bit FNV-1a hash, used here purely as a fast, stable
// string-to-bucket mapping rather than for any cryptographic property.
func fnv1a(s string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}
