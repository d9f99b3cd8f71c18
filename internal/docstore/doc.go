// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

// Package docstore implements the opaque on-disk document index used to
// surface field definitions and supplemental table descriptions to the
// Agent Kernel: an in-memory cosine-similarity vector index backed by a
// flat file, paired with a JSON metadata map, identified by (name,
// version) and persisted under {root}/{name}/{version}/.
package docstore
