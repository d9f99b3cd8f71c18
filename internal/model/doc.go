// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

// Package model holds the data types shared across the kernel, planner,
// registry, docstore, and mapstate packages — conversation messages, field
// and table descriptors, and geometry kinds — so those packages can depend
// on a common vocabulary without importing each other.
package model
