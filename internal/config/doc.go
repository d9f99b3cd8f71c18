// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

// Package config loads the orchestrator's YAML configuration file,
// expanding ${VAR}/${VAR:-default} environment references the way
// connectors/config/file_loader.go does, following the apiVersion/kind
// convention orchestrator/agent_config.go uses for its own config files.
package config
