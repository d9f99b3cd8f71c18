// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigFile is the root shape of the orchestrator's YAML configuration,
// following the Kubernetes-style apiVersion/kind convention used
// throughout the rest of this system's configuration surface.
type ConfigFile struct {
	APIVersion string `yaml:"apiVersion"`
	Kind       string `yaml:"kind"`
	Spec       Config `yaml:"spec"`
}

// Config is the enumerated configuration surface: LLM, database, tile
// server, map defaults, filesystem paths, and logging.
type Config struct {
	LLM       LLMConfig       `yaml:"llm"`
	Database  DatabaseConfig  `yaml:"database"`
	TileServer TileServerConfig `yaml:"tile_server"`
	Map       MapConfig       `yaml:"map"`
	Paths     PathsConfig     `yaml:"paths"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LLMConfig holds the Anthropic credentials and the three model roles
// the system distinguishes: conversational inference, structured
// parsing, and embeddings.
type LLMConfig struct {
	APIKey            string `yaml:"api_key"`
	InferenceModelID  string `yaml:"inference_model_id"`
	ParsingModelID    string `yaml:"parsing_model_id"`
	EmbeddingModelID  string `yaml:"embedding_model_id"`
	EmbeddingDimension int   `yaml:"embedding_dimension"`
}

// DatabaseConfig holds the PostGIS connection and the schema/role names
// the SQL templates interpolate.
type DatabaseConfig struct {
	ConnectionURL  string        `yaml:"connection_url"`
	BaseSchemaName string        `yaml:"base_schema_name"`
	TileServerRole string        `yaml:"tile_server_role"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	MaxOpenConns   int           `yaml:"max_open_conns"`
	MaxIdleConns   int           `yaml:"max_idle_conns"`
}

// TileServerConfig holds the tile server's base URL.
type TileServerConfig struct {
	BaseURL string `yaml:"base_url"`
}

// MapConfig holds the map-wide defaults applied when a step or table
// doesn't specify its own.
type MapConfig struct {
	DefaultSRID          int    `yaml:"default_srid"`
	GeometryColumn       string `yaml:"geometry_column"`
	DefaultTableName     string `yaml:"default_table_name"`
}

// PathsConfig holds the filesystem roots for on-disk state.
type PathsConfig struct {
	DocumentStoreRoot   string `yaml:"document_store_root"`
	PromptTemplateDir   string `yaml:"prompt_template_dir"`
	SQLTemplateDir      string `yaml:"sql_template_dir"`
}

// LoggingConfig holds the minimum emitted log level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Defaults applied when a YAML document omits a field (spec.md §6's
// surface doesn't name defaults, so these mirror the teacher's own
// postgres/geometry defaults in connectors/config/config.go and
// spec.md §6's PostGIS template assumptions).
const (
	DefaultSRID           = 3857
	DefaultGeometryColumn = "geometry"
	DefaultConnectTimeout = 5 * time.Second
	DefaultMaxOpenConns   = 25
	DefaultMaxIdleConns   = 5
	DefaultLogLevel       = "info"
)

// Load reads path, expands environment references, parses YAML, applies
// defaults, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses raw YAML bytes into a Config, expanding environment
// variable references first.
func Parse(data []byte) (*Config, error) {
	expanded := expandEnvVars(string(data))

	var file ConfigFile
	if err := yaml.Unmarshal([]byte(expanded), &file); err != nil {
		return nil, fmt.Errorf("config: failed to parse YAML: %w", err)
	}

	if !strings.HasPrefix(file.APIVersion, "geoagent.io/") {
		return nil, fmt.Errorf("config: invalid apiVersion: must start with 'geoagent.io/', got %q", file.APIVersion)
	}
	if file.Kind != "OrchestratorConfig" {
		return nil, fmt.Errorf("config: invalid kind: expected 'OrchestratorConfig', got %q", file.Kind)
	}

	cfg := file.Spec
	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}
	return &cfg, nil
}

func applyDefaults(c *Config) {
	if c.Map.DefaultSRID == 0 {
		c.Map.DefaultSRID = DefaultSRID
	}
	if c.Map.GeometryColumn == "" {
		c.Map.GeometryColumn = DefaultGeometryColumn
	}
	if c.Database.ConnectTimeout == 0 {
		c.Database.ConnectTimeout = DefaultConnectTimeout
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = DefaultMaxOpenConns
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = DefaultMaxIdleConns
	}
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
}

func validate(c *Config) error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key is required")
	}
	if c.LLM.InferenceModelID == "" {
		return fmt.Errorf("llm.inference_model_id is required")
	}
	if c.Database.ConnectionURL == "" {
		return fmt.Errorf("database.connection_url is required")
	}
	if c.TileServer.BaseURL == "" {
		return fmt.Errorf("tile_server.base_url is required")
	}
	if c.Paths.DocumentStoreRoot == "" {
		return fmt.Errorf("paths.document_store_root is required")
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of debug/info/warn/error, got %q", c.Logging.Level)
	}
	return nil
}

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true,
}

// envVarRegex matches ${VAR_NAME}, ${VAR_NAME:-default}, or $VAR_NAME.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

func expandEnvVars(content string) string {
	return envVarRegex.ReplaceAllStringFunc(content, func(match string) string {
		var ref string
		if strings.HasPrefix(match, "${") {
			ref = match[2 : len(match)-1]
		} else {
			ref = match[1:]
		}

		defaultVal := ""
		if idx := strings.Index(ref, ":-"); idx != -1 {
			defaultVal = ref[idx+2:]
			ref = ref[:idx]
		}

		if value := os.Getenv(ref); value != "" {
			return value
		}
		return defaultVal
	})
}
