// Copyright 2025 AxonFlow
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package main is the entry point for the geoagent Orchestrator service.
//
// The Orchestrator wires the Agent Kernel to the Table Registry, the
// Document Store, the Template SQL Runner, and the Analysis
// Planner/Executor, then exposes one WebSocket session per chat
// conversation.
//
// Usage:
//
//	./orchestrator
//
// Environment Variables:
//
//	PORT        - HTTP server port (default: 8081)
//	CONFIG_PATH - path to the orchestrator's YAML configuration (default: config.yaml)
package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"geoagent/platform/internal/app"
	"geoagent/platform/internal/config"
	"geoagent/platform/internal/docstore"
	"geoagent/platform/internal/llmprovider"
	"geoagent/platform/internal/registry"
	"geoagent/platform/internal/sqlrunner"
	"geoagent/platform/internal/tileserver"
	"geoagent/platform/shared/logger"
)

func main() {
	log.Println("Starting geoagent Orchestrator...")

	cfg, err := config.Load(getEnv("CONFIG_PATH", "config.yaml"))
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	appLog := logger.New("orchestrator")

	db, err := sql.Open("postgres", cfg.Database.ConnectionURL)
	if err != nil {
		appLog.Error("", "", "failed to open database connection", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)

	pingCtx, cancel := context.WithTimeout(context.Background(), cfg.Database.ConnectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		appLog.Error("", "", "failed to reach database", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	runner := sqlrunner.NewRunner(cfg.Paths.SQLTemplateDir, cfg.Database.ConnectTimeout)

	tsClient, err := tileserver.NewClient(cfg.TileServer.BaseURL, tileserver.Options{})
	if err != nil {
		appLog.Error("", "", "failed to build tile server client", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	reg := registry.New(tsClient, runner, db, cfg.Map.GeometryColumn, appLog)
	discoverCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := reg.Discover(discoverCtx); err != nil {
		appLog.Error("", "", "initial table discovery failed", map[string]interface{}{"error": err.Error()})
	}

	fields, err := docstore.Open(cfg.Paths.DocumentStoreRoot, "fields", "v1",
		docstore.NewHashEmbedder(cfg.LLM.EmbeddingDimension), appLog)
	if err != nil {
		appLog.Error("", "", "failed to open field document store", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	primary := llmprovider.NewProviderFromAPIKey("anthropic-primary", cfg.LLM.APIKey, cfg.LLM.InferenceModelID, 4096)
	var fallback *llmprovider.Provider
	if cfg.LLM.ParsingModelID != "" && cfg.LLM.ParsingModelID != cfg.LLM.InferenceModelID {
		fallback = llmprovider.NewProviderFromAPIKey("anthropic-fallback", cfg.LLM.APIKey, cfg.LLM.ParsingModelID, 4096)
	}
	router := llmprovider.NewRouter(primary, fallback)
	llmClient := llmprovider.NewClient(router, 4096)

	deps := app.NewDeps(cfg, db, runner, reg, fields, llmClient, appLog)
	hub := newSessionHub(deps)

	r := mux.NewRouter()
	r.HandleFunc("/health", healthHandler).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	r.HandleFunc("/ws/sessions/{session_id}", hub.handleWS)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	port := getEnv("PORT", "8081")
	appLog.Info("", "", "orchestrator listening", map[string]interface{}{"port": port})
	if err := http.ListenAndServe(":"+port, c.Handler(r)); err != nil {
		appLog.Error("", "", "server stopped", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"healthy","service":"geoagent-orchestrator"}`))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
