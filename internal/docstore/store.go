// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package docstore

import (
	"context"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"geoagent/platform/internal/model"
	"geoagent/platform/shared/logger"
)

// Document is one item to add to a Store: a stable id, the text to embed,
// and arbitrary metadata (the raw text is embedded but never persisted;
// Query results carry only the id, metadata and distance).
type Document struct {
	ID       int64
	Text     string
	Metadata map[string]any
}

// ScoredDocument is one Query/SmartQuery result: a document's metadata
// joined back from the id, with its similarity distance attached.
type ScoredDocument struct {
	ID       int64
	Metadata map[string]any
	Distance float64
}

// Store is a single (name, version) document index: an in-memory
// cosine-similarity vector index mirrored to index.bin, plus a JSON
// metadata map mirrored to documents.json. A per-store mutex guards
// writes; reads take a read lock and operate on a private copy of the
// index slice, the same read/write split connectors/registry/registry.go
// uses for its connector map.
type Store struct {
	Name    string
	Version string

	dir      string
	embedder Embedder
	logger   *logger.Logger

	mu       sync.RWMutex
	index    []model.DocumentRecord
	metadata map[int64]map[string]any
}

// Open loads (or initializes) the store at {root}/{name}/{version}/. A
// disagreement between the index and metadata id sets is treated as
// corruption: the store is re-initialized empty with a logged warning
// rather than surfaced as a load error.
func Open(root, name, version string, embedder Embedder, log *logger.Logger) (*Store, error) {
	dir := filepath.Join(root, name, version)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("docstore: failed to create store directory: %w", err)
	}

	s := &Store{
		Name:     name,
		Version:  version,
		dir:      dir,
		embedder: embedder,
		logger:   log,
		metadata: make(map[int64]map[string]any),
	}

	index, metadata, err := loadFiles(dir)
	if err != nil {
		return nil, err
	}

	if !idSetsAgree(index, metadata) {
		if log != nil {
			log.Warn("", "", "docstore: index/metadata id mismatch, reinitializing empty", map[string]any{
				"store": name, "version": version,
			})
		}
		index, metadata = nil, make(map[int64]map[string]any)
	}

	s.index = index
	s.metadata = metadata
	return s, nil
}

func idSetsAgree(index []model.DocumentRecord, metadata map[int64]map[string]any) bool {
	if len(index) != len(metadata) {
		return false
	}
	for _, rec := range index {
		if _, ok := metadata[rec.ID]; !ok {
			return false
		}
	}
	return true
}

// Add embeds each document's text, L2-normalizes the embedding, appends it
// to the index, merges metadata (minus the raw text) into the JSON store,
// and persists both files.
func (s *Store) Add(ctx context.Context, docs []Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range docs {
		vec, err := s.embedder.Embed(ctx, d.Text)
		if err != nil {
			return fmt.Errorf("docstore: failed to embed document %d: %w", d.ID, err)
		}
		vec = normalize(vec)

		s.index = upsertRecord(s.index, model.DocumentRecord{ID: d.ID, Embedding: vec, Metadata: d.Metadata})
		s.metadata[d.ID] = d.Metadata
	}

	return s.persist()
}

func upsertRecord(index []model.DocumentRecord, rec model.DocumentRecord) []model.DocumentRecord {
	for i, existing := range index {
		if existing.ID == rec.ID {
			index[i] = rec
			return index
		}
	}
	return append(index, rec)
}

// Query embeds and normalizes text, finds the k nearest neighbors by
// cosine similarity, and joins each back to its metadata.
func (s *Store) Query(ctx context.Context, text string, k int) ([]ScoredDocument, error) {
	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("docstore: failed to embed query: %w", err)
	}
	return s.queryVector(normalize(vec), k), nil
}

func (s *Store) queryVector(vec []float32, k int) []ScoredDocument {
	s.mu.RLock()
	index := make([]model.DocumentRecord, len(s.index))
	copy(index, s.index)
	metadata := s.metadata
	s.mu.RUnlock()

	scored := make([]ScoredDocument, 0, len(index))
	for _, rec := range index {
		sim := cosineSimilarity(vec, rec.Embedding)
		scored = append(scored, ScoredDocument{
			ID:       rec.ID,
			Metadata: metadata[rec.ID],
			Distance: 1 - sim,
		})
	}

	sort.Slice(scored, func(i, j int) bool { return scored[i].Distance < scored[j].Distance })

	if k > 0 && k < len(scored) {
		scored = scored[:k]
	}
	return scored
}

func (s *Store) persist() error {
	if err := writeAtomic(filepath.Join(s.dir, "index.bin"), func(w *os.File) error {
		return gob.NewEncoder(w).Encode(s.index)
	}); err != nil {
		return fmt.Errorf("docstore: failed to persist index: %w", err)
	}

	if err := writeAtomic(filepath.Join(s.dir, "documents.json"), func(w *os.File) error {
		return json.NewEncoder(w).Encode(s.metadata)
	}); err != nil {
		return fmt.Errorf("docstore: failed to persist metadata: %w", err)
	}
	return nil
}

func writeAtomic(path string, encode func(*os.File) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if err := encode(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, path)
}

func loadFiles(dir string) ([]model.DocumentRecord, map[int64]map[string]any, error) {
	index, err := loadIndex(filepath.Join(dir, "index.bin"))
	if err != nil {
		return nil, nil, err
	}
	metadata, err := loadMetadata(filepath.Join(dir, "documents.json"))
	if err != nil {
		return nil, nil, err
	}
	return index, metadata, nil
}

func loadIndex(path string) ([]model.DocumentRecord, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("docstore: failed to open index file: %w", err)
	}
	defer f.Close()

	var index []model.DocumentRecord
	if err := gob.NewDecoder(f).Decode(&index); err != nil {
		// A corrupt/partial index file is treated the same as a
		// disagreeing id set by the caller, not a hard failure here.
		return nil, nil
	}
	return index, nil
}

func loadMetadata(path string) (map[int64]map[string]any, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return make(map[int64]map[string]any), nil
	}
	if err != nil {
		return nil, fmt.Errorf("docstore: failed to open metadata file: %w", err)
	}
	defer f.Close()

	metadata := make(map[int64]map[string]any)
	if err := json.NewDecoder(f).Decode(&metadata); err != nil {
		return make(map[int64]map[string]any), nil
	}
	return metadata, nil
}
