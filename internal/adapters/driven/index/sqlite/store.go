// Package sqlite persists collection snapshots as SQLite files with
// atomic replacement: each build writes a generation-named database,
// and a JSON metadata sidecar acts as the pointer to the current
// generation. The sidecar is replaced with a tmp+rename only after the
// body is durable, so a crash at any point leaves the previous
// generation intact and fully readable.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/mcc-tools/gaql-retrieval/internal/ann"
	"github.com/mcc-tools/gaql-retrieval/internal/core/domain"
	"github.com/mcc-tools/gaql-retrieval/internal/core/ports/driven"
	"github.com/mcc-tools/gaql-retrieval/internal/logger"
)

// Config tunes the store.
type Config struct {
	// DataDir holds all snapshot and metadata files.
	DataDir string

	// ANNThreshold is the document count at which searches switch from
	// an exact scan to an HNSW graph.
	ANNThreshold int

	// HNSW tunes graph construction for large collections.
	HNSW ann.Config
}

const defaultANNThreshold = 256

// Store implements driven.VectorStore on SQLite files.
type Store struct {
	dataDir      string
	annThreshold int
	hnsw         ann.Config
}

var _ driven.VectorStore = (*Store)(nil)

// New creates the store, ensuring the data directory exists.
func New(cfg Config) (*Store, error) {
	if cfg.ANNThreshold <= 0 {
		cfg.ANNThreshold = defaultANNThreshold
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", cfg.DataDir, err)
	}
	return &Store{dataDir: cfg.DataDir, annThreshold: cfg.ANNThreshold, hnsw: cfg.HNSW}, nil
}

func (s *Store) bodyPath(collection, buildID string) string {
	return filepath.Join(s.dataDir, collection+"-"+buildID+".db")
}

func (s *Store) metaPath(collection string) string {
	return filepath.Join(s.dataDir, collection+".meta.json")
}

// Build writes a complete generation database for the collection. The
// new generation stays invisible to Open until WriteMetadata points at
// it.
func (s *Store) Build(ctx context.Context, collection, buildID string, docs []domain.Document, embeddings [][]float32, metric domain.DistanceMetric) (driven.Snapshot, error) {
	if !validCollectionName(collection) {
		return nil, fmt.Errorf("collection name %q: %w", collection, domain.ErrInvalidInput)
	}
	if len(docs) != len(embeddings) {
		return nil, fmt.Errorf("%d documents, %d embeddings: %w", len(docs), len(embeddings), domain.ErrDimensionMismatch)
	}
	if !metric.Valid() {
		return nil, fmt.Errorf("metric %q: %w", metric, domain.ErrInvalidInput)
	}
	dim := 0
	if len(embeddings) > 0 {
		dim = len(embeddings[0])
	}
	for i, e := range embeddings {
		if len(e) != dim {
			return nil, fmt.Errorf("embedding %d has dimension %d, want %d: %w", i, len(e), dim, domain.ErrDimensionMismatch)
		}
	}

	final := s.bodyPath(collection, buildID)
	staging := final + ".building"
	if err := s.writeBody(ctx, staging, buildID, docs, embeddings, dim, metric); err != nil {
		os.Remove(staging)
		return nil, fmt.Errorf("%w: write snapshot %s: %v", domain.ErrPersistenceFailure, staging, err)
	}
	if err := os.Rename(staging, final); err != nil {
		os.Remove(staging)
		return nil, fmt.Errorf("%w: finalize snapshot %s: %v", domain.ErrPersistenceFailure, final, err)
	}

	logger.Debug("sqlite: wrote snapshot %s (%d documents)", final, len(docs))
	return s.load(ctx, final)
}

func (s *Store) writeBody(ctx context.Context, path, buildID string, docs []domain.Document, embeddings [][]float32, dim int, metric domain.DistanceMetric) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer db.Close()

	const schema = `
CREATE TABLE documents (
	position INTEGER PRIMARY KEY,
	id TEXT NOT NULL,
	text TEXT NOT NULL,
	attributes TEXT NOT NULL,
	embedding BLOB NOT NULL
);
CREATE TABLE snapshot_info (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	insert, err := tx.PrepareContext(ctx, "INSERT INTO documents (position, id, text, attributes, embedding) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer insert.Close()

	for i, doc := range docs {
		attrs, err := json.Marshal(doc.Attributes)
		if err != nil {
			return err
		}
		if _, err := insert.ExecContext(ctx, i, doc.ID, doc.Text, string(attrs), float32SliceToBytes(embeddings[i])); err != nil {
			return err
		}
	}

	info := map[string]string{
		"build_id":  buildID,
		"dimension": strconv.Itoa(dim),
		"metric":    string(metric),
		"count":     strconv.Itoa(len(docs)),
	}
	for key, value := range info {
		if _, err := tx.ExecContext(ctx, "INSERT INTO snapshot_info (key, value) VALUES (?, ?)", key, value); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Open loads the generation the metadata sidecar points at.
func (s *Store) Open(ctx context.Context, collection string) (driven.Snapshot, error) {
	meta, err := s.ReadMetadata(ctx, collection)
	if err != nil {
		return nil, err
	}
	path := s.bodyPath(collection, meta.BuildID)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: metadata points at missing snapshot %s", domain.ErrCorrupt, path)
	}
	return s.load(ctx, path)
}

func (s *Store) load(ctx context.Context, path string) (driven.Snapshot, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", domain.ErrCorrupt, path, err)
	}
	defer db.Close()

	var dimStr string
	if err := db.QueryRowContext(ctx, "SELECT value FROM snapshot_info WHERE key = 'dimension'").Scan(&dimStr); err != nil {
		return nil, fmt.Errorf("%w: read snapshot info from %s: %v", domain.ErrCorrupt, path, err)
	}
	dim, err := strconv.Atoi(dimStr)
	if err != nil {
		return nil, fmt.Errorf("%w: snapshot dimension %q: %v", domain.ErrCorrupt, dimStr, err)
	}

	rows, err := db.QueryContext(ctx, "SELECT id, text, attributes, embedding FROM documents ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("%w: read documents from %s: %v", domain.ErrCorrupt, path, err)
	}
	defer rows.Close()

	var docs []domain.Document
	var vectors [][]float32
	for rows.Next() {
		var doc domain.Document
		var attrs string
		var blob []byte
		if err := rows.Scan(&doc.ID, &doc.Text, &attrs, &blob); err != nil {
			return nil, fmt.Errorf("%w: scan document from %s: %v", domain.ErrCorrupt, path, err)
		}
		if err := json.Unmarshal([]byte(attrs), &doc.Attributes); err != nil {
			return nil, fmt.Errorf("%w: document %s attributes: %v", domain.ErrCorrupt, doc.ID, err)
		}
		vec, err := bytesToFloat32Slice(blob)
		if err != nil {
			return nil, fmt.Errorf("%w: document %s embedding: %v", domain.ErrCorrupt, doc.ID, err)
		}
		if len(vec) != dim {
			return nil, fmt.Errorf("%w: document %s embedding has dimension %d, want %d", domain.ErrCorrupt, doc.ID, len(vec), dim)
		}
		docs = append(docs, doc)
		vectors = append(vectors, vec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate documents from %s: %v", domain.ErrCorrupt, path, err)
	}

	searcher, err := ann.New(vectors, s.annThreshold, s.hnsw)
	if err != nil {
		return nil, fmt.Errorf("%w: index %s: %v", domain.ErrCorrupt, path, err)
	}
	return &snapshot{docs: docs, dim: dim, searcher: searcher}, nil
}

// ReadMetadata parses the sidecar without touching the snapshot body.
func (s *Store) ReadMetadata(_ context.Context, collection string) (domain.CacheMetadata, error) {
	data, err := os.ReadFile(s.metaPath(collection))
	if os.IsNotExist(err) {
		return domain.CacheMetadata{}, fmt.Errorf("collection %s: %w", collection, domain.ErrNotFound)
	}
	if err != nil {
		return domain.CacheMetadata{}, fmt.Errorf("read metadata for %s: %w", collection, err)
	}
	var meta domain.CacheMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return domain.CacheMetadata{}, fmt.Errorf("%w: metadata for %s: %v", domain.ErrCorrupt, collection, err)
	}
	return meta, nil
}

// WriteMetadata atomically repoints the collection at meta.BuildID via
// tmp+rename, then garbage collects superseded generations.
func (s *Store) WriteMetadata(_ context.Context, collection string, meta domain.CacheMetadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal metadata for %s: %v", domain.ErrPersistenceFailure, collection, err)
	}

	final := s.metaPath(collection)
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("%w: write metadata for %s: %v", domain.ErrPersistenceFailure, collection, err)
	}
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: swap metadata for %s: %v", domain.ErrPersistenceFailure, collection, err)
	}

	s.removeStaleGenerations(collection, meta.BuildID)
	return nil
}

// removeStaleGenerations deletes body files of generations other than
// current. Best effort: a leftover file is reclaimed on the next swap.
func (s *Store) removeStaleGenerations(collection, current string) {
	pattern := filepath.Join(s.dataDir, collection+"-*.db")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return
	}
	keep := s.bodyPath(collection, current)
	for _, path := range matches {
		if path == keep {
			continue
		}
		if err := os.Remove(path); err == nil {
			logger.Debug("sqlite: removed stale generation %s", path)
		}
	}
}

// Drop removes the metadata pointer and every generation file.
func (s *Store) Drop(_ context.Context, collection string) error {
	if err := os.Remove(s.metaPath(collection)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: remove metadata for %s: %v", domain.ErrPersistenceFailure, collection, err)
	}
	matches, _ := filepath.Glob(filepath.Join(s.dataDir, collection+"-*.db"))
	staging, _ := filepath.Glob(filepath.Join(s.dataDir, collection+"-*.db.building"))
	for _, path := range append(matches, staging...) {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("%w: remove %s: %v", domain.ErrPersistenceFailure, path, err)
		}
	}
	return nil
}

// snapshot keeps the generation fully in memory: documents in build
// order plus a similarity index over their embeddings.
type snapshot struct {
	docs     []domain.Document
	dim      int
	searcher ann.Searcher
}

func (s *snapshot) Search(_ context.Context, vector []float32, k int) ([]driven.VectorHit, error) {
	hits, err := s.searcher.Search(vector, k)
	if err != nil {
		return nil, fmt.Errorf("search snapshot: %w", err)
	}
	out := make([]driven.VectorHit, len(hits))
	for i, h := range hits {
		out[i] = driven.VectorHit{Document: s.docs[h.Index], Score: h.Score}
	}
	return out, nil
}

func (s *snapshot) Len() int       { return len(s.docs) }
func (s *snapshot) Dimension() int { return s.dim }
func (s *snapshot) Close() error   { return nil }

func float32SliceToBytes(vec []float32) []byte {
	out := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}

func bytesToFloat32Slice(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("blob length %d is not a multiple of 4", len(data))
	}
	out := make([]float32, len(data)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return out, nil
}

// sanity check for collection names used in file paths
func validCollectionName(name string) bool {
	if name == "" {
		return false
	}
	return !strings.ContainsAny(name, "/\\")
}
