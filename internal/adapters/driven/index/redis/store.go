// Package redis persists collection snapshots in Redis with the
// RediSearch module. Each build writes documents under a generation
// prefix and creates a vector index over it; a meta key acts as the
// pointer to the current generation and is swapped last, giving the
// same atomic replacement contract as the file backend.
package redis

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/mcc-tools/gaql-retrieval/internal/core/domain"
	"github.com/mcc-tools/gaql-retrieval/internal/core/ports/driven"
	"github.com/mcc-tools/gaql-retrieval/internal/logger"
)

// Config tunes the store.
type Config struct {
	Addr     string
	Password string
	DB       int

	// ANNThreshold is the document count at which indexes switch from
	// FLAT (exact) to HNSW.
	ANNThreshold int

	// HNSW construction parameters for large collections.
	M              int
	EfConstruction int
}

const (
	defaultANNThreshold   = 256
	defaultM              = 16
	defaultEfConstruction = 200
)

// Store implements driven.VectorStore on RediSearch.
type Store struct {
	client       *redis.Client
	annThreshold int
	m            int
	efCons       int
}

var _ driven.VectorStore = (*Store)(nil)

// New connects to Redis. The connection is verified lazily; use Ping
// to check reachability eagerly.
func New(cfg Config) *Store {
	if cfg.ANNThreshold <= 0 {
		cfg.ANNThreshold = defaultANNThreshold
	}
	if cfg.M <= 0 {
		cfg.M = defaultM
	}
	if cfg.EfConstruction <= 0 {
		cfg.EfConstruction = defaultEfConstruction
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	return &Store{client: client, annThreshold: cfg.ANNThreshold, m: cfg.M, efCons: cfg.EfConstruction}
}

// Ping verifies the server is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the client connection pool.
func (s *Store) Close() error {
	return s.client.Close()
}

func metaKey(collection string) string {
	return "gaqlret:meta:" + collection
}

func docPrefix(collection, buildID string) string {
	return "gaqlret:doc:" + collection + ":" + buildID + ":"
}

func indexName(collection, buildID string) string {
	return "gaqlret:idx:" + collection + ":" + buildID
}

// Build writes all documents under the generation prefix and creates
// the vector index. The generation stays invisible to Open until
// WriteMetadata repoints the meta key.
func (s *Store) Build(ctx context.Context, collection, buildID string, docs []domain.Document, embeddings [][]float32, metric domain.DistanceMetric) (driven.Snapshot, error) {
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

	prefix := docPrefix(collection, buildID)
	pipe := s.client.Pipeline()
	for i, doc := range docs {
		attrs, err := json.Marshal(doc.Attributes)
		if err != nil {
			return nil, fmt.Errorf("%w: marshal attributes for %s: %v", domain.ErrPersistenceFailure, doc.ID, err)
		}
		pipe.HSet(ctx, prefix+strconv.Itoa(i), map[string]any{
			"id":         doc.ID,
			"text":       doc.Text,
			"attributes": string(attrs),
			"embedding":  vectorBlob(embeddings[i]),
		})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("%w: write documents for %s: %v", domain.ErrPersistenceFailure, collection, err)
	}

	if len(docs) > 0 {
		if err := s.createIndex(ctx, collection, buildID, dim, len(docs)); err != nil {
			return nil, err
		}
	}

	logger.Debug("redis: wrote generation %s for %s (%d documents)", buildID, collection, len(docs))
	return &snapshot{store: s, collection: collection, buildID: buildID, dim: dim, count: len(docs)}, nil
}

// createIndex issues FT.CREATE with a FLAT index for small generations
// and HNSW at or above the threshold, where graph construction pays
// for itself.
func (s *Store) createIndex(ctx context.Context, collection, buildID string, dim, count int) error {
	args := []any{
		"FT.CREATE", indexName(collection, buildID),
		"ON", "HASH",
		"PREFIX", "1", docPrefix(collection, buildID),
		"SCHEMA",
		"id", "TEXT",
		"embedding", "VECTOR",
	}
	if count < s.annThreshold {
		args = append(args, "FLAT", "6",
			"TYPE", "FLOAT32",
			"DIM", strconv.Itoa(dim),
			"DISTANCE_METRIC", "COSINE",
		)
	} else {
		args = append(args, "HNSW", "10",
			"TYPE", "FLOAT32",
			"DIM", strconv.Itoa(dim),
			"DISTANCE_METRIC", "COSINE",
			"M", strconv.Itoa(s.m),
			"EF_CONSTRUCTION", strconv.Itoa(s.efCons),
		)
	}
	if err := s.client.Do(ctx, args...).Err(); err != nil {
		return fmt.Errorf("%w: create index for %s: %v", domain.ErrPersistenceFailure, collection, err)
	}
	return nil
}

// Open resolves the current generation through the meta key.
func (s *Store) Open(ctx context.Context, collection string) (driven.Snapshot, error) {
	meta, err := s.ReadMetadata(ctx, collection)
	if err != nil {
		return nil, err
	}
	return &snapshot{
		store:      s,
		collection: collection,
		buildID:    meta.BuildID,
		dim:        meta.Dimension,
		count:      meta.DocumentCount,
	}, nil
}

// ReadMetadata parses the meta key.
func (s *Store) ReadMetadata(ctx context.Context, collection string) (domain.CacheMetadata, error) {
	data, err := s.client.Get(ctx, metaKey(collection)).Bytes()
	if err == redis.Nil {
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

// WriteMetadata repoints the meta key at meta.BuildID, then drops the
// superseded generation.
func (s *Store) WriteMetadata(ctx context.Context, collection string, meta domain.CacheMetadata) error {
	previous, err := s.ReadMetadata(ctx, collection)
	hadPrevious := err == nil

	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("%w: marshal metadata for %s: %v", domain.ErrPersistenceFailure, collection, err)
	}
	if err := s.client.Set(ctx, metaKey(collection), data, 0).Err(); err != nil {
		return fmt.Errorf("%w: swap metadata for %s: %v", domain.ErrPersistenceFailure, collection, err)
	}

	if hadPrevious && previous.BuildID != meta.BuildID {
		s.dropGeneration(ctx, collection, previous.BuildID)
	}
	return nil
}

// dropGeneration removes an index and its documents. Best effort: a
// leftover generation is reclaimed on the next swap.
func (s *Store) dropGeneration(ctx context.Context, collection, buildID string) {
	if err := s.client.Do(ctx, "FT.DROPINDEX", indexName(collection, buildID), "DD").Err(); err != nil {
		logger.Warn("redis: drop generation %s of %s: %v", buildID, collection, err)
		return
	}
	logger.Debug("redis: removed stale generation %s of %s", buildID, collection)
}

// Drop removes the meta pointer and the current generation.
func (s *Store) Drop(ctx context.Context, collection string) error {
	meta, err := s.ReadMetadata(ctx, collection)
	if err == nil {
		s.dropGeneration(ctx, collection, meta.BuildID)
	}
	if err := s.client.Del(ctx, metaKey(collection)).Err(); err != nil {
		return fmt.Errorf("%w: remove metadata for %s: %v", domain.ErrPersistenceFailure, collection, err)
	}
	return nil
}

func vectorBlob(vec []float32) []byte {
	out := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}

// distanceToScore maps a RediSearch cosine distance (0 = identical) to
// a similarity in [-1, 1], higher = more relevant.
func distanceToScore(distance float64) float64 {
	score := 1 - distance
	if score > 1 {
		return 1
	}
	if score < -1 {
		return -1
	}
	return score
}
