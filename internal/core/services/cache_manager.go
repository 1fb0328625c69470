package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mcc-tools/gaql-retrieval/internal/core/domain"
	"github.com/mcc-tools/gaql-retrieval/internal/core/ports/driven"
	"github.com/mcc-tools/gaql-retrieval/internal/logger"
)

// CacheManager owns the snapshot lifecycle for one collection. The
// first access validates the persisted snapshot against the current
// corpus and model; a mismatch triggers a full rebuild. Subsequent
// accesses serve the validated snapshot until Invalidate.
type CacheManager struct {
	collection string
	supplier   driven.CorpusSupplier
	store      driven.VectorStore
	provider   driven.EmbeddingService
	embedder   *BatchEmbedder
	metric     domain.DistanceMetric

	mu   sync.Mutex
	snap driven.Snapshot
	meta domain.CacheMetadata
}

// NewCacheManager wires the lifecycle for the supplier's collection.
func NewCacheManager(supplier driven.CorpusSupplier, store driven.VectorStore, provider driven.EmbeddingService, embedder *BatchEmbedder, metric domain.DistanceMetric) *CacheManager {
	return &CacheManager{
		collection: supplier.Collection(),
		supplier:   supplier,
		store:      store,
		provider:   provider,
		embedder:   embedder,
		metric:     metric,
	}
}

// Collection names the managed collection.
func (m *CacheManager) Collection() string { return m.collection }

// Ensure returns a snapshot that is valid for the current corpus and
// model, rebuilding when necessary. A rebuild failure leaves any
// previously persisted snapshot untouched.
func (m *CacheManager) Ensure(ctx context.Context) (driven.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.snap != nil {
		return m.snap, nil
	}

	corpus, err := m.supplier.Corpus(ctx)
	if err != nil {
		return nil, fmt.Errorf("load corpus for %s: %w", m.collection, err)
	}
	fp := domain.ComputeFingerprint(corpus.Documents, m.provider.ModelID(), corpus.Tag)

	state, reason := m.validate(ctx, fp)
	if state == domain.StateValid {
		snap, err := m.store.Open(ctx, m.collection)
		switch {
		case err == nil && snap.Dimension() == m.meta.Dimension:
			logger.Debug("collection %s: cache hit (fingerprint %d, %d documents)",
				m.collection, fp.Hash, snap.Len())
			m.snap = snap
			return snap, nil
		case err == nil:
			snap.Close()
			state, reason = domain.StateCorrupt, fmt.Sprintf("snapshot dimension %d disagrees with metadata %d", snap.Dimension(), m.meta.Dimension)
		case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrCorrupt):
			state, reason = domain.StateCorrupt, err.Error()
		default:
			return nil, fmt.Errorf("open snapshot for %s: %w", m.collection, err)
		}
	}

	logger.Info("collection %s: rebuilding (%s: %s)", m.collection, state, reason)
	snap, meta, err := m.rebuild(ctx, corpus, fp)
	if err != nil {
		return nil, err
	}
	m.snap, m.meta = snap, meta
	return snap, nil
}

// validate classifies the persisted state against the expected
// fingerprint without touching the snapshot body. It fills m.meta on
// the valid path.
func (m *CacheManager) validate(ctx context.Context, fp domain.Fingerprint) (domain.CacheState, string) {
	meta, err := m.store.ReadMetadata(ctx, m.collection)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return domain.StateMissing, "no snapshot has been built"
	case errors.Is(err, domain.ErrCorrupt):
		return domain.StateCorrupt, err.Error()
	case err != nil:
		return domain.StateCorrupt, err.Error()
	}

	switch {
	case meta.SchemaVersion != fp.SchemaVersion:
		return domain.StateStale, fmt.Sprintf("schema version %d, current %d", meta.SchemaVersion, fp.SchemaVersion)
	case meta.ModelID != m.provider.ModelID():
		return domain.StateStale, fmt.Sprintf("built with model %s, current %s", meta.ModelID, m.provider.ModelID())
	case meta.ContentHash != fp.Hash:
		return domain.StateStale, "corpus content changed"
	case m.provider.Dimensions() > 0 && meta.Dimension != m.provider.Dimensions():
		return domain.StateStale, fmt.Sprintf("dimension %d, provider reports %d", meta.Dimension, m.provider.Dimensions())
	case !meta.Metric.Valid():
		return domain.StateCorrupt, fmt.Sprintf("unknown metric %q", meta.Metric)
	}

	m.meta = meta
	return domain.StateValid, ""
}

func (m *CacheManager) rebuild(ctx context.Context, corpus driven.Corpus, fp domain.Fingerprint) (driven.Snapshot, domain.CacheMetadata, error) {
	texts := make([]string, len(corpus.Documents))
	for i, d := range corpus.Documents {
		texts[i] = d.Text
	}

	embeddings, err := m.embedder.EmbedAll(ctx, texts)
	if err != nil {
		return nil, domain.CacheMetadata{}, fmt.Errorf("embed corpus for %s: %w", m.collection, err)
	}
	dim := 0
	if len(embeddings) > 0 {
		dim = len(embeddings[0])
	}

	buildID := uuid.NewString()
	snap, err := m.store.Build(ctx, m.collection, buildID, corpus.Documents, embeddings, m.metric)
	if err != nil {
		return nil, domain.CacheMetadata{}, fmt.Errorf("build snapshot for %s: %w", m.collection, err)
	}

	meta := domain.CacheMetadata{
		SchemaVersion: fp.SchemaVersion,
		ModelID:       m.provider.ModelID(),
		ContentHash:   fp.Hash,
		BuildID:       buildID,
		CreatedAt:     time.Now().UTC(),
		Metric:        m.metric,
		Dimension:     dim,
		DocumentCount: len(corpus.Documents),
	}
	if err := m.store.WriteMetadata(ctx, m.collection, meta); err != nil {
		snap.Close()
		return nil, domain.CacheMetadata{}, fmt.Errorf("write metadata for %s: %w", m.collection, err)
	}

	logger.Info("collection %s: built snapshot %s (%d documents, dimension %d)",
		m.collection, buildID, len(corpus.Documents), dim)
	return snap, meta, nil
}

// Status reports the cache state without rebuilding anything.
func (m *CacheManager) Status(ctx context.Context) (domain.CacheStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	status := domain.CacheStatus{Collection: m.collection}

	meta, err := m.store.ReadMetadata(ctx, m.collection)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status.State = domain.StateMissing
		return status, nil
	case errors.Is(err, domain.ErrCorrupt):
		status.State = domain.StateCorrupt
		return status, nil
	case err != nil:
		return status, fmt.Errorf("read metadata for %s: %w", m.collection, err)
	}

	status.DocumentCount = meta.DocumentCount
	status.Dimension = meta.Dimension
	status.ModelID = meta.ModelID
	status.BuiltAt = meta.CreatedAt

	corpus, err := m.supplier.Corpus(ctx)
	if err != nil {
		return status, fmt.Errorf("load corpus for %s: %w", m.collection, err)
	}
	fp := domain.ComputeFingerprint(corpus.Documents, m.provider.ModelID(), corpus.Tag)
	if meta.Fingerprint() == fp && meta.ModelID == m.provider.ModelID() {
		status.State = domain.StateValid
	} else {
		status.State = domain.StateStale
	}
	return status, nil
}

// Invalidate drops the persisted snapshot and forgets any loaded one.
// The next Ensure rebuilds from scratch.
func (m *CacheManager) Invalidate(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.snap != nil {
		m.snap.Close()
		m.snap = nil
	}
	m.meta = domain.CacheMetadata{}
	if err := m.store.Drop(ctx, m.collection); err != nil {
		return fmt.Errorf("drop snapshot for %s: %w", m.collection, err)
	}
	logger.Info("collection %s: invalidated", m.collection)
	return nil
}

// Close releases the loaded snapshot, if any.
func (m *CacheManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.snap == nil {
		return nil
	}
	err := m.snap.Close()
	m.snap = nil
	return err
}
