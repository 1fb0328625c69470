package services

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/mcc-tools/gaql-retrieval/internal/ann"
	"github.com/mcc-tools/gaql-retrieval/internal/core/domain"
	"github.com/mcc-tools/gaql-retrieval/internal/core/ports/driven"
)

// stubProvider is a deterministic EmbeddingService. Known texts can be
// pinned to fixed vectors; everything else hashes to a stable vector.
type stubProvider struct {
	mu         sync.Mutex
	dim        int
	modelID    string
	fixed      map[string][]float32
	embedErr   error
	batchErr   error
	embedCalls int
	batchCalls int
}

func newStubProvider(dim int, modelID string) *stubProvider {
	return &stubProvider{dim: dim, modelID: modelID, fixed: map[string][]float32{}}
}

func (p *stubProvider) vec(text string) []float32 {
	if v, ok := p.fixed[text]; ok {
		return v
	}
	h := fnv.New64a()
	h.Write([]byte(text))
	sum := h.Sum64()
	v := make([]float32, p.dim)
	for i := range v {
		v[i] = float32((sum>>(uint(i)%56))&0xff) + 1
	}
	return v
}

func (p *stubProvider) Embed(_ context.Context, text string) ([]float32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.embedCalls++
	if p.embedErr != nil {
		return nil, p.embedErr
	}
	return p.vec(text), nil
}

func (p *stubProvider) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.batchCalls++
	if p.batchErr != nil {
		return nil, p.batchErr
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = p.vec(t)
	}
	return out, nil
}

func (p *stubProvider) Dimensions() int { return p.dim }
func (p *stubProvider) ModelID() string { return p.modelID }

func (p *stubProvider) Ping(context.Context) error { return nil }
func (p *stubProvider) Close() error               { return nil }

// stubSupplier serves a fixed corpus.
type stubSupplier struct {
	collection string
	corpus     driven.Corpus
	err        error
}

func (s *stubSupplier) Collection() string { return s.collection }

func (s *stubSupplier) Corpus(context.Context) (driven.Corpus, error) {
	if s.err != nil {
		return driven.Corpus{}, s.err
	}
	return s.corpus, nil
}

// memStore is an in-memory VectorStore honoring the swap contract: a
// build stays invisible until its metadata is written, and a failed
// metadata write leaves the previous snapshot in place.
type memStore struct {
	mu         sync.Mutex
	bodies     map[string]*memBody
	pending    map[string]*memBody
	metas      map[string]domain.CacheMetadata
	corrupt    map[string]bool
	buildErr   error
	metaErr    error
	buildCalls int
}

type memBody struct {
	docs       []domain.Document
	embeddings [][]float32
}

func newMemStore() *memStore {
	return &memStore{
		bodies:  map[string]*memBody{},
		pending: map[string]*memBody{},
		metas:   map[string]domain.CacheMetadata{},
		corrupt: map[string]bool{},
	}
}

func (s *memStore) Build(_ context.Context, collection, _ string, docs []domain.Document, embeddings [][]float32, _ domain.DistanceMetric) (driven.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buildCalls++
	if s.buildErr != nil {
		return nil, s.buildErr
	}
	if len(docs) != len(embeddings) {
		return nil, fmt.Errorf("%d documents, %d embeddings: %w", len(docs), len(embeddings), domain.ErrDimensionMismatch)
	}
	body := &memBody{docs: docs, embeddings: embeddings}
	s.pending[collection] = body
	return newMemSnapshot(body)
}

func (s *memStore) Open(_ context.Context, collection string) (driven.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	body, ok := s.bodies[collection]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return newMemSnapshot(body)
}

func (s *memStore) ReadMetadata(_ context.Context, collection string) (domain.CacheMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.corrupt[collection] {
		return domain.CacheMetadata{}, domain.ErrCorrupt
	}
	meta, ok := s.metas[collection]
	if !ok {
		return domain.CacheMetadata{}, domain.ErrNotFound
	}
	return meta, nil
}

func (s *memStore) WriteMetadata(_ context.Context, collection string, meta domain.CacheMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.metaErr != nil {
		return s.metaErr
	}
	if body, ok := s.pending[collection]; ok {
		s.bodies[collection] = body
		delete(s.pending, collection)
	}
	s.metas[collection] = meta
	return nil
}

func (s *memStore) Drop(_ context.Context, collection string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bodies, collection)
	delete(s.pending, collection)
	delete(s.metas, collection)
	delete(s.corrupt, collection)
	return nil
}

type memSnapshot struct {
	body     *memBody
	searcher ann.Searcher
}

func newMemSnapshot(body *memBody) (*memSnapshot, error) {
	searcher, err := ann.NewExact(body.embeddings)
	if err != nil {
		return nil, err
	}
	return &memSnapshot{body: body, searcher: searcher}, nil
}

func (s *memSnapshot) Search(_ context.Context, vector []float32, k int) ([]driven.VectorHit, error) {
	hits, err := s.searcher.Search(vector, k)
	if err != nil {
		return nil, err
	}
	out := make([]driven.VectorHit, len(hits))
	for i, h := range hits {
		out[i] = driven.VectorHit{Document: s.body.docs[h.Index], Score: h.Score}
	}
	return out, nil
}

func (s *memSnapshot) Len() int       { return len(s.body.docs) }
func (s *memSnapshot) Dimension() int { return s.searcher.Dimension() }
func (s *memSnapshot) Close() error   { return nil }
