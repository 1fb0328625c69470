package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/mcc-tools/gaql-retrieval/internal/core/domain"
	"github.com/mcc-tools/gaql-retrieval/internal/core/ports/driving"
	"github.com/mcc-tools/gaql-retrieval/internal/logger"
)

// Retrieval answers similarity queries across registered collections.
// It implements driving.RetrievalService.
type Retrieval struct {
	provider embedQuerier
	managers map[string]*CacheManager
	minScore float64
}

// embedQuerier is the slice of EmbeddingService retrieval needs for
// queries.
type embedQuerier interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

var _ driving.RetrievalService = (*Retrieval)(nil)

// NewRetrieval registers one manager per collection. Results scoring
// below minScore are dropped before truncation.
func NewRetrieval(provider embedQuerier, managers []*CacheManager, minScore float64) *Retrieval {
	byName := make(map[string]*CacheManager, len(managers))
	for _, m := range managers {
		byName[m.Collection()] = m
	}
	return &Retrieval{provider: provider, managers: byName, minScore: minScore}
}

// Retrieve returns up to maxResults documents relevant to the query.
// Unknown collections degrade to an empty result with a warning;
// provider and persistence failures propagate.
func (r *Retrieval) Retrieve(ctx context.Context, collection, query string, maxResults int) ([]domain.RetrievalResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	if maxResults <= 0 {
		return nil, fmt.Errorf("%w: max results %d", domain.ErrInvalidInput, maxResults)
	}

	mgr, ok := r.managers[collection]
	if !ok {
		logger.Warn("retrieve: unknown collection %q, returning no results", collection)
		return nil, nil
	}

	snap, err := mgr.Ensure(ctx)
	if err != nil {
		return nil, err
	}
	if snap.Len() == 0 {
		return nil, nil
	}

	vec, err := r.provider.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %v", domain.ErrProviderFailure, err)
	}

	hits, err := snap.Search(ctx, vec, maxResults)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", collection, err)
	}

	results := make([]domain.RetrievalResult, 0, len(hits))
	for _, h := range hits {
		if h.Score < r.minScore {
			continue
		}
		results = append(results, domain.RetrievalResult{Document: h.Document, Score: h.Score})
	}
	logger.Debug("retrieve %s: %d hits, %d above threshold %.2f",
		collection, len(hits), len(results), r.minScore)
	return results, nil
}

// Warm builds every registered collection concurrently. Collections
// are independent resources so one failure does not stop the others;
// the first error is returned after all attempts finish.
func (r *Retrieval) Warm(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, mgr := range r.managers {
		mgr := mgr
		g.Go(func() error {
			if _, err := mgr.Ensure(ctx); err != nil {
				return fmt.Errorf("warm %s: %w", mgr.Collection(), err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Status reports cache state for one collection.
func (r *Retrieval) Status(ctx context.Context, collection string) (domain.CacheStatus, error) {
	mgr, ok := r.managers[collection]
	if !ok {
		return domain.CacheStatus{}, fmt.Errorf("collection %q: %w", collection, domain.ErrNotFound)
	}
	return mgr.Status(ctx)
}

// Invalidate drops one collection's snapshot.
func (r *Retrieval) Invalidate(ctx context.Context, collection string) error {
	mgr, ok := r.managers[collection]
	if !ok {
		return fmt.Errorf("collection %q: %w", collection, domain.ErrNotFound)
	}
	return mgr.Invalidate(ctx)
}

// Collections lists registered collection names, sorted.
func (r *Retrieval) Collections() []string {
	names := make([]string, 0, len(r.managers))
	for name := range r.managers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close releases every manager's resources.
func (r *Retrieval) Close() error {
	var firstErr error
	for _, mgr := range r.managers {
		if err := mgr.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
