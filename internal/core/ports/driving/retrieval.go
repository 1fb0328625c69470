// Package driving defines the inbound ports of the retrieval engine:
// the interfaces core services expose to callers.
package driving

import (
	"context"

	"github.com/mcc-tools/gaql-retrieval/internal/core/domain"
)

// RetrievalService answers similarity queries against registered
// collections, transparently building or rebuilding snapshots as
// needed.
type RetrievalService interface {
	// Retrieve returns up to maxResults documents relevant to the
	// query, filtered by the configured minimum score. An unknown or
	// unbuildable-but-recoverable collection yields an empty slice and
	// nil error; provider and persistence failures are returned.
	Retrieve(ctx context.Context, collection, query string, maxResults int) ([]domain.RetrievalResult, error)

	// Warm ensures every registered collection has a valid snapshot,
	// building concurrently where possible.
	Warm(ctx context.Context) error

	// Status reports cache state for one collection without
	// triggering a rebuild.
	Status(ctx context.Context, collection string) (domain.CacheStatus, error)

	// Invalidate drops the snapshot for one collection so the next
	// access rebuilds it.
	Invalidate(ctx context.Context, collection string) error
}
