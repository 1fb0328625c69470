package driven

import (
	"context"

	"github.com/mcc-tools/gaql-retrieval/internal/core/domain"
)

// VectorHit is a single scored match from a snapshot search.
type VectorHit struct {
	Document domain.Document
	Score    float64
}

// Snapshot is an immutable, fully-built vector index for one
// collection. Searches against a snapshot are safe for concurrent use.
type Snapshot interface {
	// Search returns up to k hits for the query vector, ordered by
	// non-increasing score. Scores follow the snapshot's metric
	// contract: higher = more relevant.
	Search(ctx context.Context, vector []float32, k int) ([]VectorHit, error)

	// Len returns the number of documents in the snapshot.
	Len() int

	// Dimension returns the embedding dimensionality of the snapshot.
	Dimension() int

	// Close releases resources held by the snapshot.
	Close() error
}

// VectorStore persists per-collection snapshots with atomic replacement
// semantics: a new build becomes visible all at once or not at all, and
// a failed build leaves the previous snapshot untouched.
type VectorStore interface {
	// Build writes a complete snapshot for the collection under the
	// given build ID and swaps it in. docs and embeddings correspond
	// index-for-index; mismatched lengths or ragged dimensions yield
	// domain.ErrDimensionMismatch before anything is written.
	Build(ctx context.Context, collection, buildID string, docs []domain.Document, embeddings [][]float32, metric domain.DistanceMetric) (Snapshot, error)

	// Open loads the current snapshot for the collection.
	// domain.ErrNotFound when none exists, domain.ErrCorrupt when the
	// persisted data cannot be parsed.
	Open(ctx context.Context, collection string) (Snapshot, error)

	// ReadMetadata loads the sidecar metadata without opening the
	// snapshot body. Same error contract as Open.
	ReadMetadata(ctx context.Context, collection string) (domain.CacheMetadata, error)

	// WriteMetadata persists the sidecar record. Called only after the
	// snapshot body is durable; its presence marks a complete build.
	WriteMetadata(ctx context.Context, collection string, meta domain.CacheMetadata) error

	// Drop removes the snapshot and its metadata. Removing a
	// collection that does not exist is not an error.
	Drop(ctx context.Context, collection string) error
}
