package driven

import (
	"context"

	"github.com/mcc-tools/gaql-retrieval/internal/core/domain"
)

// Corpus is the full document set for one collection at a point in
// time, plus an opaque tag describing the upstream source version
// (e.g. the schema API version). The tag participates in content
// fingerprints so an upstream version bump forces a rebuild even when
// the rendered documents happen to be identical.
type Corpus struct {
	Documents []domain.Document
	Tag       string
}

// CorpusSupplier produces the corpus for one collection. Suppliers
// return documents sorted by ID and never mutate previously returned
// slices.
type CorpusSupplier interface {
	// Collection names the collection this supplier feeds.
	Collection() string

	// Corpus loads the current document set from the source.
	Corpus(ctx context.Context) (Corpus, error)
}
