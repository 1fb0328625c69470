// Package domain contains the core entities of the retrieval engine:
// documents, field metadata, content fingerprints, cache metadata and
// the description enricher. It has no dependencies on adapters and no
// knowledge of how documents are persisted or embedded.
package domain
