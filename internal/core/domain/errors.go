package domain

import "errors"

// Domain errors represent the failure taxonomy of the retrieval engine.
// Infrastructure adapters wrap lower-level errors in these sentinels so
// that callers can branch with errors.Is.
var (
	// ErrNotFound indicates a collection snapshot or metadata record
	// does not exist. Treated as "must rebuild", never surfaced to the
	// retrieval caller.
	ErrNotFound = errors.New("not found")

	// ErrCorrupt indicates persisted data could not be parsed. Treated
	// like ErrNotFound (forces a rebuild) with a warning log.
	ErrCorrupt = errors.New("corrupt snapshot")

	// ErrDimensionMismatch indicates embeddings within one build
	// disagree, or a stored dimension disagrees with the current model.
	// Fatal for that rebuild; a mismatched build must never persist.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrProviderFailure indicates an embedding provider call failed.
	// Recoverable: the caller may retry or proceed without retrieval.
	ErrProviderFailure = errors.New("embedding provider failure")

	// ErrPersistenceFailure indicates a snapshot write or swap failed.
	// The previously valid snapshot, if any, remains current.
	ErrPersistenceFailure = errors.New("snapshot persistence failure")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")
)
