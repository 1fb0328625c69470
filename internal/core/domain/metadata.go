package domain

import "time"

// DistanceMetric names the scoring function a snapshot was built with.
type DistanceMetric string

const (
	// MetricCosine scores by cosine similarity, clamped to [-1, 1],
	// higher = more relevant.
	MetricCosine DistanceMetric = "cosine"
)

// Valid reports whether the metric is one the engine supports.
func (m DistanceMetric) Valid() bool {
	return m == MetricCosine
}

// CacheMetadata is the sidecar record persisted next to a snapshot. It
// is readable without opening the snapshot body and is written only
// after the body is durable, so its presence implies a complete build.
type CacheMetadata struct {
	SchemaVersion int            `json:"schema_version"`
	ModelID       string         `json:"model_id"`
	ContentHash   uint64         `json:"content_hash"`
	BuildID       string         `json:"build_id"`
	CreatedAt     time.Time      `json:"created_at"`
	Metric        DistanceMetric `json:"metric"`
	Dimension     int            `json:"dimension"`
	DocumentCount int            `json:"document_count"`
}

// Fingerprint reconstructs the content fingerprint the metadata was
// written for.
func (m CacheMetadata) Fingerprint() Fingerprint {
	return Fingerprint{SchemaVersion: m.SchemaVersion, Hash: m.ContentHash}
}

// CacheState is the outcome of validating a collection's cache.
type CacheState string

const (
	// StateValid means the persisted snapshot matches the current
	// corpus, model and schema version; it is served as-is.
	StateValid CacheState = "valid"

	// StateStale means a snapshot exists but its fingerprint no longer
	// matches; it is rebuilt.
	StateStale CacheState = "stale"

	// StateMissing means no snapshot has ever been built.
	StateMissing CacheState = "missing"

	// StateCorrupt means persisted data could not be parsed; it is
	// rebuilt from scratch.
	StateCorrupt CacheState = "corrupt"
)

// CacheStatus is the report returned by status inspection. It never
// triggers a rebuild.
type CacheStatus struct {
	Collection    string
	State         CacheState
	DocumentCount int
	Dimension     int
	ModelID       string
	BuiltAt       time.Time
}
