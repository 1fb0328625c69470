package domain

// Document is one retrievable unit within a collection. It is created
// during a rebuild together with its embedding and is immutable afterwards.
type Document struct {
	// ID is unique within a collection and stable across rebuilds.
	ID string

	// Text is the string that gets embedded. For field metadata this is
	// a synthesized description (see DescribeField), not the raw name.
	Text string

	// Attributes carries the typed, collection-specific fields persisted
	// next to the document and returned with search results.
	Attributes Attributes
}

// Attributes holds the union of per-collection document attributes.
// The query cookbook populates Query; the field metadata collection
// populates the schema fields. Zero values are omitted from storage.
type Attributes struct {
	// Query is the structured query associated with an example document.
	Query string `json:"query,omitempty"`

	// Category is the schema category (ATTRIBUTE, METRIC, SEGMENT, RESOURCE).
	Category string `json:"category,omitempty"`

	// DataType is the schema data type (STRING, INT64, DATE, ...).
	DataType string `json:"data_type,omitempty"`

	Selectable        bool `json:"selectable,omitempty"`
	Filterable        bool `json:"filterable,omitempty"`
	Sortable          bool `json:"sortable,omitempty"`
	MetricsCompatible bool `json:"metrics_compatible,omitempty"`

	// ResourceName is the parent resource, when the schema reports one.
	ResourceName string `json:"resource_name,omitempty"`
}

// RetrievalResult is a single ranked hit returned to callers.
// Score is always "higher = more relevant" regardless of the
// underlying distance metric.
type RetrievalResult struct {
	Document Document
	Score    float64
}
