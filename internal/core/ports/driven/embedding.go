package driven

import "context"

// EmbeddingService generates vector embeddings for text. Implementations
// wrap a concrete provider (OpenAI-compatible HTTP API, local Ollama).
type EmbeddingService interface {
	// Embed generates an embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts in one
	// provider call, preserving input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the dimensionality of produced embeddings.
	Dimensions() int

	// ModelID identifies the provider, model and dimension in one
	// stable string (e.g. "openai/text-embedding-3-small@1536"). It
	// participates in content fingerprints: a changed model invalidates
	// every snapshot built with the old one.
	ModelID() string

	// Ping verifies the provider is reachable and serving the model.
	Ping(ctx context.Context) error

	// Close releases resources held by the service.
	Close() error
}
