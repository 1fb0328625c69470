// Package services implements the core use cases of the retrieval
// engine: batch embedding, cache validation and rebuild, and query
// retrieval. Services depend on ports only, never on adapters.
package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/mcc-tools/gaql-retrieval/internal/core/domain"
	"github.com/mcc-tools/gaql-retrieval/internal/core/ports/driven"
)

// BatchEmbedderConfig tunes corpus embedding throughput.
type BatchEmbedderConfig struct {
	// BatchSize is the number of texts per provider call.
	BatchSize int

	// Concurrency bounds in-flight provider calls.
	Concurrency int

	// RequestsPerSecond throttles provider calls. Zero disables
	// throttling.
	RequestsPerSecond float64
}

const (
	defaultBatchSize   = 64
	defaultConcurrency = 4
)

// BatchEmbedder embeds a whole corpus through an EmbeddingService,
// chunking, throttling and parallelizing while preserving input order.
type BatchEmbedder struct {
	provider    driven.EmbeddingService
	batchSize   int
	concurrency int
	limiter     *rate.Limiter
}

// NewBatchEmbedder wraps a provider with batching behavior.
func NewBatchEmbedder(provider driven.EmbeddingService, cfg BatchEmbedderConfig) *BatchEmbedder {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return &BatchEmbedder{
		provider:    provider,
		batchSize:   cfg.BatchSize,
		concurrency: cfg.Concurrency,
		limiter:     limiter,
	}
}

// EmbedAll embeds every text, returning vectors in input order. All
// vectors of one call must share a dimension; a ragged result yields
// domain.ErrDimensionMismatch and nothing is returned. Provider
// failures are wrapped in domain.ErrProviderFailure.
func (b *BatchEmbedder) EmbedAll(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, len(texts))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for start := 0; start < len(texts); start += b.batchSize {
		end := start + b.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		start, end := start, end
		g.Go(func() error {
			if err := b.limiter.Wait(ctx); err != nil {
				return err
			}
			vecs, err := b.provider.EmbedBatch(ctx, texts[start:end])
			if err != nil {
				return fmt.Errorf("%w: batch at offset %d: %v", domain.ErrProviderFailure, start, err)
			}
			if len(vecs) != end-start {
				return fmt.Errorf("%w: batch at offset %d returned %d vectors for %d texts",
					domain.ErrProviderFailure, start, len(vecs), end-start)
			}
			copy(out[start:end], vecs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	dim := len(out[0])
	for i, v := range out {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: vector %d has dimension %d, want %d",
				domain.ErrDimensionMismatch, i, len(v), dim)
		}
	}
	return out, nil
}
