package retrieval

import (
	"context"
	"fmt"
	"time"

	"github.com/mcc-tools/gaql-retrieval/internal/adapters/driven/corpus/cookbook"
	"github.com/mcc-tools/gaql-retrieval/internal/adapters/driven/corpus/fieldschema"
	"github.com/mcc-tools/gaql-retrieval/internal/adapters/driven/embedding/ollama"
	"github.com/mcc-tools/gaql-retrieval/internal/adapters/driven/embedding/openai"
	"github.com/mcc-tools/gaql-retrieval/internal/adapters/driven/index/redis"
	"github.com/mcc-tools/gaql-retrieval/internal/adapters/driven/index/sqlite"
	"github.com/mcc-tools/gaql-retrieval/internal/ann"
	"github.com/mcc-tools/gaql-retrieval/internal/config"
	"github.com/mcc-tools/gaql-retrieval/internal/core/domain"
	"github.com/mcc-tools/gaql-retrieval/internal/core/ports/driven"
	"github.com/mcc-tools/gaql-retrieval/internal/core/services"
	"github.com/mcc-tools/gaql-retrieval/internal/logger"
)

// Collection names served by the engine.
const (
	CollectionQueryCookbook = cookbook.CollectionName
	CollectionFieldMetadata = fieldschema.CollectionName
)

// Options configures Open. Every field is optional; unset fields fall
// back to the config file, environment variables, then defaults.
type Options struct {
	// ConfigPath points at a TOML configuration file.
	ConfigPath string

	// CookbookPath enables the query cookbook collection.
	CookbookPath string

	// FieldSchemaPath enables the field metadata collection.
	FieldSchemaPath string

	// DataDir overrides where snapshot files are kept.
	DataDir string

	// Verbose enables debug logging.
	Verbose bool
}

// Result is one retrieved document.
type Result struct {
	ID    string
	Text  string
	Score float64

	// Query is set for cookbook results: the example's structured
	// query, returned as translation context.
	Query string

	// Schema attributes, set for field metadata results.
	Category          string
	DataType          string
	Selectable        bool
	Filterable        bool
	Sortable          bool
	MetricsCompatible bool
	ResourceName      string
}

// Status reports the cache state of one collection.
type Status struct {
	Collection    string
	State         string
	DocumentCount int
	Dimension     int
	ModelID       string
	BuiltAt       time.Time
}

// Engine is the public retrieval surface. Safe for concurrent use.
type Engine struct {
	svc      *services.Retrieval
	provider driven.EmbeddingService
	closers  []func() error
}

// Open wires the engine from options, config file and environment.
// At least one collection path must be configured.
func Open(opts Options) (*Engine, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.CookbookPath != "" {
		cfg.Collections.CookbookPath = opts.CookbookPath
	}
	if opts.FieldSchemaPath != "" {
		cfg.Collections.FieldSchemaPath = opts.FieldSchemaPath
	}
	if opts.DataDir != "" {
		cfg.Index.DataDir = opts.DataDir
	}
	if opts.Verbose {
		cfg.Verbose = true
	}
	logger.SetVerbose(cfg.Verbose)

	if cfg.Collections.CookbookPath == "" && cfg.Collections.FieldSchemaPath == "" {
		return nil, fmt.Errorf("no collections configured: set a cookbook or field schema path")
	}

	engine := &Engine{}
	engine.provider = newProvider(cfg.Embedding)
	engine.closers = append(engine.closers, engine.provider.Close)

	store, err := newStore(cfg, engine)
	if err != nil {
		engine.Close()
		return nil, err
	}

	embedder := services.NewBatchEmbedder(engine.provider, services.BatchEmbedderConfig{
		BatchSize:         cfg.Embedding.BatchSize,
		Concurrency:       cfg.Embedding.Concurrency,
		RequestsPerSecond: cfg.Embedding.RequestsPerSecond,
	})

	var suppliers []driven.CorpusSupplier
	if cfg.Collections.CookbookPath != "" {
		suppliers = append(suppliers, cookbook.New(cfg.Collections.CookbookPath))
	}
	if cfg.Collections.FieldSchemaPath != "" {
		suppliers = append(suppliers, fieldschema.New(cfg.Collections.FieldSchemaPath))
	}

	managers := make([]*services.CacheManager, len(suppliers))
	for i, supplier := range suppliers {
		managers[i] = services.NewCacheManager(supplier, store, engine.provider, embedder,
			domain.DistanceMetric(cfg.Index.Metric))
	}

	engine.svc = services.NewRetrieval(engine.provider, managers, cfg.Index.MinScore)
	engine.closers = append(engine.closers, engine.svc.Close)
	return engine, nil
}

func newProvider(cfg config.EmbeddingConfig) driven.EmbeddingService {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if cfg.Provider == "ollama" {
		return ollama.New(ollama.Config{
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			Timeout:    timeout,
		})
	}
	return openai.New(openai.Config{
		BaseURL:    cfg.BaseURL,
		APIKey:     cfg.APIKey,
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
		Timeout:    timeout,
	})
}

func newStore(cfg config.Config, engine *Engine) (driven.VectorStore, error) {
	if cfg.Index.Backend == "redis" {
		store := redis.New(redis.Config{
			Addr:           cfg.Redis.Addr,
			Password:       cfg.Redis.Password,
			DB:             cfg.Redis.DB,
			ANNThreshold:   cfg.Index.ANNThreshold,
			M:              cfg.Index.HNSWM,
			EfConstruction: cfg.Index.HNSWEfConstruction,
		})
		engine.closers = append(engine.closers, store.Close)
		return store, nil
	}
	return sqlite.New(sqlite.Config{
		DataDir:      cfg.Index.DataDir,
		ANNThreshold: cfg.Index.ANNThreshold,
		HNSW: ann.Config{
			M:              cfg.Index.HNSWM,
			EfConstruction: cfg.Index.HNSWEfConstruction,
			EfSearch:       cfg.Index.HNSWEfSearch,
		},
	})
}

// Retrieve returns up to maxResults documents relevant to the query.
// Retrieval is best effort: any failure is logged and degrades to an
// empty result so translation can proceed without context.
func (e *Engine) Retrieve(ctx context.Context, collection, query string, maxResults int) []Result {
	results, err := e.svc.Retrieve(ctx, collection, query, maxResults)
	if err != nil {
		logger.Warn("retrieve %s: %v, proceeding without context", collection, err)
		return nil
	}
	out := make([]Result, len(results))
	for i, r := range results {
		out[i] = Result{
			ID:                r.Document.ID,
			Text:              r.Document.Text,
			Score:             r.Score,
			Query:             r.Document.Attributes.Query,
			Category:          r.Document.Attributes.Category,
			DataType:          r.Document.Attributes.DataType,
			Selectable:        r.Document.Attributes.Selectable,
			Filterable:        r.Document.Attributes.Filterable,
			Sortable:          r.Document.Attributes.Sortable,
			MetricsCompatible: r.Document.Attributes.MetricsCompatible,
			ResourceName:      r.Document.Attributes.ResourceName,
		}
	}
	return out
}

// Warm builds every configured collection up front so the first
// Retrieve call does not pay for embedding a cold corpus.
func (e *Engine) Warm(ctx context.Context) error {
	return e.svc.Warm(ctx)
}

// Status reports cache state for one collection without rebuilding.
func (e *Engine) Status(ctx context.Context, collection string) (Status, error) {
	s, err := e.svc.Status(ctx, collection)
	if err != nil {
		return Status{}, err
	}
	return Status{
		Collection:    s.Collection,
		State:         string(s.State),
		DocumentCount: s.DocumentCount,
		Dimension:     s.Dimension,
		ModelID:       s.ModelID,
		BuiltAt:       s.BuiltAt,
	}, nil
}

// Invalidate drops one collection's snapshot; the next access rebuilds
// it from the current corpus.
func (e *Engine) Invalidate(ctx context.Context, collection string) error {
	return e.svc.Invalidate(ctx, collection)
}

// Collections lists configured collection names, sorted.
func (e *Engine) Collections() []string {
	return e.svc.Collections()
}

// Close releases all engine resources.
func (e *Engine) Close() error {
	var firstErr error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
