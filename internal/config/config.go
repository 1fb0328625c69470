// Package config loads engine configuration from a TOML file merged
// with environment variable overrides. A .env file in the working
// directory is honored when present.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/mcc-tools/gaql-retrieval/internal/core/domain"
)

// envPrefix namespaces every override variable.
const envPrefix = "GAQL_RETRIEVAL_"

// Config is the full engine configuration.
type Config struct {
	Verbose     bool              `toml:"verbose"`
	Embedding   EmbeddingConfig   `toml:"embedding"`
	Index       IndexConfig       `toml:"index"`
	Redis       RedisConfig       `toml:"redis"`
	Collections CollectionsConfig `toml:"collections"`
}

// EmbeddingConfig selects and tunes the embedding provider.
type EmbeddingConfig struct {
	Provider          string  `toml:"provider"`
	BaseURL           string  `toml:"base_url"`
	Model             string  `toml:"model"`
	APIKey            string  `toml:"api_key"`
	Dimensions        int     `toml:"dimensions"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	BatchSize         int     `toml:"batch_size"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Concurrency       int     `toml:"concurrency"`
}

// IndexConfig selects and tunes the snapshot backend.
type IndexConfig struct {
	Backend            string  `toml:"backend"`
	DataDir            string  `toml:"data_dir"`
	MinScore           float64 `toml:"min_score"`
	ANNThreshold       int     `toml:"ann_threshold"`
	Metric             string  `toml:"metric"`
	HNSWM              int     `toml:"hnsw_m"`
	HNSWEfConstruction int     `toml:"hnsw_ef_construction"`
	HNSWEfSearch       int     `toml:"hnsw_ef_search"`
}

// RedisConfig applies when the redis backend is selected.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// CollectionsConfig points at the corpus source files.
type CollectionsConfig struct {
	CookbookPath    string `toml:"cookbook_path"`
	FieldSchemaPath string `toml:"field_schema_path"`
}

// Default returns a configuration that works out of the box with an
// OpenAI key in the environment.
func Default() Config {
	dataDir := ".gaql-retrieval"
	if cache, err := os.UserCacheDir(); err == nil {
		dataDir = filepath.Join(cache, "gaql-retrieval")
	}
	return Config{
		Embedding: EmbeddingConfig{
			Provider:       "openai",
			TimeoutSeconds: 30,
			BatchSize:      64,
			Concurrency:    4,
		},
		Index: IndexConfig{
			Backend:      "sqlite",
			DataDir:      dataDir,
			MinScore:     0.25,
			ANNThreshold: 256,
			Metric:       string(domain.MetricCosine),
		},
	}
}

// Load builds the effective configuration: defaults, then the TOML
// file at path (skipped when path is empty), then environment
// overrides. The result is validated.
func Load(path string) (Config, error) {
	// Missing .env files are the normal case.
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(envPrefix + key); ok {
			*dst = v
		}
	}
	setString("PROVIDER", &c.Embedding.Provider)
	setString("BASE_URL", &c.Embedding.BaseURL)
	setString("MODEL", &c.Embedding.Model)
	setString("API_KEY", &c.Embedding.APIKey)
	setString("BACKEND", &c.Index.Backend)
	setString("DATA_DIR", &c.Index.DataDir)
	setString("REDIS_ADDR", &c.Redis.Addr)
	setString("REDIS_PASSWORD", &c.Redis.Password)
	setString("COOKBOOK_PATH", &c.Collections.CookbookPath)
	setString("FIELD_SCHEMA_PATH", &c.Collections.FieldSchemaPath)

	if v, ok := os.LookupEnv(envPrefix + "MIN_SCORE"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Index.MinScore = f
		}
	}
	if v, ok := os.LookupEnv(envPrefix + "VERBOSE"); ok {
		c.Verbose = v == "1" || strings.EqualFold(v, "true")
	}
}

// Validate rejects configurations the engine cannot run with.
func (c Config) Validate() error {
	switch c.Embedding.Provider {
	case "openai", "ollama":
	default:
		return fmt.Errorf("unknown embedding provider %q", c.Embedding.Provider)
	}
	if c.Embedding.BatchSize <= 0 {
		return fmt.Errorf("embedding batch_size must be positive, got %d", c.Embedding.BatchSize)
	}
	if c.Embedding.Concurrency <= 0 {
		return fmt.Errorf("embedding concurrency must be positive, got %d", c.Embedding.Concurrency)
	}
	if c.Embedding.RequestsPerSecond < 0 {
		return fmt.Errorf("embedding requests_per_second cannot be negative")
	}

	switch c.Index.Backend {
	case "sqlite":
		if c.Index.DataDir == "" {
			return fmt.Errorf("index data_dir is required for the sqlite backend")
		}
	case "redis":
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown index backend %q", c.Index.Backend)
	}

	if !domain.DistanceMetric(c.Index.Metric).Valid() {
		return fmt.Errorf("unknown distance metric %q", c.Index.Metric)
	}
	if c.Index.MinScore < -1 || c.Index.MinScore > 1 {
		return fmt.Errorf("index min_score must be within [-1, 1], got %g", c.Index.MinScore)
	}
	if c.Index.ANNThreshold <= 0 {
		return fmt.Errorf("index ann_threshold must be positive, got %d", c.Index.ANNThreshold)
	}
	return nil
}
