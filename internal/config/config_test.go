package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[embedding]
provider = "ollama"
model = "nomic-embed-text"
batch_size = 16

[index]
min_score = 0.5

[collections]
cookbook_path = "/srv/cookbook.toml"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "ollama", cfg.Embedding.Provider)
	assert.Equal(t, 16, cfg.Embedding.BatchSize)
	assert.Equal(t, 0.5, cfg.Index.MinScore)
	assert.Equal(t, "/srv/cookbook.toml", cfg.Collections.CookbookPath)

	// Untouched fields keep their defaults.
	assert.Equal(t, "sqlite", cfg.Index.Backend)
	assert.Equal(t, 256, cfg.Index.ANNThreshold)
	assert.Equal(t, 4, cfg.Embedding.Concurrency)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[embedding]
provider = "openai"
`), 0o644))

	t.Setenv("GAQL_RETRIEVAL_PROVIDER", "ollama")
	t.Setenv("GAQL_RETRIEVAL_MIN_SCORE", "0.4")
	t.Setenv("GAQL_RETRIEVAL_VERBOSE", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ollama", cfg.Embedding.Provider)
	assert.Equal(t, 0.4, cfg.Index.MinScore)
	assert.True(t, cfg.Verbose)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("not [valid"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidateRejectsNonsense(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown provider", func(c *Config) { c.Embedding.Provider = "bert" }},
		{"unknown backend", func(c *Config) { c.Index.Backend = "postgres" }},
		{"unknown metric", func(c *Config) { c.Index.Metric = "euclidean" }},
		{"min score out of range", func(c *Config) { c.Index.MinScore = 1.5 }},
		{"zero batch size", func(c *Config) { c.Embedding.BatchSize = 0 }},
		{"zero ann threshold", func(c *Config) { c.Index.ANNThreshold = 0 }},
		{"redis backend without addr", func(c *Config) { c.Index.Backend = "redis" }},
		{"sqlite backend without data dir", func(c *Config) { c.Index.DataDir = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
