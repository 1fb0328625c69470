package retrieval

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCookbook(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cookbook.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[top_campaigns]
description = "Top spending campaigns last month"
query = "SELECT campaign.name, metrics.cost_micros FROM campaign"
`), 0o644))
	return path
}

func TestOpenRequiresCollections(t *testing.T) {
	_, err := Open(Options{DataDir: t.TempDir()})
	assert.Error(t, err)
}

func TestOpenWiresConfiguredCollections(t *testing.T) {
	engine, err := Open(Options{
		CookbookPath: writeCookbook(t),
		DataDir:      t.TempDir(),
	})
	require.NoError(t, err)
	defer engine.Close()

	assert.Equal(t, []string{CollectionQueryCookbook}, engine.Collections())

	status, err := engine.Status(context.Background(), CollectionQueryCookbook)
	require.NoError(t, err)
	assert.Equal(t, CollectionQueryCookbook, status.Collection)
	assert.Equal(t, "missing", status.State)
}

func TestRetrieveUnknownCollectionDegrades(t *testing.T) {
	engine, err := Open(Options{
		CookbookPath: writeCookbook(t),
		DataDir:      t.TempDir(),
	})
	require.NoError(t, err)
	defer engine.Close()

	results := engine.Retrieve(context.Background(), "unknown", "anything", 3)
	assert.Empty(t, results)
}
