package cookbook

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCookbook(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cookbook.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCorpusParsesEntries(t *testing.T) {
	path := writeCookbook(t, `
[top_campaigns]
description = "Top spending campaigns last month"
query = "SELECT campaign.name, metrics.cost_micros FROM campaign"

[clicks_by_device]
description = "Clicks broken down by device"
query = "SELECT segments.device, metrics.clicks FROM campaign"
`)

	corpus, err := New(path).Corpus(context.Background())
	require.NoError(t, err)
	require.Len(t, corpus.Documents, 2)
	assert.Empty(t, corpus.Tag)

	// Sorted by ID.
	assert.Less(t, corpus.Documents[0].ID, corpus.Documents[1].ID)

	byText := map[string]string{}
	for _, d := range corpus.Documents {
		byText[d.Text] = d.Attributes.Query
	}
	assert.Equal(t,
		"SELECT campaign.name, metrics.cost_micros FROM campaign",
		byText["Top spending campaigns last month"])
}

func TestCorpusSkipsEntriesWithoutDescription(t *testing.T) {
	path := writeCookbook(t, `
[good]
description = "Has a description"
query = "SELECT campaign.id FROM campaign"

[bad]
description = "   "
query = "SELECT campaign.name FROM campaign"
`)

	corpus, err := New(path).Corpus(context.Background())
	require.NoError(t, err)
	require.Len(t, corpus.Documents, 1)
	assert.Equal(t, "Has a description", corpus.Documents[0].Text)
}

func TestCorpusMissingFile(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope.toml")).Corpus(context.Background())
	assert.Error(t, err)
}

func TestCorpusMalformedFile(t *testing.T) {
	path := writeCookbook(t, "not [valid toml")
	_, err := New(path).Corpus(context.Background())
	assert.Error(t, err)
}

func TestDocumentIDStableSlug(t *testing.T) {
	id := documentID("Top Campaigns!", "SELECT campaign.name FROM campaign")
	assert.Equal(t, "query_top_campaigns__select_campaig", id)

	// Same inputs, same ID; changed query, changed ID.
	assert.Equal(t, id, documentID("Top Campaigns!", "SELECT campaign.name FROM campaign"))
	assert.NotEqual(t, id, documentID("Top Campaigns!", "SELECT campaign.id FROM campaign"))
}
