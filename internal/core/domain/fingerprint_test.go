package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDocs() []Document {
	return []Document{
		{ID: "campaign.name", Text: "campaign name field", Attributes: Attributes{Category: "ATTRIBUTE", DataType: "STRING", Selectable: true}},
		{ID: "metrics.clicks", Text: "click performance metric", Attributes: Attributes{Category: "METRIC", DataType: "INT64", Selectable: true, Sortable: true}},
		{ID: "segments.date", Text: "date segment", Attributes: Attributes{Category: "SEGMENT", DataType: "DATE", Filterable: true}},
	}
}

func TestComputeFingerprintStable(t *testing.T) {
	a := ComputeFingerprint(sampleDocs(), "openai/text-embedding-3-small@1536", "v21")
	b := ComputeFingerprint(sampleDocs(), "openai/text-embedding-3-small@1536", "v21")
	assert.Equal(t, a, b)
	assert.Equal(t, SchemaVersion, a.SchemaVersion)
}

func TestComputeFingerprintIgnoresOrder(t *testing.T) {
	docs := sampleDocs()
	reversed := []Document{docs[2], docs[0], docs[1]}

	a := ComputeFingerprint(docs, "model", "")
	b := ComputeFingerprint(reversed, "model", "")
	assert.Equal(t, a, b)
}

func TestComputeFingerprintSensitivity(t *testing.T) {
	base := ComputeFingerprint(sampleDocs(), "model", "v21")

	changedText := sampleDocs()
	changedText[0].Text = "something else"
	assert.NotEqual(t, base.Hash, ComputeFingerprint(changedText, "model", "v21").Hash)

	changedAttr := sampleDocs()
	changedAttr[1].Attributes.Sortable = false
	assert.NotEqual(t, base.Hash, ComputeFingerprint(changedAttr, "model", "v21").Hash)

	assert.NotEqual(t, base.Hash, ComputeFingerprint(sampleDocs(), "other-model", "v21").Hash)
	assert.NotEqual(t, base.Hash, ComputeFingerprint(sampleDocs(), "model", "v22").Hash)
}

func TestComputeFingerprintEmptyCorpus(t *testing.T) {
	a := ComputeFingerprint(nil, "model", "")
	b := ComputeFingerprint([]Document{}, "model", "")
	assert.Equal(t, a, b)
	assert.NotZero(t, a.Hash)
}

func TestFingerprintRoundTrip(t *testing.T) {
	fp := ComputeFingerprint(sampleDocs(), "model", "")

	parsed, err := ParseFingerprint(fp.String())
	require.NoError(t, err)
	assert.Equal(t, fp, parsed)
}

func TestParseFingerprintRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "v1", "1\n2", "vX\n42", "v1\nnot-a-number"} {
		_, err := ParseFingerprint(s)
		assert.ErrorIs(t, err, ErrCorrupt, "input %q", s)
	}
}
