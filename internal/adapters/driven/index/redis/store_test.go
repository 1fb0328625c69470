package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyLayout(t *testing.T) {
	assert.Equal(t, "gaqlret:meta:fields", metaKey("fields"))
	assert.Equal(t, "gaqlret:doc:fields:b1:", docPrefix("fields", "b1"))
	assert.Equal(t, "gaqlret:idx:fields:b1", indexName("fields", "b1"))
}

func TestDistanceToScore(t *testing.T) {
	assert.InDelta(t, 1.0, distanceToScore(0), 1e-9)
	assert.InDelta(t, 0.0, distanceToScore(1), 1e-9)
	assert.InDelta(t, -1.0, distanceToScore(2), 1e-9)

	// Float noise outside the valid range is clamped.
	assert.Equal(t, 1.0, distanceToScore(-0.0001))
	assert.Equal(t, -1.0, distanceToScore(2.0001))
}

func TestParseSearchReplyRESP2(t *testing.T) {
	reply := []any{
		int64(2),
		"gaqlret:doc:fields:b1:0",
		[]any{"id", "metrics.clicks", "text", "click metric", "attributes", `{"category":"METRIC"}`, "distance", "0.1"},
		"gaqlret:doc:fields:b1:2",
		[]any{"id", "campaign.name", "text", "campaign name", "attributes", "", "distance", "0.8"},
	}

	hits, err := parseSearchReply(reply)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, "metrics.clicks", hits[0].Document.ID)
	assert.Equal(t, "METRIC", hits[0].Document.Attributes.Category)
	assert.InDelta(t, 0.9, hits[0].Score, 1e-9)
	assert.InDelta(t, 0.2, hits[1].Score, 1e-9)
}

func TestParseSearchReplyRESP3(t *testing.T) {
	reply := map[any]any{
		"total_results": int64(1),
		"results": []any{
			map[any]any{
				"id": "gaqlret:doc:fields:b1:0",
				"extra_attributes": map[any]any{
					"id":         "segments.date",
					"text":       "date segment",
					"attributes": `{"category":"SEGMENT"}`,
					"distance":   "0.25",
				},
			},
		},
	}

	hits, err := parseSearchReply(reply)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "segments.date", hits[0].Document.ID)
	assert.InDelta(t, 0.75, hits[0].Score, 1e-9)
}

func TestParseSearchReplyRejectsGarbage(t *testing.T) {
	_, err := parseSearchReply("nope")
	assert.Error(t, err)

	_, err = parseSearchReply(map[any]any{"results": "wrong"})
	assert.Error(t, err)

	_, err = parseSearchReply([]any{
		int64(1),
		"key",
		[]any{"id", "x", "distance", "not-a-number"},
	})
	assert.Error(t, err)
}
