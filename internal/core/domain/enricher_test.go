package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDescribeFieldDeterministic(t *testing.T) {
	f := FieldMetadata{
		Name:       "metrics.clicks",
		Category:   "METRIC",
		DataType:   "INT64",
		Selectable: true,
		Sortable:   true,
	}
	assert.Equal(t, DescribeField(f), DescribeField(f))
}

func TestDescribeFieldSections(t *testing.T) {
	f := FieldMetadata{
		Name:              "metrics.cost_per_conversion",
		Category:          "METRIC",
		DataType:          "DOUBLE",
		Selectable:        true,
		Filterable:        true,
		MetricsCompatible: true,
	}
	desc := DescribeField(f)

	assert.Contains(t, desc, "metrics cost per conversion")
	assert.Contains(t, desc, "performance metric")
	assert.Contains(t, desc, "decimal number")
	assert.Contains(t, desc, "selectable filterable metrics-compatible")
	assert.Contains(t, desc, "conversion tracking")
	assert.Contains(t, desc, "cost and spend")
	assert.NotContains(t, desc, "sortable")
}

func TestDescribeFieldOmitsEmptySections(t *testing.T) {
	f := FieldMetadata{Name: "oddball"}
	desc := DescribeField(f)

	assert.Equal(t, "oddball field oddball", desc)
	assert.False(t, strings.HasSuffix(desc, "; "))
}

func TestDescribeFieldImpressionShare(t *testing.T) {
	f := FieldMetadata{Name: "metrics.search_impression_share", Category: "METRIC"}
	desc := DescribeField(f)

	assert.Contains(t, desc, "impression share competitiveness")
	assert.NotContains(t, desc, "impression volume")
	assert.Contains(t, desc, "search advertising")
}

func TestDescribeFieldDomainTags(t *testing.T) {
	f := FieldMetadata{Name: "campaign.video_brand_safety_suitability", Category: "ATTRIBUTE"}
	desc := DescribeField(f)

	assert.Contains(t, desc, "campaign management")
	assert.Contains(t, desc, "video advertising")
}

func TestDescribeFieldDedupesSharedPhrases(t *testing.T) {
	// "name" and "id" both map to entity identity; it must appear once.
	f := FieldMetadata{Name: "ad_group.campaign_id_name", Category: "ATTRIBUTE"}
	desc := DescribeField(f)

	assert.Equal(t, 1, strings.Count(desc, "entity identity"))
}
