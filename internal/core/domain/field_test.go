package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFieldMetadataClassification(t *testing.T) {
	tests := []struct {
		name     string
		field    FieldMetadata
		metric   bool
		segment  bool
		resource string
	}{
		{
			name:     "metric by category",
			field:    FieldMetadata{Name: "clicks", Category: "METRIC"},
			metric:   true,
			resource: "",
		},
		{
			name:     "metric by prefix",
			field:    FieldMetadata{Name: "metrics.clicks"},
			metric:   true,
			resource: "metrics",
		},
		{
			name:     "segment by prefix",
			field:    FieldMetadata{Name: "segments.date"},
			segment:  true,
			resource: "segments",
		},
		{
			name:     "attribute",
			field:    FieldMetadata{Name: "campaign.name", Category: "ATTRIBUTE"},
			resource: "campaign",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.metric, tt.field.IsMetric())
			assert.Equal(t, tt.segment, tt.field.IsSegment())
			assert.Equal(t, tt.resource, tt.field.Resource())
		})
	}
}

func TestFieldDocument(t *testing.T) {
	f := FieldMetadata{
		Name:       "campaign.status",
		Category:   "ATTRIBUTE",
		DataType:   "ENUM",
		Selectable: true,
		Filterable: true,
	}
	doc := FieldDocument(f)

	assert.Equal(t, "campaign.status", doc.ID)
	assert.Equal(t, DescribeField(f), doc.Text)
	assert.Equal(t, "ATTRIBUTE", doc.Attributes.Category)
	assert.Equal(t, "ENUM", doc.Attributes.DataType)
	assert.True(t, doc.Attributes.Selectable)
	assert.True(t, doc.Attributes.Filterable)
	assert.False(t, doc.Attributes.Sortable)
}
