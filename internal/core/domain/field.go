package domain

import "strings"

// FieldMetadata describes a single structured-schema field as reported
// by the upstream schema service.
type FieldMetadata struct {
	Name              string `json:"name"`
	Category          string `json:"category"`
	DataType          string `json:"data_type"`
	Selectable        bool   `json:"selectable"`
	Filterable        bool   `json:"filterable"`
	Sortable          bool   `json:"sortable"`
	MetricsCompatible bool   `json:"metrics_compatible"`
	ResourceName      string `json:"resource_name,omitempty"`
}

// IsMetric reports whether this field is a metric.
func (f FieldMetadata) IsMetric() bool {
	return f.Category == "METRIC" || strings.HasPrefix(f.Name, "metrics.")
}

// IsSegment reports whether this field is a segmentation dimension.
func (f FieldMetadata) IsSegment() bool {
	return f.Category == "SEGMENT" || strings.HasPrefix(f.Name, "segments.")
}

// IsAttribute reports whether this field is a resource attribute.
func (f FieldMetadata) IsAttribute() bool {
	return f.Category == "ATTRIBUTE"
}

// IsResource reports whether this field is a resource.
func (f FieldMetadata) IsResource() bool {
	return f.Category == "RESOURCE"
}

// Resource returns the resource prefix of a dotted field name,
// e.g. "campaign" for "campaign.name". Empty for undotted names.
func (f FieldMetadata) Resource() string {
	if idx := strings.IndexByte(f.Name, '.'); idx > 0 {
		return f.Name[:idx]
	}
	return ""
}

// FieldDocument builds the Document for a schema field: the embedded
// text is the enriched description and the attributes mirror the
// schema properties.
func FieldDocument(f FieldMetadata) Document {
	return Document{
		ID:   f.Name,
		Text: DescribeField(f),
		Attributes: Attributes{
			Category:          f.Category,
			DataType:          f.DataType,
			Selectable:        f.Selectable,
			Filterable:        f.Filterable,
			Sortable:          f.Sortable,
			MetricsCompatible: f.MetricsCompatible,
			ResourceName:      f.ResourceName,
		},
	}
}
