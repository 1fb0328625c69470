package domain

import "strings"

// purposeTag maps a name substring to a purpose phrase. Order matters:
// more specific patterns come before their prefixes (impression share
// before impression) so the first match in each group wins per keyword,
// but multiple groups may contribute tags to the same field.
type purposeTag struct {
	pattern string
	phrase  string
}

var purposeTags = []purposeTag{
	{"conversion", "conversion tracking"},
	{"click", "click performance"},
	{"impression_share", "impression share competitiveness"},
	{"impression", "impression volume"},
	{"interaction", "user interaction"},
	{"cost", "cost and spend"},
	{"cpc", "cost per click"},
	{"cpe", "cost per engagement"},
	{"cpm", "cost per thousand impressions"},
	{"cpv", "cost per view"},
	{"budget", "budget management"},
	{"bid", "bidding strategy"},
	{"status", "entity status"},
	{"name", "entity identity"},
	{"id", "entity identity"},
	{"date", "time period"},
	{"time", "time period"},
	{"device", "device segmentation"},
	{"location", "geographic targeting"},
	{"geo", "geographic targeting"},
	{"search_term", "search query analysis"},
	{"keyword", "keyword targeting"},
	{"asset", "creative assets"},
	{"creative", "creative assets"},
	{"audience", "audience targeting"},
	{"demographic", "demographic segmentation"},
}

var domainTags = []purposeTag{
	{"campaign", "campaign management"},
	{"ad_group", "ad group management"},
	{"search", "search advertising"},
	{"video", "video advertising"},
	{"shopping", "shopping advertising"},
	{"display", "display advertising"},
	{"app", "app advertising"},
	{"bidding", "bidding"},
	{"targeting", "targeting"},
}

// DescribeField synthesizes a natural-language description for a schema
// field so that embeddings capture meaning beyond the raw dotted name.
// The output is deterministic: same input, same string, every time.
func DescribeField(f FieldMetadata) string {
	var sections []string

	readable := strings.NewReplacer(".", " ", "_", " ").Replace(f.Name)
	sections = append(sections, readable+" field "+readable)

	switch {
	case f.IsMetric():
		sections = append(sections, "performance metric measurement")
	case f.IsSegment():
		sections = append(sections, "segmentation dimension for breaking down results")
	case f.IsResource():
		sections = append(sections, "resource entity")
	case f.IsAttribute():
		sections = append(sections, "descriptive attribute")
	}

	if phrase := dataTypePhrase(f.DataType); phrase != "" {
		sections = append(sections, phrase)
	}

	var caps []string
	if f.Selectable {
		caps = append(caps, "selectable")
	}
	if f.Filterable {
		caps = append(caps, "filterable")
	}
	if f.Sortable {
		caps = append(caps, "sortable")
	}
	if f.MetricsCompatible {
		caps = append(caps, "metrics-compatible")
	}
	if len(caps) > 0 {
		sections = append(sections, strings.Join(caps, " "))
	}

	if tags := matchTags(f.Name, purposeTags); len(tags) > 0 {
		sections = append(sections, strings.Join(tags, " "))
	}
	if tags := matchTags(f.Name, domainTags); len(tags) > 0 {
		sections = append(sections, strings.Join(tags, " "))
	}

	return strings.Join(sections, "; ")
}

func dataTypePhrase(dataType string) string {
	switch dataType {
	case "STRING":
		return "text value"
	case "INT64", "INT32":
		return "integer count"
	case "DOUBLE", "FLOAT":
		return "decimal number"
	case "BOOLEAN":
		return "true or false flag"
	case "DATE":
		return "calendar date"
	case "ENUM":
		return "enumerated value"
	case "RESOURCE_NAME":
		return "resource reference"
	case "":
		return ""
	default:
		return strings.ToLower(dataType) + " value"
	}
}

// matchTags collects phrases whose pattern occurs in name, deduplicating
// phrases shared by several patterns (e.g. "name" and "id" both map to
// entity identity). Earlier patterns shadow later substrings of
// themselves because the phrase set keeps first occurrence order.
func matchTags(name string, tags []purposeTag) []string {
	var out []string
	seen := make(map[string]bool, 4)
	consumed := make(map[string]bool, 4)
	for _, t := range tags {
		if consumed[t.pattern] || !strings.Contains(name, t.pattern) {
			continue
		}
		// A matched pattern consumes longer patterns already handled;
		// mark shorter substrings so "impression_share" suppresses
		// "impression" for the same field.
		for _, other := range tags {
			if other.pattern != t.pattern && strings.Contains(t.pattern, other.pattern) {
				consumed[other.pattern] = true
			}
		}
		if !seen[t.phrase] {
			seen[t.phrase] = true
			out = append(out, t.phrase)
		}
	}
	return out
}
