package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mcc-tools/gaql-retrieval/internal/core/domain"
	"github.com/mcc-tools/gaql-retrieval/internal/core/ports/driven"
)

// snapshot answers KNN queries against one generation's index.
type snapshot struct {
	store      *Store
	collection string
	buildID    string
	dim        int
	count      int
}

func (s *snapshot) Len() int       { return s.count }
func (s *snapshot) Dimension() int { return s.dim }
func (s *snapshot) Close() error   { return nil }

// Search runs FT.SEARCH with a KNN clause and maps vector distances
// back to similarity scores.
func (s *snapshot) Search(ctx context.Context, vector []float32, k int) ([]driven.VectorHit, error) {
	if s.count == 0 || k <= 0 {
		return nil, nil
	}
	if len(vector) != s.dim {
		return nil, fmt.Errorf("query dimension %d, index dimension %d", len(vector), s.dim)
	}

	reply, err := s.store.client.Do(ctx,
		"FT.SEARCH", indexName(s.collection, s.buildID),
		fmt.Sprintf("*=>[KNN %d @embedding $vec AS distance]", k),
		"PARAMS", "2", "vec", vectorBlob(vector),
		"SORTBY", "distance", "ASC",
		"RETURN", "4", "id", "text", "attributes", "distance",
		"LIMIT", "0", strconv.Itoa(k),
		"DIALECT", "2",
	).Result()
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", s.collection, err)
	}

	return parseSearchReply(reply)
}

// parseSearchReply handles both reply shapes: the RESP3 map with a
// "results" list and the RESP2 flat array of
// [total, key, fieldlist, key, fieldlist, ...].
func parseSearchReply(reply any) ([]driven.VectorHit, error) {
	switch r := reply.(type) {
	case map[any]any:
		results, ok := r["results"].([]any)
		if !ok {
			return nil, fmt.Errorf("search reply missing results list")
		}
		hits := make([]driven.VectorHit, 0, len(results))
		for _, item := range results {
			entry, ok := item.(map[any]any)
			if !ok {
				continue
			}
			fields, ok := entry["extra_attributes"].(map[any]any)
			if !ok {
				continue
			}
			hit, err := hitFromFields(fields)
			if err != nil {
				return nil, err
			}
			hits = append(hits, hit)
		}
		return hits, nil

	case []any:
		hits := make([]driven.VectorHit, 0, len(r)/2)
		// r[0] is the total count; entries alternate key, field list.
		for i := 1; i+1 < len(r); i += 2 {
			fieldList, ok := r[i+1].([]any)
			if !ok {
				continue
			}
			fields := make(map[any]any, len(fieldList)/2)
			for j := 0; j+1 < len(fieldList); j += 2 {
				fields[fieldList[j]] = fieldList[j+1]
			}
			hit, err := hitFromFields(fields)
			if err != nil {
				return nil, err
			}
			hits = append(hits, hit)
		}
		return hits, nil

	default:
		return nil, fmt.Errorf("unexpected search reply type %T", reply)
	}
}

func hitFromFields(fields map[any]any) (driven.VectorHit, error) {
	doc := domain.Document{
		ID:   stringField(fields, "id"),
		Text: stringField(fields, "text"),
	}
	if attrs := stringField(fields, "attributes"); attrs != "" {
		if err := json.Unmarshal([]byte(attrs), &doc.Attributes); err != nil {
			return driven.VectorHit{}, fmt.Errorf("document %s attributes: %w", doc.ID, err)
		}
	}
	distance, err := strconv.ParseFloat(stringField(fields, "distance"), 64)
	if err != nil {
		return driven.VectorHit{}, fmt.Errorf("document %s distance: %w", doc.ID, err)
	}
	return driven.VectorHit{Document: doc, Score: distanceToScore(distance)}, nil
}

func stringField(fields map[any]any, name string) string {
	if v, ok := fields[name].(string); ok {
		return v
	}
	return ""
}
