// Package fieldschema supplies the field metadata collection from a
// JSON schema cache file maintained by an external refresher. Each
// field is enriched into a natural-language description before
// embedding.
package fieldschema

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/mcc-tools/gaql-retrieval/internal/core/domain"
	"github.com/mcc-tools/gaql-retrieval/internal/core/ports/driven"
	"github.com/mcc-tools/gaql-retrieval/internal/logger"
)

// CollectionName identifies the field metadata collection.
const CollectionName = "field_metadata"

// schemaFile mirrors the cache file layout: a fetch timestamp, the
// upstream API version, and the field map keyed by dotted field name.
type schemaFile struct {
	LastUpdated time.Time                       `json:"last_updated"`
	APIVersion  string                          `json:"api_version"`
	Fields      map[string]domain.FieldMetadata `json:"fields"`
}

// Supplier loads the field corpus from a schema cache file.
type Supplier struct {
	path string
}

// New creates a supplier reading from path.
func New(path string) *Supplier {
	return &Supplier{path: path}
}

// Collection returns the field metadata collection name.
func (s *Supplier) Collection() string { return CollectionName }

// Corpus parses the schema cache into enriched documents sorted by
// field name. The API version rides along as the corpus tag so a
// version bump invalidates snapshots even when field definitions are
// unchanged. Refreshing a stale cache file is the maintainer's job,
// not this supplier's; age is only logged.
func (s *Supplier) Corpus(context.Context) (driven.Corpus, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return driven.Corpus{}, fmt.Errorf("read field schema %s: %w", s.path, err)
	}

	var file schemaFile
	if err := json.Unmarshal(data, &file); err != nil {
		return driven.Corpus{}, fmt.Errorf("parse field schema %s: %w", s.path, err)
	}

	docs := make([]domain.Document, 0, len(file.Fields))
	for name, field := range file.Fields {
		if field.Name == "" {
			field.Name = name
		}
		docs = append(docs, domain.FieldDocument(field))
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })

	if !file.LastUpdated.IsZero() {
		logger.Debug("field schema: %d fields, api %s, fetched %s ago",
			len(docs), file.APIVersion, time.Since(file.LastUpdated).Round(time.Minute))
	}
	return driven.Corpus{Documents: docs, Tag: file.APIVersion}, nil
}
