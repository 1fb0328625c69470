// Package cookbook supplies the query cookbook collection: a TOML file
// of curated example queries, each with a natural-language description
// that gets embedded for retrieval.
package cookbook

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/mcc-tools/gaql-retrieval/internal/core/domain"
	"github.com/mcc-tools/gaql-retrieval/internal/core/ports/driven"
	"github.com/mcc-tools/gaql-retrieval/internal/logger"
)

// CollectionName identifies the cookbook collection.
const CollectionName = "query_cookbook"

// entry is one named example in the cookbook file:
//
//	[top_campaigns]
//	description = "Top spending campaigns last month"
//	query = "SELECT campaign.name, metrics.cost_micros ..."
type entry struct {
	Description string `toml:"description"`
	Query       string `toml:"query"`
}

// Supplier loads the cookbook corpus from a TOML file.
type Supplier struct {
	path string
}

// New creates a supplier reading from path.
func New(path string) *Supplier {
	return &Supplier{path: path}
}

// Collection returns the cookbook collection name.
func (s *Supplier) Collection() string { return CollectionName }

// Corpus parses the cookbook file into documents sorted by ID. Entries
// without a description cannot be embedded meaningfully and are
// skipped with a warning.
func (s *Supplier) Corpus(context.Context) (driven.Corpus, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return driven.Corpus{}, fmt.Errorf("read cookbook %s: %w", s.path, err)
	}

	var entries map[string]entry
	if err := toml.Unmarshal(data, &entries); err != nil {
		return driven.Corpus{}, fmt.Errorf("parse cookbook %s: %w", s.path, err)
	}

	docs := make([]domain.Document, 0, len(entries))
	for name, e := range entries {
		if strings.TrimSpace(e.Description) == "" {
			logger.Warn("cookbook entry %q has no description, skipping", name)
			continue
		}
		docs = append(docs, domain.Document{
			ID:         documentID(name, e.Query),
			Text:       e.Description,
			Attributes: domain.Attributes{Query: e.Query},
		})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })

	logger.Debug("cookbook: loaded %d example queries from %s", len(docs), s.path)
	return driven.Corpus{Documents: docs}, nil
}

// documentID derives a stable slug from the entry name and a prefix of
// its query, so renaming or rewriting an example changes its identity.
func documentID(name, query string) string {
	q := sanitize(query)
	if len(q) > 14 {
		q = q[:14]
	}
	return "query_" + sanitize(name) + "_" + q
}

func sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
