// Package retrieval provides semantic retrieval context for natural
// language to structured query translation. It maintains embedding
// snapshots for registered document collections (curated example
// queries, schema field metadata), validates them against content
// fingerprints so unchanged corpora never re-embed, and answers
// similarity queries with quality-filtered results.
//
// Typical use:
//
//	engine, err := retrieval.Open(retrieval.Options{
//		CookbookPath:    "cookbook.toml",
//		FieldSchemaPath: "fields.json",
//	})
//	if err != nil { ... }
//	defer engine.Close()
//
//	results := engine.Retrieve(ctx, retrieval.CollectionQueryCookbook,
//		"top spending campaigns last month", 5)
//
// Retrieval is best effort: failures degrade to an empty result with a
// warning so translation can proceed without context.
package retrieval
