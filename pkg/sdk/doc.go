// Package discovery is an embeddable client for the discovery search engine:
// one query ranked across tools, submissions, tags, users and lists, with
// lexical and semantic signals fused per category and optional generated
// summaries for the top results.
//
// The catalog comes from Postgres or from a YAML fixture:
//
//	client, _ := discovery.New(ctx,
//	    discovery.WithPostgres("postgres://localhost/discovery?sslmode=disable"),
//	    discovery.WithEmbedder(myEmbedder),
//	)
//	defer client.Close()
//
//	res, _ := client.Search(ctx, discovery.SearchRequest{
//	    Query:      "vector database",
//	    Categories: []discovery.Category{discovery.Tools, discovery.Submissions},
//	})
//
// # Fluent API
//
//	res, _ := client.Query("vector database").
//	    In(discovery.Submissions).
//	    OfType("article").
//	    Page(discovery.Submissions, 2).
//	    Enhance().
//	    Do(ctx)
//
// A category that fails or times out comes back as an empty page; the other
// categories are unaffected.
package discovery
