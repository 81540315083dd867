package discovery

import "context"

// SearchBuilder is a fluent builder for SearchRequest.
type SearchBuilder struct {
	client *Client
	req    SearchRequest
}

// Query starts a search for text.
func (c *Client) Query(text string) *SearchBuilder {
	return &SearchBuilder{client: c, req: SearchRequest{Query: text}}
}

// In restricts the search to the given categories.
func (b *SearchBuilder) In(categories ...Category) *SearchBuilder {
	b.req.Categories = append(b.req.Categories, categories...)
	return b
}

// PerPage sets the page size shared by every category.
func (b *SearchBuilder) PerPage(n int) *SearchBuilder {
	b.req.PerPage = n
	return b
}

// Page selects the page of one category.
func (b *SearchBuilder) Page(c Category, n int) *SearchBuilder {
	if b.req.Pages == nil {
		b.req.Pages = make(map[Category]int)
	}
	b.req.Pages[c] = n
	return b
}

// LexicalOnly skips the semantic signal.
func (b *SearchBuilder) LexicalOnly() *SearchBuilder {
	b.req.DisableSemantic = true
	return b
}

// Substring switches submissions from relevance ranking to substring matching.
func (b *SearchBuilder) Substring() *SearchBuilder {
	b.req.DisableFulltext = true
	return b
}

// OfType restricts submissions to one submission type.
func (b *SearchBuilder) OfType(t string) *SearchBuilder {
	b.req.SubmissionType = t
	return b
}

// Enhance asks for generated summaries.
func (b *SearchBuilder) Enhance() *SearchBuilder {
	b.req.Enhance = true
	return b
}

// Request returns the built request.
func (b *SearchBuilder) Request() SearchRequest { return b.req }

// Do executes the search.
func (b *SearchBuilder) Do(ctx context.Context) (SearchResponse, error) {
	return b.client.Search(ctx, b.req)
}
