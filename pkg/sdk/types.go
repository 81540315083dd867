package discovery

import "time"

// Category is a searchable entity type.
type Category string

// Category constants.
const (
	Tools       Category = "tools"
	Submissions Category = "submissions"
	Tags        Category = "tags"
	Users       Category = "users"
	Lists       Category = "lists"
)

// SearchRequest describes one multi-category search.
// Zero values select defaults: every category, 10 results per page, page 1,
// both the lexical and the semantic signal.
type SearchRequest struct {
	Query      string
	Categories []Category
	PerPage    int
	Pages      map[Category]int

	// DisableSemantic skips query embedding; ranking is lexical only.
	DisableSemantic bool
	// DisableFulltext switches submissions from relevance ranking to substring matching.
	DisableFulltext bool
	// SubmissionType restricts submissions to one type ("article", "video", ...).
	SubmissionType string

	// Enhance attaches generated summaries to results. Requires WithCompleter.
	Enhance bool
}

// SearchResponse holds one page per requested category.
type SearchResponse struct {
	Query   string
	Results map[Category]Page
}

// Page is one page of a category's results.
type Page struct {
	Items      []Item
	TotalCount int
	Page       int
	PerPage    int
	TotalPages int
	HasMore    bool
}

// Item is a flattened catalog entity. Fields that do not apply to its
// category are left empty.
type Item struct {
	ID          int64
	Category    Category
	Title       string
	Description string
	Type        string
	URL         string
	Author      string
	Owner       string
	Visibility  string
	Tags        []string
	Tools       []string
	CreatedAt   time.Time

	// Generated fields, set only for enhanced results.
	Summary              string
	RelevanceExplanation string
}

// Enhanced reports whether the item carries generated text.
func (i Item) Enhanced() bool { return i.Summary != "" || i.RelevanceExplanation != "" }
