package query

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/kailas-cloud/discovery/internal/domain"
	"github.com/kailas-cloud/discovery/internal/domain/category"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed query length in runes.
	MaxQueryLength = 512
	DefaultPerPage = 10
	MinPerPage     = 1
	MaxPerPage     = 50
)

// Params are the raw caller inputs. Zero values mean "use the default".
type Params struct {
	Text       string
	Categories []string
	// Pages is keyed by category name ("tools") or page parameter ("tools_page").
	Pages          map[string]int
	PerPage        int
	UseSemantic    bool
	UseFulltext    bool
	SubmissionType string
}

// Query is a validated, normalized search request.
type Query struct {
	text           string
	categories     []category.Category
	perPage        int
	pages          map[category.Category]int
	useSemantic    bool
	useFulltext    bool
	submissionType string
}

// New validates and normalizes search parameters.
// Text is trimmed, whitespace-collapsed and NFKC-normalized; unknown categories are
// dropped (none left selects all); perPage is clamped to [MinPerPage, MaxPerPage]
// with DefaultPerPage for zero; pages below 1 become 1.
func New(p Params) (Query, error) {
	text := Normalize(p.Text)
	if utf8.RuneCountInString(text) > MaxQueryLength {
		return Query{}, fmt.Errorf("%w: query too long (max %d chars)", domain.ErrInvalidQuery, MaxQueryLength)
	}

	cats := category.Select(p.Categories)
	pages := make(map[category.Category]int, len(cats))
	for _, c := range cats {
		pages[c] = 1
	}
	for k, v := range p.Pages {
		c, err := category.Parse(strings.TrimSuffix(strings.ToLower(k), "_page"))
		if err != nil {
			continue
		}
		if _, selected := pages[c]; selected && v > 1 {
			pages[c] = v
		}
	}

	return Query{
		text:           text,
		categories:     cats,
		perPage:        ClampPerPage(p.PerPage),
		pages:          pages,
		useSemantic:    p.UseSemantic,
		useFulltext:    p.UseFulltext,
		submissionType: strings.TrimSpace(p.SubmissionType),
	}, nil
}

// Normalize trims, collapses internal whitespace and applies NFKC.
func Normalize(s string) string {
	return norm.NFKC.String(strings.Join(strings.Fields(s), " "))
}

// ClampPerPage applies the default and bounds to a page size.
func ClampPerPage(n int) int {
	switch {
	case n <= 0:
		return DefaultPerPage
	case n > MaxPerPage:
		return MaxPerPage
	}
	return n
}

// Text returns the normalized query text.
func (q Query) Text() string { return q.text }

// Blank reports whether there is nothing to search for.
func (q Query) Blank() bool { return q.text == "" }

// Categories returns the selected categories in canonical order.
func (q Query) Categories() []category.Category { return q.categories }

// PerPage returns the page size shared by all categories.
func (q Query) PerPage() int { return q.perPage }

// Page returns the requested page for a category (1 when unselected or unset).
func (q Query) Page(c category.Category) int {
	if p, ok := q.pages[c]; ok {
		return p
	}
	return 1
}

// Offset returns the row offset of the requested page for a category.
func (q Query) Offset(c category.Category) int { return (q.Page(c) - 1) * q.perPage }

// UseSemantic reports whether the embedding signal is enabled.
func (q Query) UseSemantic() bool { return q.useSemantic }

// UseFulltext reports whether full-text ranking is enabled for rich categories.
func (q Query) UseFulltext() bool { return q.useFulltext }

// SubmissionType returns the optional submission type filter.
func (q Query) SubmissionType() string { return q.submissionType }

// WithPerPage returns a copy with a different page size, clamped.
func (q Query) WithPerPage(n int) Query {
	q.perPage = ClampPerPage(n)
	return q
}
