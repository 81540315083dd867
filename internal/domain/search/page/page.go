package page

import (
	"github.com/kailas-cloud/discovery/internal/domain/enhance"
	"github.com/kailas-cloud/discovery/internal/domain/entity"
)

// Page is one page of a category's results.
// Invariants: len(items) <= perPage, page >= 1, perPage >= 1, totalCount >= 0.
type Page struct {
	items      []entity.Entity
	enhanced   []enhance.Result
	totalCount int
	page       int
	perPage    int
}

// New creates a page, truncating items to perPage and flooring page and perPage at 1.
func New(items []entity.Entity, totalCount, page, perPage int) Page {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 1
	}
	if len(items) > perPage {
		items = items[:perPage]
	}
	if items == nil {
		items = []entity.Entity{}
	}
	if totalCount < len(items) {
		totalCount = len(items)
	}
	return Page{items: items, totalCount: totalCount, page: page, perPage: perPage}
}

// Empty creates a page with no items and the requested pagination preserved.
func Empty(page, perPage int) Page {
	return New(nil, 0, page, perPage)
}

// Slice paginates an already ranked in-memory list; totalCount is len(all).
func Slice(all []entity.Entity, page, perPage int) Page {
	p := New(nil, 0, page, perPage)
	start := (p.page - 1) * p.perPage
	if start >= len(all) {
		p.totalCount = len(all)
		return p
	}
	end := min(start+p.perPage, len(all))
	items := make([]entity.Entity, end-start)
	copy(items, all[start:end])
	return New(items, len(all), p.page, p.perPage)
}

// Items returns the entities on this page.
func (p Page) Items() []entity.Entity { return p.items }

// TotalCount returns the number of matches across all pages.
func (p Page) TotalCount() int { return p.totalCount }

// Page returns the 1-based page number.
func (p Page) Page() int { return p.page }

// PerPage returns the page size.
func (p Page) PerPage() int { return p.perPage }

// HasMore reports whether a later page exists.
func (p Page) HasMore() bool { return p.totalCount > p.page*p.perPage }

// TotalPages returns the number of pages needed for totalCount.
func (p Page) TotalPages() int {
	return (p.totalCount + p.perPage - 1) / p.perPage
}

// Enhanced returns generated text aligned with Items, or nil when not enhanced.
func (p Page) Enhanced() []enhance.Result { return p.enhanced }

// WithEnhanced returns a copy carrying enhancement results. The slice must be aligned
// with Items; a mismatched slice is ignored.
func (p Page) WithEnhanced(results []enhance.Result) Page {
	if len(results) != len(p.items) {
		return p
	}
	p.enhanced = results
	return p
}
