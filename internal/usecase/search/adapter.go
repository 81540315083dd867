package search

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/discovery/internal/domain/category"
	"github.com/kailas-cloud/discovery/internal/domain/entity"
	"github.com/kailas-cloud/discovery/internal/domain/search/candidate"
	"github.com/kailas-cloud/discovery/internal/domain/search/page"
	"github.com/kailas-cloud/discovery/internal/domain/search/scope"
)

// adapter produces one category's page for a request.
type adapter interface {
	search(ctx context.Context, r *request) (page.Page, error)
	// hybrid reports whether the semantic signal takes part for this request.
	hybrid(r *request) bool
}

func newAdapters(c Catalog, f fuser) map[category.Category]adapter {
	return map[category.Category]adapter{
		category.Tools:       toolsAdapter{catalog: c, fuser: f},
		category.Submissions: submissionsAdapter{catalog: c, fuser: f},
		category.Tags:        directoryAdapter{category: category.Tags, fetch: c.MatchTags},
		category.Users:       directoryAdapter{category: category.Users, fetch: c.MatchUsers},
		category.Lists:       directoryAdapter{category: category.Lists, fetch: c.MatchLists},
	}
}

// isolate runs fn and converts any error or panic into the empty page.
// The swallowed cause is returned for logging; the page is always usable.
func isolate(empty page.Page, fn func() (page.Page, error)) (p page.Page, cause error) {
	defer func() {
		if rec := recover(); rec != nil {
			p, cause = empty, &panicError{value: rec}
		}
	}()
	p, err := fn()
	if err != nil {
		return empty, err
	}
	return p, nil
}

type panicError struct{ value any }

func (e *panicError) Error() string { return fmt.Sprintf("panic: %v", e.value) }

// toolsAdapter searches public tools. Without the semantic signal the store paginates;
// with it, a lexical buffer is fused with nearest neighbours and paginated in memory.
type toolsAdapter struct {
	catalog Catalog
	fuser   fuser
}

func (a toolsAdapter) hybrid(r *request) bool { return r.q.UseSemantic() }

func (a toolsAdapter) search(ctx context.Context, r *request) (page.Page, error) {
	q := r.q
	c := category.Tools

	if !q.UseSemantic() {
		items, total, err := a.catalog.ListTools(ctx, scope.Text{
			Query:  q.Text(),
			Offset: q.Offset(c),
			Limit:  q.PerPage(),
		})
		if err != nil {
			return page.Page{}, fmt.Errorf("list tools: %w", err)
		}
		return page.New(items, total, q.Page(c), q.PerPage()), nil
	}

	buffer := r.cfg.BufferLimit(q.PerPage())
	lexical := r.lexical(ctx, c, a.catalog.MatchTools, scope.Text{Query: q.Text(), Limit: buffer})
	semantic := r.semantic(ctx, c, a.catalog.NearestTools, "", buffer)
	return fusedPage(a.fuser.combine(lexical, semantic), r, c), nil
}

// submissionsAdapter searches completed submissions, optionally filtered by type.
// It always goes through fusion, even when only the lexical signal is present.
type submissionsAdapter struct {
	catalog Catalog
	fuser   fuser
}

func (a submissionsAdapter) hybrid(r *request) bool { return r.q.UseSemantic() }

func (a submissionsAdapter) search(ctx context.Context, r *request) (page.Page, error) {
	q := r.q
	c := category.Submissions
	buffer := r.cfg.BufferLimit(q.PerPage())

	fetch := lexicalFetch(a.catalog.MatchSubmissions)
	if q.UseFulltext() {
		fetch = a.catalog.RankSubmissions
	}
	lexical := r.lexical(ctx, c, fetch, scope.Text{
		Query: q.Text(),
		Type:  q.SubmissionType(),
		Limit: buffer,
	})

	var semantic []candidate.Near
	if q.UseSemantic() {
		semantic = r.semantic(ctx, c, a.catalog.NearestSubmissions, q.SubmissionType(), buffer)
	}
	return fusedPage(a.fuser.combine(lexical, semantic), r, c), nil
}

// directoryAdapter covers the lexical-only categories paginated by the store.
type directoryAdapter struct {
	category category.Category
	fetch    func(ctx context.Context, s scope.Text) ([]entity.Entity, int, error)
}

func (a directoryAdapter) hybrid(*request) bool { return false }

func (a directoryAdapter) search(ctx context.Context, r *request) (page.Page, error) {
	q := r.q
	items, total, err := a.fetch(ctx, scope.Text{
		Query:  q.Text(),
		Offset: q.Offset(a.category),
		Limit:  q.PerPage(),
	})
	if err != nil {
		return page.Page{}, fmt.Errorf("match %s: %w", a.category, err)
	}
	return page.New(items, total, q.Page(a.category), q.PerPage()), nil
}

func fusedPage(fused []candidate.Fused, r *request, c category.Category) page.Page {
	return page.Slice(candidate.Entities(fused), r.q.Page(c), r.q.PerPage())
}
