package chi

import (
	"fmt"
	"net/http"

	"github.com/oapi-codegen/runtime"

	"github.com/kailas-cloud/discovery/internal/domain/category"
	"github.com/kailas-cloud/discovery/internal/domain/search/query"
)

// SearchParams are the query-string parameters of the search endpoints.
type SearchParams struct {
	Q              *string   `form:"q"`
	Categories     *[]string `form:"categories"`
	PerPage        *int      `form:"per_page"`
	Pages          map[string]int
	Semantic       *bool   `form:"semantic"`
	Fulltext       *bool   `form:"fulltext"`
	SubmissionType *string `form:"type"`
	Enhance        *bool   `form:"enhance"`
}

// bindSearchParams decodes the query string the way generated oapi handlers do.
func bindSearchParams(r *http.Request) (SearchParams, error) {
	var p SearchParams
	values := r.URL.Query()

	bind := func(name string, explode bool, dest any) error {
		if err := runtime.BindQueryParameter("form", explode, false, name, values, dest); err != nil {
			return fmt.Errorf("invalid format for parameter %s: %w", name, err)
		}
		return nil
	}

	if err := bind("q", true, &p.Q); err != nil {
		return p, err
	}
	// categories=tools,submissions
	if err := bind("categories", false, &p.Categories); err != nil {
		return p, err
	}
	if err := bind("per_page", true, &p.PerPage); err != nil {
		return p, err
	}
	if err := bind("semantic", true, &p.Semantic); err != nil {
		return p, err
	}
	if err := bind("fulltext", true, &p.Fulltext); err != nil {
		return p, err
	}
	if err := bind("type", true, &p.SubmissionType); err != nil {
		return p, err
	}
	if err := bind("enhance", true, &p.Enhance); err != nil {
		return p, err
	}

	p.Pages = make(map[string]int)
	for _, c := range category.All() {
		var n *int
		if err := bind(c.PageParam(), true, &n); err != nil {
			return p, err
		}
		if n != nil {
			p.Pages[c.String()] = *n
		}
	}
	return p, nil
}

// toQuery builds the domain query. Semantic and full-text default to on.
func (p SearchParams) toQuery() (query.Query, error) {
	qp := query.Params{
		Pages:       p.Pages,
		UseSemantic: derefBool(p.Semantic, true),
		UseFulltext: derefBool(p.Fulltext, true),
	}
	if p.Q != nil {
		qp.Text = *p.Q
	}
	// unknown category names are dropped by query.New
	if p.Categories != nil {
		qp.Categories = *p.Categories
	}
	if p.PerPage != nil {
		qp.PerPage = *p.PerPage
	}
	if p.SubmissionType != nil {
		qp.SubmissionType = *p.SubmissionType
	}
	return query.New(qp)
}

func derefBool(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}
