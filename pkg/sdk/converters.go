package discovery

import (
	"fmt"

	"github.com/kailas-cloud/discovery/internal/domain"
	"github.com/kailas-cloud/discovery/internal/domain/category"
	"github.com/kailas-cloud/discovery/internal/domain/enhance"
	"github.com/kailas-cloud/discovery/internal/domain/entity"
	"github.com/kailas-cloud/discovery/internal/domain/search/page"
	"github.com/kailas-cloud/discovery/internal/domain/search/query"
	searchuc "github.com/kailas-cloud/discovery/internal/usecase/search"
)

func toQuery(req SearchRequest) (query.Query, error) {
	cats := make([]string, len(req.Categories))
	for i, c := range req.Categories {
		cats[i] = string(c)
	}
	pages := make(map[string]int, len(req.Pages))
	for c, n := range req.Pages {
		pages[string(c)] = n
	}
	return query.New(query.Params{
		Text:           req.Query,
		Categories:     cats,
		Pages:          pages,
		PerPage:        req.PerPage,
		UseSemantic:    !req.DisableSemantic,
		UseFulltext:    !req.DisableFulltext,
		SubmissionType: req.SubmissionType,
	})
}

func fromResults(q query.Query, res searchuc.Results) SearchResponse {
	out := SearchResponse{Query: q.Text(), Results: make(map[Category]Page, len(res))}
	for c, p := range res {
		out.Results[Category(c)] = fromPage(p)
	}
	return out
}

func fromPage(p page.Page) Page {
	var items []Item
	if enhanced := p.Enhanced(); len(enhanced) > 0 {
		items = make([]Item, len(enhanced))
		for i, r := range enhanced {
			items[i] = itemFromResult(r)
		}
	} else {
		entities := p.Items()
		items = make([]Item, len(entities))
		for i, e := range entities {
			items[i] = itemFromEntity(e)
		}
	}
	return Page{
		Items:      items,
		TotalCount: p.TotalCount(),
		Page:       p.Page(),
		PerPage:    p.PerPage(),
		TotalPages: p.TotalPages(),
		HasMore:    p.HasMore(),
	}
}

func itemFromResult(r enhance.Result) Item {
	it := itemFromEntity(r.Entity)
	if r.Summary != nil {
		it.Summary = *r.Summary
	}
	if r.RelevanceExplanation != nil {
		it.RelevanceExplanation = *r.RelevanceExplanation
	}
	return it
}

func itemFromEntity(e entity.Entity) Item {
	doc := e.Document()
	it := Item{
		ID:          e.EntityID(),
		Category:    categoryOf(e.Category()),
		Title:       doc.Title,
		Description: doc.Description,
		Type:        doc.Type,
		URL:         doc.URL,
		Tags:        doc.Tags,
		Tools:       doc.Tools,
	}
	switch v := e.(type) {
	case entity.Tool:
		it.Visibility = v.Visibility
		it.CreatedAt = v.CreatedAt
	case entity.Submission:
		it.Author = v.Author
		it.CreatedAt = v.CreatedAt
	case entity.Tag:
		it.CreatedAt = v.CreatedAt
	case entity.User:
		it.CreatedAt = v.CreatedAt
	case entity.List:
		it.Owner = v.Owner
		it.Description = ""
		it.Visibility = v.Visibility
		it.CreatedAt = v.CreatedAt
	}
	return it
}

func categoryOf(c category.Category) Category { return Category(c) }

// itemToEntity rebuilds the catalog entity an Item was flattened from.
func itemToEntity(it Item) (entity.Entity, error) {
	switch it.Category {
	case Tools:
		return entity.Tool{
			ID: it.ID, Name: it.Title, Description: it.Description, URL: it.URL,
			Visibility: it.Visibility, Tags: it.Tags, CreatedAt: it.CreatedAt,
		}, nil
	case Submissions:
		return entity.Submission{
			ID: it.ID, Title: it.Title, Description: it.Description, URL: it.URL, Type: it.Type,
			Status: entity.StatusCompleted, Author: it.Author, Tags: it.Tags, Tools: it.Tools,
			CreatedAt: it.CreatedAt,
		}, nil
	case Tags:
		return entity.Tag{ID: it.ID, Name: it.Title, CreatedAt: it.CreatedAt}, nil
	case Users:
		return entity.User{ID: it.ID, Username: it.Title, Bio: it.Description, CreatedAt: it.CreatedAt}, nil
	case Lists:
		return entity.List{
			ID: it.ID, Name: it.Title, Owner: it.Owner, Visibility: it.Visibility, CreatedAt: it.CreatedAt,
		}, nil
	default:
		return nil, fmt.Errorf("%w: item %d has category %q", domain.ErrUnknownCategory, it.ID, it.Category)
	}
}
