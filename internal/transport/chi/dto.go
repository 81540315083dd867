package chi

import (
	"time"

	"github.com/kailas-cloud/discovery/internal/domain/enhance"
	"github.com/kailas-cloud/discovery/internal/domain/entity"
	"github.com/kailas-cloud/discovery/internal/domain/search/page"
	"github.com/kailas-cloud/discovery/internal/domain/search/query"
	"github.com/kailas-cloud/discovery/internal/usecase/search"
	"github.com/kailas-cloud/discovery/internal/usecase/usage"
)

// ErrorCode is the machine-readable error code in ErrorResponse.
type ErrorCode string

// Error codes.
const (
	ErrorCodeBadRequest             ErrorCode = "bad_request"
	ErrorCodeValidationFailed       ErrorCode = "validation_failed"
	ErrorCodeUnauthorized           ErrorCode = "unauthorized"
	ErrorCodeEmbeddingQuotaExceeded ErrorCode = "embedding_quota_exceeded"
	ErrorCodeProviderError          ErrorCode = "provider_error"
	ErrorCodeProviderUnavailable    ErrorCode = "provider_unavailable"
	ErrorCodeRequestCanceled        ErrorCode = "request_canceled"
	ErrorCodeNotImplemented         ErrorCode = "not_implemented"
	ErrorCodeInternalError          ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// SearchResponse is the body of the search and suggestions endpoints.
type SearchResponse struct {
	Query      string                  `json:"query"`
	Categories map[string]CategoryPage `json:"categories"`
}

// CategoryPage is one category's result page.
type CategoryPage struct {
	Items      []Item `json:"items"`
	TotalCount int    `json:"total_count"`
	Page       int    `json:"page"`
	PerPage    int    `json:"per_page"`
	TotalPages int    `json:"total_pages"`
	HasMore    bool   `json:"has_more"`
}

// Item is a flattened entity. Only the fields of its category are set.
type Item struct {
	ID       int64  `json:"id"`
	Category string `json:"category"`

	Name           string     `json:"name,omitempty"`
	Title          string     `json:"title,omitempty"`
	Description    string     `json:"description,omitempty"`
	URL            string     `json:"url,omitempty"`
	SubmissionType string     `json:"submission_type,omitempty"`
	Author         string     `json:"author,omitempty"`
	Username       string     `json:"username,omitempty"`
	Bio            string     `json:"bio,omitempty"`
	Owner          string     `json:"owner,omitempty"`
	Tags           []string   `json:"tags,omitempty"`
	Tools          []string   `json:"tools,omitempty"`
	CreatedAt      *time.Time `json:"created_at,omitempty"`

	Summary              *string `json:"summary,omitempty"`
	RelevanceExplanation *string `json:"relevance_explanation,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// UsageResponse is the body of GET /api/v1/usage.
type UsageResponse struct {
	Period      string        `json:"period"`
	PeriodStart time.Time     `json:"period_start"`
	PeriodEnd   time.Time     `json:"period_end"`
	Budgets     []UsageBudget `json:"budgets"`
}

// UsageBudget is one provider kind's token budget. Remaining is -1 when unlimited.
type UsageBudget struct {
	Kind      string `json:"kind"`
	Limit     int64  `json:"tokens_limit"`
	Used      int64  `json:"tokens_used"`
	Remaining int64  `json:"tokens_remaining"`
	Exhausted bool   `json:"is_exhausted"`
}

func usageResponseFromReport(r usage.Report) UsageResponse {
	out := UsageResponse{
		Period:      string(r.Period),
		PeriodStart: r.PeriodStart,
		PeriodEnd:   r.PeriodEnd,
		Budgets:     make([]UsageBudget, len(r.Budgets)),
	}
	for i, b := range r.Budgets {
		out.Budgets[i] = UsageBudget(b)
	}
	return out
}

func searchResponseFromResults(q query.Query, res search.Results) SearchResponse {
	out := SearchResponse{
		Query:      q.Text(),
		Categories: make(map[string]CategoryPage, len(res)),
	}
	for _, c := range q.Categories() {
		p, ok := res[c]
		if !ok {
			p = page.Empty(q.Page(c), q.PerPage())
		}
		out.Categories[c.String()] = categoryPageFromPage(p)
	}
	return out
}

func categoryPageFromPage(p page.Page) CategoryPage {
	items := make([]Item, 0, len(p.Items()))
	if enhanced := p.Enhanced(); len(enhanced) > 0 {
		for _, r := range enhanced {
			items = append(items, itemFromResult(r))
		}
	} else {
		for _, e := range p.Items() {
			items = append(items, itemFromEntity(e))
		}
	}
	return CategoryPage{
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
	it.Summary = r.Summary
	it.RelevanceExplanation = r.RelevanceExplanation
	return it
}

func itemFromEntity(e entity.Entity) Item {
	it := Item{ID: e.EntityID(), Category: e.Category().String()}
	switch v := e.(type) {
	case entity.Tool:
		it.Name, it.Description, it.URL, it.Tags = v.Name, v.Description, v.URL, v.Tags
		it.CreatedAt = timePtr(v.CreatedAt)
	case entity.Submission:
		it.Title, it.Description, it.URL = v.Title, v.Description, v.URL
		it.SubmissionType, it.Author, it.Tags, it.Tools = v.Type, v.Author, v.Tags, v.Tools
		it.CreatedAt = timePtr(v.CreatedAt)
	case entity.Tag:
		it.Name = v.Name
		it.CreatedAt = timePtr(v.CreatedAt)
	case entity.User:
		it.Username, it.Bio = v.Username, v.Bio
		it.CreatedAt = timePtr(v.CreatedAt)
	case entity.List:
		it.Name, it.Owner = v.Name, v.Owner
		it.CreatedAt = timePtr(v.CreatedAt)
	default:
		d := e.Document()
		it.Title, it.Description, it.URL = d.Title, d.Description, d.URL
	}
	return it
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
