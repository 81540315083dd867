// Package enhance holds the output of the generation layer.
package enhance

import (
	"github.com/kailas-cloud/discovery/internal/domain/category"
	"github.com/kailas-cloud/discovery/internal/domain/entity"
)

// Result wraps an entity with optional generated text. Nil fields mean the entity
// was not enhanced or generation failed; the entity itself is always present.
type Result struct {
	Entity               entity.Entity
	Summary              *string
	RelevanceExplanation *string
}

// Plain wraps an entity without generated fields.
func Plain(e entity.Entity) Result { return Result{Entity: e} }

// Enhanced reports whether any generated field is set.
func (r Result) Enhanced() bool { return r.Summary != nil || r.RelevanceExplanation != nil }

// Key identifies one generated explanation: the same entity gets different text per query.
type Key struct {
	Query    string
	Category category.Category
	EntityID int64
}

// Fields is the generated text for one entity, as cached between requests.
type Fields struct {
	Summary              string `json:"summary"`
	RelevanceExplanation string `json:"relevance_explanation"`
}

// Apply attaches cached fields to a result. Empty strings stay nil.
func (f Fields) Apply(r Result) Result {
	if f.Summary != "" {
		s := f.Summary
		r.Summary = &s
	}
	if f.RelevanceExplanation != "" {
		s := f.RelevanceExplanation
		r.RelevanceExplanation = &s
	}
	return r
}
