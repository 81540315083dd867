// Package category defines the closed set of searchable entity types.
package category

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/discovery/internal/domain"
)

// Category is a searchable entity type.
type Category string

// Supported categories. The set is closed: adding one requires a new adapter.
const (
	Tools       Category = "tools"
	Submissions Category = "submissions"
	Tags        Category = "tags"
	Users       Category = "users"
	Lists       Category = "lists"
)

// All returns every supported category in canonical order.
func All() []Category {
	return []Category{Tools, Submissions, Tags, Users, Lists}
}

// IsValid checks if the category is one of the supported values.
func (c Category) IsValid() bool {
	switch c {
	case Tools, Submissions, Tags, Users, Lists:
		return true
	}
	return false
}

// String implements fmt.Stringer.
func (c Category) String() string { return string(c) }

// PageParam is the per-category pagination parameter name, e.g. "tools_page".
func (c Category) PageParam() string { return string(c) + "_page" }

// Parse converts a case-insensitive name into a Category.
func Parse(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownCategory, s)
	}
	return c, nil
}

// Select intersects the requested names with the supported set, silently dropping
// unknown entries. An empty intersection selects every category.
// The result is deduplicated and in canonical order.
func Select(requested []string) []Category {
	want := make(map[Category]struct{}, len(requested))
	for _, r := range requested {
		if c, err := Parse(r); err == nil {
			want[c] = struct{}{}
		}
	}
	if len(want) == 0 {
		return All()
	}
	out := make([]Category, 0, len(want))
	for _, c := range All() {
		if _, ok := want[c]; ok {
			out = append(out, c)
		}
	}
	return out
}
