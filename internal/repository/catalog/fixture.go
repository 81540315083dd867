package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/discovery/internal/domain/entity"
)

// Fixture is a YAML snapshot of the catalog, used for local runs and tests.
type Fixture struct {
	Tools       []ToolRecord       `yaml:"tools"`
	Submissions []SubmissionRecord `yaml:"submissions"`
	Tags        []entity.Tag       `yaml:"tags"`
	Users       []entity.User      `yaml:"users"`
	Lists       []entity.List      `yaml:"lists"`
}

// ToolRecord is a tool with its optional stored embedding.
type ToolRecord struct {
	entity.Tool `yaml:",inline"`
	Embedding   []float32 `yaml:"embedding,omitempty"`
}

// SubmissionRecord is a submission with its optional stored embedding.
type SubmissionRecord struct {
	entity.Submission `yaml:",inline"`
	Embedding         []float32 `yaml:"embedding,omitempty"`
}

// LoadFixture reads and parses a fixture file.
func LoadFixture(path string) (Fixture, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path from trusted config
	if err != nil {
		return Fixture{}, fmt.Errorf("read fixture %s: %w", path, err)
	}
	return ParseFixture(data)
}

// ParseFixture decodes fixture YAML and rejects duplicate IDs within a category.
func ParseFixture(data []byte) (Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Fixture{}, fmt.Errorf("parse fixture: %w", err)
	}

	checks := []struct {
		name string
		ids  []int64
	}{
		{"tools", idsOf(f.Tools, func(r ToolRecord) int64 { return r.ID })},
		{"submissions", idsOf(f.Submissions, func(r SubmissionRecord) int64 { return r.ID })},
		{"tags", idsOf(f.Tags, func(t entity.Tag) int64 { return t.ID })},
		{"users", idsOf(f.Users, func(u entity.User) int64 { return u.ID })},
		{"lists", idsOf(f.Lists, func(l entity.List) int64 { return l.ID })},
	}
	for _, c := range checks {
		seen := make(map[int64]struct{}, len(c.ids))
		for _, id := range c.ids {
			if _, dup := seen[id]; dup {
				return Fixture{}, fmt.Errorf("parse fixture: duplicate %s id %d", c.name, id)
			}
			seen[id] = struct{}{}
		}
	}
	return f, nil
}

func idsOf[T any](items []T, id func(T) int64) []int64 {
	out := make([]int64, len(items))
	for i, it := range items {
		out[i] = id(it)
	}
	return out
}
