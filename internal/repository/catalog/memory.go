package catalog

import (
	"cmp"
	"context"
	"math"
	"slices"
	"strings"

	"github.com/kailas-cloud/discovery/internal/domain/entity"
	"github.com/kailas-cloud/discovery/internal/domain/search/candidate"
	"github.com/kailas-cloud/discovery/internal/domain/search/scope"
)

// Memory serves a Fixture in-process with the same filters and ordering as Repo.
// It is read-only after construction and safe for concurrent use.
type Memory struct {
	fx Fixture
}

// NewMemory creates an in-memory catalog over f.
func NewMemory(f Fixture) *Memory {
	return &Memory{fx: f}
}

// Ping always succeeds.
func (m *Memory) Ping(context.Context) error { return nil }

type match[T any] struct {
	item   T
	prefix bool
}

// byPrefixThenRecency orders prefix matches first, then newest, then lowest ID.
func byPrefixThenRecency[T any](e func(T) (int64, int64)) func(a, b match[T]) int {
	return func(a, b match[T]) int {
		if a.prefix != b.prefix {
			if a.prefix {
				return -1
			}
			return 1
		}
		aID, aTS := e(a.item)
		bID, bTS := e(b.item)
		if c := cmp.Compare(bTS, aTS); c != 0 {
			return c
		}
		return cmp.Compare(aID, bID)
	}
}

func window[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return nil
	}
	end := len(items)
	if limit >= 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

func (m *Memory) matchTools(s scope.Text) []match[ToolRecord] {
	f := newFolder()
	needle := f.fold(s.Query)
	var out []match[ToolRecord]
	for _, t := range m.fx.Tools {
		if t.Visibility != entity.VisibilityPublic {
			continue
		}
		hit := f.contains(t.Name, needle) || f.contains(t.Description, needle) ||
			slices.ContainsFunc(t.Tags, func(tag string) bool { return f.contains(tag, needle) })
		if hit {
			out = append(out, match[ToolRecord]{item: t, prefix: f.hasPrefix(t.Name, needle)})
		}
	}
	slices.SortStableFunc(out, byPrefixThenRecency(func(t ToolRecord) (int64, int64) {
		return t.ID, t.CreatedAt.UnixNano()
	}))
	return out
}

// MatchTools implements the lexical tool lookup.
func (m *Memory) MatchTools(_ context.Context, s scope.Text) ([]candidate.Ranked, error) {
	page := window(m.matchTools(s), s.Offset, s.Limit)
	out := make([]candidate.Ranked, len(page))
	for i, t := range page {
		out[i] = candidate.Ranked{Entity: t.item.Tool, Rank: float64(s.Offset + i)}
	}
	return out, nil
}

// ListTools returns a page of matching tools plus the total.
func (m *Memory) ListTools(_ context.Context, s scope.Text) ([]entity.Entity, int, error) {
	all := m.matchTools(s)
	page := window(all, s.Offset, s.Limit)
	out := make([]entity.Entity, len(page))
	for i, t := range page {
		out[i] = t.item.Tool
	}
	return out, len(all), nil
}

// NearestTools scans public tools by cosine distance.
func (m *Memory) NearestTools(_ context.Context, v scope.Vector) ([]candidate.Near, error) {
	var out []candidate.Near
	for _, t := range m.fx.Tools {
		if t.Visibility != entity.VisibilityPublic {
			continue
		}
		if d, ok := cosineDistance(v.Embedding, t.Embedding); ok && d < v.MaxDistance {
			out = append(out, candidate.Near{Entity: t.Tool, Distance: d})
		}
	}
	return nearest(out, v.Limit), nil
}

func (m *Memory) completedSubmissions(typ string) []SubmissionRecord {
	var out []SubmissionRecord
	for _, s := range m.fx.Submissions {
		if s.Status != entity.StatusCompleted {
			continue
		}
		if typ != "" && s.Type != typ {
			continue
		}
		out = append(out, s)
	}
	return out
}

// RankSubmissions approximates full-text search: every query term must appear in the
// title or description, or the title must be trigram-similar to the query.
func (m *Memory) RankSubmissions(_ context.Context, s scope.Text) ([]candidate.Ranked, error) {
	f := newFolder()
	query := f.fold(s.Query)
	qterms := terms(query)

	type scored struct {
		sub SubmissionRecord
		rel float64
	}
	var hits []scored
	for _, sub := range m.completedSubmissions(s.Type) {
		title, desc := f.fold(sub.Title), f.fold(sub.Description)
		sim := similarity(title, query)

		matched, weight := 0, 0.0
		for _, t := range qterms {
			switch {
			case strings.Contains(title, t):
				matched++
				weight += 1
			case strings.Contains(desc, t):
				matched++
				weight += 0.5
			}
		}
		allTerms := len(qterms) > 0 && matched == len(qterms)
		if !allTerms && sim < trigramThreshold {
			continue
		}
		rel := sim
		if len(qterms) > 0 {
			rel += weight / float64(len(qterms))
		}
		hits = append(hits, scored{sub: sub, rel: rel})
	}

	slices.SortStableFunc(hits, func(a, b scored) int {
		if c := cmp.Compare(b.rel, a.rel); c != 0 {
			return c
		}
		return cmp.Compare(a.sub.ID, b.sub.ID)
	})
	hits = window(hits, 0, s.Limit)

	out := make([]candidate.Ranked, len(hits))
	rel := make([]float64, len(hits))
	for i, h := range hits {
		out[i] = candidate.Ranked{Entity: h.sub.Submission}
		rel[i] = h.rel
	}
	return relevanceToRank(out, rel), nil
}

// MatchSubmissions is the substring fallback.
func (m *Memory) MatchSubmissions(_ context.Context, s scope.Text) ([]candidate.Ranked, error) {
	f := newFolder()
	needle := f.fold(s.Query)
	var hits []match[SubmissionRecord]
	for _, sub := range m.completedSubmissions(s.Type) {
		if f.contains(sub.Title, needle) || f.contains(sub.Description, needle) {
			hits = append(hits, match[SubmissionRecord]{item: sub, prefix: f.hasPrefix(sub.Title, needle)})
		}
	}
	slices.SortStableFunc(hits, byPrefixThenRecency(func(s SubmissionRecord) (int64, int64) {
		return s.ID, s.CreatedAt.UnixNano()
	}))
	hits = window(hits, 0, s.Limit)

	out := make([]candidate.Ranked, len(hits))
	for i, h := range hits {
		out[i] = candidate.Ranked{Entity: h.item.Submission, Rank: float64(i)}
	}
	return out, nil
}

// NearestSubmissions scans completed submissions by cosine distance.
func (m *Memory) NearestSubmissions(_ context.Context, v scope.Vector) ([]candidate.Near, error) {
	var out []candidate.Near
	for _, s := range m.completedSubmissions(v.Type) {
		if d, ok := cosineDistance(v.Embedding, s.Embedding); ok && d < v.MaxDistance {
			out = append(out, candidate.Near{Entity: s.Submission, Distance: d})
		}
	}
	return nearest(out, v.Limit), nil
}

// MatchTags returns a page of tags by name.
func (m *Memory) MatchTags(_ context.Context, s scope.Text) ([]entity.Entity, int, error) {
	f := newFolder()
	needle := f.fold(s.Query)
	var hits []match[entity.Tag]
	for _, t := range m.fx.Tags {
		if f.contains(t.Name, needle) {
			hits = append(hits, match[entity.Tag]{item: t, prefix: f.hasPrefix(t.Name, needle)})
		}
	}
	return directoryPage(hits, s, func(t entity.Tag) (int64, int64) { return t.ID, t.CreatedAt.UnixNano() })
}

// MatchUsers returns a page of active users by username or bio.
func (m *Memory) MatchUsers(_ context.Context, s scope.Text) ([]entity.Entity, int, error) {
	f := newFolder()
	needle := f.fold(s.Query)
	var hits []match[entity.User]
	for _, u := range m.fx.Users {
		if u.Deleted {
			continue
		}
		if f.contains(u.Username, needle) || f.contains(u.Bio, needle) {
			hits = append(hits, match[entity.User]{item: u, prefix: f.hasPrefix(u.Username, needle)})
		}
	}
	return directoryPage(hits, s, func(u entity.User) (int64, int64) { return u.ID, u.CreatedAt.UnixNano() })
}

// MatchLists returns a page of public lists by name or owner.
func (m *Memory) MatchLists(_ context.Context, s scope.Text) ([]entity.Entity, int, error) {
	f := newFolder()
	needle := f.fold(s.Query)
	var hits []match[entity.List]
	for _, l := range m.fx.Lists {
		if l.Visibility != entity.VisibilityPublic {
			continue
		}
		if f.contains(l.Name, needle) || f.contains(l.Owner, needle) {
			hits = append(hits, match[entity.List]{item: l, prefix: f.hasPrefix(l.Name, needle)})
		}
	}
	return directoryPage(hits, s, func(l entity.List) (int64, int64) { return l.ID, l.CreatedAt.UnixNano() })
}

func directoryPage[T entity.Entity](
	hits []match[T], s scope.Text, key func(T) (int64, int64),
) ([]entity.Entity, int, error) {
	slices.SortStableFunc(hits, byPrefixThenRecency(key))
	page := window(hits, s.Offset, s.Limit)
	out := make([]entity.Entity, len(page))
	for i, h := range page {
		out[i] = h.item
	}
	return out, len(hits), nil
}

func nearest(hits []candidate.Near, limit int) []candidate.Near {
	slices.SortStableFunc(hits, func(a, b candidate.Near) int {
		if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
			return c
		}
		return cmp.Compare(a.Entity.EntityID(), b.Entity.EntityID())
	})
	return window(hits, 0, limit)
}

// cosineDistance returns 1 - cos(a, b). ok is false when either vector is
// empty, zero, or the dimensions differ.
func cosineDistance(a, b []float32) (float64, bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0, false
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb)), true
}
