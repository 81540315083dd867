// Package catalog reads searchable entities from the relational catalog or a fixture.
package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/kailas-cloud/discovery/internal/domain/entity"
	"github.com/kailas-cloud/discovery/internal/domain/search/candidate"
	"github.com/kailas-cloud/discovery/internal/domain/search/scope"
)

// querier is the consumer interface for the SQL store (ISP).
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repo implements usecase/search.Catalog on Postgres with pg_trgm and pgvector.
type Repo struct {
	q querier
}

// New creates a Postgres-backed catalog.
func New(q querier) *Repo {
	return &Repo{q: q}
}

// MatchTools returns public tools matching the query, prefix matches first.
func (r *Repo) MatchTools(ctx context.Context, s scope.Text) ([]candidate.Ranked, error) {
	tools, err := r.queryTools(ctx, toolMatch(s))
	if err != nil {
		return nil, err
	}
	out := make([]candidate.Ranked, len(tools))
	for i, t := range tools {
		out[i] = candidate.Ranked{Entity: t, Rank: float64(s.Offset + i)}
	}
	return out, nil
}

// ListTools returns one page of matching public tools plus the total match count.
func (r *Repo) ListTools(ctx context.Context, s scope.Text) ([]entity.Entity, int, error) {
	total, err := r.count(ctx, toolCount(s))
	if err != nil {
		return nil, 0, err
	}
	if total == 0 || s.Offset >= total {
		return nil, total, nil
	}
	tools, err := r.queryTools(ctx, toolMatch(s))
	if err != nil {
		return nil, 0, err
	}
	out := make([]entity.Entity, len(tools))
	for i, t := range tools {
		out[i] = t
	}
	return out, total, nil
}

// NearestTools returns public tools within the distance ceiling, closest first.
func (r *Repo) NearestTools(ctx context.Context, v scope.Vector) ([]candidate.Near, error) {
	q := toolNearest(v)
	rows, err := r.q.QueryContext(ctx, q.text, q.args...)
	if err != nil {
		return nil, fmt.Errorf("nearest tools: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []candidate.Near
	for rows.Next() {
		var (
			t    entity.Tool
			dist float64
		)
		if err := rows.Scan(toolDest(&t, &dist)...); err != nil {
			return nil, fmt.Errorf("scan tool: %w", err)
		}
		out = append(out, candidate.Near{Entity: t, Distance: dist})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("nearest tools: %w", err)
	}
	return out, nil
}

// RankSubmissions runs full-text search over completed submissions.
// Rank is the distance from the best relevance in the result set, so the top hit has rank 0.
func (r *Repo) RankSubmissions(ctx context.Context, s scope.Text) ([]candidate.Ranked, error) {
	q := submissionRank(s)
	rows, err := r.q.QueryContext(ctx, q.text, q.args...)
	if err != nil {
		return nil, fmt.Errorf("rank submissions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var (
		out       []candidate.Ranked
		relevance []float64
	)
	for rows.Next() {
		var (
			sub entity.Submission
			rel float64
		)
		if err := rows.Scan(submissionDest(&sub, &rel)...); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		out = append(out, candidate.Ranked{Entity: sub})
		relevance = append(relevance, rel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rank submissions: %w", err)
	}
	return relevanceToRank(out, relevance), nil
}

// MatchSubmissions is the substring fallback when full-text search is off.
func (r *Repo) MatchSubmissions(ctx context.Context, s scope.Text) ([]candidate.Ranked, error) {
	q := submissionMatch(s)
	rows, err := r.q.QueryContext(ctx, q.text, q.args...)
	if err != nil {
		return nil, fmt.Errorf("match submissions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []candidate.Ranked
	for rows.Next() {
		var sub entity.Submission
		if err := rows.Scan(submissionDest(&sub)...); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		out = append(out, candidate.Ranked{Entity: sub, Rank: float64(len(out))})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("match submissions: %w", err)
	}
	return out, nil
}

// NearestSubmissions returns completed submissions within the distance ceiling.
func (r *Repo) NearestSubmissions(ctx context.Context, v scope.Vector) ([]candidate.Near, error) {
	q := submissionNearest(v)
	rows, err := r.q.QueryContext(ctx, q.text, q.args...)
	if err != nil {
		return nil, fmt.Errorf("nearest submissions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []candidate.Near
	for rows.Next() {
		var (
			sub  entity.Submission
			dist float64
		)
		if err := rows.Scan(submissionDest(&sub, &dist)...); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		out = append(out, candidate.Near{Entity: sub, Distance: dist})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("nearest submissions: %w", err)
	}
	return out, nil
}

// MatchTags returns a page of tags by name.
func (r *Repo) MatchTags(ctx context.Context, s scope.Text) ([]entity.Entity, int, error) {
	return r.directory(ctx, tagMatch(s), func(rows *sql.Rows) (entity.Entity, error) {
		var t entity.Tag
		err := rows.Scan(&t.ID, &t.Name, &t.CreatedAt)
		return t, err
	})
}

// MatchUsers returns a page of active users by username or bio.
func (r *Repo) MatchUsers(ctx context.Context, s scope.Text) ([]entity.Entity, int, error) {
	return r.directory(ctx, userMatch(s), func(rows *sql.Rows) (entity.Entity, error) {
		var u entity.User
		err := rows.Scan(&u.ID, &u.Username, &u.Bio, &u.CreatedAt)
		return u, err
	})
}

// MatchLists returns a page of public lists by name or owner.
func (r *Repo) MatchLists(ctx context.Context, s scope.Text) ([]entity.Entity, int, error) {
	return r.directory(ctx, listMatch(s), func(rows *sql.Rows) (entity.Entity, error) {
		var l entity.List
		err := rows.Scan(&l.ID, &l.Name, &l.Owner, &l.Visibility, &l.CreatedAt)
		return l, err
	})
}

func (r *Repo) directory(
	ctx context.Context, dq directoryQuery, scan func(*sql.Rows) (entity.Entity, error),
) ([]entity.Entity, int, error) {
	total, err := r.count(ctx, dq.count)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return nil, 0, nil
	}

	rows, err := r.q.QueryContext(ctx, dq.list.text, dq.list.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("directory query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []entity.Entity
	for rows.Next() {
		e, err := scan(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("directory query: %w", err)
	}
	return out, total, nil
}

func (r *Repo) count(ctx context.Context, q sqlQuery) (int, error) {
	var n int
	if err := r.q.QueryRowContext(ctx, q.text, q.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

func (r *Repo) queryTools(ctx context.Context, q sqlQuery) ([]entity.Tool, error) {
	rows, err := r.q.QueryContext(ctx, q.text, q.args...)
	if err != nil {
		return nil, fmt.Errorf("match tools: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []entity.Tool
	for rows.Next() {
		var t entity.Tool
		if err := rows.Scan(toolDest(&t)...); err != nil {
			return nil, fmt.Errorf("scan tool: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("match tools: %w", err)
	}
	return out, nil
}

// toolDest lists scan targets in toolColumns order, followed by extra.
func toolDest(t *entity.Tool, extra ...any) []any {
	dest := []any{&t.ID, &t.Name, &t.Description, &t.URL, &t.Visibility, &t.CreatedAt, pq.Array(&t.Tags)}
	return append(dest, extra...)
}

// submissionDest lists scan targets in submissionColumns order, followed by extra.
func submissionDest(s *entity.Submission, extra ...any) []any {
	dest := []any{
		&s.ID, &s.Title, &s.Description, &s.URL, &s.Type, &s.Status, &s.Author, &s.CreatedAt,
		pq.Array(&s.Tags), pq.Array(&s.Tools),
	}
	return append(dest, extra...)
}

// relevanceToRank converts descending relevance scores into ranks where the best hit is 0.
func relevanceToRank(hits []candidate.Ranked, relevance []float64) []candidate.Ranked {
	if len(hits) == 0 {
		return hits
	}
	best := relevance[0]
	for _, rel := range relevance {
		if rel > best {
			best = rel
		}
	}
	for i := range hits {
		hits[i].Rank = best - relevance[i]
	}
	return hits
}
