package search

import (
	"context"

	"github.com/kailas-cloud/discovery/internal/domain"
	"github.com/kailas-cloud/discovery/internal/domain/entity"
	"github.com/kailas-cloud/discovery/internal/domain/search/candidate"
	"github.com/kailas-cloud/discovery/internal/domain/search/scope"
)

// Catalog is the read-only entity store contract. Each call applies the category's
// own visibility/status rules; callers only pass the query scope.
type Catalog interface {
	// MatchTools returns a lexical buffer of public tools, rank = 0-based position.
	MatchTools(ctx context.Context, s scope.Text) ([]candidate.Ranked, error)
	// ListTools returns one store-paginated page of public tools plus the total.
	ListTools(ctx context.Context, s scope.Text) ([]entity.Entity, int, error)
	NearestTools(ctx context.Context, v scope.Vector) ([]candidate.Near, error)

	// RankSubmissions is full-text plus trigram ranking, rank 0 is the best hit.
	RankSubmissions(ctx context.Context, s scope.Text) ([]candidate.Ranked, error)
	// MatchSubmissions is the substring fallback, rank = 0-based position.
	MatchSubmissions(ctx context.Context, s scope.Text) ([]candidate.Ranked, error)
	NearestSubmissions(ctx context.Context, v scope.Vector) ([]candidate.Near, error)

	MatchTags(ctx context.Context, s scope.Text) ([]entity.Entity, int, error)
	MatchUsers(ctx context.Context, s scope.Text) ([]entity.Entity, int, error)
	MatchLists(ctx context.Context, s scope.Text) ([]entity.Entity, int, error)
}

// Embedder vectorizes the query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
