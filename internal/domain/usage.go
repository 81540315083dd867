package domain

import (
	"context"
	"sync"
)

type usageKey struct{}

// Usage collects provider token usage for a single request.
// The handler puts a pointer into the context before calling the service;
// providers add to it; the handler reads it for response headers.
type Usage struct {
	mu               sync.Mutex
	embeddingTokens  int
	completionTokens int
	embeddingUsed    bool
}

// NewContextWithUsage returns a context with an embedded usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *Usage) {
	u := &Usage{}
	return context.WithValue(ctx, usageKey{}, u), u
}

// UsageFromContext extracts the usage collector from context. Returns nil if not set.
func UsageFromContext(ctx context.Context) *Usage {
	u, _ := ctx.Value(usageKey{}).(*Usage)
	return u
}

// AddEmbeddingTokens records embedding tokens. Safe on a nil receiver.
func (u *Usage) AddEmbeddingTokens(n int) {
	if u == nil {
		return
	}
	u.mu.Lock()
	u.embeddingTokens += n
	u.embeddingUsed = true
	u.mu.Unlock()
}

// AddCompletionTokens records generative model tokens. Safe on a nil receiver.
func (u *Usage) AddCompletionTokens(n int) {
	if u == nil {
		return
	}
	u.mu.Lock()
	u.completionTokens += n
	u.mu.Unlock()
}

// EmbeddingTokens returns the embedding tokens and whether an embedding was requested at all
// (a cache hit counts as used with zero tokens).
func (u *Usage) EmbeddingTokens() (int, bool) {
	if u == nil {
		return 0, false
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.embeddingTokens, u.embeddingUsed
}

// CompletionTokens returns the generative model tokens consumed.
func (u *Usage) CompletionTokens() int {
	if u == nil {
		return 0
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.completionTokens
}
