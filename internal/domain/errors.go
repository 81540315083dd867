package domain

import "errors"

var (
	// ErrInvalidQuery signals a malformed search request.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrUnknownCategory signals a category outside the supported set.
	ErrUnknownCategory = errors.New("unknown category")
	// ErrEmbeddingQuotaExceeded signals an exhausted embedding budget.
	ErrEmbeddingQuotaExceeded = errors.New("embedding quota exceeded")
	// ErrCompletionQuotaExceeded signals an exhausted completion budget.
	ErrCompletionQuotaExceeded = errors.New("completion quota exceeded")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrCompletionProviderError signals a generative model failure.
	ErrCompletionProviderError = errors.New("completion provider error")
	// ErrProviderUnavailable signals an open circuit in front of a provider.
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrNotImplemented signals an unimplemented feature.
	ErrNotImplemented = errors.New("not implemented")
)

// KeyPrefix namespaces every key the service writes to the cache store.
const KeyPrefix = "discovery:"
