package discovery

import (
	"errors"

	"github.com/kailas-cloud/discovery/internal/domain"
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidQuery            = domain.ErrInvalidQuery
	ErrUnknownCategory         = domain.ErrUnknownCategory
	ErrEmbeddingQuotaExceeded  = domain.ErrEmbeddingQuotaExceeded
	ErrCompletionQuotaExceeded = domain.ErrCompletionQuotaExceeded
	ErrEmbeddingProviderError  = domain.ErrEmbeddingProviderError
	ErrCompletionProviderError = domain.ErrCompletionProviderError
	ErrProviderUnavailable     = domain.ErrProviderUnavailable
)

// ErrCompleterNotConfigured is returned when enhancement is requested without WithCompleter.
var ErrCompleterNotConfigured = errors.New("discovery: completer not configured (use WithCompleter)")
