package rag

import (
	"context"

	"github.com/kailas-cloud/discovery/internal/domain/enhance"
)

// Cache stores generated fields between requests. Implementations swallow their own errors.
type Cache interface {
	Get(ctx context.Context, key enhance.Key) (enhance.Fields, bool)
	Put(ctx context.Context, key enhance.Key, f enhance.Fields)
}
