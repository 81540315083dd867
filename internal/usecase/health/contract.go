package health

import "context"

// Pinger checks a storage dependency (catalog database, Redis cache).
type Pinger interface {
	Ping(ctx context.Context) error
}

// ProviderChecker checks a model provider (embedding, completion).
type ProviderChecker interface {
	HealthCheck(ctx context.Context) error
}
