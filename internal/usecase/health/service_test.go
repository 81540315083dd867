package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

// --- Mocks ---

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

type mockProvider struct {
	err   error
	block bool
}

func (m *mockProvider) HealthCheck(ctx context.Context) error {
	if m.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return m.err
}

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockPinger{},
		WithCache(&mockPinger{}),
		WithEmbedding(&mockProvider{}),
		WithCompletion(&mockProvider{}),
	)
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	for _, name := range []string{ComponentCatalog, ComponentCache, ComponentEmbedding, ComponentCompletion} {
		if r.Checks[name] != CheckOK {
			t.Errorf("expected %s %q, got %q", name, CheckOK, r.Checks[name])
		}
	}
}

func TestCheck_CatalogOnly(t *testing.T) {
	r := New(&mockPinger{}).Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if len(r.Checks) != 1 {
		t.Errorf("expected only the catalog check, got %v", r.Checks)
	}
}

func TestCheck_CatalogError(t *testing.T) {
	svc := New(&mockPinger{err: errors.New("conn refused")}, WithEmbedding(&mockProvider{err: errors.New("x")}))
	r := svc.Check(context.Background())

	if r.Status != Unhealthy {
		t.Errorf("expected %q, got %q", Unhealthy, r.Status)
	}
	if r.Checks[ComponentCatalog] != CheckError {
		t.Errorf("expected catalog %q, got %q", CheckError, r.Checks[ComponentCatalog])
	}
}

func TestCheck_EmbeddingError(t *testing.T) {
	svc := New(&mockPinger{}, WithEmbedding(&mockProvider{err: errors.New("timeout")}))
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks[ComponentCatalog] != CheckOK {
		t.Errorf("expected catalog %q, got %q", CheckOK, r.Checks[ComponentCatalog])
	}
	if r.Checks[ComponentEmbedding] != CheckError {
		t.Errorf("expected embedding %q, got %q", CheckError, r.Checks[ComponentEmbedding])
	}
}

func TestCheck_CacheError(t *testing.T) {
	svc := New(&mockPinger{}, WithCache(&mockPinger{err: errors.New("no route")}))
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks[ComponentCache] != CheckError {
		t.Errorf("expected cache %q, got %q", CheckError, r.Checks[ComponentCache])
	}
}

func TestCheck_Timeout(t *testing.T) {
	svc := New(&mockPinger{},
		WithCompletion(&mockProvider{block: true}),
		WithTimeout(20*time.Millisecond),
	)

	start := time.Now()
	r := svc.Check(context.Background())

	if time.Since(start) > time.Second {
		t.Fatalf("check did not respect timeout")
	}
	if r.Checks[ComponentCompletion] != CheckError {
		t.Errorf("expected completion %q, got %q", CheckError, r.Checks[ComponentCompletion])
	}
	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
}
