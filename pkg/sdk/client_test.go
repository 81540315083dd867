package discovery

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const testFixture = `
tools:
  - {id: 1, name: React, description: UI library, visibility: public, created_at: 2024-01-01T00:00:00Z, embedding: [1, 0]}
  - {id: 2, name: Vue, description: Progressive framework, visibility: public, tags: [react-like], created_at: 2024-01-02T00:00:00Z, embedding: [0, 1]}
  - {id: 3, name: Redux, description: State for React, visibility: private, created_at: 2024-01-03T00:00:00Z}
submissions:
  - {id: 10, title: React hooks guide, description: Learn hooks, submission_type: article, status: completed, created_at: 2024-01-03T00:00:00Z, embedding: [1, 0]}
  - {id: 11, title: Scaling React apps, description: Performance, submission_type: video, status: completed, created_at: 2024-01-04T00:00:00Z}
tags:
  - {id: 20, name: react, created_at: 2024-01-01T00:00:00Z}
  - {id: 21, name: golang, created_at: 2024-01-02T00:00:00Z}
users:
  - {id: 30, username: reactdev, created_at: 2024-01-01T00:00:00Z}
lists:
  - {id: 40, name: React picks, owner: bob, visibility: public, created_at: 2024-01-01T00:00:00Z}
`

type fakeEmbedder struct {
	calls  atomic.Int32
	vec    []float32
	err    error
	health error
	block  bool
}

func (f *fakeEmbedder) Embed(ctx context.Context, _ string) (EmbeddingResult, error) {
	f.calls.Add(1)
	if f.block {
		<-ctx.Done()
		return EmbeddingResult{}, ctx.Err()
	}
	if f.err != nil {
		return EmbeddingResult{}, f.err
	}
	return EmbeddingResult{Embedding: f.vec, PromptTokens: 2, TotalTokens: 2}, nil
}

func (f *fakeEmbedder) HealthCheck(context.Context) error { return f.health }

type fakeCompleter struct {
	reply string
}

func (f *fakeCompleter) Complete(_ context.Context, _ string) (CompletionResult, error) {
	return CompletionResult{Text: f.reply, TotalTokens: 10}, nil
}

func newTestClient(t *testing.T, opts ...Option) *Client {
	t.Helper()
	c, err := New(context.Background(), append([]Option{WithFixtureData([]byte(testFixture))}, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func ids(p Page) []int64 {
	out := make([]int64, len(p.Items))
	for i, it := range p.Items {
		out[i] = it.ID
	}
	return out
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestNew_NoCatalog(t *testing.T) {
	_, err := New(context.Background())
	if err == nil {
		t.Fatal("expected error when no catalog configured")
	}
}

func TestNew_ConflictingCatalogs(t *testing.T) {
	_, err := New(context.Background(), WithPostgres("postgres://x"), WithFixtureData([]byte(testFixture)))
	if err == nil {
		t.Fatal("expected error for postgres + fixture")
	}
}

func TestNew_BadFixture(t *testing.T) {
	_, err := New(context.Background(), WithFixtureData([]byte("tools: [{id: 1}, {id: 1}]")))
	if err == nil {
		t.Fatal("expected error for duplicate fixture ids")
	}
}

func TestSearch_LexicalOnly(t *testing.T) {
	c := newTestClient(t)

	res, err := c.Search(context.Background(), SearchRequest{
		Query:           "  react ",
		Categories:      []Category{Tools},
		DisableSemantic: true,
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Query != "react" {
		t.Errorf("query = %q, want normalized %q", res.Query, "react")
	}
	if len(res.Results) != 1 {
		t.Fatalf("categories = %d, want 1", len(res.Results))
	}
	tools := res.Results[Tools]
	if got := ids(tools); !equalIDs(got, []int64{1, 2}) {
		t.Errorf("tool ids = %v, want [1 2]", got)
	}
	if tools.TotalCount != 2 || tools.HasMore {
		t.Errorf("total = %d hasMore = %v, want 2 false", tools.TotalCount, tools.HasMore)
	}
	if tools.Items[0].Category != Tools || tools.Items[0].Visibility != "public" {
		t.Errorf("item = %+v", tools.Items[0])
	}
}

func TestSearch_UnknownCategoriesSelectAll(t *testing.T) {
	c := newTestClient(t)

	res, err := c.Search(context.Background(), SearchRequest{Query: "react", Categories: []Category{"bogus"}})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	for _, cat := range []Category{Tools, Submissions, Tags, Users, Lists} {
		if _, ok := res.Results[cat]; !ok {
			t.Errorf("missing category %s", cat)
		}
	}
	if got := ids(res.Results[Lists]); !equalIDs(got, []int64{40}) {
		t.Errorf("list ids = %v, want [40]", got)
	}
	if it := res.Results[Lists].Items[0]; it.Owner != "bob" || it.Description != "" {
		t.Errorf("list item = %+v", it)
	}
}

func TestSearch_EmbedsOncePerRequest(t *testing.T) {
	emb := &fakeEmbedder{vec: []float32{1, 0}}
	c := newTestClient(t, WithEmbedder(emb))

	res, err := c.Search(context.Background(), SearchRequest{
		Query:      "react",
		Categories: []Category{Tools, Submissions},
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if n := emb.calls.Load(); n != 1 {
		t.Errorf("embed calls = %d, want 1", n)
	}
	if got := ids(res.Results[Tools]); !equalIDs(got, []int64{1, 2}) {
		t.Errorf("tool ids = %v, want [1 2]", got)
	}
}

func TestSearch_EmbedderFailureFallsBack(t *testing.T) {
	emb := &fakeEmbedder{err: errors.New("provider down")}
	c := newTestClient(t, WithEmbedder(emb))

	res, err := c.Search(context.Background(), SearchRequest{Query: "react", Categories: []Category{Tools}})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got := ids(res.Results[Tools]); !equalIDs(got, []int64{1, 2}) {
		t.Errorf("tool ids = %v, want lexical [1 2]", got)
	}
}

func TestSearch_HangingEmbedderBoundedByCategoryTimeout(t *testing.T) {
	c := newTestClient(t, WithEmbedder(&fakeEmbedder{block: true}), WithCategoryTimeout(200*time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	start := time.Now()
	res, err := c.Search(ctx, SearchRequest{Query: "react", Categories: []Category{Tools, Tags}})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("search took %v, want about the category timeout", elapsed)
	}
	if got := ids(res.Results[Tools]); !equalIDs(got, []int64{1, 2}) {
		t.Errorf("tool ids = %v, want lexical [1 2]", got)
	}
	if got := ids(res.Results[Tags]); !equalIDs(got, []int64{20}) {
		t.Errorf("tag ids = %v, want [20]", got)
	}
}

func TestSearch_SubmissionType(t *testing.T) {
	c := newTestClient(t)

	res, err := c.Query("react").In(Submissions).OfType("video").LexicalOnly().Do(context.Background())
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got := ids(res.Results[Submissions]); !equalIDs(got, []int64{11}) {
		t.Errorf("submission ids = %v, want [11]", got)
	}
}

func TestSearch_EnhanceRequiresCompleter(t *testing.T) {
	c := newTestClient(t)

	_, err := c.Search(context.Background(), SearchRequest{Query: "react", Enhance: true})
	if !errors.Is(err, ErrCompleterNotConfigured) {
		t.Fatalf("err = %v, want ErrCompleterNotConfigured", err)
	}
}

func TestSearch_Enhance(t *testing.T) {
	cp := &fakeCompleter{reply: `Sure! {"summary": "S", "relevance_explanation": "R"}`}
	c := newTestClient(t, WithCompleter(cp))

	res, err := c.Query("react").In(Tools, Submissions).LexicalOnly().Enhance().Do(context.Background())
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	subs := res.Results[Submissions]
	if len(subs.Items) != 2 {
		t.Fatalf("submissions = %d, want 2", len(subs.Items))
	}
	for _, it := range subs.Items {
		if it.Summary != "S" || it.RelevanceExplanation != "R" || !it.Enhanced() {
			t.Errorf("item %d not enhanced: %+v", it.ID, it)
		}
	}
	for _, it := range res.Results[Tools].Items {
		if it.Enhanced() {
			t.Errorf("tool %d enhanced, only submissions should be", it.ID)
		}
	}
}

func TestSuggest(t *testing.T) {
	c := newTestClient(t)

	short, err := c.Suggest(context.Background(), "re", Tools)
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if n := len(short.Results[Tools].Items); n != 0 {
		t.Errorf("short query items = %d, want 0", n)
	}

	res, err := c.Suggest(context.Background(), "react", Tools)
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if res.Results[Tools].PerPage != 5 {
		t.Errorf("perPage = %d, want 5", res.Results[Tools].PerPage)
	}
	if len(res.Results[Tools].Items) == 0 {
		t.Error("expected suggestions")
	}
}

func TestSearch_Canceled(t *testing.T) {
	c := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Search(ctx, SearchRequest{Query: "react"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestHealth(t *testing.T) {
	c := newTestClient(t)
	h := c.Health(context.Background())
	if !h.Healthy() || h.Checks["catalog"] != "ok" {
		t.Errorf("health = %+v", h)
	}

	sick := newTestClient(t, WithEmbedder(&fakeEmbedder{health: errors.New("down")}))
	h = sick.Health(context.Background())
	if h.Status != "degraded" || h.Checks["embedding"] != "error" {
		t.Errorf("health = %+v, want degraded", h)
	}
}

func TestBuilder_Request(t *testing.T) {
	c := &Client{}
	req := c.Query("go").In(Tags).PerPage(3).Page(Tags, 2).Substring().Request()

	if req.Query != "go" || req.PerPage != 3 || req.Pages[Tags] != 2 || !req.DisableFulltext {
		t.Errorf("request = %+v", req)
	}
	if len(req.Categories) != 1 || req.Categories[0] != Tags {
		t.Errorf("categories = %v", req.Categories)
	}
}

func TestEmbedderAdapter(t *testing.T) {
	a := &embedderAdapter{inner: &fakeEmbedder{vec: []float32{1, 2, 3}}}
	r, err := a.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(r.Embedding) != 3 || r.TotalTokens != 2 {
		t.Errorf("result = %+v", r)
	}

	a = &embedderAdapter{inner: &fakeEmbedder{err: errors.New("boom")}}
	if _, err := a.Embed(context.Background(), "hello"); err == nil {
		t.Fatal("expected error")
	}
}

func TestWithPrometheus(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := newTestClient(t, WithPrometheus(reg), WithLogger(slog.New(slog.DiscardHandler)))

	if _, err := c.Search(context.Background(), SearchRequest{Query: "react"}); err != nil {
		t.Fatalf("Search: %v", err)
	}

	// A second client on the same registry reuses the collectors.
	newTestClient(t, WithPrometheus(reg))

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "discovery_sdk_operations_total" {
			found = true
		}
	}
	if !found {
		t.Error("discovery_sdk_operations_total not registered")
	}
}

func TestWithCategoryTimeout(t *testing.T) {
	cfg := &clientConfig{}
	WithCategoryTimeout(time.Second).apply(cfg)
	WithEnhancement(3, 2).apply(cfg)
	if cfg.categoryTimeout != time.Second || cfg.ragTopK != 3 || cfg.ragWorkers != 2 {
		t.Errorf("config = %+v", cfg)
	}
}

func TestEnhance(t *testing.T) {
	cp := &fakeCompleter{reply: `{"summary": "S", "relevance_explanation": "R"}`}
	c := newTestClient(t, WithCompleter(cp))

	items := []Item{
		{ID: 1, Category: Tools, Title: "React"},
		{ID: 10, Category: Submissions, Title: "React hooks guide", Type: "article"},
		{ID: 40, Category: Lists, Title: "React picks", Owner: "bob"},
	}
	out, err := c.Enhance(context.Background(), "react", items, EnhanceOptions{TopK: 2})
	if err != nil {
		t.Fatalf("Enhance: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("items = %d, want 3", len(out))
	}
	for i, it := range out {
		if it.ID != items[i].ID || it.Category != items[i].Category {
			t.Errorf("out[%d] = %d/%s, want %d/%s", i, it.ID, it.Category, items[i].ID, items[i].Category)
		}
	}
	if !out[0].Enhanced() || !out[1].Enhanced() {
		t.Error("top 2 items should be enhanced")
	}
	if out[2].Enhanced() {
		t.Error("item beyond top K should stay plain")
	}
	if out[2].Owner != "bob" {
		t.Errorf("list owner lost: %+v", out[2])
	}

	all, err := c.Enhance(context.Background(), "react", items, EnhanceOptions{TopK: 1, All: true})
	if err != nil {
		t.Fatalf("Enhance: %v", err)
	}
	for _, it := range all {
		if !it.Enhanced() {
			t.Errorf("item %d not enhanced with All", it.ID)
		}
	}
}

func TestEnhance_Errors(t *testing.T) {
	c := newTestClient(t)
	if _, err := c.Enhance(context.Background(), "react", nil, EnhanceOptions{}); !errors.Is(err, ErrCompleterNotConfigured) {
		t.Errorf("err = %v, want ErrCompleterNotConfigured", err)
	}

	c = newTestClient(t, WithCompleter(&fakeCompleter{reply: "{}"}))
	_, err := c.Enhance(context.Background(), "react", []Item{{ID: 1, Category: "widgets"}}, EnhanceOptions{})
	if !errors.Is(err, ErrUnknownCategory) {
		t.Errorf("err = %v, want ErrUnknownCategory", err)
	}
}
