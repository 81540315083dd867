package chi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kailas-cloud/discovery/internal/domain"
	"github.com/kailas-cloud/discovery/internal/domain/category"
	"github.com/kailas-cloud/discovery/internal/domain/enhance"
	"github.com/kailas-cloud/discovery/internal/domain/entity"
	"github.com/kailas-cloud/discovery/internal/domain/search/page"
	"github.com/kailas-cloud/discovery/internal/domain/search/query"
	healthuc "github.com/kailas-cloud/discovery/internal/usecase/health"
	"github.com/kailas-cloud/discovery/internal/usecase/search"
	"github.com/kailas-cloud/discovery/internal/usecase/usage"
)

// --- Mocks ---

type mockSearcher struct {
	last     query.Query
	suggest  bool
	err      error
	pages    search.Results
	embedded bool
}

func (m *mockSearcher) run(ctx context.Context, q query.Query) (search.Results, error) {
	m.last = q
	if m.err != nil {
		return nil, m.err
	}
	if m.embedded {
		domain.UsageFromContext(ctx).AddEmbeddingTokens(7)
	}
	res := make(search.Results)
	for _, c := range q.Categories() {
		if p, ok := m.pages[c]; ok {
			res[c] = p
			continue
		}
		res[c] = page.Empty(q.Page(c), q.PerPage())
	}
	return res, nil
}

func (m *mockSearcher) Search(ctx context.Context, q query.Query) (search.Results, error) {
	return m.run(ctx, q)
}

func (m *mockSearcher) Suggest(ctx context.Context, q query.Query) (search.Results, error) {
	m.suggest = true
	return m.run(ctx, q.WithPerPage(5))
}

type mockEnhancer struct{ called bool }

func (m *mockEnhancer) EnhanceCategories(_ context.Context, _ string, res search.Results) search.Results {
	m.called = true
	p := res[category.Submissions]
	out := make([]enhance.Result, len(p.Items()))
	summary := "generated"
	for i, e := range p.Items() {
		out[i] = enhance.Result{Entity: e, Summary: &summary}
	}
	res[category.Submissions] = p.WithEnhanced(out)
	return res
}

type mockHealth struct{ report healthuc.Report }

func (m *mockHealth) Check(context.Context) healthuc.Report { return m.report }

type mockUsage struct{ period usage.Period }

func (m *mockUsage) GetReport(_ context.Context, p usage.Period) usage.Report {
	m.period = p
	return usage.Report{Period: p, Budgets: []usage.Budget{
		{Kind: "embedding", Limit: 1000, Used: 1000, Remaining: 0, Exhausted: true},
	}}
}

func newTestRouter(s Searcher, e Enhancer, h HealthChecker, keys ...string) http.Handler {
	if h == nil {
		h = &mockHealth{report: healthuc.Report{Status: healthuc.Healthy, Checks: map[string]healthuc.CheckResult{}}}
	}
	return NewRouter(NewServer(s, e, h, zap.NewNop()), keys, zap.NewNop())
}

func do(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, http.NoBody)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeSearch(t *testing.T, rr *httptest.ResponseRecorder) SearchResponse {
	t.Helper()
	var resp SearchResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	return resp
}

// --- Tests ---

func TestSearch_ParsesParameters(t *testing.T) {
	s := &mockSearcher{}
	h := newTestRouter(s, nil, nil)

	rr := do(t, h, "/api/v1/search?q=%20go%20web%20&categories=tools,submissions,bogus"+
		"&per_page=7&submissions_page=3&semantic=false&type=article")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	q := s.last
	assert.Equal(t, "go web", q.Text())
	assert.Equal(t, []category.Category{category.Tools, category.Submissions}, q.Categories())
	assert.Equal(t, 7, q.PerPage())
	assert.Equal(t, 3, q.Page(category.Submissions))
	assert.Equal(t, 1, q.Page(category.Tools))
	assert.False(t, q.UseSemantic())
	assert.True(t, q.UseFulltext(), "fulltext defaults to on")
	assert.Equal(t, "article", q.SubmissionType())

	resp := decodeSearch(t, rr)
	assert.Equal(t, "go web", resp.Query)
	require.Contains(t, resp.Categories, "submissions")
	assert.Equal(t, 3, resp.Categories["submissions"].Page)
	assert.Equal(t, 7, resp.Categories["submissions"].PerPage)
	assert.NotNil(t, resp.Categories["tools"].Items, "empty pages serialize as []")
}

func TestSearch_DefaultsToAllCategories(t *testing.T) {
	s := &mockSearcher{}
	rr := do(t, newTestRouter(s, nil, nil), "/api/v1/search?q=go")
	require.Equal(t, http.StatusOK, rr.Code)

	resp := decodeSearch(t, rr)
	assert.Len(t, resp.Categories, len(category.All()))
	assert.True(t, s.last.UseSemantic())
}

func TestSearch_InvalidParameter(t *testing.T) {
	rr := do(t, newTestRouter(&mockSearcher{}, nil, nil), "/api/v1/search?q=go&per_page=ten")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	var errResp ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&errResp))
	assert.Equal(t, ErrorCodeBadRequest, errResp.Code)
}

func TestSearch_QueryTooLong(t *testing.T) {
	long := make([]byte, query.MaxQueryLength+1)
	for i := range long {
		long[i] = 'a'
	}
	rr := do(t, newTestRouter(&mockSearcher{}, nil, nil), "/api/v1/search?q="+string(long))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	var errResp ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&errResp))
	assert.Equal(t, ErrorCodeValidationFailed, errResp.Code)
}

func TestSearch_ErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   ErrorCode
	}{
		{context.Canceled, http.StatusRequestTimeout, ErrorCodeRequestCanceled},
		{fmt.Errorf("wrap: %w", domain.ErrProviderUnavailable), http.StatusServiceUnavailable, ErrorCodeProviderUnavailable},
		{fmt.Errorf("secret dsn in message"), http.StatusInternalServerError, ErrorCodeInternalError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			rr := do(t, newTestRouter(&mockSearcher{err: tt.err}, nil, nil), "/api/v1/search?q=go")
			assert.Equal(t, tt.status, rr.Code)

			var errResp ErrorResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&errResp))
			assert.Equal(t, tt.code, errResp.Code)
			assert.NotContains(t, errResp.Message, "secret")
		})
	}
}

func TestSearch_Items(t *testing.T) {
	s := &mockSearcher{pages: search.Results{
		category.Submissions: page.New([]entity.Entity{
			entity.Submission{ID: 4, Title: "Intro", Type: "article", Author: "ana", Tags: []string{"go"}},
		}, 12, 1, 10),
		category.Users: page.New([]entity.Entity{entity.User{ID: 9, Username: "gopher"}}, 1, 1, 10),
	}}
	rr := do(t, newTestRouter(s, nil, nil), "/api/v1/search?q=go&categories=submissions,users")
	require.Equal(t, http.StatusOK, rr.Code)

	resp := decodeSearch(t, rr)
	sub := resp.Categories["submissions"]
	require.Len(t, sub.Items, 1)
	assert.Equal(t, int64(4), sub.Items[0].ID)
	assert.Equal(t, "article", sub.Items[0].SubmissionType)
	assert.Equal(t, "ana", sub.Items[0].Author)
	assert.Nil(t, sub.Items[0].Summary)
	assert.Equal(t, 12, sub.TotalCount)
	assert.Equal(t, 2, sub.TotalPages)
	assert.True(t, sub.HasMore)

	assert.Equal(t, "gopher", resp.Categories["users"].Items[0].Username)
}

func TestSearch_Enhance(t *testing.T) {
	s := &mockSearcher{pages: search.Results{
		category.Submissions: page.New([]entity.Entity{entity.Submission{ID: 1, Title: "a"}}, 1, 1, 10),
	}}
	e := &mockEnhancer{}
	h := newTestRouter(s, e, nil)

	rr := do(t, h, "/api/v1/search?q=go&categories=submissions")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.False(t, e.called, "enhance defaults to off")

	rr = do(t, h, "/api/v1/search?q=go&categories=submissions&enhance=true")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, e.called)

	resp := decodeSearch(t, rr)
	item := resp.Categories["submissions"].Items[0]
	require.NotNil(t, item.Summary)
	assert.Equal(t, "generated", *item.Summary)
}

func TestSearch_UsageHeaders(t *testing.T) {
	rr := do(t, newTestRouter(&mockSearcher{embedded: true}, nil, nil), "/api/v1/search?q=go")
	assert.Equal(t, "7", rr.Header().Get("X-Embedding-Tokens"))

	rr = do(t, newTestRouter(&mockSearcher{}, nil, nil), "/api/v1/search?q=go")
	assert.Empty(t, rr.Header().Get("X-Embedding-Tokens"))
}

func TestSuggestions(t *testing.T) {
	s := &mockSearcher{}
	rr := do(t, newTestRouter(s, nil, nil), "/api/v1/search/suggestions?q=gol")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, s.suggest)

	resp := decodeSearch(t, rr)
	assert.Equal(t, 5, resp.Categories["tools"].PerPage)
}

func TestHealthCheck(t *testing.T) {
	ok := &mockHealth{report: healthuc.Report{
		Status: healthuc.Healthy,
		Checks: map[string]healthuc.CheckResult{"catalog": healthuc.CheckOK},
	}}
	rr := do(t, newTestRouter(&mockSearcher{}, nil, ok, "secret"), "/health")
	require.Equal(t, http.StatusOK, rr.Code, "health bypasses auth")

	var resp HealthResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "ok", resp.Checks["catalog"])

	degraded := &mockHealth{report: healthuc.Report{
		Status: healthuc.Degraded,
		Checks: map[string]healthuc.CheckResult{"embedding": healthuc.CheckError},
	}}
	rr = do(t, newTestRouter(&mockSearcher{}, nil, degraded), "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestUsage(t *testing.T) {
	h := newTestRouter(&mockSearcher{}, nil, nil)
	rr := do(t, h, "/api/v1/usage")
	assert.Equal(t, http.StatusNotImplemented, rr.Code, "usage disabled")

	u := &mockUsage{}
	srv := NewServer(&mockSearcher{}, nil, &mockHealth{}, zap.NewNop()).WithUsage(u)
	h = NewRouter(srv, nil, zap.NewNop())

	rr = do(t, h, "/api/v1/usage?period=month")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, usage.PeriodMonth, u.period)

	var resp UsageResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "month", resp.Period)
	require.Len(t, resp.Budgets, 1)
	assert.Equal(t, "embedding", resp.Budgets[0].Kind)
	assert.True(t, resp.Budgets[0].Exhausted)

	rr = do(t, h, "/api/v1/usage?period=year")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRouter_AuthAndRequestID(t *testing.T) {
	h := newTestRouter(&mockSearcher{}, nil, nil, "secret")

	rr := do(t, h, "/api/v1/search?q=go")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?q=go", http.NoBody)
	req.Header.Set("Authorization", "Bearer secret")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}

func TestRouter_NotFound(t *testing.T) {
	rr := do(t, newTestRouter(&mockSearcher{}, nil, nil), "/api/v1/nope")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestJSONRecoverer(t *testing.T) {
	h := JSONRecoverer(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	var errResp ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&errResp))
	assert.Equal(t, ErrorCodeInternalError, errResp.Code)
}
