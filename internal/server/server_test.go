package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/spigell/teacherlink-search/internal/candidate"
	"github.com/spigell/teacherlink-search/internal/filtering"
	"github.com/spigell/teacherlink-search/internal/store"
)

type stubLoader struct {
	pool *candidate.Candidates
	err  error
}

func (l *stubLoader) LoadPool(context.Context) (*candidate.Candidates, error) {
	if l.err != nil {
		return &candidate.Candidates{}, l.err
	}
	return l.pool, nil
}

type listing struct {
	Candidates []struct {
		Candidate struct {
			UID string `json:"firebase_uid"`
		} `json:"candidate"`
		MatchedFilters []string `json:"matched_filters"`
		RelevanceScore int      `json:"relevance_score"`
	} `json:"candidates"`
	FiltersApplied bool `json:"filters_applied"`
	Pagination     struct {
		Page       int `json:"page"`
		TotalPages int `json:"total_pages"`
		Total      int `json:"total"`
	} `json:"pagination"`
}

func (l listing) uids() []string {
	out := make([]string, 0, len(l.Candidates))
	for _, c := range l.Candidates {
		out = append(out, c.Candidate.UID)
	}
	return out
}

func testPool() *candidate.Candidates {
	items := []*candidate.Candidate{
		{UID: "male", FullName: "Mohan", City: "Pune", Gender: "Male"},
		{UID: "female", FullName: "Farah", City: "Pune", Gender: "Female"},
		{UID: "delhi", FullName: "Divya", City: "Delhi", Gender: "Female"},
	}
	for i := 1; i <= 20; i++ {
		items = append(items, &candidate.Candidate{UID: fmt.Sprintf("extra-%02d", i), City: "Goa"})
	}
	return &candidate.Candidates{Items: items}
}

func newTestServer(t *testing.T, cfg *Config, filterStore store.FilterStore) *Server {
	t.Helper()

	s := New(cfg, &Deps{
		Engine:  filtering.New(nil, zap.NewNop()),
		Store:   filterStore,
		Loader:  &stubLoader{pool: testPool()},
		Version: "test",
	}, zap.NewNop())

	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return s
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decoding %s: %v", rec.Body.String(), err)
	}
	return out
}

func TestListCandidatesPaging(t *testing.T) {
	s := newTestServer(t, nil, store.NewMemory())

	rec := do(t, s, http.MethodGet, "/api/v1/candidates?page=3&per_page=10", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}

	got := decode[listing](t, rec)
	if got.Pagination.Page != 3 || got.Pagination.TotalPages != 3 || got.Pagination.Total != 23 {
		t.Fatalf("unexpected pagination %+v", got.Pagination)
	}
	if len(got.Candidates) != 3 {
		t.Fatalf("expected 3 candidates on the last page, got %d", len(got.Candidates))
	}
	if rec.Header().Get(headerRequestID) == "" {
		t.Fatalf("expected a request id header")
	}
}

func TestListCandidatesUsesSavedFilters(t *testing.T) {
	mem := store.NewMemory()
	if err := mem.Save(context.Background(), filtering.Criteria{City: "Pune", Gender: filtering.Values{"Female"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := newTestServer(t, nil, mem)

	got := decode[listing](t, do(t, s, http.MethodGet, "/api/v1/candidates", ""))

	if !got.FiltersApplied || !slices.Equal(got.uids(), []string{"female", "male"}) {
		t.Fatalf("unexpected listing %q", got.uids())
	}
	if got.Candidates[0].RelevanceScore != 100 || got.Candidates[1].RelevanceScore != 40 {
		t.Fatalf("unexpected scores %d/%d", got.Candidates[0].RelevanceScore, got.Candidates[1].RelevanceScore)
	}
}

func TestListCandidatesFallsBackToDefaults(t *testing.T) {
	s := newTestServer(t, nil, store.NewMemory())
	s.SetDefaultCriteria(filtering.Criteria{City: "Delhi"})

	got := decode[listing](t, do(t, s, http.MethodGet, "/api/v1/candidates", ""))
	if !slices.Equal(got.uids(), []string{"delhi"}) {
		t.Fatalf("unexpected listing %q", got.uids())
	}
}

func TestListCandidatesRejectsBadParams(t *testing.T) {
	s := newTestServer(t, nil, nil)

	for _, target := range []string{"/api/v1/candidates?page=abc", "/api/v1/candidates?per_page=500"} {
		if rec := do(t, s, http.MethodGet, target, ""); rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, rec.Code)
		}
	}
}

func TestSearchCandidates(t *testing.T) {
	s := newTestServer(t, nil, nil)

	body := `{"query": "pune", "criteria": {"gender": [{"value": "Female", "label": "Female"}]}, "per_page": 5}`
	rec := do(t, s, http.MethodPost, "/api/v1/candidates/search", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}

	got := decode[listing](t, rec)
	if !slices.Equal(got.uids(), []string{"female"}) {
		t.Fatalf("unexpected listing %q", got.uids())
	}
}

func TestSearchCandidatesValidation(t *testing.T) {
	s := newTestServer(t, nil, nil)

	tests := map[string]string{
		"bad json":           `{"query": `,
		"negative threshold": `{"criteria": {"minSalary": -1}}`,
		"page size too big":  `{"per_page": 1000}`,
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			if rec := do(t, s, http.MethodPost, "/api/v1/candidates/search", body); rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestFiltersLifecycle(t *testing.T) {
	s := newTestServer(t, nil, store.NewMemory())

	rec := do(t, s, http.MethodPut, "/api/v1/filters", `{"city": "Pune", "minExperience": "2"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}

	got := decode[filtersResponse](t, do(t, s, http.MethodGet, "/api/v1/filters", ""))
	if got.Criteria.City != "Pune" || got.Criteria.MinExperience != 2 || len(got.Active) != 2 {
		t.Fatalf("unexpected filters %+v", got)
	}

	if rec := do(t, s, http.MethodDelete, "/api/v1/filters", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	got = decode[filtersResponse](t, do(t, s, http.MethodGet, "/api/v1/filters", ""))
	if !got.Criteria.IsEmpty() {
		t.Fatalf("expected empty filters after delete, got %+v", got.Criteria)
	}
}

func TestRefreshFailureEmptiesPool(t *testing.T) {
	s := newTestServer(t, nil, nil)
	s.loader = &stubLoader{err: errors.New("gateway timeout")}

	if rec := do(t, s, http.MethodPost, "/api/v1/candidates/refresh", ""); rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}

	health := decode[healthResponse](t, do(t, s, http.MethodGet, "/api/v1/health", ""))
	if health.Status != "degraded" || health.Candidates != 0 || health.LastError == "" {
		t.Fatalf("unexpected health %+v", health)
	}

	got := decode[listing](t, do(t, s, http.MethodGet, "/api/v1/candidates", ""))
	if len(got.Candidates) != 0 || got.Pagination.Page != 1 {
		t.Fatalf("expected an empty first page, got %+v", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, nil, nil)
	do(t, s, http.MethodGet, "/api/v1/health", "")

	rec := do(t, s, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "teacherlink_http_requests_total") {
		t.Fatalf("expected prometheus output, got %d", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, &Config{RateLimit: RateLimitConfig{Enabled: true, RequestsPerMinute: 1, Burst: 2}}, nil)
	t.Cleanup(s.limiter.Close)

	codes := make([]int, 0, 3)
	for range 3 {
		codes = append(codes, do(t, s, http.MethodGet, "/api/v1/health", "").Code)
	}

	if !slices.Equal(codes, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}) {
		t.Fatalf("unexpected status codes %v", codes)
	}
}
