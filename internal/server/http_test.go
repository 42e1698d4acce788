package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/knoguchi/talentrank/internal/auth"
	"github.com/knoguchi/talentrank/internal/memory"
	"github.com/knoguchi/talentrank/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeRanker struct {
	result  *service.RankResult
	err     error
	lastReq service.RankRequest
	calls   int

	suggestions *service.Suggestions
	lastOwner   uuid.UUID
}

func (f *fakeRanker) Rank(_ context.Context, req service.RankRequest) (*service.RankResult, error) {
	f.calls++
	f.lastReq = req
	return f.result, f.err
}

func (f *fakeRanker) Suggestions(_ context.Context, owner uuid.UUID) (*service.Suggestions, error) {
	f.lastOwner = owner
	if f.err != nil {
		return nil, f.err
	}
	return f.suggestions, nil
}

func newTestServer(t *testing.T, ranker Ranker, authn func(http.Handler) http.Handler, ready ReadinessCheck) http.Handler {
	t.Helper()
	s, err := NewHTTPServer(HTTPServerConfig{
		Logger: discardLogger,
		Ranker: ranker,
		Auth:   authn,
		Ready:  ready,
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("# metrics\n"))
		}),
	})
	require.NoError(t, err)
	return s.GetRouter()
}

func doRequest(h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRankCandidates_OK(t *testing.T) {
	cand := service.RankedCandidate{ID: uuid.New(), Summary: "s", Skills: []string{"Go"}, RelevanceScore: 0.9}
	ranker := &fakeRanker{result: &service.RankResult{
		Candidates: []service.RankedCandidate{cand},
		History:    memory.Record(nil, "go devs", 1),
		Pipeline:   service.PipelineTrace{Stage1: "vector_search (1 candidates)", Stage2: "rerank (1 ranked results)"},
	}}
	h := newTestServer(t, ranker, nil, nil)
	jobID := uuid.New()

	rec := doRequest(h, http.MethodPost, "/rank-candidates",
		fmt.Sprintf(`{"query":"go devs","jobId":%q,"conversationHistory":[{"role":"user","content":"hi"}]}`, jobID), nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "go devs", ranker.lastReq.Query)
	require.NotNil(t, ranker.lastReq.JobID)
	assert.Equal(t, jobID, *ranker.lastReq.JobID)
	assert.Equal(t, memory.History{memory.UserTurn("hi")}, ranker.lastReq.History)

	var got struct {
		Candidates []map[string]any  `json:"candidates"`
		History    []memory.Turn     `json:"conversationHistory"`
		Pipeline   map[string]string `json:"pipeline"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Candidates, 1)
	assert.Equal(t, 0.9, got.Candidates[0]["relevanceScore"])
	assert.NotContains(t, got.Candidates[0], "synthetic")
	assert.Len(t, got.History, 2)
	assert.Equal(t, "rerank (1 ranked results)", got.Pipeline["stage2"])
}

func TestRankCandidates_NullJobID(t *testing.T) {
	ranker := &fakeRanker{result: &service.RankResult{Candidates: []service.RankedCandidate{}}}
	h := newTestServer(t, ranker, nil, nil)

	for _, body := range []string{`{"query":"q","jobId":null}`, `{"query":"q","jobId":""}`, `{"query":"q"}`} {
		rec := doRequest(h, http.MethodPost, "/rank-candidates", body, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Nil(t, ranker.lastReq.JobID)
	}
}

func TestRankCandidates_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantError  string
		wantCalled bool
	}{
		{"malformed json", `{"query":`, nil, http.StatusBadRequest, "Invalid request body", false},
		{"malformed job id", `{"query":"q","jobId":"job-7"}`, nil, http.StatusBadRequest, "Invalid jobId", false},
		{"validation", `{"query":""}`, fmt.Errorf("%w: search query is required", service.ErrValidation), http.StatusBadRequest, "Search query is required", true},
		{"configuration", `{"query":"q"}`, fmt.Errorf("%w: COHERE_API_KEY is not set", service.ErrConfiguration), http.StatusInternalServerError, "Ranking service not configured.", true},
		{"retrieval", `{"query":"q"}`, fmt.Errorf("%w: connection refused", service.ErrRetrieval), http.StatusInternalServerError, "Internal server error", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ranker := &fakeRanker{err: tt.err}
			h := newTestServer(t, ranker, nil, nil)

			rec := doRequest(h, http.MethodPost, "/rank-candidates", tt.body, nil)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var got errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, tt.wantError, got.Error)
			assert.Equal(t, tt.wantCalled, ranker.calls > 0)
		})
	}
}

func TestRankCandidates_RequiresAuth(t *testing.T) {
	jwtManager := auth.NewJWTManager(auth.DefaultJWTConfig("secret"))
	authn := auth.NewAuthenticator(jwtManager, nil, discardLogger)
	owner := uuid.New()
	token, err := jwtManager.GenerateToken(owner, "")
	require.NoError(t, err)

	ranker := &fakeRanker{
		result:      &service.RankResult{Candidates: []service.RankedCandidate{}},
		suggestions: &service.Suggestions{RecentJobs: []service.JobSuggestion{}, SuggestedPrompts: service.SuggestedPrompts},
	}
	h := newTestServer(t, ranker, authn.Middleware, nil)

	rec := doRequest(h, http.MethodPost, "/rank-candidates", `{"query":"q"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 0, ranker.calls)

	rec = doRequest(h, http.MethodGet, "/rank-candidates", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(h, http.MethodGet, "/rank-candidates", "", map[string]string{"Authorization": "Bearer " + token})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, owner, ranker.lastOwner)
	assert.Contains(t, rec.Body.String(), `"suggestedPrompts"`)
	assert.Contains(t, rec.Body.String(), `"recentJobs":[]`)
}

func TestHealthEndpoints(t *testing.T) {
	readyErr := errors.New("database unreachable")
	var failing bool
	ready := func(context.Context) error {
		if failing {
			return readyErr
		}
		return nil
	}
	h := newTestServer(t, &fakeRanker{}, nil, ready)

	assert.Equal(t, http.StatusOK, doRequest(h, http.MethodGet, "/healthz", "", nil).Code)
	assert.Equal(t, http.StatusOK, doRequest(h, http.MethodGet, "/readyz", "", nil).Code)

	failing = true
	rec := doRequest(h, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "database unreachable")
	assert.Equal(t, http.StatusOK, doRequest(h, http.MethodGet, "/healthz", "", nil).Code)

	rec = doRequest(h, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "# metrics")
}

func TestCORSPreflight(t *testing.T) {
	h := newTestServer(t, &fakeRanker{}, nil, nil)

	rec := doRequest(h, http.MethodOptions, "/rank-candidates", "", map[string]string{"Origin": "https://app.example.com"})

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestNewHTTPServer_RequiresRanker(t *testing.T) {
	_, err := NewHTTPServer(HTTPServerConfig{})
	assert.Error(t, err)
}
