package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/ai-visibility/internal/config"
	"github.com/jonathan/ai-visibility/internal/db"
	"github.com/jonathan/ai-visibility/internal/logging"
	"github.com/jonathan/ai-visibility/internal/pipeline"
	"github.com/jonathan/ai-visibility/internal/providers"
	"github.com/jonathan/ai-visibility/internal/scoring"
	"github.com/jonathan/ai-visibility/internal/server/ratelimit"
)

const answer = "The best handmade marketplaces are:\n" +
	"1. Etsy - highly recommended for unique gifts\n" +
	"2. eBay - great for vintage finds"

// mockRuns implements RunReader in memory
type mockRuns struct {
	runs    map[uuid.UUID]*db.Run
	metrics map[uuid.UUID][]db.EntityMetric
	steps   map[uuid.UUID][]db.RunStep
	history map[string][]db.EntityMetric
	err     error

	lastLimit int
}

func newMockRuns() *mockRuns {
	return &mockRuns{
		runs:    make(map[uuid.UUID]*db.Run),
		metrics: make(map[uuid.UUID][]db.EntityMetric),
		steps:   make(map[uuid.UUID][]db.RunStep),
		history: make(map[string][]db.EntityMetric),
	}
}

func (m *mockRuns) GetRun(_ context.Context, runID uuid.UUID) (*db.Run, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.runs[runID], nil
}

func (m *mockRuns) ListRuns(_ context.Context, limit int) ([]db.Run, error) {
	m.lastLimit = limit
	var out []db.Run
	for _, r := range m.runs {
		out = append(out, *r)
	}
	return out, m.err
}

func (m *mockRuns) ListRunMetrics(_ context.Context, runID uuid.UUID) ([]db.EntityMetric, error) {
	return m.metrics[runID], nil
}

func (m *mockRuns) ListRunSteps(_ context.Context, runID uuid.UUID) ([]db.RunStep, error) {
	return m.steps[runID], nil
}

func (m *mockRuns) ListEntityHistory(_ context.Context, entityKey string, limit int) ([]db.EntityMetric, error) {
	m.lastLimit = limit
	return m.history[entityKey], nil
}

func fixed(name providers.Name, text string) providers.Provider {
	return providers.Func{ProviderName: name, Fn: func(ctx context.Context, prompt string) (string, error) {
		return text, nil
	}}
}

func newTestServer(t *testing.T, runs RunReader, rl *ratelimit.Config) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.RequestsPerSecond = 0
	cfg.Retry.Attempts = 1

	registry := providers.NewRegistryWith(&cfg, logging.Nop(),
		fixed(providers.Gemini, answer),
		fixed(providers.ChatGPT, "I recommend Etsy for handmade goods."),
	)
	analyzer, err := pipeline.New(pipeline.Deps{Registry: registry, Config: &cfg, Logger: logging.Nop()})
	require.NoError(t, err)

	if rl == nil {
		rl = &ratelimit.Config{Enabled: false}
	}
	s, err := New(Config{
		Analyzer:  analyzer,
		Registry:  registry,
		Runs:      runs,
		RateLimit: rl,
		Logger:    logging.Nop(),
	})
	require.NoError(t, err)
	t.Cleanup(s.rateLimiter.Stop)
	return s
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), v), rr.Body.String())
}

func TestNew_RequiresAnalyzer(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil, nil)

	rr := do(t, s.Handler(), http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Status    string                  `json:"status"`
		Providers map[providers.Name]bool `json:"providers"`
		RunStore  bool                    `json:"run_store"`
	}
	decodeBody(t, rr, &resp)
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Providers[providers.Gemini])
	assert.False(t, resp.Providers[providers.Claude])
	assert.Len(t, resp.Providers, 5)
	assert.False(t, resp.RunStore)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, nil, nil)

	rr := do(t, s.Handler(), http.MethodOptions, "/report", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestAnalyze(t *testing.T) {
	s := newTestServer(t, nil, nil)

	rr := do(t, s.Handler(), http.MethodPost, "/analyze",
		`{"entity":"Etsy","industry":"handmade goods","prompts":["best marketplaces?"]}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var ea pipeline.EntityAnalysis
	decodeBody(t, rr, &ea)
	assert.Equal(t, "etsy", ea.Key)
	assert.True(t, ea.ModelsAvailable)
	assert.Greater(t, ea.AIScores[providers.Gemini], 0.0)
	assert.Zero(t, ea.AIScores[providers.Claude])
}

func TestAnalyze_Validation(t *testing.T) {
	s := newTestServer(t, nil, nil)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing entity", `{"industry":"retail"}`, "entity"},
		{"invalid json", `{"entity":`, "invalid JSON"},
		{"empty body", ``, "is empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, s.Handler(), http.MethodPost, "/analyze", tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)

			var resp map[string]string
			decodeBody(t, rr, &resp)
			assert.Contains(t, resp["error"], tt.want)
		})
	}
}

func TestCitations(t *testing.T) {
	s := newTestServer(t, nil, nil)

	rr := do(t, s.Handler(), http.MethodPost, "/citations",
		`{"entities":["Etsy","eBay"],"industry":"handmade goods","prompts":["p1","p2"]}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var reports map[string]pipeline.CitationReport
	decodeBody(t, rr, &reports)
	require.Contains(t, reports, "Etsy")
	require.Contains(t, reports, "eBay")
	assert.Equal(t, 4, reports["Etsy"].Global.Queries)
	assert.Greater(t, reports["Etsy"].Global.Mentions, reports["eBay"].Global.Mentions)
}

func TestCitations_RequiresEntities(t *testing.T) {
	s := newTestServer(t, nil, nil)

	rr := do(t, s.Handler(), http.MethodPost, "/citations", `{"entities":[]}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestTrafficShare(t *testing.T) {
	s := newTestServer(t, nil, nil)

	rr := do(t, s.Handler(), http.MethodPost, "/traffic-share",
		`{"entities":["Etsy","eBay"],"industry":"handmade goods","prompts":["p1"]}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var shares map[string]pipeline.TrafficShare
	decodeBody(t, rr, &shares)
	assert.InDelta(t, 100.0, shares["Etsy"].SharePercent+shares["eBay"].SharePercent, 1e-6)
	assert.Greater(t, shares["Etsy"].SharePercent, shares["eBay"].SharePercent)
}

func TestRavi_Inputs(t *testing.T) {
	s := newTestServer(t, nil, nil)

	rr := do(t, s.Handler(), http.MethodPost, "/ravi",
		`{"inputs":{"avg_model_score":10,"traffic_share":100,"citation_score":1,"model_coverage":100}}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp raviResponse
	decodeBody(t, rr, &resp)
	assert.Equal(t, 100, resp.Ravi.Rounded)
	assert.Equal(t, scoring.RaviInput{AvgModelScore: 10, TrafficShare: 100, CitationScore: 1, ModelCoverage: 100}, resp.Inputs)
}

func TestRavi_Entity(t *testing.T) {
	s := newTestServer(t, nil, nil)

	rr := do(t, s.Handler(), http.MethodPost, "/ravi",
		`{"entity":"Etsy","industry":"handmade goods","competitors":["eBay"]}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp raviResponse
	decodeBody(t, rr, &resp)
	assert.Equal(t, "Etsy", resp.Entity)
	assert.Greater(t, resp.Ravi.Raw, 0.0)
	assert.Greater(t, resp.Inputs.TrafficShare, 50.0)
}

func TestRavi_RequiresEntityOrInputs(t *testing.T) {
	s := newTestServer(t, nil, nil)

	rr := do(t, s.Handler(), http.MethodPost, "/ravi", `{"industry":"retail"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestReport(t *testing.T) {
	s := newTestServer(t, nil, nil)

	rr := do(t, s.Handler(), http.MethodPost, "/report",
		`{"company":"Etsy","industry":"handmade goods","competitors":["eBay"]}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var report pipeline.Report
	decodeBody(t, rr, &report)
	assert.Equal(t, "Etsy", report.Company)
	assert.NotEqual(t, uuid.Nil, report.RunID)
	require.Len(t, report.Entities, 2)
	assert.True(t, report.Entities[0].IsTarget)
	assert.False(t, report.Persisted)
}

func TestReport_RequiresCompany(t *testing.T) {
	s := newTestServer(t, nil, nil)

	rr := do(t, s.Handler(), http.MethodPost, "/report", `{"company":""}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, s.Handler(), http.MethodPost, "/report", `{"company":"   "}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestReportStream(t *testing.T) {
	s := newTestServer(t, nil, nil)

	rr := do(t, s.Handler(), http.MethodPost, "/report/stream",
		`{"company":"Etsy","industry":"handmade goods","competitors":["eBay"]}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/event-stream", rr.Header().Get("Content-Type"))

	body := rr.Body.String()
	assert.Equal(t, 7, strings.Count(body, "event: progress\n"))
	assert.Equal(t, 1, strings.Count(body, "event: complete\n"))
	assert.True(t, strings.HasPrefix(body, "id: 1\nevent: progress\n"))
	assert.Contains(t, body, "id: 8\nevent: complete\n")
	assert.Less(t, strings.LastIndex(body, "event: progress"), strings.Index(body, "event: complete"))

	var last string
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "data: ") {
			last = strings.TrimPrefix(line, "data: ")
		}
	}
	var complete struct {
		RunID  string          `json:"run_id"`
		Status string          `json:"status"`
		Report pipeline.Report `json:"report"`
	}
	require.NoError(t, json.Unmarshal([]byte(last), &complete))
	assert.Equal(t, "completed", complete.Status)
	assert.Equal(t, complete.Report.RunID.String(), complete.RunID)
	assert.Len(t, complete.Report.Entities, 2)
}

func TestDiscover_Unavailable(t *testing.T) {
	s := newTestServer(t, nil, nil)

	rr := do(t, s.Handler(), http.MethodPost, "/discover", `{"company":"Etsy"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestRuns_NoStore(t *testing.T) {
	s := newTestServer(t, nil, nil)

	for _, path := range []string{"/runs", "/runs/" + uuid.NewString(), "/history/etsy"} {
		rr := do(t, s.Handler(), http.MethodGet, path, "")
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code, path)
	}
}

func TestListRuns(t *testing.T) {
	runs := newMockRuns()
	id := uuid.New()
	runs.runs[id] = &db.Run{ID: id, Company: "Etsy", Status: db.RunStatusCompleted, CreatedAt: time.Now()}
	s := newTestServer(t, runs, nil)

	rr := do(t, s.Handler(), http.MethodGet, "/runs?limit=5", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Runs []db.Run `json:"runs"`
	}
	decodeBody(t, rr, &resp)
	require.Len(t, resp.Runs, 1)
	assert.Equal(t, id, resp.Runs[0].ID)
	assert.Equal(t, 5, runs.lastLimit)

	rr = do(t, s.Handler(), http.MethodGet, "/runs?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestListRuns_StoreError(t *testing.T) {
	runs := newMockRuns()
	runs.err = errors.New("connection refused")
	s := newTestServer(t, runs, nil)

	rr := do(t, s.Handler(), http.MethodGet, "/runs", "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, defaultListLimit, runs.lastLimit)
}

func TestGetRun(t *testing.T) {
	runs := newMockRuns()
	id := uuid.New()
	runs.runs[id] = &db.Run{ID: id, Company: "Etsy", Status: db.RunStatusCompleted}
	runs.metrics[id] = []db.EntityMetric{{RunID: id, Entity: "Etsy", EntityKey: "etsy", IsTarget: true, Ravi: 61}}
	s := newTestServer(t, runs, nil)

	rr := do(t, s.Handler(), http.MethodGet, "/runs/"+id.String(), "")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Run     db.Run            `json:"run"`
		Metrics []db.EntityMetric `json:"metrics"`
		Steps   []db.RunStep      `json:"steps"`
	}
	decodeBody(t, rr, &resp)
	assert.Equal(t, "Etsy", resp.Run.Company)
	require.Len(t, resp.Metrics, 1)
	assert.InDelta(t, 61.0, resp.Metrics[0].Ravi, 1e-9)
	assert.NotNil(t, resp.Steps)
	assert.Empty(t, resp.Steps)
}

func TestGetRun_Errors(t *testing.T) {
	s := newTestServer(t, newMockRuns(), nil)

	rr := do(t, s.Handler(), http.MethodGet, "/runs/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, s.Handler(), http.MethodGet, "/runs/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHistory(t *testing.T) {
	runs := newMockRuns()
	runs.history["etsy"] = []db.EntityMetric{{Entity: "Etsy", EntityKey: "etsy", AIScore: 4.2}}
	s := newTestServer(t, runs, nil)

	rr := do(t, s.Handler(), http.MethodGet, "/history/Etsy.com?limit=3", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		EntityKey string            `json:"entity_key"`
		Metrics   []db.EntityMetric `json:"metrics"`
	}
	decodeBody(t, rr, &resp)
	assert.Equal(t, "etsy", resp.EntityKey)
	require.Len(t, resp.Metrics, 1)
	assert.Equal(t, 3, runs.lastLimit)
}

func TestRateLimit(t *testing.T) {
	rl := &ratelimit.Config{
		Enabled:       true,
		DefaultLimit:  1000,
		DefaultWindow: time.Minute,
		EndpointConfigs: []ratelimit.EndpointConfig{
			{Path: "/analyze", Method: "POST", Limit: 1, Window: time.Hour, Burst: 1},
		},
	}
	s := newTestServer(t, nil, rl)
	h := s.Handler()
	body := `{"entity":"Etsy","prompts":["p1"]}`

	rr := do(t, h, http.MethodPost, "/analyze", body)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "1", rr.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", rr.Header().Get("X-RateLimit-Remaining"))

	rr = do(t, h, http.MethodPost, "/analyze", body)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))

	var resp map[string]any
	decodeBody(t, rr, &resp)
	assert.Equal(t, "rate_limit_exceeded", resp["error"])

	// Health checks are never limited.
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", "").Code)
	}
}

func TestClientID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "10.0.0.7:5123"
	assert.Equal(t, "10.0.0.7", clientID(req))

	req.RemoteAddr = "10.0.0.7"
	assert.Equal(t, "10.0.0.7", clientID(req))
}
