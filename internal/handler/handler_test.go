package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smart-mail-reply-go/internal/config"
	"smart-mail-reply-go/internal/db"
	"smart-mail-reply-go/internal/model"
	"smart-mail-reply-go/internal/repository"
	"smart-mail-reply-go/internal/service/ai"
	"smart-mail-reply-go/internal/service/export"
	"smart-mail-reply-go/internal/service/rules"
	"smart-mail-reply-go/internal/service/scheduler"
)

type stubRunner struct {
	summary model.RunSummary
}

func (r stubRunner) Run(ctx context.Context) model.RunSummary { return r.summary }

type stubBackend struct{}

func (stubBackend) Generate(ctx context.Context, modelName, prompt string) (string, error) {
	return "", nil
}

func (stubBackend) ListModels(ctx context.Context) ([]string, error) {
	return []string{"models/gemini-2.0-flash", "models/text-embedding-004"}, nil
}

type fixture struct {
	router *gin.Engine
	repo   *repository.Repository
	rules  *rules.MemoryStore
	sched  *scheduler.Scheduler
}

func newFixture(t *testing.T, runner scheduler.Runner) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, err := db.Init(config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "audit.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(conn) })

	f := &fixture{
		repo:  repository.New(conn),
		rules: rules.NewMemoryStore(""),
		sched: scheduler.New(time.Hour, runner),
	}
	t.Cleanup(func() { f.sched.Stop() })

	engine := ai.NewEngine(stubBackend{}, []string{"gemini-flash-latest"})
	h := NewHandlers(f.repo, f.rules, f.sched, engine, prometheus.NewRegistry())
	f.router = gin.New()
	h.SetupRoutes(f.router)
	return f
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) seed(t *testing.T, categories ...model.Category) {
	t.Helper()
	base := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
	for i, cat := range categories {
		require.NoError(t, f.repo.AppendAudit(context.Background(), &model.AuditRecord{
			RunID:     "run-1",
			MessageID: "<m" + string(rune('a'+i)) + "@example.com>",
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Sender:    "customer@example.com",
			Subject:   "Subject",
			Category:  cat,
			Answer:    "Answer",
		}))
	}
}

func TestHealthCheck(t *testing.T) {
	f := newFixture(t, stubRunner{})

	w := f.do(http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "stopped", resp.Scheduler)
	assert.Nil(t, resp.LastRun)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, stubRunner{})
	w := f.do(http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRunPipelineReturnsSummary(t *testing.T) {
	f := newFixture(t, stubRunner{summary: model.RunSummary{RunID: "abc", Fetched: 2, Replied: 2, Logged: 2}})

	w := f.do(http.MethodPost, "/api/v1/pipeline/run", "")
	require.Equal(t, http.StatusOK, w.Code)

	var summary model.RunSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, "abc", summary.RunID)
	assert.Equal(t, 2, summary.Logged)

	w = f.do(http.MethodGet, "/api/v1/scheduler/status", "")
	var status SchedulerStatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	require.NotNil(t, status.LastSummary)
	assert.Equal(t, "abc", status.LastSummary.RunID)
	assert.Equal(t, "1h0m0s", status.Interval)
}

func TestRunPipelineAborted(t *testing.T) {
	summary := model.RunSummary{RunID: "abc", Aborted: true}
	summary.AddFailure(model.FailureAuth, "", "connect: authentication failed")
	f := newFixture(t, stubRunner{summary: summary})

	w := f.do(http.MethodPost, "/api/v1/pipeline/run", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "AuthError")
}

func TestAuditEndpoints(t *testing.T) {
	f := newFixture(t, stubRunner{})
	f.seed(t, model.CategoryReturn, model.CategoryOther, model.CategoryReturn)

	w := f.do(http.MethodGet, "/api/v1/audit?limit=2", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Records    []AuditRecordResponse `json:"records"`
		Pagination struct {
			Total int64 `json:"total"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, int64(3), list.Pagination.Total)
	require.Len(t, list.Records, 2)
	assert.Equal(t, "<mc@example.com>", list.Records[0].MessageID)

	w = f.do(http.MethodGet, "/api/v1/audit?category=other", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, int64(1), list.Pagination.Total)

	w = f.do(http.MethodGet, "/api/v1/audit/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var rec AuditRecordResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.Equal(t, model.CategoryReturn, rec.Category)

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/api/v1/audit/99", "").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/api/v1/audit/abc", "").Code)

	w = f.do(http.MethodGet, "/api/v1/audit/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	var stats struct {
		Total      int64                      `json:"total"`
		Categories []repository.CategoryCount `json:"categories"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, int64(3), stats.Total)
	require.NotEmpty(t, stats.Categories)
	assert.Equal(t, model.CategoryReturn, stats.Categories[0].Category)

	w = f.do(http.MethodGet, "/api/v1/audit/export", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, export.ContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")
}

func TestRulesEndpoints(t *testing.T) {
	f := newFixture(t, stubRunner{})

	w := f.do(http.MethodGet, "/api/v1/rules", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "14 days")

	w = f.do(http.MethodPut, "/api/v1/rules", `{"rules":"Returns within 30 days."}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Returns within 30 days.", f.rules.Rules(context.Background()))

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPut, "/api/v1/rules", `{"rules":"  "}`).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPut, "/api/v1/rules", `not json`).Code)
}

func TestModelsEndpoint(t *testing.T) {
	f := newFixture(t, stubRunner{})

	w := f.do(http.MethodGet, "/api/v1/models", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"configured":["gemini-flash-latest"]}`, w.Body.String())

	w = f.do(http.MethodGet, "/api/v1/models?discover=true", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"configured":["gemini-flash-latest"],"available":["gemini-2.0-flash"]}`, w.Body.String())
}

func TestSchedulerEndpoints(t *testing.T) {
	f := newFixture(t, stubRunner{})

	assert.Equal(t, http.StatusOK, f.do(http.MethodPost, "/api/v1/scheduler/start", "").Code)
	assert.True(t, f.sched.IsRunning())
	assert.Equal(t, http.StatusConflict, f.do(http.MethodPost, "/api/v1/scheduler/start", "").Code)

	w := f.do(http.MethodGet, "/api/v1/scheduler/status", "")
	assert.Contains(t, w.Body.String(), `"status":"running"`)

	assert.Equal(t, http.StatusOK, f.do(http.MethodPost, "/api/v1/scheduler/stop", "").Code)
	assert.False(t, f.sched.IsRunning())
}
