package api

import (
	"compress/gzip"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/statuswatch/internal/core/config"
	"github.com/vietddude/statuswatch/internal/core/domain"
	"github.com/vietddude/statuswatch/internal/monitoring/aggregate"
	"github.com/vietddude/statuswatch/internal/monitoring/ingest"
)

type stubRunner struct {
	result *ingest.CycleResult
	err    error
	calls  int
}

func (s *stubRunner) Run(ctx context.Context) (*ingest.CycleResult, error) {
	s.calls++
	return s.result, s.err
}

type stubStatus struct {
	view *aggregate.SystemStatus
	err  error
}

func (s *stubStatus) GetSystemStatus(ctx context.Context) (*aggregate.SystemStatus, error) {
	return s.view, s.err
}

type stubHealth struct{ err error }

func (s stubHealth) Health(ctx context.Context) error { return s.err }

var okIngest = config.IngestConfig{Secret: "s3cret", UpstreamURL: "http://upstream"}

func newTestServer(ingestCfg config.IngestConfig, runner Runner, status StatusReader, health HealthChecker) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(config.ServerConfig{Port: 0}, ingestCfg, runner, status, health, logger).Handler()
}

func do(t *testing.T, h http.Handler, path, auth string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var body map[string]any
	if rec.Body.Len() > 0 && rec.Header().Get("Content-Encoding") == "" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestIngest_StatusCodes(t *testing.T) {
	ok := &ingest.CycleResult{CycleID: "c1", Upstream: ingest.UpstreamUp, Processed: 12, Failures: []ingest.Failure{}}

	tests := []struct {
		name     string
		cfg      config.IngestConfig
		auth     string
		runner   *stubRunner
		wantCode int
		wantRuns int
	}{
		{"missing secret", config.IngestConfig{UpstreamURL: "http://u"}, "Bearer x", &stubRunner{}, 500, 0},
		{"no auth header", okIngest, "", &stubRunner{}, 401, 0},
		{"wrong token", okIngest, "Bearer nope", &stubRunner{}, 401, 0},
		{"missing upstream url", config.IngestConfig{Secret: "s3cret"}, "Bearer s3cret", &stubRunner{}, 500, 0},
		{"overlap", okIngest, "Bearer s3cret", &stubRunner{err: ingest.ErrCycleInProgress}, 409, 1},
		{"malformed", okIngest, "Bearer s3cret", &stubRunner{err: ingest.ErrMalformedPayload}, 500, 1},
		{"success", okIngest, "Bearer s3cret", &stubRunner{result: ok}, 200, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(tt.cfg, tt.runner, &stubStatus{}, stubHealth{})
			rec, body := do(t, h, "/ingest", tt.auth)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantRuns, tt.runner.calls)
			if tt.wantCode != http.StatusOK {
				assert.NotEmpty(t, body["error"])
			}
		})
	}
}

func TestIngest_SuccessBody(t *testing.T) {
	runner := &stubRunner{result: &ingest.CycleResult{
		CycleID:   "c1",
		Upstream:  ingest.UpstreamDown,
		Processed: 0,
		Failures:  []ingest.Failure{{ServiceID: "db", Error: "disk full"}},
	}}
	h := newTestServer(okIngest, runner, &stubStatus{}, stubHealth{})

	rec, body := do(t, h, "/ingest", "Bearer s3cret")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, true, body["success"])
	assert.Equal(t, "down", body["upstream"])
	assert.Equal(t, float64(0), body["processed"])
	assert.Len(t, body["failures"], 1)
}

func TestIngest_MethodNotAllowed(t *testing.T) {
	h := newTestServer(okIngest, &stubRunner{}, &stubStatus{}, stubHealth{})
	req := httptest.NewRequest(http.MethodPost, "/ingest", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestStatus(t *testing.T) {
	view := &aggregate.SystemStatus{
		Status:    domain.StatusOperational,
		Regions:   []aggregate.Region{},
		Incidents: []aggregate.Incident{},
	}
	h := newTestServer(okIngest, &stubRunner{}, &stubStatus{view: view}, stubHealth{})

	rec, body := do(t, h, "/api/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "operational", body["status"])
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	h = newTestServer(okIngest, &stubRunner{}, &stubStatus{err: errors.New("db")}, stubHealth{})
	rec, _ = do(t, h, "/api/status", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestStatus_Gzip(t *testing.T) {
	regions := make([]aggregate.Region, 0, 50)
	for range 50 {
		regions = append(regions, aggregate.Region{ID: "region", Name: "Region", Status: domain.StatusOperational, Services: []aggregate.Service{}})
	}
	view := &aggregate.SystemStatus{Status: domain.StatusOperational, Regions: regions, Incidents: []aggregate.Incident{}}
	h := newTestServer(okIngest, &stubRunner{}, &stubStatus{view: view}, stubHealth{})

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))

	zr, err := gzip.NewReader(rec.Body)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.NewDecoder(zr).Decode(&body))
	assert.Len(t, body["regions"], 50)
}

func TestHealth(t *testing.T) {
	h := newTestServer(okIngest, &stubRunner{}, &stubStatus{}, stubHealth{})
	rec, body := do(t, h, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])

	h = newTestServer(okIngest, &stubRunner{}, &stubStatus{}, stubHealth{err: errors.New("ping failed")})
	rec, _ = do(t, h, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetrics(t *testing.T) {
	h := newTestServer(okIngest, &stubRunner{}, &stubStatus{}, stubHealth{})
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
