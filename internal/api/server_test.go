package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/callguard/internal/analysis"
	"github.com/tphakala/callguard/internal/detection"
	"github.com/tphakala/callguard/internal/observability"
)

const testKey = "test-key"

type stubAnalyzer struct{}

func (stubAnalyzer) Analyze(_ context.Context, req analysis.Request) (*analysis.Report, error) {
	return &analysis.Report{
		RequestID:      "req-1",
		Status:         detection.StatusSafe,
		RiskLevel:      detection.RiskLow,
		Confidence:     0.55,
		Classification: detection.ClassificationHuman,
		Duration:       float64(len(req.Data)),
	}, nil
}

type fixedCache int

func (c fixedCache) Len() int { return int(c) }

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 0
	cfg.APIKey = testKey
	return cfg
}

func newTestServer(t *testing.T, cfg *Config, opts ...ServerOption) *Server {
	t.Helper()
	opts = append([]ServerOption{WithPipeline(stubAnalyzer{})}, opts...)
	s, err := NewWithConfig(cfg, opts...)
	require.NoError(t, err)
	return s
}

func detectionRequest(key string) *http.Request {
	payload := base64.StdEncoding.EncodeToString([]byte("RIFF"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/voice-detection",
		strings.NewReader(`{"audioBase64":"`+payload+`","audioFormat":"wav"}`))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("x-api-key", key)
	}
	return req
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"missing key", func(c *Config) { c.APIKey = "" }, true},
		{"bad port", func(c *Config) { c.Port = 70000 }, true},
		{"zero read timeout", func(c *Config) { c.ReadTimeout = 0 }, true},
		{"rate without burst", func(c *Config) { c.RateLimit = 1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := testConfig()
			tt.mutate(cfg)
			if tt.wantErr {
				assert.Error(t, cfg.Validate())
			} else {
				assert.NoError(t, cfg.Validate())
			}
		})
	}
}

func TestServer_RequiresPipeline(t *testing.T) {
	t.Parallel()

	_, err := NewWithConfig(testConfig())
	assert.Error(t, err)
}

func TestServer_Health(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, testConfig(), WithFeatureCache(fixedCache(3)), WithVersion("1.2.3"))

	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

	require.Equal(t, http.StatusOK, rec.Code)
	var health HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "1.2.3", health.Version)
	assert.Equal(t, 3, health.CacheEntries)
}

func TestServer_APIKey(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, testConfig())

	tests := []struct {
		name     string
		key      string
		wantCode int
	}{
		{"valid key", testKey, http.StatusOK},
		{"wrong key", "nope", http.StatusUnauthorized},
		{"no key", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()
			s.Echo().ServeHTTP(rec, detectionRequest(tt.key))
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestServer_Metrics(t *testing.T) {
	t.Parallel()

	m, err := observability.NewMetrics()
	require.NoError(t, err)
	s := newTestServer(t, testConfig(), WithMetrics(m))

	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, detectionRequest(testKey))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `callguard_http_requests_total{code="200",method="POST",path="/api/v1/voice-detection"} 1`)
}

func TestServer_RequestIDCorrelatesErrors(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, testConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/voice-detection",
		strings.NewReader(`{"audioBase64":"UklGRg==","audioFormat":"ogg"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", testKey)
	req.Header.Set("X-Request-Id", "trace-123")

	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "trace-123", rec.Header().Get("X-Request-Id"))

	var body struct {
		CorrelationID string `json:"correlation_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "trace-123", body.CorrelationID)

	// generated when the client sends none
	rec = httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, detectionRequest(testKey))
	assert.Len(t, rec.Header().Get("X-Request-Id"), 36)
}

func TestServer_BodyLimit(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.BodyLimit = "1K"
	s := newTestServer(t, cfg)

	big := strings.Repeat("A", 4096)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/voice-detection",
		strings.NewReader(`{"audioBase64":"`+big+`","audioFormat":"wav"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", testKey)

	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestServer_StartShutdown(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, testConfig())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return s.Addr() != nil }, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Get(fmt.Sprintf("http://%s/health", s.Addr()))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
