package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func TestAPIKeyAuth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		configured string
		header     string
		wantCode   int
	}{
		{"matching key", "secret", "secret", http.StatusOK},
		{"wrong key", "secret", "guess", http.StatusUnauthorized},
		{"missing header", "secret", "", http.StatusUnauthorized},
		{"prefix of key", "secret", "sec", http.StatusUnauthorized},
		{"unconfigured key rejects everything", "", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
			if tt.header != "" {
				req.Header.Set("x-api-key", tt.header)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			require.NoError(t, NewAPIKeyAuth(tt.configured)(okHandler)(c))
			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode == http.StatusUnauthorized {
				assert.JSONEq(t, `{"status":"error","message":"Invalid API key"}`, rec.Body.String())
			}
		})
	}
}

func TestRateLimiter(t *testing.T) {
	t.Parallel()

	e := echo.New()
	e.GET("/", okHandler, NewRateLimiter(0.001, 2))

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
		req.RemoteAddr = "192.0.2.10:1234"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

type httpObservation struct {
	method, path string
	code         int
}

type fakeHTTPRecorder struct {
	mu  sync.Mutex
	obs []httpObservation
}

func (f *fakeHTTPRecorder) RecordHTTPRequest(method, path string, code int, _ float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.obs = append(f.obs, httpObservation{method, path, code})
}

func TestMetrics(t *testing.T) {
	t.Parallel()

	recorder := &fakeHTTPRecorder{}
	e := echo.New()
	e.Use(NewMetrics(recorder))
	e.GET("/items/:id", okHandler)
	e.GET("/fail", func(echo.Context) error {
		return echo.NewHTTPError(http.StatusBadRequest, "bad")
	})

	for _, target := range []string{"/items/42", "/fail"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, http.NoBody))
	}

	require.Len(t, recorder.obs, 2)
	assert.Equal(t, httpObservation{http.MethodGet, "/items/:id", http.StatusOK}, recorder.obs[0])
	assert.Equal(t, httpObservation{http.MethodGet, "/fail", http.StatusBadRequest}, recorder.obs[1])
}

func TestSecureHeaders(t *testing.T) {
	t.Parallel()

	e := echo.New()
	e.Use(NewSecureHeaders(DefaultSecurityConfig()))
	e.GET("/", okHandler)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-referrer", rec.Header().Get("Referrer-Policy"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "default-src 'none'")
}

func TestCORS_Preflight(t *testing.T) {
	t.Parallel()

	e := echo.New()
	e.Use(NewCORS(DefaultSecurityConfig()))
	e.POST("/", okHandler)

	req := httptest.NewRequest(http.MethodOptions, "/", http.NoBody)
	req.Header.Set(echo.HeaderOrigin, "https://dashboard.example")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodPost)
	req.Header.Set(echo.HeaderAccessControlRequestHeaders, HeaderAPIKey)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Contains(t, rec.Header().Get(echo.HeaderAccessControlAllowHeaders), HeaderAPIKey)
	assert.Equal(t, "600", rec.Header().Get(echo.HeaderAccessControlMaxAge))
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	e := echo.New()
	e.Use(NewRequestID())
	e.GET("/", okHandler)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", http.NoBody))
	generated := rec.Header().Get(echo.HeaderXRequestID)
	assert.Len(t, generated, 36)

	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.Header.Set(echo.HeaderXRequestID, "client-supplied")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, "client-supplied", rec.Header().Get(echo.HeaderXRequestID))
}

func TestBodyLimit(t *testing.T) {
	t.Parallel()

	e := echo.New()
	e.Use(NewBodyLimit("1K"))
	e.POST("/", okHandler)

	body := make([]byte, 2048)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}
