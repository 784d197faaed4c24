package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/anstrom/scanviz/internal/auth"
	"github.com/anstrom/scanviz/internal/metrics/mocks"
)

func createTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, nil))
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

func TestRateLimiter_Allow(t *testing.T) {
	tests := []struct {
		name     string
		burst    int
		requests []string
		expected []bool
	}{
		{"under burst", 5, []string{"1.1.1.1", "1.1.1.1", "1.1.1.1"}, []bool{true, true, true}},
		{"at burst", 2, []string{"1.1.1.1", "1.1.1.1"}, []bool{true, true}},
		{"over burst", 2, []string{"1.1.1.1", "1.1.1.1", "1.1.1.1"}, []bool{true, true, false}},
		{"different clients", 1, []string{"1.1.1.1", "2.2.2.2", "1.1.1.1"}, []bool{true, true, false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := time.Unix(1000, 0)
			limiter := NewRateLimiter(1, tt.burst)
			limiter.now = func() time.Time { return now }

			for i, ip := range tt.requests {
				assert.Equal(t, tt.expected[i], limiter.Allow(ip), "request %d from %s", i+1, ip)
			}
		})
	}
}

func TestRateLimiter_Refill(t *testing.T) {
	now := time.Unix(1000, 0)
	limiter := NewRateLimiter(10, 1)
	limiter.now = func() time.Time { return now }

	assert.True(t, limiter.Allow("1.1.1.1"))
	assert.False(t, limiter.Allow("1.1.1.1"))

	now = now.Add(150 * time.Millisecond)
	assert.True(t, limiter.Allow("1.1.1.1"))
}

func TestRateLimiter_Cleanup(t *testing.T) {
	now := time.Unix(1000, 0)
	limiter := NewRateLimiter(10, 1)
	limiter.now = func() time.Time { return now }

	limiter.Allow("1.1.1.1")
	now = now.Add(time.Minute)
	limiter.Allow("2.2.2.2")
	require.Equal(t, 2, limiter.Len())

	limiter.Cleanup(30 * time.Second)
	assert.Equal(t, 1, limiter.Len())
}

func TestRequestID(t *testing.T) {
	var seen string
	handler := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", http.NoBody))
	assert.NotEqual(t, "unknown", seen)
	assert.Equal(t, seen, rr.Header().Get(RequestIDHeader))

	incoming := "6f1c1f57-63a4-4b57-9a7e-3a3f0a0f6a11"
	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.Header.Set(RequestIDHeader, incoming)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, incoming, seen)

	req = httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.Header.Set(RequestIDHeader, "<script>")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.NotEqual(t, "<script>", seen)

	assert.Equal(t, "unknown", GetRequestID(httptest.NewRequest(http.MethodGet, "/", http.NoBody)))
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	handler := RequestID()(Logging(createTestLogger(&buf))(http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
			_, _ = w.Write([]byte("short and stout"))
		})))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/scans?x=1", http.NoBody))

	assert.Equal(t, http.StatusTeapot, rr.Code)
	out := buf.String()
	assert.Contains(t, out, "HTTP request completed")
	assert.Contains(t, out, "status_code=418")
	assert.Contains(t, out, "response_size=15")
	assert.Contains(t, out, "path=/api/v1/scans")
}

func TestMetricsMiddleware(t *testing.T) {
	ctrl := gomock.NewController(t)
	recorder := mocks.NewMockRecorder(ctrl)

	router := mux.NewRouter()
	router.Use(Metrics(recorder))
	router.Handle("/api/v1/scans/{id}", okHandler()).Methods(http.MethodGet)

	recorder.EXPECT().HTTPRequest(http.MethodGet, "/api/v1/scans/{id}", http.StatusOK, gomock.Any())

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/scans/udp", http.NoBody))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestMetricsMiddlewareUnmatched(t *testing.T) {
	ctrl := gomock.NewController(t)
	recorder := mocks.NewMockRecorder(ctrl)
	recorder.EXPECT().HTTPRequest(http.MethodGet, "unmatched", http.StatusNotFound, gomock.Any())

	handler := Metrics(recorder)(http.NotFoundHandler())
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", http.NoBody))
}

func TestRecoveryMiddleware(t *testing.T) {
	var buf bytes.Buffer
	handler := Recovery(createTestLogger(&buf))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	require.NotPanics(t, func() {
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", http.NoBody))
	})

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "Internal server error", body["error"])
	assert.Contains(t, buf.String(), "panic recovered")
}

func TestAuthenticationMiddleware(t *testing.T) {
	key := "sv_" + strings.Repeat("k", auth.KeyLength)
	hash, err := auth.HashKey(key)
	require.NoError(t, err)

	var buf bytes.Buffer
	handler := Authentication(hash, createTestLogger(&buf))(okHandler())

	tests := []struct {
		name   string
		method string
		path   string
		header map[string]string
		want   int
	}{
		{"read is public", http.MethodGet, "/api/v1/scans", nil, http.StatusOK},
		{"health is public", http.MethodPost, "/api/v1/health", nil, http.StatusOK},
		{"missing key", http.MethodPost, "/api/v1/playback/start", nil, http.StatusUnauthorized},
		{"wrong key", http.MethodPost, "/api/v1/playback/start",
			map[string]string{APIKeyHeader: "sv_wrong"}, http.StatusUnauthorized},
		{"valid key", http.MethodPost, "/api/v1/playback/start",
			map[string]string{APIKeyHeader: key}, http.StatusOK},
		{"valid key again", http.MethodPut, "/api/v1/preferences/theme",
			map[string]string{APIKeyHeader: key}, http.StatusOK},
		{"bearer token", http.MethodPost, "/api/v1/playback/stop",
			map[string]string{"Authorization": "Bearer " + key}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, http.NoBody)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			assert.Equal(t, tt.want, rr.Code)
		})
	}

	assert.NotContains(t, buf.String(), key)
}

func TestRateLimitMiddleware(t *testing.T) {
	var buf bytes.Buffer
	limiter := NewRateLimiter(0.001, 2)
	handler := RateLimit(limiter, createTestLogger(&buf))(okHandler())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/scans", http.NoBody)
		req.RemoteAddr = "10.0.0.1:5555"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Contains(t, buf.String(), "Rate limit exceeded")
}

func TestContentTypeMiddleware(t *testing.T) {
	handler := ContentType()(okHandler())

	tests := []struct {
		method      string
		contentType string
		want        int
	}{
		{http.MethodGet, "text/plain", http.StatusOK},
		{http.MethodPost, "", http.StatusOK},
		{http.MethodPost, "application/json", http.StatusOK},
		{http.MethodPut, "application/json; charset=utf-8", http.StatusOK},
		{http.MethodPost, "text/plain", http.StatusUnsupportedMediaType},
		{http.MethodPut, "application/xml", http.StatusUnsupportedMediaType},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, "/", strings.NewReader("{}"))
		if tt.contentType != "" {
			req.Header.Set("Content-Type", tt.contentType)
		}
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, tt.want, rr.Code, "%s %q", tt.method, tt.contentType)
	}
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	rr := httptest.NewRecorder()
	SecurityHeaders()(okHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"remote addr", "192.168.1.1:12345", nil, "192.168.1.1"},
		{"ipv6 remote addr", "[::1]:8080", nil, "::1"},
		{"forwarded for", "10.0.0.1:1", map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.1"}, "203.0.113.5"},
		{"real ip", "10.0.0.1:1", map[string]string{"X-Real-IP": "203.0.113.9"}, "203.0.113.9"},
		{"bare address", "pipe", nil, "pipe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getClientIP(req))
		})
	}
}

func TestResponseWriter(t *testing.T) {
	rr := httptest.NewRecorder()
	rw := wrap(rr)

	rw.WriteHeader(http.StatusCreated)
	rw.WriteHeader(http.StatusOK)
	n, err := rw.Write([]byte("hello"))
	require.NoError(t, err)

	assert.Equal(t, 5, n)
	assert.Equal(t, http.StatusCreated, rw.statusCode)
	assert.Equal(t, 5, rw.size)

	_, _, err = rw.Hijack()
	assert.Error(t, err, "httptest recorder cannot be hijacked")
}
