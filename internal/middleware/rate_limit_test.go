package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/michelvankessel/nedcloud-website/internal/ratelimit"
	pkghttp "github.com/michelvankessel/nedcloud-website/pkg/http"
	pkglogger "github.com/michelvankessel/nedcloud-website/pkg/logger"
)

func newTestHandler(max int) http.Handler {
	limiter := ratelimit.New(ratelimit.Config{
		Auth:          ratelimit.Limit{Max: max, Window: time.Minute},
		API:           ratelimit.Limit{Max: 100, Window: time.Minute},
		SweepInterval: time.Minute,
	}, slog.Default())
	audit := pkglogger.NewAuditLogger(slog.Default())

	mw := RateLimit(limiter, ratelimit.ClassAuth, &pkghttp.IPConfig{}, audit)
	return mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func doRequest(handler http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRateLimit_AllowedRequestCarriesHeaders(t *testing.T) {
	handler := newTestHandler(10)

	rec := doRequest(handler, "203.0.113.7:51000")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "10", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "9", rec.Header().Get("X-RateLimit-Remaining"))

	reset, err := strconv.ParseInt(rec.Header().Get("X-RateLimit-Reset"), 10, 64)
	require.NoError(t, err)
	assert.Greater(t, reset, time.Now().Unix())
}

func TestRateLimit_DeniedRequestGets429(t *testing.T) {
	handler := newTestHandler(2)

	doRequest(handler, "203.0.113.7:51000")
	doRequest(handler, "203.0.113.7:51001")
	rec := doRequest(handler, "203.0.113.7:51002")

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Contains(t, rec.Body.String(), "rate_limit_exceeded")

	retryAfter, err := strconv.Atoi(rec.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.Greater(t, retryAfter, 0)
	assert.LessOrEqual(t, retryAfter, 60)
}

func TestRateLimit_KeyedByClientIP(t *testing.T) {
	handler := newTestHandler(1)

	first := doRequest(handler, "203.0.113.7:51000")
	assert.Equal(t, http.StatusOK, first.Code)

	// Same IP, different source port: same bucket
	blocked := doRequest(handler, "203.0.113.7:52000")
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)

	// Different IP: fresh bucket
	other := doRequest(handler, "198.51.100.9:51000")
	assert.Equal(t, http.StatusOK, other.Code)
}

func TestRateLimit_ForwardedHeaderIgnoredWithoutTrustedProxy(t *testing.T) {
	handler := newTestHandler(1)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.RemoteAddr = "203.0.113.7:51000"
	req.Header.Set("X-Forwarded-For", "10.0.0.1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// Spoofing a new forwarded IP must not grant a fresh bucket
	req2 := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req2.RemoteAddr = "203.0.113.7:51001"
	req2.Header.Set("X-Forwarded-For", "10.0.0.2")
	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, req2)
	assert.Equal(t, http.StatusTooManyRequests, rec2.Code)
}
