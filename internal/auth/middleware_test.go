package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireBearerRejectsMissingToken(t *testing.T) {
	handler := RequireBearer(testIssuer(t), okHandler())

	r := httptest.NewRequest("GET", "/FEATURE", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
}

func TestRequireBearerRejectsInvalidToken(t *testing.T) {
	handler := RequireBearer(testIssuer(t), okHandler())

	r := httptest.NewRequest("GET", "/FEATURE", nil)
	r.Header.Set("Authorization", "Bearer garbage")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireBearerAllowsValidToken(t *testing.T) {
	issuer := testIssuer(t)
	tok, _, err := issuer.Issue(&User{Username: "budi", SupervisorID: "SPV1"})
	require.NoError(t, err)

	var subject string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, ok := ClaimsFromContext(r.Context()); ok {
			subject = c.Subject
		}
		w.WriteHeader(http.StatusOK)
	})

	r := httptest.NewRequest("POST", "/SUBMIT_VISIT", nil)
	r.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	RequireBearer(issuer, inner).ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "SPV1", subject)
}

func TestRequireBearerAllowsPublicPaths(t *testing.T) {
	handler := RequireBearer(testIssuer(t), okHandler())

	for _, path := range []string{"/login", "/health", "/metrics", "/api/apk-latest"} {
		r := httptest.NewRequest("GET", path, nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestRequireBearerGuardsVersionAdmin(t *testing.T) {
	handler := RequireBearer(testIssuer(t), okHandler())

	r := httptest.NewRequest("GET", "/api/admin/apk-versions", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter()
	now := time.Now()
	rl.now = func() time.Time { return now }

	for i := 0; i < rateLimitMaxFail-1; i++ {
		require.False(t, rl.RecordFailure("10.0.0.1"), "limited after %d failures", i+1)
	}
	require.False(t, rl.Limited("10.0.0.1"), "limited before max failures")
	assert.True(t, rl.RecordFailure("10.0.0.1"), "not limited at max failures")
	assert.True(t, rl.Limited("10.0.0.1"))
	assert.False(t, rl.Limited("10.0.0.2"), "other ip limited")

	now = now.Add(rateLimitWindow + time.Second)
	assert.False(t, rl.Limited("10.0.0.1"), "still limited after window passed")
}

func TestRateLimiterReset(t *testing.T) {
	rl := NewRateLimiter()
	for i := 0; i < rateLimitMaxFail; i++ {
		rl.RecordFailure("10.0.0.1")
	}
	rl.Reset("10.0.0.1")
	assert.False(t, rl.Limited("10.0.0.1"))
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "192.168.1.5:4321"
	assert.Equal(t, "192.168.1.5", ClientIP(r))
	r.RemoteAddr = "nohost"
	assert.Equal(t, "nohost", ClientIP(r))
}
