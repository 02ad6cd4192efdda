package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/notepeel/internal/config"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newLimiter(perMinute, perHour, perDay int, dataPerDay int64) (*RateLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(perMinute, perHour, perDay, dataPerDay)
	rl.now = clock.now
	return rl, clock
}

func TestRateLimiter_MinuteWindow(t *testing.T) {
	rl, clock := newLimiter(2, 0, 0, 0)

	require.NoError(t, rl.CheckRateLimit("a", 0))
	clock.advance(10 * time.Second)
	require.NoError(t, rl.CheckRateLimit("a", 0))

	clock.advance(10 * time.Second)
	err := rl.CheckRateLimit("a", 0)
	var rle *RateLimitError
	require.ErrorAs(t, err, &rle)
	assert.Equal(t, "minute", rle.Type)
	assert.Equal(t, 2, rle.Limit)
	assert.Equal(t, 40*time.Second, rle.RetryAfter)

	// other clients are unaffected
	require.NoError(t, rl.CheckRateLimit("b", 0))

	clock.advance(40 * time.Second)
	require.NoError(t, rl.CheckRateLimit("a", 0))
}

func TestRateLimiter_RejectedRequestsAreNotCounted(t *testing.T) {
	rl, clock := newLimiter(1, 0, 0, 0)

	require.NoError(t, rl.CheckRateLimit("a", 0))
	for range 5 {
		clock.advance(time.Second)
		require.Error(t, rl.CheckRateLimit("a", 0))
	}
	assert.Equal(t, 1, rl.GetUsage("a").RequestsThisMinute)
}

func TestRateLimiter_HourWindow(t *testing.T) {
	rl, clock := newLimiter(0, 3, 0, 0)

	for range 3 {
		require.NoError(t, rl.CheckRateLimit("a", 0))
		clock.advance(5 * time.Minute)
	}
	var rle *RateLimitError
	require.ErrorAs(t, rl.CheckRateLimit("a", 0), &rle)
	assert.Equal(t, "hour", rle.Type)
	assert.Equal(t, 45*time.Minute, rle.RetryAfter)
}

func TestRateLimiter_DailyQuotas(t *testing.T) {
	t.Run("requests", func(t *testing.T) {
		rl, clock := newLimiter(0, 0, 2, 0)
		require.NoError(t, rl.CheckRateLimit("a", 0))
		require.NoError(t, rl.CheckRateLimit("a", 0))

		var qe *QuotaExceededError
		require.ErrorAs(t, rl.CheckRateLimit("a", 0), &qe)
		assert.Equal(t, "requests", qe.Type)
		assert.Equal(t, int64(2), qe.Used)
		assert.Equal(t, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), qe.Resets)

		clock.advance(12 * time.Hour)
		require.NoError(t, rl.CheckRateLimit("a", 0), "quota resets at midnight")
	})

	t.Run("data", func(t *testing.T) {
		rl, _ := newLimiter(0, 0, 0, 100)
		require.NoError(t, rl.CheckRateLimit("a", 60))

		var qe *QuotaExceededError
		require.ErrorAs(t, rl.CheckRateLimit("a", 50), &qe)
		assert.Equal(t, "data", qe.Type)
		assert.Equal(t, int64(60), qe.Used)
		assert.Equal(t, int64(100), qe.Limit)

		require.NoError(t, rl.CheckRateLimit("a", 40))
		assert.Equal(t, int64(100), rl.GetUsage("a").BytesToday)
	})
}

func TestRateLimiter_GetUsageUnknownClient(t *testing.T) {
	rl, _ := newLimiter(1, 1, 1, 1)
	assert.Equal(t, Usage{}, rl.GetUsage("nobody"))
}

func TestRateLimiter_Concurrent(t *testing.T) {
	rl := NewRateLimiter(0, 0, 50, 0)

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if rl.CheckRateLimit("shared", 1) == nil {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, allowed)
}

func TestErrorMessages(t *testing.T) {
	rle := &RateLimitError{Type: "minute", Limit: 10, RetryAfter: 30 * time.Second}
	assert.Equal(t, "rate limit exceeded for minute (limit: 10, retry after: 30s)", rle.Error())

	qe := &QuotaExceededError{Type: "data", Limit: 100, Used: 90, Resets: time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)}
	assert.Equal(t, "quota exceeded for data (used: 90, limit: 100, resets: 2024-03-11T00:00:00Z)", qe.Error())
}

func TestRateLimitMiddleware(t *testing.T) {
	s := newTestServer(t, func(c *config.ServerConfig) {
		c.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1}
	})

	first := jsonRequest(t, "/analyze", AnalyzeRequest{Text: "Name: Ann"})
	first.RemoteAddr = "192.0.2.1:1234"
	assert.Equal(t, http.StatusOK, do(t, s, first).Code)

	second := jsonRequest(t, "/analyze", AnalyzeRequest{Text: "Name: Ann"})
	second.RemoteAddr = "192.0.2.1:5678"
	w := do(t, s, second)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "minute", w.Header().Get("X-RateLimit-Type"))
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "rate_limit_exceeded", body["error"])

	other := jsonRequest(t, "/analyze", AnalyzeRequest{Text: "Name: Ann"})
	other.RemoteAddr = "192.0.2.2:1234"
	assert.Equal(t, http.StatusOK, do(t, s, other).Code, "limits are per client")

	health := httptest.NewRequest(http.MethodGet, "/health", nil)
	health.RemoteAddr = "192.0.2.1:1234"
	assert.Equal(t, http.StatusOK, do(t, s, health).Code, "health is not rate limited")
}

func TestHandleRateLimitError_Quota(t *testing.T) {
	w := httptest.NewRecorder()
	resets := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	handleRateLimitError(w, httptest.NewRequest(http.MethodPost, "/analyze", nil),
		&QuotaExceededError{Type: "requests", Limit: 5, Used: 5, Resets: resets})

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "requests", w.Header().Get("X-Quota-Type"))
	assert.Equal(t, "5", w.Header().Get("X-Quota-Limit"))
	assert.Equal(t, "5", w.Header().Get("X-Quota-Used"))
	assert.Equal(t, "Mon, 11 Mar 2024 00:00:00 GMT", w.Header().Get("X-Quota-Resets"))
	assert.Contains(t, w.Body.String(), `"quota_exceeded"`)

	w = httptest.NewRecorder()
	handleRateLimitError(w, httptest.NewRequest(http.MethodPost, "/analyze", nil), errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"remote addr", nil, "203.0.113.5:4000", "203.0.113.5"},
		{"remote addr without port", nil, "203.0.113.5", "203.0.113.5"},
		{"forwarded for", map[string]string{"X-Forwarded-For": "198.51.100.1, 10.0.0.1"}, "10.0.0.2:1", "198.51.100.1"},
		{"real ip", map[string]string{"X-Real-IP": " 198.51.100.9 "}, "10.0.0.2:1", "198.51.100.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getClientIP(req))
		})
	}
}
