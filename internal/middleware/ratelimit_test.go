package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func testRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     rate.Limit(1.0 / 60.0),
		GeneralBurst:    3,
		WebhookRate:     rate.Limit(1.0 / 30.0),
		WebhookBurst:    2,
		CleanupInterval: time.Hour,
	}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func authedRequest(clerkUserID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/job_listings", nil)
	return req.WithContext(ContextWithClerkUserID(req.Context(), clerkUserID))
}

func TestGeneralMiddleware_LimitsPerUser(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig())
	defer rl.Stop()
	handler := rl.GeneralMiddleware()(okHandler())

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, authedRequest("user_a"))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, w.Code)
		}
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, authedRequest("user_a"))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "60" {
		t.Errorf("Retry-After = %q, want 60", got)
	}
	var body ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("429 body is not JSON: %v", err)
	}
	if body.Code != "RATE_LIMIT_EXCEEDED" {
		t.Errorf("code = %q", body.Code)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, authedRequest("user_b"))
	if w.Code != http.StatusOK {
		t.Errorf("other user should not be limited, got %d", w.Code)
	}
	if rl.GeneralLimiterCount() != 2 {
		t.Errorf("GeneralLimiterCount = %d, want 2", rl.GeneralLimiterCount())
	}
}

func TestGeneralMiddleware_WithoutUser_Returns401(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig())
	defer rl.Stop()

	w := httptest.NewRecorder()
	rl.GeneralMiddleware()(okHandler()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestWebhookMiddleware_LimitsPerRemoteAddress(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig())
	defer rl.Stop()
	handler := rl.WebhookMiddleware()(okHandler())

	send := func(remote string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/webhook/clerk", nil)
		req.RemoteAddr = remote
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	// 同一ホストはポートが異なっても同じバケットを共有する
	if got := send("203.0.113.5:1000"); got != http.StatusOK {
		t.Fatalf("first: %d", got)
	}
	if got := send("203.0.113.5:2000"); got != http.StatusOK {
		t.Fatalf("second: %d", got)
	}
	if got := send("203.0.113.5:3000"); got != http.StatusTooManyRequests {
		t.Fatalf("third: %d, want 429", got)
	}
	if got := send("198.51.100.7:1000"); got != http.StatusOK {
		t.Errorf("other address: %d, want 200", got)
	}
	if rl.WebhookLimiterCount() != 2 {
		t.Errorf("WebhookLimiterCount = %d, want 2", rl.WebhookLimiterCount())
	}
}

func TestWebhookMiddleware_IndependentFromGeneral(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig())
	defer rl.Stop()

	general := rl.GeneralMiddleware()(okHandler())
	for i := 0; i < 5; i++ {
		general.ServeHTTP(httptest.NewRecorder(), authedRequest("user_a"))
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/webhook/clerk", nil)
	w := httptest.NewRecorder()
	rl.WebhookMiddleware()(okHandler()).ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("webhook status = %d, want 200", w.Code)
	}
}

func TestRateLimiter_CleanupRemovesExpiredEntries(t *testing.T) {
	cfg := testRateLimiterConfig()
	cfg.CleanupInterval = time.Millisecond
	rl := NewRateLimiter(cfg)
	rl.Stop()

	rl.GeneralMiddleware()(okHandler()).ServeHTTP(httptest.NewRecorder(), authedRequest("user_a"))
	rl.WebhookMiddleware()(okHandler()).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", nil))

	time.Sleep(5 * time.Millisecond)
	rl.cleanup()

	if rl.GeneralLimiterCount() != 0 || rl.WebhookLimiterCount() != 0 {
		t.Errorf("entries remain: general=%d webhook=%d", rl.GeneralLimiterCount(), rl.WebhookLimiterCount())
	}
}

func TestDefaultRateLimiterConfig(t *testing.T) {
	cfg := DefaultRateLimiterConfig()
	if perMin := float64(cfg.GeneralRate) * 60; perMin < 119.9 || perMin > 120.1 {
		t.Errorf("general rate = %v req/min, want 120", perMin)
	}
	if cfg.WebhookRate <= cfg.GeneralRate {
		t.Errorf("webhook rate %v should exceed general rate %v", cfg.WebhookRate, cfg.GeneralRate)
	}
	if cfg.CleanupInterval <= 0 {
		t.Error("cleanup interval must be positive")
	}
}

func TestWriteRateLimitResponse_RetryAfterAtLeastOneSecond(t *testing.T) {
	w := httptest.NewRecorder()
	writeRateLimitResponse(w, rate.Limit(50))
	if got, _ := strconv.Atoi(w.Header().Get("Retry-After")); got != 1 {
		t.Errorf("Retry-After = %d, want 1", got)
	}
}
