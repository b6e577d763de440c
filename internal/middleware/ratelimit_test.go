package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func testRateLimiter(t *testing.T, config RateLimiterConfig) *RateLimiter {
	t.Helper()
	rl := NewRateLimiter(config)
	t.Cleanup(rl.Stop)
	return rl
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// TestGeneralMiddleware_AllowsWithinBurst はバースト内のリクエストが通ることを検証する。
func TestGeneralMiddleware_AllowsWithinBurst(t *testing.T) {
	rl := testRateLimiter(t, RateLimiterConfig{
		GeneralRate:     rate.Limit(1),
		GeneralBurst:    3,
		MutationRate:    rate.Limit(1),
		MutationBurst:   1,
		CleanupInterval: time.Minute,
	})

	handler := rl.GeneralMiddleware()(okHandler())

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/units", nil)
		req.RemoteAddr = "203.0.113.1:1234"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("request %d status = %d, want %d", i, w.Code, http.StatusOK)
		}
	}
}

// TestGeneralMiddleware_BlocksOverBurst はバースト超過で429が返ることを検証する。
func TestGeneralMiddleware_BlocksOverBurst(t *testing.T) {
	rl := testRateLimiter(t, RateLimiterConfig{
		GeneralRate:     rate.Limit(0.5),
		GeneralBurst:    1,
		MutationRate:    rate.Limit(1),
		MutationBurst:   1,
		CleanupInterval: time.Minute,
	})

	handler := rl.GeneralMiddleware()(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/units", nil)
	req.RemoteAddr = "203.0.113.1:1234"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want %d", w.Code, http.StatusOK)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/units", nil)
	req.RemoteAddr = "203.0.113.1:1234"
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}
	if w.Header().Get("Retry-After") != "2" {
		t.Errorf("Retry-After = %q, want 2", w.Header().Get("Retry-After"))
	}

	var body rateLimitResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.RetryAfter != 2 {
		t.Errorf("retry_after = %d, want 2", body.RetryAfter)
	}
}

// TestGeneralMiddleware_PerClientIsolation はIPごとに独立したリミッターが
// 使われることを検証する。
func TestGeneralMiddleware_PerClientIsolation(t *testing.T) {
	rl := testRateLimiter(t, RateLimiterConfig{
		GeneralRate:     rate.Limit(0.1),
		GeneralBurst:    1,
		MutationRate:    rate.Limit(1),
		MutationBurst:   1,
		CleanupInterval: time.Minute,
	})

	handler := rl.GeneralMiddleware()(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/units", nil)
	req.RemoteAddr = "203.0.113.1:1234"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	// 別IPはバーストを消費していないので通る
	req = httptest.NewRequest(http.MethodGet, "/api/units", nil)
	req.RemoteAddr = "203.0.113.2:1234"
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("different client status = %d, want %d", w.Code, http.StatusOK)
	}

	if rl.GeneralLimiterCount() != 2 {
		t.Errorf("GeneralLimiterCount = %d, want 2", rl.GeneralLimiterCount())
	}
}

// TestMutationMiddleware_IndependentOfGeneral は更新系リミッターが
// API全般リミッターと独立であることを検証する。
func TestMutationMiddleware_IndependentOfGeneral(t *testing.T) {
	rl := testRateLimiter(t, RateLimiterConfig{
		GeneralRate:     rate.Limit(100),
		GeneralBurst:    100,
		MutationRate:    rate.Limit(0.1),
		MutationBurst:   1,
		CleanupInterval: time.Minute,
	})

	general := rl.GeneralMiddleware()(okHandler())
	mutation := rl.MutationMiddleware()(okHandler())

	// 更新系バーストを使い切る
	req := httptest.NewRequest(http.MethodPost, "/api/units", nil)
	req.RemoteAddr = "203.0.113.1:1234"
	w := httptest.NewRecorder()
	mutation.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("first mutation status = %d", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/units", nil)
	req.RemoteAddr = "203.0.113.1:1234"
	mutation.ServeHTTP(w, req)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("second mutation status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}

	// API全般のリミッターには影響しない
	req = httptest.NewRequest(http.MethodGet, "/api/units", nil)
	req.RemoteAddr = "203.0.113.1:1234"
	w = httptest.NewRecorder()
	general.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("general after mutation limit status = %d, want %d", w.Code, http.StatusOK)
	}
}

// TestClientIP はクライアントIPの解決規則を検証する。
func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		want       string
	}{
		{"remote addr only", "203.0.113.1:1234", "", "203.0.113.1"},
		{"x-forwarded-for single", "10.0.0.1:1234", "198.51.100.7", "198.51.100.7"},
		{"x-forwarded-for chain", "10.0.0.1:1234", "198.51.100.7, 10.0.0.2, 10.0.0.3", "198.51.100.7"},
		{"x-forwarded-for with spaces", "10.0.0.1:1234", "  198.51.100.7 , 10.0.0.2", "198.51.100.7"},
		{"no port", "203.0.113.1", "", "203.0.113.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if got := clientIP(req); got != tt.want {
				t.Errorf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
