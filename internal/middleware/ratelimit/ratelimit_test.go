package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLimiter_Allow(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 2})
	defer rl.Stop()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatal("first two requests should pass")
	}
	if rl.Allow("a") {
		t.Error("third request should be limited")
	}
	if !rl.Allow("b") {
		t.Error("other clients are independent")
	}

	now = now.Add(time.Minute)
	if !rl.Allow("a") {
		t.Error("window should reset after a minute")
	}

	m := rl.GetMetrics()
	if m.TotalHits != 1 || m.ClientCount != 2 {
		t.Errorf("metrics = %+v", m)
	}
}

func TestLimiter_CleanupStaleEntries(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 5})
	defer rl.Stop()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	rl.Allow("old")

	now = now.Add(11 * time.Minute)
	rl.Allow("fresh")
	rl.cleanupStaleEntries()

	if got := rl.GetMetrics().ClientCount; got != 1 {
		t.Errorf("ClientCount = %d, want 1", got)
	}
}

func TestLimiter_StopTwice(t *testing.T) {
	rl := NewLimiter(DefaultConfig())
	rl.Stop()
	rl.Stop()
}

func TestMiddleware_OnlyLimitsWrites(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 1})
	defer rl.Stop()

	limited := 0
	h := rl.Middleware(
		func(*http.Request) string { return "client" },
		func(w http.ResponseWriter, r *http.Request) {
			limited++
			w.WriteHeader(http.StatusTooManyRequests)
		},
	)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	do := func(method string) int {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(method, "/api/expenses", nil))
		return rr.Code
	}

	for i := 0; i < 5; i++ {
		if code := do(http.MethodGet); code != http.StatusOK {
			t.Fatalf("GET #%d = %d", i, code)
		}
	}
	if code := do(http.MethodPost); code != http.StatusOK {
		t.Fatalf("first POST = %d", code)
	}
	if code := do(http.MethodDelete); code != http.StatusTooManyRequests {
		t.Fatalf("second write = %d, want 429", code)
	}
	if limited != 1 {
		t.Errorf("onLimit called %d times", limited)
	}
}
