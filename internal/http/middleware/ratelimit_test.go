package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestKeyByUserOrIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	keyFn := KeyByUserOrIP()

	{ // context identity wins
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		c.Set("userID", "u1")
		if got := keyFn(c); got != "user:u1" {
			t.Errorf("key = %q, want user:u1", got)
		}
	}
	{ // header identity next
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		c.Request.Header.Set("X-User-ID", "u2")
		if got := keyFn(c); got != "user:u2" {
			t.Errorf("key = %q, want user:u2", got)
		}
	}
	{ // fall back to client IP
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		c.Request.RemoteAddr = "203.0.113.7:1234"
		if got := keyFn(c); got != "ip:203.0.113.7" {
			t.Errorf("key = %q, want ip:203.0.113.7", got)
		}
	}
}

func TestRateLimiter_EnforcesBurst(t *testing.T) {
	gin.SetMode(gin.TestMode)
	// Zero refill with burst 2: exactly two requests pass.
	rl := NewRateLimiter(0, 2, func(*gin.Context) string { return "fixed" })
	r := gin.New()
	r.Use(rl.Handler())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, w.Code)
	}
	want := []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}
	for i := range want {
		if codes[i] != want[i] {
			t.Fatalf("request %d: status = %d, want %d (all: %v)", i, codes[i], want[i], codes)
		}
	}
}

func TestRateLimiter_429Body(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(0, 1, func(*gin.Context) string { return "k" })
	r := gin.New()
	r.Use(rl.Handler())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "1" {
		t.Errorf("Retry-After = %q", got)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body["code"] != "rate_limited" {
		t.Errorf("body = %v", body)
	}
}

func TestRateLimiter_SeparateBucketsPerKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(0, 1, func(c *gin.Context) string { return c.GetHeader("X-User-ID") })
	r := gin.New()
	r.Use(rl.Handler())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	hit := func(user string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-User-ID", user)
		r.ServeHTTP(w, req)
		return w.Code
	}

	if hit("alice") != http.StatusOK {
		t.Fatal("alice's first request should pass")
	}
	if hit("alice") != http.StatusTooManyRequests {
		t.Fatal("alice's second request should be limited")
	}
	if hit("bob") != http.StatusOK {
		t.Fatal("bob gets a separate bucket")
	}
}

func TestRateLimiter_ReplayBypass(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(0, 1, func(*gin.Context) string { return "k" })
	r := gin.New()
	// Simulate the idempotency validator flagging a replay.
	r.Use(func(c *gin.Context) { c.Set(ctxKeyRateBypass, true); c.Next() })
	r.Use(rl.Handler())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("replay %d limited: status = %d", i, w.Code)
		}
	}
}

func TestRateLimiter_SweepEvictsIdleBuckets(t *testing.T) {
	rl := NewRateLimiter(1, 1, func(*gin.Context) string { return "" })
	rl.idleTTL = 10 * time.Millisecond
	rl.sweepEvery = 0 // sweep on every lookup

	rl.take("stale")
	rl.mu.Lock()
	rl.buckets["stale"].lastSeen = time.Now().Add(-time.Second)
	rl.mu.Unlock()

	rl.take("fresh")

	rl.mu.Lock()
	_, staleAlive := rl.buckets["stale"]
	_, freshAlive := rl.buckets["fresh"]
	rl.mu.Unlock()
	if staleAlive {
		t.Error("idle bucket should have been swept")
	}
	if !freshAlive {
		t.Error("fresh bucket should remain")
	}
}

func TestRateLimiter_BurstCoercedToOne(t *testing.T) {
	rl := NewRateLimiter(1, 0, KeyByUserOrIP())
	if rl.burst != 1 {
		t.Fatalf("burst = %d, want 1", rl.burst)
	}
}
